package sheet

import (
	"context"
	"io"
	"math/rand/v2"

	"github.com/rs/zerolog"
)

// GenerateCSV runs the generator straight into the converter: count random
// students are written as a workbook and converted to CSV on w, exactly as
// if the workbook had been generated, downloaded and uploaded again.
func GenerateCSV(ctx context.Context, w io.Writer, count int, rng *rand.Rand, log zerolog.Logger) (ConvertStats, error) {
	pr, pw := io.Pipe()

	go func() {
		pw.CloseWithError(WriteWorkbook(ctx, pw, count, rng))
	}()

	stats, err := ConvertWorkbook(ctx, pr, w, log)
	// Unblocks the generator if conversion stopped early.
	pr.CloseWithError(err)
	return stats, err
}
