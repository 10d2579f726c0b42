package worker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/dataprocessor/internal/config"
)

const (
	ImportPollTimeout  = 1 * time.Second
	ImportErrorBackoff = 2 * time.Second
)

// JobProcessor runs one queued import. Implemented by service.ImportService.
type JobProcessor interface {
	ProcessJob(ctx context.Context, id string) error
}

// ImportWorker moves job ids from the import queue to the processing list and
// runs them one at a time. An id leaves the processing list only after its
// job ran, so ids left behind by a crash are requeued on the next Start.
type ImportWorker struct {
	jobs JobProcessor
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewImportWorker(jobs JobProcessor, rdb *redis.Client, log zerolog.Logger) *ImportWorker {
	return &ImportWorker{
		jobs: jobs,
		rdb:  rdb,
		log:  log.With().Str("component", "import_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop
// ----------------------------------------------------------------

// Start blocks until ctx is cancelled. A job in progress at shutdown is
// cancelled with ctx and recorded as failed.
func (w *ImportWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ImportWorker started")
	w.requeueInterrupted(ctx)

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. ImportWorker stopped")
			return

		default:
			id, err := w.rdb.BLMove(ctx,
				config.WorkerKey.ImportQueue, config.WorkerKey.ImportProcessing,
				"LEFT", "RIGHT", ImportPollTimeout).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLMove error")
					w.backoff(ctx)
				}
				continue
			}

			w.process(ctx, id)
			w.ack(ctx, id)
		}
	}
}

// requeueInterrupted puts ids still on the processing list back at the head
// of the queue, oldest first.
func (w *ImportWorker) requeueInterrupted(ctx context.Context) {
	n := 0
	for {
		_, err := w.rdb.LMove(ctx,
			config.WorkerKey.ImportProcessing, config.WorkerKey.ImportQueue,
			"RIGHT", "LEFT").Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				w.log.Error().Err(err).Msg("Failed to requeue interrupted import jobs")
			}
			break
		}
		n++
	}
	if n > 0 {
		w.log.Warn().Int("jobs", n).Msg("Requeued interrupted import jobs")
	}
}

// ack removes id from the processing list. It runs after shutdown too, since
// a cancelled job has already been recorded as failed.
func (w *ImportWorker) ack(ctx context.Context, id string) {
	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := w.rdb.LRem(ackCtx, config.WorkerKey.ImportProcessing, 1, id).Err(); err != nil {
		w.log.Error().Err(err).Str("job_id", id).Msg("Failed to acknowledge import job")
	}
}

func (w *ImportWorker) process(ctx context.Context, id string) {
	start := time.Now()
	log := w.log.With().Str("job_id", id).Logger()
	log.Info().Msg("Processing import job")

	if err := w.jobs.ProcessJob(ctx, id); err != nil {
		log.Error().Err(err).Msg("Import job bookkeeping failed")
		return
	}

	log.Info().Dur("took", time.Since(start)).Msg("Import job finished")
}

// backoff keeps a Redis outage from turning the loop into a busy spin.
func (w *ImportWorker) backoff(ctx context.Context) {
	t := time.NewTimer(ImportErrorBackoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
