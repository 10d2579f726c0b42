package service

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/stemsi/dataprocessor/internal/config"
)

// Sentinel errors for uploads and downloads.
var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrInvalidFileName     = errors.New("invalid file name")
	ErrFileNotFound        = errors.New("file not found")
)

// stagingDir holds uploads waiting for the import worker, relative to the data dir.
const stagingDir = "imports"

const writeBufferSize = 256 << 10

// maxNameAttempts bounds the counter suffixes tried by WriteTimestamped.
const maxNameAttempts = 100

// Upload is a file received from a multipart form.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// FileService manages the data directory: generated workbooks, converted
// CSVs and staged imports.
type FileService struct {
	dataDir        string
	maxUploadBytes int64
	clock          clockwork.Clock
}

// NewFileService creates a new FileService.
func NewFileService(cfg *config.Config, clock clockwork.Clock) *FileService {
	return &FileService{
		dataDir:        cfg.DataDir,
		maxUploadBytes: cfg.MaxUploadBytes,
		clock:          clock,
	}
}

// MaxUploadBytes returns the upload size limit. Zero means unlimited.
func (s *FileService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// CheckUpload validates the extension and size of u. The extension match is
// case-insensitive; contentTypes lists MIME types accepted for any name.
func (s *FileService) CheckUpload(u Upload, ext string, contentTypes ...string) error {
	if !strings.EqualFold(filepath.Ext(u.Name), ext) && !hasMediaType(u.ContentType, contentTypes) {
		return fmt.Errorf("%w: %q (allowed: %s)", ErrUnsupportedFileType, u.Name, ext)
	}

	if s.maxUploadBytes > 0 && u.Size > s.maxUploadBytes {
		return fmt.Errorf("%w: %d bytes (max: %d)", ErrFileTooLarge, u.Size, s.maxUploadBytes)
	}
	return nil
}

func hasMediaType(contentType string, allowed []string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(mediaType, a) {
			return true
		}
	}
	return false
}

// WriteTimestamped creates "<prefix>_<unixMillis><ext>" in the data directory
// from the output of fill and returns its name and path. An existing file is
// never replaced: when the name is taken a counter is appended, as in
// "<prefix>_<unixMillis>_1<ext>". The file only appears once fill succeeded;
// on failure nothing is left behind.
func (s *FileService) WriteTimestamped(prefix, ext string, fill func(w io.Writer) error) (string, string, error) {
	stamp := s.clock.Now().UnixMilli()
	if first := fmt.Sprintf("%s_%d%s", prefix, stamp, ext); !validFileName(first) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidFileName, first)
	}

	tmp, err := writeTemp(s.dataDir, prefix+ext, fill)
	if err != nil {
		return "", "", err
	}
	defer os.Remove(tmp)

	for i := 0; i < maxNameAttempts; i++ {
		name := fmt.Sprintf("%s_%d%s", prefix, stamp, ext)
		if i > 0 {
			name = fmt.Sprintf("%s_%d_%d%s", prefix, stamp, i, ext)
		}
		dest := filepath.Join(s.dataDir, name)

		// Link fails instead of replacing an existing file.
		err := os.Link(tmp, dest)
		if err == nil {
			return name, dest, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", "", fmt.Errorf("publish file: %w", err)
		}
	}
	return "", "", fmt.Errorf("publish file: %s_%d%s and %d alternatives exist", prefix, stamp, ext, maxNameAttempts-1)
}

// Stage copies an import upload to the staging area under id.
func (s *FileService) Stage(id string, r io.Reader) (string, error) {
	return writeAtomic(filepath.Join(s.dataDir, stagingDir), id+".csv", func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
}

// StagedPath returns where Stage put the upload for id.
func (s *FileService) StagedPath(id string) string {
	return filepath.Join(s.dataDir, stagingDir, id+".csv")
}

// RemoveStaged deletes the staged upload for id. A missing file is not an error.
func (s *FileService) RemoveStaged(id string) error {
	err := os.Remove(s.StagedPath(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Open opens a stored file for download. name must be a bare file name.
// The caller must close the returned file.
func (s *FileService) Open(name string) (*os.File, fs.FileInfo, error) {
	if !validFileName(name) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	f, err := os.Open(filepath.Join(s.dataDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, nil, fmt.Errorf("open file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return f, info, nil
}

// validFileName accepts a single path element that is not hidden.
// Temporary files are dot-prefixed, so they can never be downloaded.
func validFileName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return false
	}
	return filepath.Base(name) == name
}

func writeAtomic(dir, name string, fill func(w io.Writer) error) (string, error) {
	tmp, err := writeTemp(dir, name, fill)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, name)
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("rename file: %w", err)
	}
	return dest, nil
}

// writeTemp writes the output of fill to a hidden temporary file in dir and
// returns its path.
func writeTemp(dir, name string, fill func(w io.Writer) error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*.part")
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	bw := bufio.NewWriterSize(tmp, writeBufferSize)
	err = fill(bw)
	if err == nil {
		err = bw.Flush()
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
