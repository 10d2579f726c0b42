package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stemsi/dataprocessor/internal/config"
	"github.com/stemsi/dataprocessor/internal/model"
	"github.com/stemsi/dataprocessor/internal/repository"
)

var testNow = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func newTestFiles(t *testing.T) (*FileService, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClockAt(testNow)
	cfg := &config.Config{DataDir: t.TempDir(), MaxUploadBytes: 1 << 20}
	return NewFileService(cfg, clock), clock
}

// fakeStudents drains copy sources into memory and serves them back.
type fakeStudents struct {
	mu        sync.Mutex
	rows      [][]any
	importErr error
	listErr   error

	list      []model.Student
	total     int64
	listCalls int
	lastLimit int
	lastOff   int
}

func (f *fakeStudents) Import(_ context.Context, src pgx.CopyFromSource) (int64, error) {
	var n int64
	for src.Next() {
		values, err := src.Values()
		if err != nil {
			return n, err
		}
		f.mu.Lock()
		f.rows = append(f.rows, values)
		f.mu.Unlock()
		n++
	}
	if err := src.Err(); err != nil {
		return n, err
	}
	if f.importErr != nil {
		return 0, f.importErr
	}
	return n, nil
}

func (f *fakeStudents) ListPaginated(ctx context.Context, filter model.StudentFilter, limit, offset int) ([]model.Student, int64, error) {
	students, err := f.List(ctx, filter, limit, offset)
	return students, f.total, err
}

func (f *fakeStudents) List(_ context.Context, _ model.StudentFilter, limit, offset int) ([]model.Student, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	f.lastLimit, f.lastOff = limit, offset
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.list, nil
}

type fakeJobs struct {
	mu         sync.Mutex
	jobs       map[string]model.ImportJob
	queued     []string
	enqueueErr error
	history    []model.ImportJobStatus
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: map[string]model.ImportJob{}}
}

func (f *fakeJobs) Enqueue(_ context.Context, job *model.ImportJob) error {
	if f.enqueueErr != nil {
		return f.enqueueErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	f.queued = append(f.queued, job.ID)
	return nil
}

func (f *fakeJobs) Save(_ context.Context, job *model.ImportJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[job.ID] = *job
	f.history = append(f.history, job.Status)
	return nil
}

func (f *fakeJobs) Get(_ context.Context, id string) (*model.ImportJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[id]
	if !ok {
		return nil, repository.ErrImportJobNotFound
	}
	return &job, nil
}

// fakeCache is an in-memory ReportCache and CacheInvalidator.
type fakeCache struct {
	mu         sync.Mutex
	generation int64
	pages      map[string]model.Page[model.Student]
	genErr     error
	getErr     error
	bumps      int
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: map[string]model.Page[model.Student]{}}
}

func (f *fakeCache) key(gen int64, fp string) string {
	return fmt.Sprintf("%d:%s", gen, fp)
}

func (f *fakeCache) Generation(context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generation, f.genErr
}

func (f *fakeCache) GetPage(_ context.Context, gen int64, fp string) (*model.Page[model.Student], bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	page, ok := f.pages[f.key(gen, fp)]
	if !ok {
		return nil, false, nil
	}
	return &page, true, nil
}

func (f *fakeCache) SetPage(_ context.Context, gen int64, fp string, page *model.Page[model.Student]) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[f.key(gen, fp)] = *page
	return nil
}

func (f *fakeCache) Bump(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumps++
	f.generation++
	return nil
}

var errBoom = errors.New("boom")
