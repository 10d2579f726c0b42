package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/dataprocessor/internal/config"
	"github.com/stemsi/dataprocessor/internal/model"
)

// ErrImportJobNotFound is returned when a job id is unknown or expired.
var ErrImportJobNotFound = errors.New("import job not found")

// ImportJobRepository keeps background import jobs in Redis.
type ImportJobRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewImportJobRepository creates a new ImportJobRepository.
func NewImportJobRepository(rdb *redis.Client, ttl time.Duration) *ImportJobRepository {
	return &ImportJobRepository{rdb: rdb, ttl: ttl}
}

// Enqueue stores job and pushes its id onto the import queue in one round trip.
func (r *ImportJobRepository) Enqueue(ctx context.Context, job *model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.ImportJobKey(job.ID), data, r.ttl)
	pipe.RPush(ctx, config.WorkerKey.ImportQueue, job.ID)
	_, err = pipe.Exec(ctx)
	return err
}

// Save overwrites the stored state of job and refreshes its TTL.
func (r *ImportJobRepository) Save(ctx context.Context, job *model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, config.CacheKey.ImportJobKey(job.ID), data, r.ttl).Err()
}

// Get loads a job by id.
func (r *ImportJobRepository) Get(ctx context.Context, id string) (*model.ImportJob, error) {
	data, err := r.rdb.Get(ctx, config.CacheKey.ImportJobKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrImportJobNotFound
		}
		return nil, err
	}

	var job model.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
