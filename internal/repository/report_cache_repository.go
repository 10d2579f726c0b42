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

// ReportCacheRepository stores rendered report pages in Redis.
//
// Page keys embed a generation counter. Bumping the counter after an import
// makes every previously cached page unreachable; the old keys expire on
// their own TTL.
type ReportCacheRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewReportCacheRepository creates a new ReportCacheRepository.
func NewReportCacheRepository(rdb *redis.Client, ttl time.Duration) *ReportCacheRepository {
	return &ReportCacheRepository{rdb: rdb, ttl: ttl}
}

// Generation returns the current cache generation, 0 if never bumped.
func (r *ReportCacheRepository) Generation(ctx context.Context) (int64, error) {
	gen, err := r.rdb.Get(ctx, config.CacheKey.ReportGenerationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetPage returns the cached page for fingerprint, or ok=false on a miss.
func (r *ReportCacheRepository) GetPage(ctx context.Context, generation int64, fingerprint string) (*model.Page[model.Student], bool, error) {
	data, err := r.rdb.Get(ctx, config.CacheKey.ReportPageKey(generation, fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var page model.Page[model.Student]
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false, err
	}
	return &page, true, nil
}

// SetPage caches page under generation. Pass the generation read before the
// page was loaded so a concurrent bump is never masked.
func (r *ReportCacheRepository) SetPage(ctx context.Context, generation int64, fingerprint string, page *model.Page[model.Student]) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, config.CacheKey.ReportPageKey(generation, fingerprint), data, r.ttl).Err()
}

// Bump advances the generation, invalidating every cached page.
func (r *ReportCacheRepository) Bump(ctx context.Context) error {
	return r.rdb.Incr(ctx, config.CacheKey.ReportGenerationKey()).Err()
}
