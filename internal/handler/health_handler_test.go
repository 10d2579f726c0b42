package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth_Degraded(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	h := NewHealthHandler(pingerFunc(func(context.Context) error { return nil }), rdb, zerolog.Nop())
	r := gin.New()
	r.GET("/health", h.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	body := decode[healthStatus](t, w)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "up", body.Postgres)
	assert.Equal(t, "down", body.Redis)
	assert.NotEmpty(t, body.GoVersion)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0m 42s", formatDuration(42*time.Second))
	assert.Equal(t, "2h 5m 0s", formatDuration(2*time.Hour+5*time.Minute))
	assert.Equal(t, "1d 1h 0m 1s", formatDuration(25*time.Hour+time.Second))
}
