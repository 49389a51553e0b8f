// Package cache provides Redis caching for plan results keyed by an input
// snapshot fingerprint, so re-planning an unchanged world skips the full
// optimization. Payloads are gzip-compressed JSON.
package cache

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/airfreight/cargoplan/internal/metrics"
	"github.com/airfreight/cargoplan/internal/planning"
)

// ErrCacheMiss is returned when no plan is cached for a fingerprint.
var ErrCacheMiss = fmt.Errorf("plan cache miss")

// PlanCache provides Redis caching for plan results
type PlanCache struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewPlanCache creates a new plan cache
func NewPlanCache(redisClient *redis.Client) *PlanCache {
	return &PlanCache{
		redis: redisClient,
		ttl:   1 * time.Hour,
	}
}

// Get retrieves a cached plan for the fingerprint (see
// planning.Fingerprint), or ErrCacheMiss.
func (c *PlanCache) Get(ctx context.Context, fingerprint string) (*planning.PlanResult, error) {
	data, err := c.redis.Get(ctx, planKey(fingerprint)).Bytes()
	if err == redis.Nil {
		metrics.CacheMissesTotal.Inc()
		return nil, ErrCacheMiss
	}
	if err != nil {
		metrics.CacheMissesTotal.Inc()
		return nil, fmt.Errorf("failed to read plan cache: %w", err)
	}

	res, err := c.decompress(data)
	if err != nil {
		// A corrupt entry behaves like a miss; the caller replans.
		metrics.CacheMissesTotal.Inc()
		return nil, ErrCacheMiss
	}
	metrics.CacheHitsTotal.Inc()
	return res, nil
}

// Set stores a plan result with compression
func (c *PlanCache) Set(ctx context.Context, fingerprint string, res *planning.PlanResult) error {
	compressed, err := c.compress(res)
	if err != nil {
		return fmt.Errorf("failed to compress plan: %w", err)
	}

	if err := c.redis.Set(ctx, planKey(fingerprint), compressed, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set plan cache: %w", err)
	}

	return nil
}

func planKey(fingerprint string) string {
	return "plan:" + fingerprint
}

// compress marshals a plan to JSON and gzips it
func (c *PlanCache) compress(res *planning.PlanResult) ([]byte, error) {
	jsonData, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err := gzipWriter.Write(jsonData); err != nil {
		return nil, err
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// decompress gunzips and unmarshals a cached plan
func (c *PlanCache) decompress(data []byte) (*planning.PlanResult, error) {
	gzipReader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gzipReader.Close()

	jsonData, err := io.ReadAll(gzipReader)
	if err != nil {
		return nil, err
	}

	var res planning.PlanResult
	if err := json.Unmarshal(jsonData, &res); err != nil {
		return nil, err
	}

	return &res, nil
}
