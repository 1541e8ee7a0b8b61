// Package cache stores computed reports for a short TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// ReportCache keeps aggregated reports keyed by scope and date range.
type ReportCache interface {
	Get(ctx context.Context, key string) (*domain.ReportStats, bool, error)
	Set(ctx context.Context, key string, stats *domain.ReportStats) error
}

// RedisReportCache stores reports as JSON with a TTL.
type RedisReportCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisReportCache builds a cache over client.
func NewRedisReportCache(client *redis.Client, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{client: client, ttl: ttl, prefix: "helpdesk:reports:"}
}

func (c *RedisReportCache) Get(ctx context.Context, key string) (*domain.ReportStats, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get report: %w", err)
	}
	var stats domain.ReportStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode cached report: %w", err)
	}
	return &stats, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, stats *domain.ReportStats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set report: %w", err)
	}
	return nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) (*domain.ReportStats, bool, error) { return nil, false, nil }
func (Noop) Set(context.Context, string, *domain.ReportStats) error         { return nil }
