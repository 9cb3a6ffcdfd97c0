// Package cache provides an optional Redis-backed store for
// promexpo.ScrapeState's per-scraper last-access timestamps, so a
// Prometheus exposition endpoint fronted by multiple engine processes
// still gives each scraper a consistent incremental window instead of one
// process's in-memory map diverging from another's. The engine itself
// uses the in-memory ScrapeState and does not construct this store; it
// has no config key of its own.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultAddr     = "localhost:6379"
	defaultPoolSize = 10
	defaultTTL      = time.Hour
)

// Config holds Redis connection settings.
type Config struct {
	Addr     string `yaml:"addr"`
	PoolSize int    `yaml:"pool_size"`
}

// DefaultConfig returns lean defaults.
func DefaultConfig() Config {
	return Config{Addr: defaultAddr, PoolSize: defaultPoolSize}
}

// ScrapeStateStore backs promexpo.ScrapeState with Redis so the last-access
// table survives process restarts and is shared across replicas.
type ScrapeStateStore struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// New creates and pings a Redis connection.
func New(cfg Config, logger *zap.Logger) (*ScrapeStateStore, error) {
	if cfg.Addr == "" {
		cfg = DefaultConfig()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cache: ping %s: %w", cfg.Addr, err)
	}

	logger.Info("scrape state cache connected", zap.String("addr", cfg.Addr))
	return &ScrapeStateStore{client: client, logger: logger, ttl: defaultTTL}, nil
}

// Window returns [lastAccess, now) for key, the same contract as
// promexpo.ScrapeState.Window, and records now as the new last access. A
// key with no stored value (first scrape, or one that expired) gets since
// as its lower bound.
func (s *ScrapeStateStore) Window(ctx context.Context, key string, now, since time.Time) (time.Time, time.Time) {
	after := since

	val, err := s.client.Get(ctx, key).Result()
	if err == nil {
		if unix, perr := strconv.ParseInt(val, 10, 64); perr == nil {
			after = time.Unix(unix, 0)
		}
	} else if err != redis.Nil {
		s.logger.Warn("scrape state cache read failed, using default window", zap.String("key", key), zap.Error(err))
	}

	if err := s.client.Set(ctx, key, now.Unix(), s.ttl).Err(); err != nil {
		s.logger.Warn("scrape state cache write failed", zap.String("key", key), zap.Error(err))
	}
	return after, now
}

// Close closes the Redis connection.
func (s *ScrapeStateStore) Close() error {
	return s.client.Close()
}
