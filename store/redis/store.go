// Package redis implements the durable queue on Redis. Record ids come from
// INCR on a counter, serialized actions are stored in a Hash, and a Sorted
// Set scored by id gives the restore order.
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	s := redisstore.New(client)
//	if err := s.Ping(ctx); err != nil { ... }
package redis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/courier"
	"github.com/xraph/courier/persist"
	"github.com/xraph/courier/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithKeyPrefix namespaces every key, so several engines can share one
// Redis database.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// Store implements store.Store backed by Redis.
type Store struct {
	client goredis.Cmdable
	prefix string
	logger *slog.Logger
}

// New creates a new Redis-backed store. The caller owns the Redis client
// lifecycle.
func New(client goredis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, prefix: defaultKeyPrefix, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client.
func (s *Store) Client() goredis.Cmdable { return s.client }

// Migrate is a no-op for Redis (schemaless).
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping verifies the Redis connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op; the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }

// Persist allocates an id and stores data under it.
func (s *Store) Persist(ctx context.Context, data []byte) (int64, error) {
	id, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("courier/redis: persist next id: %w", err)
	}
	field := strconv.FormatInt(id, 10)

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.dataKey(), field, data)
	pipe.ZAdd(ctx, s.orderKey(), goredis.Z{Score: float64(id), Member: field})
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("courier/redis: persist: %w", err)
	}
	return id, nil
}

// Update replaces the data of an existing record.
func (s *Store) Update(ctx context.Context, id int64, data []byte) error {
	field := strconv.FormatInt(id, 10)
	exists, err := s.client.HExists(ctx, s.dataKey(), field).Result()
	if err != nil {
		return fmt.Errorf("courier/redis: update %d check exists: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("courier/redis: update %d: %w", id, courier.ErrRecordNotFound)
	}
	if err := s.client.HSet(ctx, s.dataKey(), field, data).Err(); err != nil {
		return fmt.Errorf("courier/redis: update %d: %w", id, err)
	}
	return nil
}

// Delete removes record id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	field := strconv.FormatInt(id, 10)
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, s.dataKey(), field)
	pipe.ZRem(ctx, s.orderKey(), field)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("courier/redis: delete %d: %w", id, err)
	}
	return nil
}

// ListIncomplete returns every record ordered by id.
func (s *Store) ListIncomplete(ctx context.Context) ([]persist.Record, error) {
	fields, err := s.client.ZRange(ctx, s.orderKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("courier/redis: list ids: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	vals, err := s.client.HMGet(ctx, s.dataKey(), fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("courier/redis: list data: %w", err)
	}

	out := make([]persist.Record, 0, len(fields))
	for i, field := range fields {
		raw, ok := vals[i].(string)
		if !ok {
			// Deleted between ZRANGE and HMGET.
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			s.logger.Warn("skipping malformed record id", slog.String("id", field))
			continue
		}
		out = append(out, persist.Record{ID: id, Data: []byte(raw)})
	}
	return out, nil
}

// DeleteAll removes every record. The id counter is kept so ids are never
// reused.
func (s *Store) DeleteAll(ctx context.Context) error {
	if err := s.client.Del(ctx, s.dataKey(), s.orderKey()).Err(); err != nil {
		return fmt.Errorf("courier/redis: delete all: %w", err)
	}
	return nil
}
