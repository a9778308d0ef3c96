// Package cache provides a Redis read-through cache over a core.Reader.
//
// Lookups are stored as JSON under "<prefix>:<op>:<args>" keys with a TTL.
// Concurrent misses for one key are coalesced with singleflight. NotFound
// and storage errors are never cached, and Redis failures fall back to the
// wrapped reader.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/tarif/internal/config"
	"github.com/JonMunkholm/tarif/internal/core"
	"github.com/JonMunkholm/tarif/internal/logging"
)

const scanBatch = 100

// loadTimeout bounds a coalesced store load once it is detached from the
// request that started it.
const loadTimeout = 30 * time.Second

// Connect parses cfg.RedisURL and pings the server.
func Connect(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Reader caches the results of a wrapped core.Reader.
type Reader struct {
	next   core.Reader
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	sf     singleflight.Group
}

// NewReader wraps next. prefix namespaces every key.
func NewReader(next core.Reader, rdb *redis.Client, ttl time.Duration, prefix string) *Reader {
	return &Reader{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		prefix: strings.TrimSuffix(prefix, ":"),
	}
}

func (r *Reader) key(op string, parts ...string) string {
	var b strings.Builder
	b.WriteString(r.prefix)
	b.WriteByte(':')
	b.WriteString(op)
	for _, p := range parts {
		b.WriteByte(':')
		b.WriteString(url.PathEscape(p))
	}
	return b.String()
}

// TableNames returns the cached table list.
func (r *Reader) TableNames(ctx context.Context) ([]string, error) {
	return cached(ctx, r, r.key("tables"), func(ctx context.Context) ([]string, error) {
		return r.next.TableNames(ctx)
	})
}

// Grades returns the cached grades of a table.
func (r *Reader) Grades(ctx context.Context, table string) ([]string, error) {
	return cached(ctx, r, r.key("grades", table), func(ctx context.Context) ([]string, error) {
		return r.next.Grades(ctx, table)
	})
}

// Steps returns the cached steps of a grade.
func (r *Reader) Steps(ctx context.Context, table, grade string) ([]int, error) {
	return cached(ctx, r, r.key("steps", table, grade), func(ctx context.Context) ([]int, error) {
		return r.next.Steps(ctx, table, grade)
	})
}

// Cells returns the cached cells of a query.
func (r *Reader) Cells(ctx context.Context, q core.CellQuery) ([]core.SalaryCell, error) {
	grade, step := "*", "*"
	if q.Grade != nil {
		grade = *q.Grade
	}
	if q.Step != nil {
		step = strconv.Itoa(*q.Step)
	}
	return cached(ctx, r, r.key("cells", q.TableName, grade, step), func(ctx context.Context) ([]core.SalaryCell, error) {
		return r.next.Cells(ctx, q)
	})
}

// Cell returns one cached cell.
func (r *Reader) Cell(ctx context.Context, table, grade string, step int) (core.SalaryCell, error) {
	return cached(ctx, r, r.key("cell", table, grade, strconv.Itoa(step)), func(ctx context.Context) (core.SalaryCell, error) {
		return r.next.Cell(ctx, table, grade, step)
	})
}

// Imports is not cached; import history is read straight from the store.
func (r *Reader) Imports(ctx context.Context) ([]core.ImportBatch, error) {
	return r.next.Imports(ctx)
}

// Invalidate deletes every key under the prefix.
func (r *Reader) Invalidate(ctx context.Context) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, r.prefix+":*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("delete cache keys: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	logging.FromContext(ctx).Debug("cache invalidated", "prefix", r.prefix, "keys", deleted)
	return nil
}

// cached returns the value under key, loading and storing it on a miss.
func cached[T any](ctx context.Context, r *Reader, key string, load func(context.Context) (T, error)) (T, error) {
	logger := logging.FromContext(ctx)

	data, err := r.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		logger.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, redis.Nil):
		logger.Warn("cache read failed", "key", key, "error", err)
	}

	// The shared load is detached from the caller that started it, so a
	// cancelled request never fails the callers waiting on the same key.
	ch := r.sf.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()

		v, err := load(loadCtx)
		if err != nil {
			return v, err
		}
		if payload, err := json.Marshal(v); err == nil {
			if err := r.rdb.Set(loadCtx, key, payload, r.ttl).Err(); err != nil {
				logger.Warn("cache write failed", "key", key, "error", err)
			}
		}
		return v, nil
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}

var (
	_ core.Reader      = (*Reader)(nil)
	_ core.Invalidator = (*Reader)(nil)
)
