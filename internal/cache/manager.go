package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/storefront/internal/metrics"
)

// Manager is the typed cache front the stores talk to.  It owns one Store,
// one default TTL, and a singleflight group that guarantees at most one
// in-flight producer per key inside this process.
//
// Producer errors are returned to the caller and never stored, so a failed
// lookup cannot poison the cache.  Empty results are stored like any other
// value; "[]" is a legitimate hit.
type Manager struct {
	store Store
	ttl   time.Duration
	sfg   singleflight.Group
	log   *zap.SugaredLogger
}

// NewManager wraps store.  ttl == 0 means entries live until invalidated.
func NewManager(store Store, ttl time.Duration, log *zap.SugaredLogger) *Manager {
	return &Manager{store: store, ttl: ttl, log: log}
}

// Remove deletes one key.
func (m *Manager) Remove(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		metrics.CacheDegradedTotal.Inc()
		m.log.Warnw("cache remove failed", "key", key, "err", err)
	}
}

// RemoveByPattern deletes every key in a namespace.  Mutating operations
// call this after their repository write commits, which is what keeps
// read-after-write consistent for a single-threaded caller.
func (m *Manager) RemoveByPattern(ctx context.Context, pattern string) {
	if err := m.store.DeletePattern(ctx, pattern); err != nil {
		metrics.CacheDegradedTotal.Inc()
		m.log.Warnw("cache invalidate failed", "pattern", pattern, "err", err)
	}
}

// Set stores val under key with the manager's default TTL.
func (m *Manager) Set(ctx context.Context, key string, val any) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	return m.store.Set(ctx, key, raw, m.ttl)
}

// Get decodes the value under key into out.  Returns ErrNotFound on a
// miss; backend failures are reported as misses after a degradation log.
func (m *Manager) Get(ctx context.Context, key string, out any) error {
	raw, err := m.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		metrics.CacheDegradedTotal.Inc()
		m.log.Warnw("cache get failed", "key", key, "err", err)
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A decode failure means the entry was written by an older build.
		// Drop it and report a miss.
		_ = m.store.Delete(ctx, key)
		return ErrNotFound
	}
	return nil
}

// GetOrCompute returns the cached value for key, or runs produce exactly
// once per key per process, stores the result, and returns it.  The cache
// round-trips values through JSON, so T must marshal losslessly (exported
// fields only).
//
// Backend failures degrade to calling produce directly; the error is
// logged and counted, never surfaced.
func GetOrCompute[T any](ctx context.Context, m *Manager, key string, produce func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	raw, err := m.store.Get(ctx, key)
	switch {
	case err == nil:
		var out T
		if jerr := json.Unmarshal(raw, &out); jerr == nil {
			metrics.CacheHitTotal.Inc()
			return out, nil
		}
		_ = m.store.Delete(ctx, key)
	case !errors.Is(err, ErrNotFound):
		metrics.CacheDegradedTotal.Inc()
		m.log.Warnw("cache get failed, computing directly", "key", key, "err", err)
		return produce(ctx)
	}

	metrics.CacheMissTotal.Inc()
	v, err, _ := m.sfg.Do(key, func() (any, error) {
		// Double-check after the singleflight barrier; a concurrent caller
		// may have stored the value while we waited.
		if raw, gerr := m.store.Get(ctx, key); gerr == nil {
			var out T
			if jerr := json.Unmarshal(raw, &out); jerr == nil {
				return out, nil
			}
		}

		out, perr := produce(ctx)
		if perr != nil {
			return zero, perr
		}
		raw, merr := json.Marshal(out)
		if merr != nil {
			return zero, fmt.Errorf("cache: encode %s: %w", key, merr)
		}
		if serr := m.store.Set(ctx, key, raw, m.ttl); serr != nil {
			metrics.CacheDegradedTotal.Inc()
			m.log.Warnw("cache set failed", "key", key, "err", serr)
		}
		return out, nil
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}
