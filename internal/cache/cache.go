// Package cache provides the generic key/value cache the scoping subsystem
// layers in front of its repository queries.
//
// Context
// -------
// Two pieces compose here.  A Store is a dumb byte-oriented backend (the
// in-process map, or Redis when several instances must share state).  The
// Manager sits on top: it encodes values as JSON, collapses concurrent
// lookups for one key into a single producer call via singleflight, and
// degrades to direct computation whenever the backend misbehaves.  The
// cache is an optimization only; no caller may depend on it for
// correctness.
//
// Keys are namespaced with ':' separators ("tenant:all",
// "scope:mapping:access:42:Topic"), and writes invalidate whole namespaces
// by prefix rather than chasing individual keys.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store.Get when a key is absent or expired.  A
// cached empty value ("[]", "{}", `""`) is a hit, not ErrNotFound; absence
// and emptiness stay distinguishable.
var ErrNotFound = errors.New("cache: key not found")

// Store abstracts a byte-oriented cache backend with TTL support.  All
// operations are safe for concurrent use.
type Store interface {
	// Get retrieves the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key.  A zero TTL means the entry lives until
	// explicitly removed.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key.  Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching pattern.  A pattern without
	// wildcard characters is treated as a prefix; '*' and '?' follow the
	// usual glob rules.
	DeletePattern(ctx context.Context, pattern string) error

	// Ping verifies connectivity to the backend.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
