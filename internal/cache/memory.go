package cache

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"
)

const evictInterval = 30 * time.Second

// Memory is the default in-process Store.  Entries expire lazily on read
// and eagerly via a background sweep; DeletePattern walks the whole map,
// which is fine at the few-thousand-entry scale this subsystem produces.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memEntry
	done    chan struct{}
	closed  bool
}

type memEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// NewMemory constructs a Memory store and starts its sweep loop.
func NewMemory() *Memory {
	m := &Memory{
		entries: make(map[string]memEntry),
		done:    make(chan struct{}),
	}
	go m.sweep()
	return m
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ent, ok := m.entries[key]
	if !ok || ent.expired(time.Now()) {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(ent.value))
	copy(cp, ent.value)
	return cp, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	m.entries[key] = memEntry{value: cp, expiresAt: expiresAt}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) DeletePattern(_ context.Context, pattern string) error {
	glob := strings.ContainsAny(pattern, "*?[")
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if matchKey(key, pattern, glob) {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	close(m.done)
	m.entries = make(map[string]memEntry)
	return nil
}

// Len reports the live entry count.  Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func matchKey(key, pattern string, glob bool) bool {
	if !glob {
		return strings.HasPrefix(key, pattern)
	}
	ok, err := path.Match(pattern, key)
	return err == nil && ok
}

func (m *Memory) sweep() {
	ticker := time.NewTicker(evictInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for key, ent := range m.entries {
				if ent.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
