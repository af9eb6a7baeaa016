package event

import (
	"sync"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/metrics"
)

// Bus is an in-process fan-out Publisher.  Each subscriber gets its own
// buffered channel; a slow subscriber loses events instead of stalling the
// mutation path.  Drops are counted and logged so an operator can size the
// buffer up before anyone relies on a lossy feed.
type Bus struct {
	mu     sync.RWMutex
	subs   []chan Event
	buffer int
	closed bool
	log    *zap.SugaredLogger
}

// NewBus constructs a Bus.  buffer < 1 falls back to 64.
func NewBus(buffer int, log *zap.SugaredLogger) *Bus {
	if buffer < 1 {
		buffer = 64
	}
	return &Bus{buffer: buffer, log: log}
}

// Subscribe registers a new consumer and returns its receive channel.  The
// channel is closed by Close.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Publish delivers e to every subscriber without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			metrics.EventsDroppedTotal.Inc()
			b.log.Warnw("entity event dropped",
				"action", e.Action, "entity_type", e.EntityType, "entity_id", e.EntityID)
		}
	}
}

// Close closes all subscriber channels.  Publish after Close is a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
