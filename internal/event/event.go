// Package event carries entity-changed notifications out of the scoping
// subsystem.  Every mutating store operation publishes one event after its
// repository write and cache invalidation; subscribers (secondary caches,
// audit log, webhooks) consume them best-effort.  Publishing never blocks
// and never fails the mutation that produced it.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/yanizio/storefront/internal/entity"
)

// Action names what happened to the entity.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
)

// Event is one entity-changed notification.
type Event struct {
	ID         string         `json:"id"`
	Action     Action         `json:"action"`
	EntityType entity.TypeTag `json:"entity_type"`
	EntityID   int64          `json:"entity_id"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher is the narrow sink the stores depend on.
type Publisher interface {
	Publish(e Event)
}

// Inserted builds an insert event for one entity row.
func Inserted(tag entity.TypeTag, id int64) Event { return newEvent(ActionInserted, tag, id) }

// Updated builds an update event for one entity row.
func Updated(tag entity.TypeTag, id int64) Event { return newEvent(ActionUpdated, tag, id) }

// Deleted builds a delete event for one entity row.
func Deleted(tag entity.TypeTag, id int64) Event { return newEvent(ActionDeleted, tag, id) }

func newEvent(action Action, tag entity.TypeTag, id int64) Event {
	return Event{
		ID:         uuid.NewString(),
		Action:     action,
		EntityType: tag,
		EntityID:   id,
		OccurredAt: time.Now().UTC(),
	}
}

// Nop discards every event.  Default for tests and tools that do not care
// about notifications.
type Nop struct{}

func (Nop) Publish(Event) {}
