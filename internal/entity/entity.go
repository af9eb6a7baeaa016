// Package entity defines the identity and capability contracts shared by
// everything the scoping subsystem can restrict.  Mappings and ACL records
// live in shared tables keyed by (entity id, type tag), so the tag set is a
// closed registry: stores reject tags nobody registered, which turns a typo
// into a loud error instead of a silent non-match.
package entity

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownType is returned when an API boundary receives a type tag that
// was never registered.
var ErrUnknownType = errors.New("entity: unknown type tag")

// TypeTag is the stable discriminator stored in the entity_type column of
// the shared mapping tables.  Tags are registered once, at package init
// time, by the domain package that owns the entity kind.
type TypeTag string

// Ref identifies one entity row across the shared tables.
type Ref struct {
	Type TypeTag `json:"type"`
	ID   int64   `json:"id"`
}

// Entity is the minimal identity every participating type carries.
type Entity interface {
	EntityID() int64
	EntityType() TypeTag
}

// Mappable marks types whose visibility can be limited to an explicit set
// of tenants.  When LimitedToTenants reports false the entity is visible in
// every tenant regardless of mapping rows.
type Mappable interface {
	Entity
	LimitedToTenants() bool
}

// ACLRestricted marks types whose visibility can additionally be limited to
// an explicit set of roles.
type ACLRestricted interface {
	Entity
	SubjectToACL() bool
}

var (
	regMu    sync.RWMutex
	registry = make(map[TypeTag]struct{})
)

// Register adds tag to the closed registry and returns it, so callers can
// register and bind in one var declaration.  Registering the same tag twice
// panics; two packages claiming one tag is a wiring bug.
func Register(tag TypeTag) TypeTag {
	regMu.Lock()
	defer regMu.Unlock()
	if _, dup := registry[tag]; dup {
		panic(fmt.Sprintf("entity: type tag %q registered twice", tag))
	}
	registry[tag] = struct{}{}
	return tag
}

// Known reports whether tag has been registered.
func Known(tag TypeTag) bool {
	regMu.RLock()
	defer regMu.RUnlock()
	_, ok := registry[tag]
	return ok
}

// ValidateTag returns ErrUnknownType (wrapped with the offending tag) when
// tag is not in the registry.
func ValidateTag(tag TypeTag) error {
	if !Known(tag) {
		return fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	return nil
}

// Tags returns the registered tags in lexical order.  Used by admin
// surfaces and tests; the hot path never iterates the registry.
func Tags() []TypeTag {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]TypeTag, 0, len(registry))
	for t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
