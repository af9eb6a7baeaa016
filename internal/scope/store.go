package scope

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/entity"
	"github.com/yanizio/storefront/internal/event"
	"github.com/yanizio/storefront/internal/tenant"
)

// Cache keys.  Listing results embed mapping effects, so mapping writes
// flush the listing namespace too.
const (
	accessKeyFmt      = "scope:mapping:access:%d:%s"
	mappingPatternKey = "scope:mapping:"
	listingPatternKey = "listing:"
)

// Repository is the persistence contract for the tenant_mapping table.
// For returns rows ordered by id; ByID returns nil when no row matches.
type Repository interface {
	ByID(ctx context.Context, id int64) (*Mapping, error)
	For(ctx context.Context, tag entity.TypeTag, entityID int64) ([]Mapping, error)
	TenantIDs(ctx context.Context, tag entity.TypeTag, entityID int64) ([]int64, error)
	Insert(ctx context.Context, m *Mapping) error
	Update(ctx context.Context, m *Mapping) error
	Delete(ctx context.Context, m *Mapping) error
}

// Store is the tenant mapping store and authorization engine.
type Store struct {
	repo   Repository
	cache  *cache.Manager
	events event.Publisher
	log    *zap.SugaredLogger
}

// NewStore wires a Store from its collaborators.
func NewStore(repo Repository, cm *cache.Manager, events event.Publisher, log *zap.SugaredLogger) *Store {
	return &Store{repo: repo, cache: cm, events: events, log: log}
}

// ByID returns one mapping row, or nil for id 0 or no match.  Uncached;
// only admin surfaces look mappings up by their own id.
func (s *Store) ByID(ctx context.Context, id int64) (*Mapping, error) {
	if id == 0 {
		return nil, nil
	}
	return s.repo.ByID(ctx, id)
}

// For returns every mapping row for one entity, ordered by id.  Uncached;
// used by admin edit screens, not the request hot path.
func (s *Store) For(ctx context.Context, e entity.Mappable) ([]Mapping, error) {
	if e == nil {
		return nil, ErrNilEntity
	}
	if err := entity.ValidateTag(e.EntityType()); err != nil {
		return nil, err
	}
	return s.repo.For(ctx, e.EntityType(), e.EntityID())
}

// Insert persists m, invalidates, and publishes.
func (s *Store) Insert(ctx context.Context, m *Mapping) error {
	if m == nil {
		return ErrNilMapping
	}
	if err := entity.ValidateTag(m.EntityType); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, m); err != nil {
		return fmt.Errorf("scope: insert mapping: %w", err)
	}
	s.invalidate(ctx)
	s.events.Publish(event.Inserted(TypeTagMapping, m.ID))
	return nil
}

// InsertFor synthesizes and persists a mapping row pinning e to tenantID.
func (s *Store) InsertFor(ctx context.Context, e entity.Mappable, tenantID int64) error {
	if e == nil {
		return ErrNilEntity
	}
	if tenantID == 0 {
		return ErrNoTenantID
	}
	return s.Insert(ctx, &Mapping{
		EntityID:   e.EntityID(),
		EntityType: e.EntityType(),
		TenantID:   tenantID,
	})
}

// Update replaces m's row, invalidates, and publishes.
func (s *Store) Update(ctx context.Context, m *Mapping) error {
	if m == nil {
		return ErrNilMapping
	}
	if err := entity.ValidateTag(m.EntityType); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return fmt.Errorf("scope: update mapping: %w", err)
	}
	s.invalidate(ctx)
	s.events.Publish(event.Updated(TypeTagMapping, m.ID))
	return nil
}

// Delete removes m's row, invalidates, and publishes.
func (s *Store) Delete(ctx context.Context, m *Mapping) error {
	if m == nil {
		return ErrNilMapping
	}
	if err := s.repo.Delete(ctx, m); err != nil {
		return fmt.Errorf("scope: delete mapping: %w", err)
	}
	s.invalidate(ctx)
	s.events.Publish(event.Deleted(TypeTagMapping, m.ID))
	return nil
}

// TenantIDsWithAccess returns the tenant ids e is explicitly mapped to.
// Cached per (entity id, type tag); an entity with no rows caches an empty
// set, which is still a hit.
func (s *Store) TenantIDsWithAccess(ctx context.Context, e entity.Mappable) ([]int64, error) {
	if e == nil {
		return nil, ErrNilEntity
	}
	if err := entity.ValidateTag(e.EntityType()); err != nil {
		return nil, err
	}
	key := fmt.Sprintf(accessKeyFmt, e.EntityID(), e.EntityType())
	return cache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) ([]int64, error) {
		return s.repo.TenantIDs(ctx, e.EntityType(), e.EntityID())
	})
}

// Authorize reports whether e is visible in tenantID.
//
// Decision order matters: the tenant-id 0 sentinel short-circuits before
// the restriction check so administrative and background contexts, which
// run outside any tenant, see everything; unrestricted entities pass
// without touching the mapping table at all.
func (s *Store) Authorize(ctx context.Context, e entity.Mappable, tenantID int64) (bool, error) {
	if e == nil {
		return false, nil
	}
	if tenantID == 0 {
		return true, nil
	}
	if !e.LimitedToTenants() {
		return true, nil
	}

	ids, err := s.TenantIDsWithAccess(ctx, e)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == tenantID {
			return true, nil
		}
	}
	return false, nil
}

// TenantSource yields the current tenant for one unit of work.  Satisfied
// by *tenant.Resolver.
type TenantSource interface {
	Current(ctx context.Context) (*tenant.Tenant, error)
}

// AuthorizeCurrent is the convenience form of Authorize that takes the
// tenant id from the request's resolver.
func (s *Store) AuthorizeCurrent(ctx context.Context, e entity.Mappable, src TenantSource) (bool, error) {
	if e == nil {
		return false, nil
	}
	cur, err := src.Current(ctx)
	if err != nil {
		return false, err
	}
	return s.Authorize(ctx, e, cur.ID)
}

func (s *Store) invalidate(ctx context.Context) {
	s.cache.RemoveByPattern(ctx, mappingPatternKey)
	s.cache.RemoveByPattern(ctx, listingPatternKey)
}
