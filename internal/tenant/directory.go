package tenant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/event"
)

// Cache keys.  Every mutation invalidates the whole "tenant:" namespace so
// the per-id and all-tenants entries can never disagree with the table.
const (
	allKey     = "tenant:all"
	byIDKeyFmt = "tenant:id:%d"
	patternKey = "tenant:"
)

// TypeTagTenant is the discriminator tenants use in entity-changed events.
const TypeTagTenant = "Tenant"

// Repository is the narrow persistence contract the directory consumes.
// All returns rows ordered by (display_order, id); ByID returns nil when
// no row matches.
type Repository interface {
	All(ctx context.Context) ([]Tenant, error)
	ByID(ctx context.Context, id int64) (*Tenant, error)
	Insert(ctx context.Context, t *Tenant) error
	Update(ctx context.Context, t *Tenant) error
	Delete(ctx context.Context, t *Tenant) error
}

// Directory is the cached view of the tenant table.  Reads go through the
// cache manager; writes hit the repository first, then invalidate, then
// publish, so a single-threaded caller always reads its own writes.
type Directory struct {
	repo   Repository
	cache  *cache.Manager
	events event.Publisher
	log    *zap.SugaredLogger
}

// NewDirectory wires a Directory from its collaborators.
func NewDirectory(repo Repository, cm *cache.Manager, events event.Publisher, log *zap.SugaredLogger) *Directory {
	return &Directory{repo: repo, cache: cm, events: events, log: log}
}

// All returns every tenant ordered by (display_order, id).  The ordering
// is load-bearing: the resolver's fallback picks the first element.
func (d *Directory) All(ctx context.Context) ([]Tenant, error) {
	return cache.GetOrCompute(ctx, d.cache, allKey, func(ctx context.Context) ([]Tenant, error) {
		return d.repo.All(ctx)
	})
}

// ByID returns one tenant, or nil for id 0 or no match.
func (d *Directory) ByID(ctx context.Context, id int64) (*Tenant, error) {
	if id == 0 {
		return nil, nil
	}
	key := fmt.Sprintf(byIDKeyFmt, id)
	return cache.GetOrCompute(ctx, d.cache, key, func(ctx context.Context) (*Tenant, error) {
		return d.repo.ByID(ctx, id)
	})
}

// Insert persists a new tenant.
func (d *Directory) Insert(ctx context.Context, t *Tenant) error {
	if t == nil {
		return ErrNilTenant
	}
	if err := d.repo.Insert(ctx, t); err != nil {
		return fmt.Errorf("tenant: insert: %w", err)
	}
	d.cache.RemoveByPattern(ctx, patternKey)
	d.events.Publish(event.Inserted(TypeTagTenant, t.ID))
	d.log.Infow("tenant inserted", "id", t.ID, "name", t.Name)
	return nil
}

// Update persists changes to an existing tenant.
func (d *Directory) Update(ctx context.Context, t *Tenant) error {
	if t == nil {
		return ErrNilTenant
	}
	if err := d.repo.Update(ctx, t); err != nil {
		return fmt.Errorf("tenant: update: %w", err)
	}
	d.cache.RemoveByPattern(ctx, patternKey)
	d.events.Publish(event.Updated(TypeTagTenant, t.ID))
	return nil
}

// Delete removes a tenant.  The last remaining tenant cannot be deleted;
// a system with zero tenants cannot serve requests.
func (d *Directory) Delete(ctx context.Context, t *Tenant) error {
	if t == nil {
		return ErrNilTenant
	}
	all, err := d.All(ctx)
	if err != nil {
		return fmt.Errorf("tenant: delete precheck: %w", err)
	}
	if len(all) == 1 {
		return ErrLastTenant
	}
	if err := d.repo.Delete(ctx, t); err != nil {
		return fmt.Errorf("tenant: delete: %w", err)
	}
	d.cache.RemoveByPattern(ctx, patternKey)
	d.events.Publish(event.Deleted(TypeTagTenant, t.ID))
	d.log.Infow("tenant deleted", "id", t.ID, "name", t.Name)
	return nil
}
