package acl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/entity"
	"github.com/yanizio/storefront/internal/event"
)

// Cache keys.  Listing results embed ACL effects, so ACL writes flush the
// listing namespace too.
const (
	accessKeyFmt      = "acl:access:%d:%s"
	aclPatternKey     = "acl:"
	listingPatternKey = "listing:"
)

// Repository is the persistence contract for the acl_record table.
type Repository interface {
	ByID(ctx context.Context, id int64) (*Record, error)
	For(ctx context.Context, tag entity.TypeTag, entityID int64) ([]Record, error)
	RoleIDs(ctx context.Context, tag entity.TypeTag, entityID int64) ([]int64, error)
	Insert(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, rec *Record) error
}

// Store is the ACL record store and role authorization engine.
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

// ByID returns one ACL row, or nil for id 0 or no match.
func (s *Store) ByID(ctx context.Context, id int64) (*Record, error) {
	if id == 0 {
		return nil, nil
	}
	return s.repo.ByID(ctx, id)
}

// For returns every ACL row for one entity, ordered by id.  Uncached;
// admin surface only.
func (s *Store) For(ctx context.Context, e entity.ACLRestricted) ([]Record, error) {
	if e == nil {
		return nil, ErrNilEntity
	}
	if err := entity.ValidateTag(e.EntityType()); err != nil {
		return nil, err
	}
	return s.repo.For(ctx, e.EntityType(), e.EntityID())
}

// Insert persists rec, invalidates, and publishes.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := entity.ValidateTag(rec.EntityType); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, rec); err != nil {
		return fmt.Errorf("acl: insert record: %w", err)
	}
	s.invalidate(ctx)
	s.events.Publish(event.Inserted(TypeTagRecord, rec.ID))
	return nil
}

// InsertFor synthesizes and persists an ACL row granting roleID access to
// e.
func (s *Store) InsertFor(ctx context.Context, e entity.ACLRestricted, roleID int64) error {
	if e == nil {
		return ErrNilEntity
	}
	if roleID == 0 {
		return ErrNoRoleID
	}
	return s.Insert(ctx, &Record{
		EntityID:   e.EntityID(),
		EntityType: e.EntityType(),
		RoleID:     roleID,
	})
}

// Update replaces rec's row, invalidates, and publishes.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := entity.ValidateTag(rec.EntityType); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, rec); err != nil {
		return fmt.Errorf("acl: update record: %w", err)
	}
	s.invalidate(ctx)
	s.events.Publish(event.Updated(TypeTagRecord, rec.ID))
	return nil
}

// Delete removes rec's row, invalidates, and publishes.
func (s *Store) Delete(ctx context.Context, rec *Record) error {
	if rec == nil {
		return ErrNilRecord
	}
	if err := s.repo.Delete(ctx, rec); err != nil {
		return fmt.Errorf("acl: delete record: %w", err)
	}
	s.invalidate(ctx)
	s.events.Publish(event.Deleted(TypeTagRecord, rec.ID))
	return nil
}

// RoleIDsWithAccess returns the role ids granted access to e, cached per
// (entity id, type tag).
func (s *Store) RoleIDsWithAccess(ctx context.Context, e entity.ACLRestricted) ([]int64, error) {
	if e == nil {
		return nil, ErrNilEntity
	}
	if err := entity.ValidateTag(e.EntityType()); err != nil {
		return nil, err
	}
	key := fmt.Sprintf(accessKeyFmt, e.EntityID(), e.EntityType())
	return cache.GetOrCompute(ctx, s.cache, key, func(ctx context.Context) ([]int64, error) {
		return s.repo.RoleIDs(ctx, e.EntityType(), e.EntityID())
	})
}

// Authorize reports whether a caller holding roleIDs may see e.  Entities
// not subject to ACL pass unconditionally; an empty role set is valid and
// grants nothing extra.
func (s *Store) Authorize(ctx context.Context, e entity.ACLRestricted, roleIDs []int64) (bool, error) {
	if e == nil {
		return false, nil
	}
	if !e.SubjectToACL() {
		return true, nil
	}

	granted, err := s.RoleIDsWithAccess(ctx, e)
	if err != nil {
		return false, err
	}
	for _, have := range roleIDs {
		for _, want := range granted {
			if have == want {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *Store) invalidate(ctx context.Context) {
	s.cache.RemoveByPattern(ctx, aclPatternKey)
	s.cache.RemoveByPattern(ctx, listingPatternKey)
}
