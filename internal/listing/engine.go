// Package listing computes the visible subset of a candidate collection
// for one tenant and one caller, combining tenant scoping with ACL
// filtering.
//
// Context
// -------
// Every storefront listing (topics, currencies, message templates) runs
// the same query shape: order by display order, drop unpublished rows,
// drop rows the caller's roles cannot see, drop rows not mapped to the
// current tenant, and cache the whole result per (tenant, ignore-acl,
// show-hidden) triple.  The relational original expressed the two
// restriction steps as left outer joins followed by a distinct-by-id pass;
// here each step is a per-candidate predicate against the cached access
// sets, which cannot duplicate rows in the first place.  The dedup pass is
// kept because caller-supplied collections may themselves carry duplicate
// ids.
//
// One Engine serves one candidate kind.  Mapping and ACL writes flush the
// listing namespace from their own stores; whoever mutates the candidate
// collection itself must call Invalidate.
//
// Notes
// -----
//   - Oxford commas, two spaces after periods.
package listing

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/acl"
	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/entity"
	"github.com/yanizio/storefront/internal/metrics"
	"github.com/yanizio/storefront/internal/scope"
)

const (
	keyFmt     = "listing:%s:all:%d:%t:%t"
	patternFmt = "listing:%s:"
)

// Candidate is what a listable entity must expose.  Both restriction
// capabilities are required; kinds that are never restricted simply return
// false from the flag methods.
type Candidate interface {
	entity.Mappable
	entity.ACLRestricted
	Published() bool
	DisplayOrder() int
	SortKey() string
}

// Settings are the deployment-wide switches that disable a filter
// dimension outright.  Each is OR'd with the per-call flag.
type Settings struct {
	IgnoreACL           bool
	IgnoreTenantScoping bool
}

// Query names the filter dimensions of one VisibleSubset call.  TenantID 0
// means no tenant context, which disables the tenant filter exactly like
// IgnoreTenantScoping does.
type Query struct {
	TenantID   int64
	IgnoreACL  bool
	ShowHidden bool
	RoleIDs    []int64
}

// Engine computes visible subsets for one candidate kind.
type Engine struct {
	tag      entity.TypeTag
	cache    *cache.Manager
	scopes   *scope.Store
	acls     *acl.Store
	settings Settings
	log      *zap.SugaredLogger
}

// NewEngine wires an Engine.  tag must be registered.
func NewEngine(tag entity.TypeTag, cm *cache.Manager, scopes *scope.Store, acls *acl.Store, settings Settings, log *zap.SugaredLogger) (*Engine, error) {
	if err := entity.ValidateTag(tag); err != nil {
		return nil, err
	}
	return &Engine{tag: tag, cache: cm, scopes: scopes, acls: acls, settings: settings, log: log}, nil
}

// Invalidate flushes every cached listing for this engine's candidate
// kind.  Candidate writers call this after their own store commit.
func (e *Engine) Invalidate(ctx context.Context) {
	e.cache.RemoveByPattern(ctx, fmt.Sprintf(patternFmt, e.tag))
}

// VisibleSubset returns the members of all that q's caller may see, in
// stable (display order, sort key, id) order, deduplicated by entity id.
// The result is cached per (tenant, effective ignore-acl, show-hidden);
// results round-trip through JSON, so T must marshal losslessly.
//
// all must be the full candidate collection; passing a pre-filtered slice
// poisons the cache for every other caller of the same triple.
func VisibleSubset[T Candidate](ctx context.Context, e *Engine, all []T, q Query) ([]T, error) {
	ignoreACL := q.IgnoreACL || e.settings.IgnoreACL
	applyTenant := q.TenantID > 0 && !e.settings.IgnoreTenantScoping

	key := fmt.Sprintf(keyFmt, e.tag, q.TenantID, ignoreACL, q.ShowHidden)
	return cache.GetOrCompute(ctx, e.cache, key, func(ctx context.Context) ([]T, error) {
		metrics.ListingComputeTotal.Inc()
		return compute(ctx, e, all, q, ignoreACL, applyTenant)
	})
}

func compute[T Candidate](ctx context.Context, e *Engine, all []T, q Query, ignoreACL, applyTenant bool) ([]T, error) {
	sorted := make([]T, len(all))
	copy(sorted, all)
	sortCandidates(sorted)

	out := make([]T, 0, len(sorted))
	seen := make(map[int64]struct{}, len(sorted))
	for _, c := range sorted {
		if !q.ShowHidden && !c.Published() {
			continue
		}
		if !ignoreACL {
			ok, err := e.acls.Authorize(ctx, c, q.RoleIDs)
			if err != nil {
				return nil, fmt.Errorf("listing: acl filter: %w", err)
			}
			if !ok {
				continue
			}
		}
		if applyTenant {
			ok, err := e.scopes.Authorize(ctx, c, q.TenantID)
			if err != nil {
				return nil, fmt.Errorf("listing: tenant filter: %w", err)
			}
			if !ok {
				continue
			}
		}
		if _, dup := seen[c.EntityID()]; dup {
			continue
		}
		seen[c.EntityID()] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

func sortCandidates[T Candidate](cs []T) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.DisplayOrder() != b.DisplayOrder() {
			return a.DisplayOrder() < b.DisplayOrder()
		}
		if a.SortKey() != b.SortKey() {
			return a.SortKey() < b.SortKey()
		}
		return a.EntityID() < b.EntityID()
	})
}
