// Unit-tests for the listing Engine: determinism, deduplication, hidden
// and tenant filtering, empty-set caching, and the global setting OR.
package listing

import (
	"context"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/acl"
	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/entity"
	"github.com/yanizio/storefront/internal/event"
	"github.com/yanizio/storefront/internal/scope"
)

var tagItem = entity.Register("CatalogItem")

// item is a minimal JSON-round-trippable Candidate.
type item struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Order      int    `json:"order"`
	Visible    bool   `json:"visible"`
	Limited    bool   `json:"limited"`
	Restricted bool   `json:"restricted"`
}

func (i item) EntityID() int64            { return i.ID }
func (i item) EntityType() entity.TypeTag { return tagItem }
func (i item) LimitedToTenants() bool     { return i.Limited }
func (i item) SubjectToACL() bool         { return i.Restricted }
func (i item) Published() bool            { return i.Visible }
func (i item) DisplayOrder() int          { return i.Order }
func (i item) SortKey() string            { return i.Name }

// fakeMappings serves scope.Repository from a fixed row set.
type fakeMappings struct{ rows []scope.Mapping }

func (f *fakeMappings) ByID(context.Context, int64) (*scope.Mapping, error) { return nil, nil }
func (f *fakeMappings) For(_ context.Context, tag entity.TypeTag, id int64) ([]scope.Mapping, error) {
	return nil, nil
}
func (f *fakeMappings) TenantIDs(_ context.Context, tag entity.TypeTag, id int64) ([]int64, error) {
	out := make([]int64, 0, 2)
	for _, m := range f.rows {
		if m.EntityType == tag && m.EntityID == id {
			out = append(out, m.TenantID)
		}
	}
	return out, nil
}
func (f *fakeMappings) Insert(_ context.Context, m *scope.Mapping) error {
	f.rows = append(f.rows, *m)
	return nil
}
func (f *fakeMappings) Update(context.Context, *scope.Mapping) error { return nil }
func (f *fakeMappings) Delete(context.Context, *scope.Mapping) error { return nil }

// fakeACL serves acl.Repository from a fixed row set.
type fakeACL struct{ rows []acl.Record }

func (f *fakeACL) ByID(context.Context, int64) (*acl.Record, error) { return nil, nil }
func (f *fakeACL) For(_ context.Context, tag entity.TypeTag, id int64) ([]acl.Record, error) {
	return nil, nil
}
func (f *fakeACL) RoleIDs(_ context.Context, tag entity.TypeTag, id int64) ([]int64, error) {
	out := make([]int64, 0, 2)
	for _, rec := range f.rows {
		if rec.EntityType == tag && rec.EntityID == id {
			out = append(out, rec.RoleID)
		}
	}
	return out, nil
}
func (f *fakeACL) Insert(_ context.Context, rec *acl.Record) error {
	f.rows = append(f.rows, *rec)
	return nil
}
func (f *fakeACL) Update(context.Context, *acl.Record) error { return nil }
func (f *fakeACL) Delete(context.Context, *acl.Record) error { return nil }

func newTestEngine(t *testing.T, mappings *fakeMappings, acls *fakeACL, settings Settings) *Engine {
	t.Helper()
	mem := cache.NewMemory()
	t.Cleanup(func() { mem.Close() })
	log := zap.NewNop().Sugar()
	cm := cache.NewManager(mem, 0, log)
	scopeStore := scope.NewStore(mappings, cm, event.Nop{}, log)
	aclStore := acl.NewStore(acls, cm, event.Nop{}, log)
	eng, err := NewEngine(tagItem, cm, scopeStore, aclStore, settings, log)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestVisibleSubsetOrderingAndHidden(t *testing.T) {
	eng := newTestEngine(t, &fakeMappings{}, &fakeACL{}, Settings{})
	ctx := context.Background()

	all := []item{
		{ID: 1, Name: "zeta", Order: 2, Visible: true},
		{ID: 2, Name: "alpha", Order: 2, Visible: true},
		{ID: 3, Name: "mid", Order: 1, Visible: true},
		{ID: 4, Name: "ghost", Order: 0, Visible: false},
	}

	got, err := VisibleSubset(ctx, eng, all, Query{TenantID: 1})
	if err != nil {
		t.Fatalf("VisibleSubset: %v", err)
	}
	wantIDs := []int64{3, 2, 1} // order, then name; hidden item dropped
	if ids := idsOf(got); !reflect.DeepEqual(ids, wantIDs) {
		t.Fatalf("ids = %v, want %v", ids, wantIDs)
	}

	// ShowHidden restores the unpublished candidate.
	got, err = VisibleSubset(ctx, eng, all, Query{TenantID: 1, ShowHidden: true})
	if err != nil {
		t.Fatalf("VisibleSubset(showHidden): %v", err)
	}
	if ids := idsOf(got); !reflect.DeepEqual(ids, []int64{4, 3, 2, 1}) {
		t.Fatalf("showHidden ids = %v", ids)
	}
}

func TestVisibleSubsetIsDeterministicAndCached(t *testing.T) {
	mappings := &fakeMappings{}
	eng := newTestEngine(t, mappings, &fakeACL{}, Settings{})
	ctx := context.Background()

	all := []item{
		{ID: 1, Name: "a", Visible: true, Limited: true},
		{ID: 2, Name: "b", Visible: true},
	}
	mappings.rows = []scope.Mapping{{EntityID: 1, EntityType: tagItem, TenantID: 1}}

	first, err := VisibleSubset(ctx, eng, all, Query{TenantID: 1})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Yank the mapping rows out from under the cache; without an
	// invalidation the second identical call must still serve the cached
	// sequence, byte for byte.
	mappings.rows = nil

	second, err := VisibleSubset(ctx, eng, all, Query{TenantID: 1})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("calls diverged: %+v vs %+v", first, second)
	}
	if ids := idsOf(first); !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Fatalf("ids = %v", ids)
	}
}

func TestVisibleSubsetDeduplicates(t *testing.T) {
	// Candidate 1 carries three ACL rows across three roles; a caller
	// holding exactly one of them sees the candidate once.
	acls := &fakeACL{rows: []acl.Record{
		{EntityID: 1, EntityType: tagItem, RoleID: 10},
		{EntityID: 1, EntityType: tagItem, RoleID: 11},
		{EntityID: 1, EntityType: tagItem, RoleID: 12},
	}}
	eng := newTestEngine(t, &fakeMappings{}, acls, Settings{})
	ctx := context.Background()

	// The input itself also repeats the candidate, mimicking the row
	// duplication a join-based implementation would produce.
	c := item{ID: 1, Name: "a", Visible: true, Restricted: true}
	all := []item{c, c, c}

	got, err := VisibleSubset(ctx, eng, all, Query{TenantID: 1, RoleIDs: []int64{11}})
	if err != nil {
		t.Fatalf("VisibleSubset: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 {
		t.Fatalf("got %+v, want candidate 1 exactly once", got)
	}
}

func TestVisibleSubsetACLFilter(t *testing.T) {
	acls := &fakeACL{rows: []acl.Record{{EntityID: 1, EntityType: tagItem, RoleID: 10}}}
	eng := newTestEngine(t, &fakeMappings{}, acls, Settings{})
	ctx := context.Background()

	all := []item{
		{ID: 1, Name: "locked", Visible: true, Restricted: true},
		{ID: 2, Name: "open", Visible: true},
	}

	// Caller without the role sees only the unrestricted candidate.
	got, err := VisibleSubset(ctx, eng, all, Query{TenantID: 1})
	if err != nil {
		t.Fatalf("VisibleSubset: %v", err)
	}
	if ids := idsOf(got); !reflect.DeepEqual(ids, []int64{2}) {
		t.Fatalf("ids = %v, want [2]", ids)
	}

	// IgnoreACL per call bypasses the filter; note the different cache
	// key dimension.
	got, err = VisibleSubset(ctx, eng, all, Query{TenantID: 1, IgnoreACL: true})
	if err != nil {
		t.Fatalf("VisibleSubset(ignoreACL): %v", err)
	}
	if ids := idsOf(got); !reflect.DeepEqual(ids, []int64{1, 2}) {
		t.Fatalf("ignoreACL ids = %v", ids)
	}
}

func TestVisibleSubsetTenantFilter(t *testing.T) {
	mappings := &fakeMappings{rows: []scope.Mapping{{EntityID: 1, EntityType: tagItem, TenantID: 2}}}
	eng := newTestEngine(t, mappings, &fakeACL{}, Settings{})
	ctx := context.Background()

	all := []item{
		{ID: 1, Name: "mapped", Visible: true, Limited: true},
		{ID: 2, Name: "everywhere", Visible: true},
	}

	got, err := VisibleSubset(ctx, eng, all, Query{TenantID: 2})
	if err != nil {
		t.Fatalf("VisibleSubset(tenant 2): %v", err)
	}
	if ids := idsOf(got); !reflect.DeepEqual(ids, []int64{2, 1}) {
		t.Fatalf("tenant 2 ids = %v", ids)
	}

	got, err = VisibleSubset(ctx, eng, all, Query{TenantID: 3})
	if err != nil {
		t.Fatalf("VisibleSubset(tenant 3): %v", err)
	}
	if ids := idsOf(got); !reflect.DeepEqual(ids, []int64{2}) {
		t.Fatalf("tenant 3 ids = %v", ids)
	}

	// Tenant 0 means no tenant context; the filter is skipped entirely.
	got, err = VisibleSubset(ctx, eng, all, Query{TenantID: 0})
	if err != nil {
		t.Fatalf("VisibleSubset(tenant 0): %v", err)
	}
	if ids := idsOf(got); !reflect.DeepEqual(ids, []int64{2, 1}) {
		t.Fatalf("tenant 0 ids = %v", ids)
	}
}

func TestVisibleSubsetEmptySetIsCached(t *testing.T) {
	eng := newTestEngine(t, &fakeMappings{}, &fakeACL{}, Settings{})
	ctx := context.Background()

	got, err := VisibleSubset(ctx, eng, []item(nil), Query{TenantID: 1})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}

	// Same triple with a non-empty slice: the cached empty sequence still
	// wins, proving the producer did not run a second time.
	got, err = VisibleSubset(ctx, eng, []item{{ID: 1, Name: "late", Visible: true}}, Query{TenantID: 1})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("empty result was not cached; got %v", got)
	}

	// After an explicit invalidation the new collection shows up.
	eng.Invalidate(ctx)
	got, err = VisibleSubset(ctx, eng, []item{{ID: 1, Name: "late", Visible: true}}, Query{TenantID: 1})
	if err != nil || len(got) != 1 {
		t.Fatalf("post-invalidate = %v, %v", got, err)
	}
}

func TestGlobalSettingsDisableFilters(t *testing.T) {
	acls := &fakeACL{rows: []acl.Record{{EntityID: 1, EntityType: tagItem, RoleID: 10}}}
	mappings := &fakeMappings{}
	eng := newTestEngine(t, mappings, acls, Settings{IgnoreACL: true, IgnoreTenantScoping: true})
	ctx := context.Background()

	// Restricted and unmapped, yet both global switches hold the door
	// open regardless of the per-call flags.
	all := []item{{ID: 1, Name: "a", Visible: true, Limited: true, Restricted: true}}

	got, err := VisibleSubset(ctx, eng, all, Query{TenantID: 9})
	if err != nil {
		t.Fatalf("VisibleSubset: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %v, want the candidate kept", got)
	}
}

func idsOf(items []item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}
