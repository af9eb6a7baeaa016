// Unit-tests for Directory behavior over a fake repository: caching,
// read-after-write invalidation, and the last-tenant deletion guard.
package tenant

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/cache"
	"github.com/yanizio/storefront/internal/event"
)

// fakeRepo is an in-memory Repository with call counters, letting tests
// prove which reads were served from cache.
type fakeRepo struct {
	tenants  []Tenant
	allCalls int
	deleted  []int64
}

func (f *fakeRepo) All(context.Context) ([]Tenant, error) {
	f.allCalls++
	out := make([]Tenant, len(f.tenants))
	copy(out, f.tenants)
	return out, nil
}

func (f *fakeRepo) ByID(_ context.Context, id int64) (*Tenant, error) {
	for i := range f.tenants {
		if f.tenants[i].ID == id {
			t := f.tenants[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) Insert(_ context.Context, t *Tenant) error {
	t.ID = int64(len(f.tenants) + 1)
	f.tenants = append(f.tenants, *t)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, t *Tenant) error {
	for i := range f.tenants {
		if f.tenants[i].ID == t.ID {
			f.tenants[i] = *t
			return nil
		}
	}
	return errors.New("no such tenant")
}

func (f *fakeRepo) Delete(_ context.Context, t *Tenant) error {
	for i := range f.tenants {
		if f.tenants[i].ID == t.ID {
			f.tenants = append(f.tenants[:i], f.tenants[i+1:]...)
			f.deleted = append(f.deleted, t.ID)
			return nil
		}
	}
	return errors.New("no such tenant")
}

func newTestDirectory(t *testing.T, repo *fakeRepo) *Directory {
	t.Helper()
	store := cache.NewMemory()
	t.Cleanup(func() { store.Close() })
	cm := cache.NewManager(store, 0, zap.NewNop().Sugar())
	return NewDirectory(repo, cm, event.Nop{}, zap.NewNop().Sugar())
}

func TestDirectoryAllIsCached(t *testing.T) {
	repo := &fakeRepo{tenants: []Tenant{{ID: 1, Name: "main"}}}
	dir := newTestDirectory(t, repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		all, err := dir.All(ctx)
		if err != nil {
			t.Fatalf("All: %v", err)
		}
		if len(all) != 1 || all[0].ID != 1 {
			t.Fatalf("All = %+v", all)
		}
	}
	if repo.allCalls != 1 {
		t.Fatalf("repo.All ran %d times, want 1", repo.allCalls)
	}
}

func TestDirectoryInsertInvalidates(t *testing.T) {
	repo := &fakeRepo{tenants: []Tenant{{ID: 1, Name: "main"}}}
	dir := newTestDirectory(t, repo)
	ctx := context.Background()

	if _, err := dir.All(ctx); err != nil {
		t.Fatalf("warm All: %v", err)
	}
	if err := dir.Insert(ctx, &Tenant{Name: "outlet"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	all, err := dir.All(ctx)
	if err != nil {
		t.Fatalf("All after Insert: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("stale read after insert: %+v", all)
	}
}

func TestDirectoryByIDZeroIsAbsent(t *testing.T) {
	dir := newTestDirectory(t, &fakeRepo{tenants: []Tenant{{ID: 1}}})

	got, err := dir.ByID(context.Background(), 0)
	if err != nil || got != nil {
		t.Fatalf("ByID(0) = %v, %v; want nil, nil", got, err)
	}
}

func TestDirectoryLastTenantGuard(t *testing.T) {
	repo := &fakeRepo{tenants: []Tenant{{ID: 1, Name: "only"}}}
	dir := newTestDirectory(t, repo)
	ctx := context.Background()

	err := dir.Delete(ctx, &repo.tenants[0])
	if !errors.Is(err, ErrLastTenant) {
		t.Fatalf("Delete(last) = %v, want ErrLastTenant", err)
	}
	if len(repo.deleted) != 0 || len(repo.tenants) != 1 {
		t.Fatal("guard fired but the repository was still mutated")
	}

	// With a second tenant present the delete goes through.
	if err := dir.Insert(ctx, &Tenant{Name: "second"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := dir.Delete(ctx, &Tenant{ID: 1}); err != nil {
		t.Fatalf("Delete with two tenants: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != 1 {
		t.Fatalf("deleted = %v", repo.deleted)
	}
}

func TestDirectoryNilArguments(t *testing.T) {
	dir := newTestDirectory(t, &fakeRepo{})
	ctx := context.Background()

	for name, fn := range map[string]func() error{
		"Insert": func() error { return dir.Insert(ctx, nil) },
		"Update": func() error { return dir.Update(ctx, nil) },
		"Delete": func() error { return dir.Delete(ctx, nil) },
	} {
		if err := fn(); !errors.Is(err, ErrNilTenant) {
			t.Fatalf("%s(nil) = %v, want ErrNilTenant", name, err)
		}
	}
}
