package tenant

import (
	"context"
	"sync"

	"github.com/yanizio/storefront/internal/metrics"
)

// Resolver determines the current tenant for one unit of work.  Construct
// one per request with the inbound Host header; the first Current call
// resolves and memoizes, so repeated lookups inside the request are free.
//
// Resolution order:
//
//  1. First tenant whose alias set contains the normalized host, scanning
//     the directory listing in its stable (display_order, id) order.
//  2. Otherwise the first tenant in that order (fallback).
//  3. An empty directory is ErrNoTenants; the caller cannot proceed.
type Resolver struct {
	dir  *Directory
	host string

	mu       sync.Mutex
	resolved *Tenant
}

// NewResolver builds a Resolver for one request.  host may carry a port
// suffix and mixed case; it is normalized before matching.  Empty host is
// valid and lands on the fallback path.
func NewResolver(dir *Directory, host string) *Resolver {
	return &Resolver{dir: dir, host: NormalizeHost(host)}
}

// Current returns the resolved tenant, resolving on first use.
func (r *Resolver) Current(ctx context.Context) (*Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved != nil {
		return r.resolved, nil
	}

	all, err := r.dir.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrNoTenants
	}
	metrics.TenantResolveTotal.Inc()

	for i := range all {
		if all[i].ContainsHost(r.host) {
			r.resolved = &all[i]
			return r.resolved, nil
		}
	}

	metrics.TenantResolveFallbackTotal.Inc()
	r.resolved = &all[0]
	return r.resolved, nil
}
