// Package middleware holds small, composable HTTP wrappers.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yanizio/storefront/internal/tenant"
)

type ctxKey int

const tenantKey ctxKey = iota

// WithTenant resolves the request's Host header against the tenant directory
// and stashes the winning tenant in the request context.  Resolution is
// memoized per request by the resolver itself, so handlers may call
// TenantFrom freely.  An empty directory yields 503, because no storefront
// can be served without at least one tenant.
func WithTenant(dir *tenant.Directory, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cur, err := tenant.NewResolver(dir, r.Host).Current(r.Context())
			if err != nil {
				if errors.Is(err, tenant.ErrNoTenants) {
					http.Error(w, "no tenants configured", http.StatusServiceUnavailable)
					return
				}
				log.Errorw("tenant resolution failed", "host", r.Host, "error", err)
				http.Error(w, "tenant resolution failed", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), tenantKey, cur)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TenantFrom returns the tenant stashed by WithTenant, or nil when the
// middleware is not in the chain.
func TenantFrom(ctx context.Context) *tenant.Tenant {
	t, _ := ctx.Value(tenantKey).(*tenant.Tenant)
	return t
}
