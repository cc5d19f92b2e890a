package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	platformauth "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/auth"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
)

// ConnResolver defines the minimal lookup capability required to attach a
// tenant database connection to a request. Implemented by *tenantdb.Resolver.
type ConnResolver interface {
	Resolve(ctx context.Context, tenantID *uuid.UUID) (*tenantdb.Conn, error)
}

// WithTenantConn resolves the tenant claim on the authenticated credentials to
// a live database connection and attaches it to the request context. Handlers
// downstream read it with tenantdb.FromContext and never open connections
// themselves. Resolution failures map to client-facing statuses: missing claim
// 403, unknown tenant 404, known-but-unprovisioned 503.
func WithTenantConn(resolver ConnResolver) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant middleware: resolver is required")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds, ok := platformauth.UserFromContext(r.Context())
			if !ok || creds == nil || creds.TenantID == nil || *creds.TenantID == "" {
				http.Error(w, "tenant required", http.StatusForbidden)
				return
			}

			tid, err := uuid.Parse(*creds.TenantID)
			if err != nil {
				http.Error(w, "invalid tenant id", http.StatusUnauthorized)
				return
			}

			conn, err := resolver.Resolve(r.Context(), &tid)
			if err != nil {
				var notProvisioned *tenantdb.NotProvisionedError
				switch {
				case errors.Is(err, tenantdb.ErrNotTenantScoped):
					http.Error(w, "tenant required", http.StatusForbidden)
				case errors.Is(err, tenantdb.ErrUnknownTenant):
					http.Error(w, "tenant not found", http.StatusNotFound)
				case errors.As(err, &notProvisioned):
					w.Header().Set("Retry-After", "30")
					http.Error(w, "tenant database unavailable", http.StatusServiceUnavailable)
				default:
					http.Error(w, "internal error", http.StatusInternalServerError)
				}
				return
			}

			ctx := tenantdb.WithConn(r.Context(), conn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
