package tenantdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
)

// TenantLookup lets the resolver distinguish "never existed" from "exists but
// not provisioned" on a registry miss. Implemented by *persistence.TenantStore.
type TenantLookup interface {
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (persistence.TenantRecord, error)
}

// Resolver maps an authenticated tenant identity to its live connection.
// It runs on every tenant-scoped request; the hot path is a single registry
// read, with a control-plane lookup only on misses.
type Resolver struct {
	registry *Registry
	store    TenantLookup
}

// NewResolver constructs a Resolver. store may be nil, in which case registry
// misses are always reported as not provisioned.
func NewResolver(registry *Registry, store TenantLookup) *Resolver {
	if registry == nil {
		panic("resolver requires registry")
	}
	return &Resolver{registry: registry, store: store}
}

// Resolve returns the live connection for the claimed tenant. A nil or zero
// tenantID means the caller is not tenant-scoped (ErrNotTenantScoped). A
// registry miss never triggers provisioning inline with a request — migration
// is too slow and not concurrency-safe for the hot path — so misses are a
// definite error: ErrUnknownTenant when the control plane has no active row,
// *NotProvisionedError otherwise.
func (r *Resolver) Resolve(ctx context.Context, tenantID *uuid.UUID) (*Conn, error) {
	if tenantID == nil || *tenantID == uuid.Nil {
		return nil, ErrNotTenantScoped
	}

	if conn, ok := r.registry.Get(*tenantID); ok {
		return conn, nil
	}

	if r.store != nil {
		if _, err := r.store.GetByPublicID(ctx, *tenantID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				return nil, ErrUnknownTenant
			}
			return nil, fmt.Errorf("look up tenant %s: %w", *tenantID, err)
		}
	}

	return nil, &NotProvisionedError{PublicID: *tenantID}
}
