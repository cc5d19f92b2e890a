package tenantdb

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
)

type fakeLookup struct {
	records map[uuid.UUID]persistence.TenantRecord
	err     error
}

func (l *fakeLookup) GetByPublicID(ctx context.Context, publicID uuid.UUID) (persistence.TenantRecord, error) {
	if l.err != nil {
		return persistence.TenantRecord{}, l.err
	}
	rec, ok := l.records[publicID]
	if !ok {
		return persistence.TenantRecord{}, persistence.ErrNotFound
	}
	return rec, nil
}

func TestResolveMissingTenantClaim(t *testing.T) {
	r := NewResolver(NewRegistry(), &fakeLookup{})

	_, err := r.Resolve(context.Background(), nil)
	require.ErrorIs(t, err, ErrNotTenantScoped)

	zero := uuid.Nil
	_, err = r.Resolve(context.Background(), &zero)
	require.ErrorIs(t, err, ErrNotTenantScoped)
}

func TestResolveRegistryHit(t *testing.T) {
	registry := NewRegistry()
	id := uuid.New()
	conn := &Conn{publicID: id}
	registry.Insert(id, conn)

	r := NewResolver(registry, &fakeLookup{})

	got, err := r.Resolve(context.Background(), &id)
	require.NoError(t, err)
	require.Same(t, conn, got)
}

func TestResolveUnknownTenant(t *testing.T) {
	r := NewResolver(NewRegistry(), &fakeLookup{records: map[uuid.UUID]persistence.TenantRecord{}})

	id := uuid.New()
	_, err := r.Resolve(context.Background(), &id)
	require.ErrorIs(t, err, ErrUnknownTenant)
}

func TestResolveKnownButNotProvisioned(t *testing.T) {
	id := uuid.New()
	lookup := &fakeLookup{records: map[uuid.UUID]persistence.TenantRecord{
		id: {PublicID: id, Slug: "pending-clinic"},
	}}
	r := NewResolver(NewRegistry(), lookup)

	_, err := r.Resolve(context.Background(), &id)
	var notProv *NotProvisionedError
	require.ErrorAs(t, err, &notProv)
	require.Equal(t, id, notProv.PublicID)
}

func TestResolveStoreFailure(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("control plane down")}
	r := NewResolver(NewRegistry(), lookup)

	id := uuid.New()
	_, err := r.Resolve(context.Background(), &id)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrUnknownTenant)
}

func TestResolveNilStore(t *testing.T) {
	r := NewResolver(NewRegistry(), nil)

	id := uuid.New()
	_, err := r.Resolve(context.Background(), &id)
	var notProv *NotProvisionedError
	require.ErrorAs(t, err, &notProv)
}
