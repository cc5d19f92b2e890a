package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
)

// fakeRepo is a minimal in-memory impl of Repository for tests.
type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	data   map[uuid.UUID]Tenant
	gone   map[uuid.UUID]bool
	subs   map[int64]Subscription
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		data: make(map[uuid.UUID]Tenant),
		gone: make(map[uuid.UUID]bool),
		subs: make(map[int64]Subscription),
	}
}

func (r *fakeRepo) Create(ctx context.Context, t Tenant) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	t.ID = r.nextID
	r.data[t.PublicID] = t
	return t, nil
}

func (r *fakeRepo) ListActive(ctx context.Context) ([]Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Tenant
	for id, t := range r.data {
		if !r.gone[id] {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetByPublicID(ctx context.Context, publicID uuid.UUID) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[publicID]
	if !ok || r.gone[publicID] {
		return Tenant{}, ErrNotFound
	}
	return t, nil
}

func (r *fakeRepo) GetBySlug(ctx context.Context, slug string) (Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.data {
		if t.Slug == slug && !r.gone[id] {
			return t, nil
		}
	}
	return Tenant{}, ErrNotFound
}

func (r *fakeRepo) SoftDelete(ctx context.Context, publicID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[publicID]; !ok {
		return ErrNotFound
	}
	r.gone[publicID] = true
	return nil
}

func (r *fakeRepo) RecordProvisioned(ctx context.Context, publicID uuid.UUID, schemaVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[publicID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	t.SchemaVersion = schemaVersion
	t.ProvisionedAt = &now
	t.LastError = nil
	r.data[publicID] = t
	return nil
}

func (r *fakeRepo) RecordProvisionError(ctx context.Context, publicID uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.data[publicID]
	if !ok {
		return ErrNotFound
	}
	t.LastError = &message
	r.data[publicID] = t
	return nil
}

func (r *fakeRepo) CreateSubscription(ctx context.Context, tenantID int64, plan string) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan == "" {
		plan = "standard"
	}
	sub := Subscription{ID: tenantID, TenantID: tenantID, Plan: plan, Status: "active"}
	r.subs[tenantID] = sub
	return sub, nil
}

func (r *fakeRepo) GetSubscriptionByTenant(ctx context.Context, tenantID int64) (Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.subs[tenantID]
	if !ok {
		return Subscription{}, ErrNotFound
	}
	return sub, nil
}

// stubProvisioner succeeds or fails per tenant slug.
type stubProvisioner struct {
	mu    sync.Mutex
	fail  map[string]error
	calls int
}

func (s *stubProvisioner) Provision(ctx context.Context, rec persistence.TenantRecord) (*tenantdb.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err, ok := s.fail[rec.Slug]; ok {
		return nil, err
	}
	return &tenantdb.Conn{}, nil
}

func TestOnboardRegistersTenant(t *testing.T) {
	repo := newFakeRepo()
	prov := &stubProvisioner{}
	registry := tenantdb.NewRegistry()
	svc := New(repo, prov, registry)

	created, err := svc.Onboard(context.Background(), OnboardInput{
		Slug:        "Nairobi West Clinic",
		DisplayName: "Nairobi West Clinic",
		DatabaseURL: "postgres://app:secret@db/nairobi_west",
		Plan:        "premium",
	})
	require.NoError(t, err)
	require.Equal(t, "nairobi-west-clinic", created.Slug)
	require.NotNil(t, created.ProvisionedAt)
	require.Nil(t, created.LastError)

	_, ok := registry.Get(created.PublicID)
	require.True(t, ok, "onboarded tenant must be resolvable")

	sub, err := svc.GetSubscription(context.Background(), created.PublicID)
	require.NoError(t, err)
	require.Equal(t, "premium", sub.Plan)
}

func TestOnboardProvisionFailureKeepsRowOutOfRegistry(t *testing.T) {
	repo := newFakeRepo()
	prov := &stubProvisioner{fail: map[string]error{"broken-clinic": errors.New("connect refused")}}
	registry := tenantdb.NewRegistry()
	svc := New(repo, prov, registry)

	created, err := svc.Onboard(context.Background(), OnboardInput{
		Slug:        "broken-clinic",
		DisplayName: "Broken Clinic",
		DatabaseURL: "postgres://app:secret@db/broken",
	})
	var provErr *ProvisionFailedError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, created.PublicID, provErr.PublicID)

	_, ok := registry.Get(created.PublicID)
	require.False(t, ok, "failed tenant must not be resolvable")

	stored, err := repo.GetByPublicID(context.Background(), created.PublicID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastError)
	require.Contains(t, *stored.LastError, "connect refused")
	require.Nil(t, stored.ProvisionedAt)
}

func TestReprovisionAfterFailure(t *testing.T) {
	repo := newFakeRepo()
	prov := &stubProvisioner{fail: map[string]error{"flaky-clinic": errors.New("timeout")}}
	registry := tenantdb.NewRegistry()
	svc := New(repo, prov, registry)

	created, err := svc.Onboard(context.Background(), OnboardInput{
		Slug:        "flaky-clinic",
		DisplayName: "Flaky Clinic",
		DatabaseURL: "postgres://app:secret@db/flaky",
	})
	var provErr *ProvisionFailedError
	require.ErrorAs(t, err, &provErr)

	// Cause fixed: next attempt succeeds.
	prov.mu.Lock()
	delete(prov.fail, "flaky-clinic")
	prov.mu.Unlock()

	fixed, err := svc.Reprovision(context.Background(), created.PublicID)
	require.NoError(t, err)
	require.NotNil(t, fixed.ProvisionedAt)
	require.Nil(t, fixed.LastError)

	_, ok := registry.Get(created.PublicID)
	require.True(t, ok)
}

func TestOnboardSlugConflict(t *testing.T) {
	repo := newFakeRepo()
	prov := &stubProvisioner{}
	svc := New(repo, prov, tenantdb.NewRegistry())

	input := OnboardInput{
		Slug:        "dupe-clinic",
		DisplayName: "Dupe Clinic",
		DatabaseURL: "postgres://app:secret@db/dupe",
	}
	_, err := svc.Onboard(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Onboard(context.Background(), input)
	require.ErrorIs(t, err, ErrConflictSlug)
}

func TestOnboardRequiresDatabaseURL(t *testing.T) {
	svc := New(newFakeRepo(), &stubProvisioner{}, tenantdb.NewRegistry())

	_, err := svc.Onboard(context.Background(), OnboardInput{Slug: "no-db-clinic"})
	require.Error(t, err)
}

func TestOffboardRemovesFromRegistry(t *testing.T) {
	repo := newFakeRepo()
	prov := &stubProvisioner{}
	registry := tenantdb.NewRegistry()
	svc := New(repo, prov, registry)

	created, err := svc.Onboard(context.Background(), OnboardInput{
		Slug:        "closing-clinic",
		DisplayName: "Closing Clinic",
		DatabaseURL: "postgres://app:secret@db/closing",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Offboard(context.Background(), created.PublicID))

	_, ok := registry.Get(created.PublicID)
	require.False(t, ok)

	_, err = svc.Get(context.Background(), created.PublicID)
	require.ErrorIs(t, err, ErrNotFound)
}
