package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and
// early development. Soft-deleted tenants are kept but hidden, mirroring the
// postgres queries.
type MemoryRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byID    map[uuid.UUID]service.Tenant
	deleted map[uuid.UUID]bool
	subs    map[int64][]service.Subscription
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]service.Tenant),
		deleted: make(map[uuid.UUID]bool),
		subs:    make(map[int64][]service.Subscription),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byID {
		if existing.Slug == t.Slug && !r.deleted[existing.PublicID] {
			return service.Tenant{}, service.ErrConflictSlug
		}
	}

	r.nextID++
	t.ID = r.nextID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	r.byID[t.PublicID] = t
	return t, nil
}

func (r *MemoryRepository) ListActive(ctx context.Context) ([]service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]service.Tenant, 0, len(r.byID))
	for id, t := range r.byID {
		if r.deleted[id] {
			continue
		}
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (r *MemoryRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byID[publicID]
	if !ok || r.deleted[publicID] {
		return service.Tenant{}, service.ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepository) GetBySlug(ctx context.Context, slug string) (service.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for id, t := range r.byID {
		if t.Slug == slug && !r.deleted[id] {
			return t, nil
		}
	}
	return service.Tenant{}, service.ErrNotFound
}

func (r *MemoryRepository) SoftDelete(ctx context.Context, publicID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[publicID]; !ok || r.deleted[publicID] {
		return service.ErrNotFound
	}
	r.deleted[publicID] = true
	return nil
}

func (r *MemoryRepository) RecordProvisioned(ctx context.Context, publicID uuid.UUID, schemaVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[publicID]
	if !ok {
		return service.ErrNotFound
	}
	now := time.Now().UTC()
	t.SchemaVersion = schemaVersion
	t.ProvisionedAt = &now
	t.LastError = nil
	r.byID[publicID] = t
	return nil
}

func (r *MemoryRepository) RecordProvisionError(ctx context.Context, publicID uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.byID[publicID]
	if !ok {
		return service.ErrNotFound
	}
	t.LastError = &message
	r.byID[publicID] = t
	return nil
}

func (r *MemoryRepository) CreateSubscription(ctx context.Context, tenantID int64, plan string) (service.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if plan == "" {
		plan = "standard"
	}
	sub := service.Subscription{
		ID:                 int64(len(r.subs[tenantID]) + 1),
		TenantID:           tenantID,
		Plan:               plan,
		Status:             "active",
		CurrentPeriodStart: time.Now().UTC(),
	}
	r.subs[tenantID] = append(r.subs[tenantID], sub)
	return sub, nil
}

func (r *MemoryRepository) GetSubscriptionByTenant(ctx context.Context, tenantID int64) (service.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := r.subs[tenantID]
	if len(subs) == 0 {
		return service.Subscription{}, service.ErrNotFound
	}
	return subs[len(subs)-1], nil
}

var _ service.Repository = (*MemoryRepository)(nil)
var _ service.Repository = (*PostgresRepository)(nil)
