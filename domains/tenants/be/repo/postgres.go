package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/service"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
)

// PostgresRepository implements the tenant repository over the shared
// control-plane persistence layer.
type PostgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by TenantStore.
func NewPostgresRepository(store *persistence.TenantStore) *PostgresRepository {
	if store == nil {
		panic("tenant store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) Create(ctx context.Context, t service.Tenant) (service.Tenant, error) {
	out, err := r.store.Create(ctx, toRecord(t))
	if err != nil {
		return service.Tenant{}, mapConflict(err)
	}
	return toServiceTenant(out), nil
}

func (r *PostgresRepository) ListActive(ctx context.Context) ([]service.Tenant, error) {
	rows, err := r.store.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	tenants := make([]service.Tenant, 0, len(rows))
	for _, rec := range rows {
		tenants = append(tenants, toServiceTenant(rec))
	}
	return tenants, nil
}

func (r *PostgresRepository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (service.Tenant, error) {
	rec, err := r.store.GetByPublicID(ctx, publicID)
	if err != nil {
		return service.Tenant{}, mapNotFound(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (service.Tenant, error) {
	rec, err := r.store.GetBySlug(ctx, slug)
	if err != nil {
		return service.Tenant{}, mapNotFound(err)
	}
	return toServiceTenant(rec), nil
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, publicID uuid.UUID) error {
	return mapNotFound(r.store.SoftDelete(ctx, publicID))
}

func (r *PostgresRepository) RecordProvisioned(ctx context.Context, publicID uuid.UUID, schemaVersion int) error {
	return mapNotFound(r.store.RecordProvisioned(ctx, publicID, schemaVersion))
}

func (r *PostgresRepository) RecordProvisionError(ctx context.Context, publicID uuid.UUID, message string) error {
	return mapNotFound(r.store.RecordProvisionError(ctx, publicID, message))
}

func (r *PostgresRepository) CreateSubscription(ctx context.Context, tenantID int64, plan string) (service.Subscription, error) {
	sub, err := r.store.CreateSubscription(ctx, tenantID, plan)
	if err != nil {
		return service.Subscription{}, err
	}
	return toServiceSubscription(sub), nil
}

func (r *PostgresRepository) GetSubscriptionByTenant(ctx context.Context, tenantID int64) (service.Subscription, error) {
	sub, err := r.store.GetSubscriptionByTenant(ctx, tenantID)
	if err != nil {
		return service.Subscription{}, mapNotFound(err)
	}
	return toServiceSubscription(sub), nil
}

func toRecord(t service.Tenant) persistence.TenantRecord {
	return persistence.TenantRecord{
		ID:            t.ID,
		PublicID:      t.PublicID,
		Slug:          t.Slug,
		DisplayName:   t.DisplayName,
		DatabaseURL:   t.DatabaseURL,
		SchemaVersion: t.SchemaVersion,
		ProvisionedAt: t.ProvisionedAt,
		LastError:     t.LastError,
		CreatedAt:     t.CreatedAt,
	}
}

func toServiceTenant(rec persistence.TenantRecord) service.Tenant {
	return service.Tenant{
		ID:            rec.ID,
		PublicID:      rec.PublicID,
		Slug:          rec.Slug,
		DisplayName:   rec.DisplayName,
		DatabaseURL:   rec.DatabaseURL,
		SchemaVersion: rec.SchemaVersion,
		ProvisionedAt: rec.ProvisionedAt,
		LastError:     rec.LastError,
		CreatedAt:     rec.CreatedAt,
	}
}

func toServiceSubscription(sub persistence.Subscription) service.Subscription {
	return service.Subscription{
		ID:                 sub.ID,
		TenantID:           sub.TenantID,
		Plan:               sub.Plan,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return service.ErrNotFound
	}
	return err
}

// mapConflict translates unique violations on the slug/public_id constraints.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return service.ErrConflictSlug
	}
	return err
}
