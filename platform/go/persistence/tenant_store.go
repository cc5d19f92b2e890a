package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TenantsTable is the control-plane table holding tenant registry rows.
const TenantsTable = "tenants"

// ErrNotFound is returned when a control-plane row is not found.
var ErrNotFound = errors.New("not found")

// TenantRecord represents one control-plane tenant row. DatabaseURL carries
// the credentials for the tenant's own database and must never be logged.
type TenantRecord struct {
	ID            int64      `db:"id"`
	PublicID      uuid.UUID  `db:"public_id"`
	Slug          string     `db:"slug"`
	DisplayName   string     `db:"display_name"`
	DatabaseURL   string     `db:"database_url"`
	SchemaVersion int        `db:"schema_version"`
	ProvisionedAt *time.Time `db:"provisioned_at"`
	LastError     *string    `db:"last_error"`
	SoftDeletedAt *time.Time `db:"soft_deleted_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

// Active reports whether the tenant is logically present in the control plane.
func (r TenantRecord) Active() bool {
	return r.SoftDeletedAt == nil
}

// Subscription is the billing read model attached to a tenant. Billing logic
// lives elsewhere; the control plane only records the current plan and period.
type Subscription struct {
	ID                 int64      `db:"id"`
	TenantID           int64      `db:"tenant_id"`
	Plan               string     `db:"plan"`
	Status             string     `db:"status"`
	CurrentPeriodStart time.Time  `db:"current_period_start"`
	CurrentPeriodEnd   *time.Time `db:"current_period_end"`
	CreatedAt          time.Time  `db:"created_at"`
}

// TenantStore provides access to the control-plane tenants and subscriptions
// tables. All methods run against the shared control-plane pool, never against
// a tenant database.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a store; assumes BootstrapControlPlaneSchema already ran.
func NewTenantStore(ctx context.Context, pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

const tenantColumns = `id, public_id, slug, display_name, database_url, schema_version,
        provisioned_at, last_error, soft_deleted_at, created_at`

// Create inserts a new tenant row.
func (s *TenantStore) Create(ctx context.Context, rec TenantRecord) (TenantRecord, error) {
	if rec.PublicID == uuid.Nil {
		return TenantRecord{}, errors.New("tenant public id is required")
	}
	if rec.Slug == "" {
		return TenantRecord{}, errors.New("tenant slug is required")
	}
	if rec.DatabaseURL == "" {
		return TenantRecord{}, errors.New("tenant database url is required")
	}

	query := fmt.Sprintf(`
        INSERT INTO %s (public_id, slug, display_name, database_url, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+tenantColumns, TenantsTable)

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := s.pool.QueryRow(ctx, query, rec.PublicID, rec.Slug, rec.DisplayName, rec.DatabaseURL, createdAt)
	return scanTenantRecord(row)
}

// ListActive returns every tenant that has not been soft-deleted. This is the
// enumeration the bootstrap orchestrator provisions from.
func (s *TenantStore) ListActive(ctx context.Context) ([]TenantRecord, error) {
	query := fmt.Sprintf(`SELECT `+tenantColumns+`
        FROM %s WHERE soft_deleted_at IS NULL ORDER BY id`, TenantsTable)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []TenantRecord
	for rows.Next() {
		rec, err := scanTenantRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetByPublicID fetches an active tenant by its public identifier.
// Soft-deleted tenants are reported as ErrNotFound.
func (s *TenantStore) GetByPublicID(ctx context.Context, publicID uuid.UUID) (TenantRecord, error) {
	query := fmt.Sprintf(`SELECT `+tenantColumns+`
        FROM %s WHERE public_id = $1 AND soft_deleted_at IS NULL`, TenantsTable)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, publicID))
}

// GetBySlug fetches an active tenant by slug.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (TenantRecord, error) {
	query := fmt.Sprintf(`SELECT `+tenantColumns+`
        FROM %s WHERE slug = $1 AND soft_deleted_at IS NULL`, TenantsTable)
	return scanTenantRecord(s.pool.QueryRow(ctx, query, slug))
}

// RecordProvisioned stamps a successful provisioning run on the tenant row.
func (s *TenantStore) RecordProvisioned(ctx context.Context, publicID uuid.UUID, schemaVersion int) error {
	query := fmt.Sprintf(`UPDATE %s
        SET schema_version = $2, provisioned_at = now(), last_error = NULL
        WHERE public_id = $1`, TenantsTable)
	tag, err := s.pool.Exec(ctx, query, publicID, schemaVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordProvisionError stores the last provisioning failure for operators.
// The message must already be scrubbed of credentials by the caller.
func (s *TenantStore) RecordProvisionError(ctx context.Context, publicID uuid.UUID, message string) error {
	query := fmt.Sprintf(`UPDATE %s SET last_error = $2 WHERE public_id = $1`, TenantsTable)
	tag, err := s.pool.Exec(ctx, query, publicID, message)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SoftDelete marks the tenant as logically removed. The row is kept so billing
// history and the public id stay resolvable for audits.
func (s *TenantStore) SoftDelete(ctx context.Context, publicID uuid.UUID) error {
	query := fmt.Sprintf(`UPDATE %s SET soft_deleted_at = now()
        WHERE public_id = $1 AND soft_deleted_at IS NULL`, TenantsTable)
	tag, err := s.pool.Exec(ctx, query, publicID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSubscription attaches an initial subscription to a tenant.
func (s *TenantStore) CreateSubscription(ctx context.Context, tenantID int64, plan string) (Subscription, error) {
	if plan == "" {
		plan = "standard"
	}
	row := s.pool.QueryRow(ctx, `
        INSERT INTO subscriptions (tenant_id, plan)
        VALUES ($1, $2)
        RETURNING id, tenant_id, plan, status, current_period_start, current_period_end, created_at`,
		tenantID, plan)
	return scanSubscription(row)
}

// GetSubscriptionByTenant returns the most recent subscription for a tenant.
func (s *TenantStore) GetSubscriptionByTenant(ctx context.Context, tenantID int64) (Subscription, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT id, tenant_id, plan, status, current_period_start, current_period_end, created_at
        FROM subscriptions WHERE tenant_id = $1
        ORDER BY id DESC LIMIT 1`, tenantID)
	return scanSubscription(row)
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	if err := row.Scan(&rec.ID, &rec.PublicID, &rec.Slug, &rec.DisplayName, &rec.DatabaseURL,
		&rec.SchemaVersion, &rec.ProvisionedAt, &rec.LastError, &rec.SoftDeletedAt, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TenantRecord{}, ErrNotFound
		}
		return TenantRecord{}, err
	}
	return rec, nil
}

func scanSubscription(row pgx.Row) (Subscription, error) {
	var sub Subscription
	if err := row.Scan(&sub.ID, &sub.TenantID, &sub.Plan, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Subscription{}, ErrNotFound
		}
		return Subscription{}, err
	}
	return sub, nil
}
