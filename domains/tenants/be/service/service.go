package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
)

// Errors returned by the service layer.
var (
	ErrNotFound     = errors.New("tenant not found")
	ErrConflictSlug = errors.New("tenant slug already exists")
)

// ProvisionFailedError is returned when the tenant row was written but its
// database could not be provisioned. The row is kept (with last_error set) so
// the tenant can be re-provisioned once the cause is fixed.
type ProvisionFailedError struct {
	PublicID uuid.UUID
	Err      error
}

func (e *ProvisionFailedError) Error() string {
	return fmt.Sprintf("tenant %s created but provisioning failed: %v", e.PublicID, e.Err)
}

func (e *ProvisionFailedError) Unwrap() error { return e.Err }

// Tenant is the domain model for a control-plane tenant entry. DatabaseURL is
// a secret and must never be serialized to clients or logs.
type Tenant struct {
	ID            int64
	PublicID      uuid.UUID
	Slug          string
	DisplayName   string
	DatabaseURL   string
	SchemaVersion int
	ProvisionedAt *time.Time
	LastError     *string
	CreatedAt     time.Time
}

// Subscription is the billing read model attached to a tenant.
type Subscription struct {
	ID                 int64
	TenantID           int64
	Plan               string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   *time.Time
}

// OnboardInput represents the request to onboard a new tenant.
type OnboardInput struct {
	Slug        string
	DisplayName string
	DatabaseURL string
	Plan        string
}

// Repository abstracts control-plane persistence.
type Repository interface {
	Create(ctx context.Context, t Tenant) (Tenant, error)
	ListActive(ctx context.Context) ([]Tenant, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (Tenant, error)
	GetBySlug(ctx context.Context, slug string) (Tenant, error)
	SoftDelete(ctx context.Context, publicID uuid.UUID) error
	RecordProvisioned(ctx context.Context, publicID uuid.UUID, schemaVersion int) error
	RecordProvisionError(ctx context.Context, publicID uuid.UUID, message string) error
	CreateSubscription(ctx context.Context, tenantID int64, plan string) (Subscription, error)
	GetSubscriptionByTenant(ctx context.Context, tenantID int64) (Subscription, error)
}

// Provisioner opens and migrates a tenant database. Implemented by
// *tenantdb.Factory.
type Provisioner interface {
	Provision(ctx context.Context, rec persistence.TenantRecord) (*tenantdb.Conn, error)
}

// Service provides tenant onboarding, offboarding, and registry upkeep. It is
// the write side of the tenant lifecycle: every mutation of the control plane
// that affects a tenant database goes through here so the Registry stays
// consistent with the store.
type Service struct {
	repo        Repository
	provisioner Provisioner
	registry    *tenantdb.Registry
}

// New constructs a Service with required dependencies.
func New(repo Repository, provisioner Provisioner, registry *tenantdb.Registry) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	if provisioner == nil {
		panic("tenant provisioner is required")
	}
	if registry == nil {
		panic("tenant registry is required")
	}
	return &Service{repo: repo, provisioner: provisioner, registry: registry}
}

// List returns every active tenant.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	return s.repo.ListActive(ctx)
}

// Get returns a tenant by public id.
func (s *Service) Get(ctx context.Context, publicID uuid.UUID) (Tenant, error) {
	return s.repo.GetByPublicID(ctx, publicID)
}

// GetSubscription returns the tenant's current subscription.
func (s *Service) GetSubscription(ctx context.Context, publicID uuid.UUID) (Subscription, error) {
	t, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return Subscription{}, err
	}
	return s.repo.GetSubscriptionByTenant(ctx, t.ID)
}

// Onboard creates the control-plane row and synchronously provisions the
// tenant database before returning: a successful response means the tenant is
// live and resolvable, not merely that a row exists. On provisioning failure
// the row is kept with last_error set and a *ProvisionFailedError is returned;
// Reprovision retries it later.
func (s *Service) Onboard(ctx context.Context, input OnboardInput) (Tenant, error) {
	slug, err := persistence.NormalizeSlug(input.Slug)
	if err != nil {
		return Tenant{}, err
	}
	if input.DatabaseURL == "" {
		return Tenant{}, errors.New("tenant database url is required")
	}

	if _, err := s.repo.GetBySlug(ctx, slug); err == nil {
		return Tenant{}, ErrConflictSlug
	} else if !errors.Is(err, ErrNotFound) {
		return Tenant{}, err
	}

	t := Tenant{
		PublicID:    uuid.New(),
		Slug:        slug,
		DisplayName: input.DisplayName,
		DatabaseURL: input.DatabaseURL,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return Tenant{}, err
	}

	if _, err := s.repo.CreateSubscription(ctx, created.ID, input.Plan); err != nil {
		return Tenant{}, fmt.Errorf("create subscription: %w", err)
	}

	if err := s.provision(ctx, created); err != nil {
		return created, &ProvisionFailedError{PublicID: created.PublicID, Err: err}
	}

	return s.repo.GetByPublicID(ctx, created.PublicID)
}

// Reprovision retries provisioning for an existing tenant, e.g. after a failed
// onboarding or a migration fix. Safe to run on healthy tenants: migrations
// are idempotent and the registry entry is replaced atomically.
func (s *Service) Reprovision(ctx context.Context, publicID uuid.UUID) (Tenant, error) {
	t, err := s.repo.GetByPublicID(ctx, publicID)
	if err != nil {
		return Tenant{}, err
	}

	if err := s.provision(ctx, t); err != nil {
		return t, &ProvisionFailedError{PublicID: t.PublicID, Err: err}
	}

	return s.repo.GetByPublicID(ctx, publicID)
}

// Offboard soft-deletes the tenant and retires its live connection. Order
// matters: remove from the registry first so no new request can resolve the
// tenant, then close the drained connection.
func (s *Service) Offboard(ctx context.Context, publicID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, publicID); err != nil {
		return err
	}

	if conn, ok := s.registry.Remove(publicID); ok {
		conn.Close()
	}
	return nil
}

func (s *Service) provision(ctx context.Context, t Tenant) error {
	conn, err := s.provisioner.Provision(ctx, persistence.TenantRecord{
		ID:          t.ID,
		PublicID:    t.PublicID,
		Slug:        t.Slug,
		DatabaseURL: t.DatabaseURL,
	})
	if err != nil {
		if recErr := s.repo.RecordProvisionError(ctx, t.PublicID, err.Error()); recErr != nil {
			return errors.Join(err, recErr)
		}
		return err
	}

	if prev := s.registry.Insert(t.PublicID, conn); prev != nil {
		prev.Close()
	}
	return s.repo.RecordProvisioned(ctx, t.PublicID, conn.SchemaVersion())
}
