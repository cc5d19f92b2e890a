package tenantdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
)

// ControlPlaneStore is the read view of the control plane the orchestrator needs.
type ControlPlaneStore interface {
	ListActive(ctx context.Context) ([]persistence.TenantRecord, error)
}

// Provisioner turns a control-plane record into a live tenant connection.
// Implemented by *Factory.
type Provisioner interface {
	Provision(ctx context.Context, rec persistence.TenantRecord) (*Conn, error)
}

// ProvisionRecorder persists per-tenant provisioning outcomes on the
// control-plane row so operators can see pending/failed tenants. Optional.
type ProvisionRecorder interface {
	RecordProvisioned(ctx context.Context, publicID uuid.UUID, schemaVersion int) error
	RecordProvisionError(ctx context.Context, publicID uuid.UUID, message string) error
}

// BootstrapConfig tunes the boot sequence.
type BootstrapConfig struct {
	Parallelism int           // concurrent provisioning workers, default 4
	Deadline    time.Duration // overall bound on the boot sequence, 0 disables
}

// TenantFailure records one tenant that could not be provisioned.
type TenantFailure struct {
	PublicID uuid.UUID
	Slug     string
	Err      error
}

// Report aggregates the outcome of one bootstrap run.
type Report struct {
	Provisioned []uuid.UUID
	Failures    []TenantFailure
}

// FailedIDs returns the public ids of tenants that failed to provision.
func (r Report) FailedIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.PublicID)
	}
	return ids
}

// BootstrapDeps carries the orchestrator's collaborators.
type BootstrapDeps struct {
	// ControlPlane, when set, has the control-plane DDL applied before tenants
	// are enumerated. Leave nil when the schema is managed elsewhere (tests,
	// CLI runs that already migrated).
	ControlPlane *pgxpool.Pool
	Store        ControlPlaneStore
	Factory      Provisioner
	Registry     *Registry
	// Recorder is optional; outcomes are persisted per tenant when set.
	Recorder ProvisionRecorder
	Logger   *zap.Logger
}

// Bootstrapper runs once at process start: it migrates the control-plane
// schema, enumerates active tenants, provisions each one, and publishes the
// resulting connections in the Registry before the HTTP listener accepts
// traffic.
type Bootstrapper struct {
	deps BootstrapDeps
	cfg  BootstrapConfig
}

// NewBootstrapper validates dependencies and applies config defaults.
func NewBootstrapper(deps BootstrapDeps, cfg BootstrapConfig) *Bootstrapper {
	if deps.Store == nil {
		panic("bootstrapper requires control-plane store")
	}
	if deps.Factory == nil {
		panic("bootstrapper requires factory")
	}
	if deps.Registry == nil {
		panic("bootstrapper requires registry")
	}
	if deps.Logger == nil {
		panic("bootstrapper requires logger")
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 4
	}
	return &Bootstrapper{deps: deps, cfg: cfg}
}

// Bootstrap provisions every active tenant with per-tenant failure isolation:
// one bad connection string or broken migration never aborts the rest of the
// list. Only control-plane failures (schema DDL, tenant enumeration) are
// fatal, wrapped with ErrControlPlane. The returned Report names the tenants
// that failed; requests for them resolve to a typed "not provisioned" error
// instead of crashing the process.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (Report, error) {
	if b.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Deadline)
		defer cancel()
	}

	if b.deps.ControlPlane != nil {
		if err := persistence.BootstrapControlPlaneSchema(ctx, b.deps.ControlPlane); err != nil {
			return Report{}, fmt.Errorf("%w: migrate schema: %v", ErrControlPlane, err)
		}
	}

	records, err := b.deps.Store.ListActive(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("%w: list active tenants: %v", ErrControlPlane, err)
	}

	var (
		mu     sync.Mutex
		report Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Parallelism)

	for _, rec := range records {
		g.Go(func() error {
			conn, err := b.deps.Factory.Provision(gctx, rec)
			if err != nil {
				b.deps.Logger.Error("provision tenant",
					zap.String("tenant", rec.PublicID.String()),
					zap.String("slug", rec.Slug),
					zap.Error(err),
				)
				b.recordFailure(gctx, rec.PublicID, err)
				mu.Lock()
				report.Failures = append(report.Failures, TenantFailure{
					PublicID: rec.PublicID,
					Slug:     rec.Slug,
					Err:      err,
				})
				mu.Unlock()
				// Failures are isolated per tenant; never cancel the group.
				return nil
			}

			if prev := b.deps.Registry.Insert(rec.PublicID, conn); prev != nil {
				prev.Close()
			}
			b.recordSuccess(gctx, rec.PublicID, conn.SchemaVersion())
			mu.Lock()
			report.Provisioned = append(report.Provisioned, rec.PublicID)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // workers never return errors

	b.deps.Logger.Info("tenant bootstrap finished",
		zap.Int("tenants", len(records)),
		zap.Int("provisioned", len(report.Provisioned)),
		zap.Int("failed", len(report.Failures)),
	)

	return report, nil
}

func (b *Bootstrapper) recordSuccess(ctx context.Context, publicID uuid.UUID, version int) {
	if b.deps.Recorder == nil {
		return
	}
	if err := b.deps.Recorder.RecordProvisioned(ctx, publicID, version); err != nil {
		b.deps.Logger.Warn("record provisioned tenant",
			zap.String("tenant", publicID.String()), zap.Error(err))
	}
}

func (b *Bootstrapper) recordFailure(ctx context.Context, publicID uuid.UUID, cause error) {
	if b.deps.Recorder == nil {
		return
	}
	if err := b.deps.Recorder.RecordProvisionError(ctx, publicID, cause.Error()); err != nil {
		b.deps.Logger.Warn("record tenant provision error",
			zap.String("tenant", publicID.String()), zap.Error(err))
	}
}
