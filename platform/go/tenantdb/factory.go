package tenantdb

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
)

// FactoryConfig bounds each provisioning attempt so a single unreachable
// tenant database cannot hang the caller.
type FactoryConfig struct {
	ConnectTimeout time.Duration // default 10s
	MaxConns       int32         // per-tenant pool cap, default 10
	MinConns       int32         // warm connections per tenant, default 0
}

const (
	defaultConnectTimeout = 10 * time.Second
	defaultMaxConns       = 10
)

// Factory opens pooled connections to tenant databases and brings their schema
// to the latest migration version. It is stateless and never mutates the
// Registry; publishing a connection is the orchestrator's (or onboarding
// hook's) job, which keeps the Factory independently testable.
type Factory struct {
	cfg        FactoryConfig
	migrations []Migration
	logger     *zap.Logger
}

// NewFactory constructs a Factory using the embedded tenant migration set.
func NewFactory(cfg FactoryConfig, logger *zap.Logger) *Factory {
	if logger == nil {
		panic("tenantdb factory requires logger")
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = defaultMaxConns
	}
	return &Factory{cfg: cfg, migrations: TenantMigrations(), logger: logger}
}

// Provision opens a pool against the record's database and applies the
// migration set. It returns *ConnectError for dial/auth failures and
// *MigrateError when a specific step fails; callers alert differently on the
// two. The record's DatabaseURL is a secret and is never logged.
func (f *Factory) Provision(ctx context.Context, rec persistence.TenantRecord) (*Conn, error) {
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{
		ConnString:     rec.DatabaseURL,
		MaxConns:       f.cfg.MaxConns,
		MinConns:       f.cfg.MinConns,
		ConnectTimeout: f.cfg.ConnectTimeout,
	})
	if err != nil {
		return nil, &ConnectError{PublicID: rec.PublicID, Err: err}
	}

	version, err := runMigrations(ctx, pool, f.migrations)
	if err != nil {
		pool.Close()
		return nil, &MigrateError{PublicID: rec.PublicID, Version: version, Err: err}
	}

	f.logger.Info("tenant database provisioned",
		zap.String("tenant", rec.PublicID.String()),
		zap.String("slug", rec.Slug),
		zap.Int("schema_version", version),
	)

	return &Conn{
		publicID:      rec.PublicID,
		pool:          pool,
		schemaVersion: version,
		establishedAt: time.Now().UTC(),
	}, nil
}
