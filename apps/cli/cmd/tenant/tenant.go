package tenantcmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/repo"
	"github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/service"
	platformlogging "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/logging"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
)

// Command groups tenant lifecycle helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant lifecycle (onboard, list, offboard)",
	}

	cmd.AddCommand(onboardCommand())
	cmd.AddCommand(listCommand())
	cmd.AddCommand(offboardCommand())
	return cmd
}

// lifecycle wires the tenant service against the control plane for one CLI
// invocation. The registry is process-local and discarded on exit; connections
// are only held long enough to run migrations.
type lifecycle struct {
	pool     func()
	registry *tenantdb.Registry
	svc      *service.Service
}

func newLifecycle(ctx context.Context, databaseURL string) (*lifecycle, error) {
	logger, err := platformlogging.NewLogger(platformlogging.Config{
		Component: "cli-tenant",
		Level:     "warn",
		Format:    "console",
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
	if err != nil {
		return nil, fmt.Errorf("init pool: %w", err)
	}

	if err := persistence.BootstrapControlPlaneSchema(ctx, pool); err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("migrate control-plane schema: %w", err)
	}

	store, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, fmt.Errorf("init tenant store: %w", err)
	}

	registry := tenantdb.NewRegistry()
	factory := tenantdb.NewFactory(tenantdb.FactoryConfig{}, logger)
	svc := service.New(repo.NewPostgresRepository(store), factory, registry)

	return &lifecycle{
		pool:     func() { persistence.ClosePool(pool) },
		registry: registry,
		svc:      svc,
	}, nil
}

func (l *lifecycle) close() {
	l.registry.Close()
	l.pool()
}

func onboardCommand() *cobra.Command {
	var (
		databaseURL string
		slug        string
		displayName string
		tenantDBURL string
		plan        string
	)

	c := &cobra.Command{
		Use:   "onboard",
		Short: "Create a tenant, migrate its database, and record the outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			lc, err := newLifecycle(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer lc.close()

			t, err := lc.svc.Onboard(ctx, service.OnboardInput{
				Slug:        slug,
				DisplayName: displayName,
				DatabaseURL: tenantDBURL,
				Plan:        plan,
			})
			var provErr *service.ProvisionFailedError
			if errors.As(err, &provErr) {
				fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s created (%s) but provisioning failed; fix the cause and run onboard again or reprovision via the API.\n", t.Slug, t.PublicID)
				return provErr
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s onboarded (%s), schema version %d\n", t.Slug, t.PublicID, t.SchemaVersion)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "control-plane PostgreSQL connection string")
	c.Flags().StringVar(&slug, "slug", "", "tenant slug")
	c.Flags().StringVar(&displayName, "display-name", "", "tenant display name")
	c.Flags().StringVar(&tenantDBURL, "tenant-database-url", "", "connection string of the tenant's own database")
	c.Flags().StringVar(&plan, "plan", "standard", "subscription plan")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("slug")
	_ = c.MarkFlagRequired("tenant-database-url")

	return c
}

func listCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "list",
		Short: "List active tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			lc, err := newLifecycle(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer lc.close()

			tenants, err := lc.svc.List(ctx)
			if err != nil {
				return err
			}

			for _, t := range tenants {
				state := "pending"
				if t.ProvisionedAt != nil {
					state = fmt.Sprintf("provisioned v%d", t.SchemaVersion)
				}
				if t.LastError != nil {
					state = "failed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", t.PublicID, t.Slug, state)
			}
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "control-plane PostgreSQL connection string")
	_ = c.MarkFlagRequired("database-url")

	return c
}

func offboardCommand() *cobra.Command {
	var (
		databaseURL string
		tenantID    string
	)

	c := &cobra.Command{
		Use:   "offboard",
		Short: "Soft-delete a tenant; its database is kept for retention",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			id, err := uuid.Parse(tenantID)
			if err != nil {
				return fmt.Errorf("invalid tenant id: %w", err)
			}

			lc, err := newLifecycle(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer lc.close()

			if err := lc.svc.Offboard(ctx, id); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Tenant %s offboarded\n", id)
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "control-plane PostgreSQL connection string")
	c.Flags().StringVar(&tenantID, "tenant-id", "", "tenant public id (UUID)")

	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("tenant-id")

	return c
}
