package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	platformlogging "github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/logging"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/persistence"
	"github.com/CollinsCMK/healthfiti-backend-sub000/platform/go/tenantdb"
)

// Command groups bootstrap helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap the control plane and provision tenant databases",
	}

	cmd.AddCommand(runCommand())
	return cmd
}

// runCommand performs the same boot sequence the API server runs at startup:
// apply control-plane DDL, enumerate active tenants, provision each tenant
// database. Useful for warming migrations ahead of a deploy and for checking
// which tenants would fail.
func runCommand() *cobra.Command {
	var (
		databaseURL string
		parallelism int
		deadline    time.Duration
		logLevel    string
	)

	c := &cobra.Command{
		Use:   "run",
		Short: "Apply control-plane schema and provision every active tenant",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			logger, err := platformlogging.NewLogger(platformlogging.Config{
				Component: "cli-bootstrap",
				Level:     logLevel,
				Format:    "console",
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() {
				_ = logger.Sync()
			}()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			tenantStore, err := persistence.NewTenantStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init tenant store: %w", err)
			}

			registry := tenantdb.NewRegistry()
			defer registry.Close()

			factory := tenantdb.NewFactory(tenantdb.FactoryConfig{}, logger)

			bootstrapper := tenantdb.NewBootstrapper(tenantdb.BootstrapDeps{
				ControlPlane: pool,
				Store:        tenantStore,
				Factory:      factory,
				Registry:     registry,
				Recorder:     tenantStore,
				Logger:       logger,
			}, tenantdb.BootstrapConfig{
				Parallelism: parallelism,
				Deadline:    deadline,
			})

			report, err := bootstrapper.Bootstrap(ctx)
			if err != nil {
				return fmt.Errorf("bootstrap: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Provisioned %d tenant(s), %d failure(s)\n",
				len(report.Provisioned), len(report.Failures))
			for _, f := range report.Failures {
				logger.Warn("tenant failed",
					zap.String("tenant", f.PublicID.String()),
					zap.String("slug", f.Slug),
					zap.Error(f.Err))
				fmt.Fprintf(cmd.OutOrStdout(), "FAILED %s (%s): %v\n", f.Slug, f.PublicID, f.Err)
			}
			if len(report.Failures) > 0 {
				return fmt.Errorf("%d tenant(s) failed to provision", len(report.Failures))
			}
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "control-plane PostgreSQL connection string")
	c.Flags().IntVar(&parallelism, "parallelism", 4, "concurrent provisioning workers")
	c.Flags().DurationVar(&deadline, "deadline", 2*time.Minute, "overall bound on the run (0 disables)")
	c.Flags().StringVar(&logLevel, "log-level", "info", "log level")

	_ = c.MarkFlagRequired("database-url")

	return c
}
