package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/CollinsCMK/healthfiti-backend-sub000/database"
)

// BootstrapControlPlaneSchema applies the control-plane DDL (tenants,
// subscriptions) in a single transaction, in this order:
//  1. controlplane/tenants.sql
//  2. controlplane/subscriptions.sql
//
// SQL is embedded at build time so binaries stay self-contained. The helper is
// idempotent and runs before any tenant database is touched; it is the first
// step of the boot sequence and of the CLI bootstrap command.
func BootstrapControlPlaneSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("bootstrap control plane: pool is required")
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.TenantsSQL)...)
	statements = append(statements, splitStatements(sqlassets.SubscriptionsSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// splitStatements breaks an embedded SQL asset into individual statements.
// Good enough for our DDL files, which never contain literal semicolons.
func splitStatements(sql string) []string {
	raw := strings.Split(sql, ";")
	statements := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		statements = append(statements, s)
	}
	return statements
}
