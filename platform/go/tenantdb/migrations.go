package tenantdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/CollinsCMK/healthfiti-backend-sub000/database"
)

// Migration is one ordered step of the tenant-schema migration set.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// TenantMigrations returns the ordered, embedded migration set applied to
// every tenant database. Append-only: released versions are never edited.
func TenantMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "users", SQL: sqlassets.TenantUsersSQL},
		{Version: 2, Name: "facilities", SQL: sqlassets.TenantFacilitiesSQL},
		{Version: 3, Name: "patients", SQL: sqlassets.TenantPatientsSQL},
		{Version: 4, Name: "appointments", SQL: sqlassets.TenantAppointmentsSQL},
	}
}

const migrationHistoryDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version INT PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// runMigrations brings a tenant database up to the latest version of the given
// set. Already-applied versions (recorded in the schema_migrations table
// inside the tenant database itself) are skipped, so the call is idempotent.
// Each step commits together with its history row in one transaction; a failed
// step leaves the database at the previous version. On success it returns the
// latest version present; on failure, the version of the failing step.
func runMigrations(ctx context.Context, pool *pgxpool.Pool, migrations []Migration) (int, error) {
	if _, err := pool.Exec(ctx, migrationHistoryDDL); err != nil {
		return 0, fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := pool.Query(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan schema_migrations: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("read schema_migrations: %w", err)
	}

	version := 0
	for _, m := range migrations {
		if m.Version > version && applied[m.Version] {
			version = m.Version
		}
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(ctx, pool, m); err != nil {
			return m.Version, err
		}
		version = m.Version
	}

	return version, nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, m Migration) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, stmt := range splitSQL(m.SQL) {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply %04d_%s: %w", m.Version, m.Name, err)
		}
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name); err != nil {
		return fmt.Errorf("record %04d_%s: %w", m.Version, m.Name, err)
	}

	return tx.Commit(ctx)
}

// splitSQL breaks an embedded asset into statements. Our migration files never
// contain literal semicolons, so naive splitting is sufficient.
func splitSQL(sql string) []string {
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
