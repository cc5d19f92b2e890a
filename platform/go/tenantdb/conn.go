package tenantdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is a live handle to one tenant's database: a shared pgx pool plus
// provisioning metadata. Fields are unexported and populated only by the
// Factory after the migration set has been applied, so holding a non-zero
// *Conn implies the tenant schema is at the recorded version. There is exactly
// one live Conn per tenant at any time; handlers share it, they never copy it.
type Conn struct {
	publicID      uuid.UUID
	pool          *pgxpool.Pool
	schemaVersion int
	establishedAt time.Time
}

// PublicID returns the tenant public identifier the connection is bound to.
func (c *Conn) PublicID() uuid.UUID {
	return c.publicID
}

// Pool exposes the underlying pgx pool for queries against the tenant database.
func (c *Conn) Pool() *pgxpool.Pool {
	return c.pool
}

// SchemaVersion is the migration version the tenant database was at after provisioning.
func (c *Conn) SchemaVersion() int {
	return c.schemaVersion
}

// EstablishedAt is when the connection was provisioned.
func (c *Conn) EstablishedAt() time.Time {
	return c.establishedAt
}

// Close drains the underlying pool. Call only after the Conn has been removed
// from the Registry, so no request can race against a half-closed pool.
func (c *Conn) Close() {
	if c != nil && c.pool != nil {
		c.pool.Close()
	}
}
