package sqlassets

import _ "embed"

// Control-plane DDL, applied by the bootstrap orchestrator before any tenant
// work starts. SQL is embedded at build time so binaries stay self-contained.

//go:embed schema/controlplane/tenants.sql
var TenantsSQL string

//go:embed schema/controlplane/subscriptions.sql
var SubscriptionsSQL string

// Ordered tenant-database migrations. The migration runner records applied
// versions in a schema_migrations table inside each tenant database, so
// re-running the set is a no-op.

//go:embed schema/tenantdb/0001_users.sql
var TenantUsersSQL string

//go:embed schema/tenantdb/0002_facilities.sql
var TenantFacilitiesSQL string

//go:embed schema/tenantdb/0003_patients.sql
var TenantPatientsSQL string

//go:embed schema/tenantdb/0004_appointments.sql
var TenantAppointmentsSQL string
