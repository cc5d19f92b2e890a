package tenantdb

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for resolution and bootstrap outcomes.
var (
	// ErrNotTenantScoped means the caller's identity carries no tenant claim;
	// such requests should use the control-plane connection, not a tenant one.
	ErrNotTenantScoped = errors.New("identity is not tenant scoped")

	// ErrUnknownTenant means the claimed public id matches no active
	// control-plane row (never existed, or soft-deleted).
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrControlPlane marks failures of the control plane itself. These are
	// fatal to the boot sequence; there is no meaningful partial state without
	// the control plane.
	ErrControlPlane = errors.New("control plane unavailable")
)

// ConnectError reports that connecting to a tenant database failed. Usually
// transient (network, auth rotation); retryable without operator action.
type ConnectError struct {
	PublicID uuid.UUID
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("tenant %s: connect: %v", e.PublicID, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// MigrateError reports that a specific tenant migration step failed. Unlike
// connect failures this usually means a defect in the migration set or schema
// drift; it should alert and must not be silently retried.
type MigrateError struct {
	PublicID uuid.UUID
	Version  int
	Err      error
}

func (e *MigrateError) Error() string {
	return fmt.Sprintf("tenant %s: migration %04d: %v", e.PublicID, e.Version, e.Err)
}

func (e *MigrateError) Unwrap() error { return e.Err }

// NotProvisionedError means the tenant exists in the control plane but has no
// live connection: provisioning is pending, failed, or the tenant is
// mid-offboarding. Surfaced to clients as a 503-class condition.
type NotProvisionedError struct {
	PublicID uuid.UUID
}

func (e *NotProvisionedError) Error() string {
	return fmt.Sprintf("tenant %s is not provisioned", e.PublicID)
}
