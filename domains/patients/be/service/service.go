package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Errors returned by the service layer.
var (
	ErrNotFound    = errors.New("patient not found")
	ErrConflictMRN = errors.New("patient mrn already exists")
)

// Patient is the domain model for a patient row inside one tenant database.
type Patient struct {
	ID          int64
	PublicID    uuid.UUID
	FacilityID  *int64
	MRN         string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Phone       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput represents the request to register a patient.
type CreateInput struct {
	FacilityID  *int64
	MRN         string
	FirstName   string
	LastName    string
	DateOfBirth *time.Time
	Phone       *string
}

// UpdateInput carries the mutable patient fields. Nil means keep current.
type UpdateInput struct {
	FacilityID *int64
	FirstName  *string
	LastName   *string
	Phone      *string
}

// ListOptions controls pagination for patient listings.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
}

// ListResult wraps a page of patients with count metadata.
type ListResult struct {
	Patients []Patient
	Page     int
	PageSize int
	Total    int64
}

// Repository abstracts patient persistence. Implementations read the tenant
// connection from the request context, so the same Repository value serves
// every tenant.
type Repository interface {
	List(ctx context.Context, opts ListOptions) (ListResult, error)
	Create(ctx context.Context, p Patient) (Patient, error)
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (Patient, error)
	Update(ctx context.Context, publicID uuid.UUID, input UpdateInput) (Patient, error)
}

// Service provides patient registration and lookup within a tenant.
type Service struct {
	repo Repository
}

// New constructs a Service with required dependencies.
func New(repo Repository) *Service {
	if repo == nil {
		panic("patients repo is required")
	}
	return &Service{repo: repo}
}

// List returns a page of patients.
func (s *Service) List(ctx context.Context, opts ListOptions) (ListResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = 20
	}
	return s.repo.List(ctx, opts)
}

// Get returns a patient by public id.
func (s *Service) Get(ctx context.Context, publicID uuid.UUID) (Patient, error) {
	return s.repo.GetByPublicID(ctx, publicID)
}

// Create registers a new patient.
func (s *Service) Create(ctx context.Context, input CreateInput) (Patient, error) {
	mrn := strings.TrimSpace(input.MRN)
	if mrn == "" {
		return Patient{}, errors.New("mrn is required")
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return Patient{}, errors.New("first and last name are required")
	}

	return s.repo.Create(ctx, Patient{
		PublicID:    uuid.New(),
		FacilityID:  input.FacilityID,
		MRN:         mrn,
		FirstName:   strings.TrimSpace(input.FirstName),
		LastName:    strings.TrimSpace(input.LastName),
		DateOfBirth: input.DateOfBirth,
		Phone:       input.Phone,
	})
}

// Update applies a partial update to a patient.
func (s *Service) Update(ctx context.Context, publicID uuid.UUID, input UpdateInput) (Patient, error) {
	return s.repo.Update(ctx, publicID, input)
}
