package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CollinsCMK/healthfiti-backend-sub000/domains/tenants/be/service"
)

const (
	problemTypeValidation = "https://healthfiti.app/problems/validation-error"
	problemTypeNotFound   = "https://healthfiti.app/problems/not-found"
	problemTypeConflict   = "https://healthfiti.app/problems/conflict"
	problemTypeProvision  = "https://healthfiti.app/problems/provisioning-failed"
	problemTypeInternal   = "https://healthfiti.app/problems/internal-error"
)

// ProblemDetails is an RFC 7807 error body.
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Tenant is the API shape for a tenant. The database url is deliberately
// absent: it is a secret and never leaves the control plane.
type Tenant struct {
	TenantID      uuid.UUID  `json:"tenantId"`
	Slug          string     `json:"slug"`
	DisplayName   string     `json:"displayName"`
	SchemaVersion int        `json:"schemaVersion"`
	ProvisionedAt *time.Time `json:"provisionedAt,omitempty"`
	LastError     *string    `json:"lastError,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Subscription is the API shape for a tenant subscription.
type Subscription struct {
	Plan               string     `json:"plan"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"currentPeriodStart"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
}

// OnboardRequest is the body for POST /admin/tenants.
type OnboardRequest struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"displayName"`
	DatabaseURL string `json:"databaseUrl"`
	Plan        string `json:"plan,omitempty"`
}

// Handler exposes tenant lifecycle operations over HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the admin tenant endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/tenants", h.list)
	r.Post("/tenants", h.onboard)
	r.Get("/tenants/{tenantId}", h.get)
	r.Delete("/tenants/{tenantId}", h.offboard)
	r.Post("/tenants/{tenantId}/reprovision", h.reprovision)
	r.Get("/tenants/{tenantId}/subscription", h.subscription)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.svc.List(r.Context())
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	items := make([]Tenant, 0, len(tenants))
	for _, t := range tenants {
		items = append(items, toAPITenant(t))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	var req OnboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", "request body must be valid JSON")
		return
	}

	t, err := h.svc.Onboard(r.Context(), service.OnboardInput{
		Slug:        req.Slug,
		DisplayName: req.DisplayName,
		DatabaseURL: req.DatabaseURL,
		Plan:        req.Plan,
	})

	var provErr *service.ProvisionFailedError
	switch {
	case err == nil:
		w.Header().Set("Location", fmt.Sprintf("/api/v1/admin/tenants/%s", t.PublicID))
		h.writeJSON(w, http.StatusCreated, toAPITenant(t))
	case errors.As(err, &provErr):
		// The row exists but the tenant database is not live. Surface both so
		// the operator can fix the cause and hit the reprovision endpoint.
		h.logger.Warn("tenant onboarding provisioning failed",
			zap.String("tenant", provErr.PublicID.String()),
			zap.Error(provErr.Err))
		h.writeProblem(w, http.StatusBadGateway, problemTypeProvision, "Provisioning failed",
			fmt.Sprintf("tenant %s was created but its database could not be provisioned", provErr.PublicID))
	default:
		h.writeError(w, err, http.StatusBadRequest)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, toAPITenant(t))
}

func (h *Handler) offboard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Offboard(r.Context(), id); err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) reprovision(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Reprovision(r.Context(), id)
	var provErr *service.ProvisionFailedError
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, toAPITenant(t))
	case errors.As(err, &provErr):
		h.writeProblem(w, http.StatusBadGateway, problemTypeProvision, "Provisioning failed",
			fmt.Sprintf("tenant %s could not be provisioned", provErr.PublicID))
	default:
		h.writeError(w, err, http.StatusInternalServerError)
	}
}

func (h *Handler) subscription(w http.ResponseWriter, r *http.Request) {
	id, ok := h.tenantID(w, r)
	if !ok {
		return
	}
	sub, err := h.svc.GetSubscription(r.Context(), id)
	if err != nil {
		h.writeError(w, err, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, Subscription{
		Plan:               sub.Plan,
		Status:             sub.Status,
		CurrentPeriodStart: sub.CurrentPeriodStart,
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
	})
}

func (h *Handler) tenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantId"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid tenant id", "tenantId must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error, defaultStatus int) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.writeProblem(w, http.StatusNotFound, problemTypeNotFound, "Not found", err.Error())
	case errors.Is(err, service.ErrConflictSlug):
		h.writeProblem(w, http.StatusConflict, problemTypeConflict, "Conflict", err.Error())
	case defaultStatus == http.StatusBadRequest:
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Validation error", err.Error())
	default:
		h.logger.Error("tenant operation failed", zap.Error(err))
		h.writeProblem(w, http.StatusInternalServerError, problemTypeInternal, "Internal error", "internal error")
	}
}

func (h *Handler) writeProblem(w http.ResponseWriter, status int, problemType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ProblemDetails{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}); err != nil {
		h.logger.Error("write problem response", zap.Error(err))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write json response", zap.Error(err))
	}
}

func toAPITenant(t service.Tenant) Tenant {
	return Tenant{
		TenantID:      t.PublicID,
		Slug:          t.Slug,
		DisplayName:   t.DisplayName,
		SchemaVersion: t.SchemaVersion,
		ProvisionedAt: t.ProvisionedAt,
		LastError:     t.LastError,
		CreatedAt:     t.CreatedAt,
	}
}
