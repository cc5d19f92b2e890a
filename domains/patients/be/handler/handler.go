package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CollinsCMK/healthfiti-backend-sub000/domains/patients/be/service"
)

const (
	problemTypeValidation = "https://healthfiti.app/problems/validation-error"
	problemTypeNotFound   = "https://healthfiti.app/problems/not-found"
	problemTypeConflict   = "https://healthfiti.app/problems/conflict"
	problemTypeInternal   = "https://healthfiti.app/problems/internal-error"
)

// ProblemDetails is an RFC 7807 error body.
type ProblemDetails struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Patient is the API shape for a patient.
type Patient struct {
	PatientID   uuid.UUID  `json:"patientId"`
	FacilityID  *int64     `json:"facilityId,omitempty"`
	MRN         string     `json:"mrn"`
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	DateOfBirth *string    `json:"dateOfBirth,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// CreateRequest is the body for POST /patients.
type CreateRequest struct {
	FacilityID  *int64  `json:"facilityId,omitempty"`
	MRN         string  `json:"mrn"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

// UpdateRequest is the body for PATCH /patients/{patientId}.
type UpdateRequest struct {
	FacilityID *int64  `json:"facilityId,omitempty"`
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	Phone      *string `json:"phone,omitempty"`
}

// Handler exposes tenant-scoped patient endpoints.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("patients service is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	return &Handler{svc: svc, logger: logger}
}

// Routes mounts the patient endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/patients", h.list)
	r.Post("/patients", h.create)
	r.Get("/patients/{patientId}", h.get)
	r.Patch("/patients/{patientId}", h.update)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	opts := service.ListOptions{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 20),
		Search:   r.URL.Query().Get("search"),
	}

	result, err := h.svc.List(r.Context(), opts)
	if err != nil {
		h.writeError(w, err)
		return
	}

	items := make([]Patient, 0, len(result.Patients))
	for _, p := range result.Patients {
		items = append(items, toAPIPatient(p))
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"page":     result.Page,
		"pageSize": result.PageSize,
		"total":    result.Total,
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", "request body must be valid JSON")
		return
	}

	dob, err := parseDate(req.DateOfBirth)
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Validation error", "dateOfBirth must be YYYY-MM-DD")
		return
	}

	p, err := h.svc.Create(r.Context(), service.CreateInput{
		FacilityID:  req.FacilityID,
		MRN:         req.MRN,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Phone:       req.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrConflictMRN):
			h.writeProblem(w, http.StatusConflict, problemTypeConflict, "Conflict", err.Error())
		case errors.Is(err, service.ErrNotFound):
			h.writeError(w, err)
		default:
			h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Validation error", err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, toAPIPatient(p))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAPIPatient(p))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.patientID(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid request body", "request body must be valid JSON")
		return
	}

	p, err := h.svc.Update(r.Context(), id, service.UpdateInput{
		FacilityID: req.FacilityID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toAPIPatient(p))
}

func (h *Handler) patientID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "patientId"))
	if err != nil {
		h.writeProblem(w, http.StatusBadRequest, problemTypeValidation, "Invalid patient id", "patientId must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		h.writeProblem(w, http.StatusNotFound, problemTypeNotFound, "Not found", err.Error())
	default:
		h.logger.Error("patient operation failed", zap.Error(err))
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

func toAPIPatient(p service.Patient) Patient {
	var dob *string
	if p.DateOfBirth != nil {
		s := p.DateOfBirth.Format("2006-01-02")
		dob = &s
	}
	return Patient{
		PatientID:   p.PublicID,
		FacilityID:  p.FacilityID,
		MRN:         p.MRN,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		DateOfBirth: dob,
		Phone:       p.Phone,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func parseDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
