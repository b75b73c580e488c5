package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/models"
	"github.com/ateliercms/api/internal/services/offering"
)

// ServiceHandler holds dependencies for the service-page endpoints.
type ServiceHandler struct {
	offerings *offering.Service
	logger    *slog.Logger
}

// NewServiceHandler creates a new service-page handler.
func NewServiceHandler(offerings *offering.Service, logger *slog.Logger) *ServiceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ServiceHandler{offerings: offerings, logger: logger}
}

// RegisterRoutes registers service-page routes. Mutations go through the
// admin guard; reads are public.
func (h *ServiceHandler) RegisterRoutes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/v1/services", h.List)
	mux.HandleFunc("GET /api/v1/services/{id}", h.Get)
	mux.Handle("POST /api/v1/services", admin(http.HandlerFunc(h.Create)))
	mux.Handle("PATCH /api/v1/services/{id}", admin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/v1/services/{id}", admin(http.HandlerFunc(h.Delete)))
}

// List handles GET /api/v1/services.
func (h *ServiceHandler) List(w http.ResponseWriter, r *http.Request) {
	services, err := h.offerings.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching services")
		return
	}
	writeSuccess(w, http.StatusOK, "Services fetched successfully", displayOfferings(services))
}

// Get handles GET /api/v1/services/{id}.
func (h *ServiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	svc, err := h.offerings.Get(r.Context(), id)
	if errors.Is(err, offering.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Service not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch service", "error", err, "service_id", id)
		writeError(w, http.StatusInternalServerError, "Error fetching service")
		return
	}
	writeSuccess(w, http.StatusOK, "Service fetched successfully", displayOffering(*svc))
}

// parseSections decodes the sections form field, which arrives as a JSON
// string inside the multipart body. Returns nil when the field is absent.
func parseSections(raw string, present bool) (*[]models.Section, error) {
	if !present {
		return nil, nil
	}
	sections := []models.Section{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &sections); err != nil {
			return nil, err
		}
	}
	return &sections, nil
}

// Create handles POST /api/v1/services (multipart). Section galleries
// arrive as file parts named sections[i].images.
func (h *ServiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	title, _ := formValue(form, "title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "Service title is required")
		return
	}
	description, _ := formValue(form, "description")

	raw, present := formValue(form, "sections")
	sections, err := parseSections(raw, present)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sections payload")
		return
	}

	in := offering.CreateInput{Title: title, Description: description}
	if sections != nil {
		in.Sections = *sections
	}

	uploads, err := collectUploads(form)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file upload")
		return
	}

	svc, err := h.offerings.Create(r.Context(), in, uploads)
	if errors.Is(err, offering.ErrDuplicateTitle) {
		writeError(w, http.StatusConflict, "Service with this title already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed to create service", "error", err)
		writeError(w, http.StatusInternalServerError, "Error creating service")
		return
	}
	writeSuccess(w, http.StatusCreated, "Service created successfully", displayOffering(*svc))
}

// Update handles PATCH /api/v1/services/{id} (multipart). Submitted
// section image lists act as retain lists; new section uploads append.
func (h *ServiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	form, err := parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	title, _ := formValue(form, "title")
	if title == "" {
		writeError(w, http.StatusBadRequest, "Service title is required")
		return
	}
	raw, present := formValue(form, "sections")
	sections, err := parseSections(raw, present)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sections payload")
		return
	}

	in := offering.UpdateInput{
		Title:    title,
		Sections: sections,
	}
	if description, ok := formValue(form, "description"); ok {
		in.Description = &description
	}
	if poster, ok := formValue(form, "posterImg"); ok {
		in.RetainPoster = &poster
	}

	uploads, err := collectUploads(form)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file upload")
		return
	}

	svc, err := h.offerings.Update(r.Context(), id, in, uploads)
	switch {
	case errors.Is(err, offering.ErrNotFound):
		writeError(w, http.StatusNotFound, "Service not found")
		return
	case errors.Is(err, offering.ErrDuplicateTitle):
		writeError(w, http.StatusConflict, "Service with this title already exists")
		return
	case err != nil:
		h.logger.Error("failed to update service", "error", err, "service_id", id)
		writeError(w, http.StatusInternalServerError, "Error updating service")
		return
	}
	writeSuccess(w, http.StatusOK, "Service updated successfully", displayOffering(*svc))
}

// Delete handles DELETE /api/v1/services/{id}.
func (h *ServiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid service ID")
		return
	}

	svc, deleted, err := h.offerings.Delete(r.Context(), id)
	if errors.Is(err, offering.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Service not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete service", "error", err, "service_id", id)
		writeError(w, http.StatusInternalServerError, "Error deleting service")
		return
	}
	writeSuccess(w, http.StatusOK, "Service deleted successfully", deleteResult{
		Service: displayOffering(*svc),
		Deleted: deleted,
	})
}
