package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/services/contact"
)

// ContactHandler holds dependencies for contact-form endpoints.
type ContactHandler struct {
	contacts *contact.Service
	logger   *slog.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(contacts *contact.Service, logger *slog.Logger) *ContactHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactHandler{contacts: contacts, logger: logger}
}

// RegisterRoutes registers contact routes. Submission is public; reading
// and deleting inquiries is admin-only.
func (h *ContactHandler) RegisterRoutes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/v1/contacts", h.Create)
	mux.Handle("GET /api/v1/contacts", admin(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/v1/contacts/{id}", admin(http.HandlerFunc(h.Get)))
	mux.Handle("DELETE /api/v1/contacts/{id}", admin(http.HandlerFunc(h.Delete)))
}

type createContactRequest struct {
	FirstName        string `json:"firstName"`
	LastName         string `json:"lastName"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	OrganizationName string `json:"organizationName"`
	Message          string `json:"message"`
}

// Create handles POST /api/v1/contacts.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Email == "" || req.Message == "" {
		writeError(w, http.StatusBadRequest, "Email and message are required")
		return
	}

	c, err := h.contacts.Create(r.Context(), contact.CreateInput{
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Phone:            req.Phone,
		Email:            req.Email,
		OrganizationName: req.OrganizationName,
		Message:          req.Message,
	})
	if err != nil {
		h.logger.Error("failed to create contact", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again later.")
		return
	}
	writeSuccess(w, http.StatusCreated, "Contact inquiry submitted successfully!", c)
}

// List handles GET /api/v1/contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.contacts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list contacts", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching contacts")
		return
	}
	writeSuccess(w, http.StatusOK, "Contacts fetched successfully.", contacts)
}

// Get handles GET /api/v1/contacts/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	c, err := h.contacts.Get(r.Context(), id)
	if errors.Is(err, contact.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Contact not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch contact", "error", err, "contact_id", id)
		writeError(w, http.StatusInternalServerError, "Error fetching contact")
		return
	}
	writeSuccess(w, http.StatusOK, "Contact fetched successfully.", c)
}

// Delete handles DELETE /api/v1/contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contact ID")
		return
	}

	if err := h.contacts.Delete(r.Context(), id); err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Contact not found")
			return
		}
		h.logger.Error("failed to delete contact", "error", err, "contact_id", id)
		writeError(w, http.StatusInternalServerError, "Error deleting contact")
		return
	}
	writeSuccess(w, http.StatusOK, "Contact deleted successfully", nil)
}
