package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ateliercms/api/internal/services/project"
)

// ProjectHandler holds dependencies for project endpoints.
type ProjectHandler struct {
	projects *project.Service
	logger   *slog.Logger
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects *project.Service, logger *slog.Logger) *ProjectHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectHandler{projects: projects, logger: logger}
}

// RegisterRoutes registers project routes. Mutations go through the admin
// guard; reads are public.
func (h *ProjectHandler) RegisterRoutes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/v1/projects", h.List)
	mux.HandleFunc("GET /api/v1/projects/{id}", h.Get)
	mux.Handle("POST /api/v1/projects", admin(http.HandlerFunc(h.Create)))
	mux.Handle("PATCH /api/v1/projects/{id}", admin(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /api/v1/projects/{id}", admin(http.HandlerFunc(h.Delete)))
}

// List handles GET /api/v1/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list projects", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching projects")
		return
	}
	writeSuccess(w, http.StatusOK, "Projects fetched successfully", displayProjects(projects))
}

// Get handles GET /api/v1/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	p, err := h.projects.Get(r.Context(), id)
	if errors.Is(err, project.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to fetch project", "error", err, "project_id", id)
		writeError(w, http.StatusInternalServerError, "Error fetching project")
		return
	}
	writeSuccess(w, http.StatusOK, "Project fetched successfully", displayProject(*p))
}

// Create handles POST /api/v1/projects (multipart).
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, err := parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	title, _ := formValue(form, "projectTitle")
	if title == "" {
		writeError(w, http.StatusBadRequest, "Project title is required")
		return
	}
	client, _ := formValue(form, "client")
	description, _ := formValue(form, "description")

	uploads, err := collectUploads(form)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid file upload")
		return
	}

	p, err := h.projects.Create(r.Context(), project.CreateInput{
		Client:      client,
		Title:       title,
		Description: description,
	}, uploads)
	if errors.Is(err, project.ErrDuplicateTitle) {
		writeError(w, http.StatusConflict, "Project with this title already exists")
		return
	}
	if err != nil {
		h.logger.Error("failed to create project", "error", err)
		writeError(w, http.StatusInternalServerError, "Error creating project")
		return
	}
	writeSuccess(w, http.StatusCreated, "Project created successfully", displayProject(*p))
}

// Update handles PATCH /api/v1/projects/{id} (multipart). Text parts carry
// the fields; the posterImg and images value parts are retain lists, and
// file parts under the same names are new uploads.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	form, err := parseForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	title, _ := formValue(form, "projectTitle")
	if title == "" {
		writeError(w, http.StatusBadRequest, "Project title is required")
		return
	}

	in := project.UpdateInput{
		Title:        title,
		RetainImages: retainList(form, "images"),
	}
	if client, ok := formValue(form, "client"); ok {
		in.Client = &client
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

	p, err := h.projects.Update(r.Context(), id, in, uploads)
	switch {
	case errors.Is(err, project.ErrNotFound):
		writeError(w, http.StatusNotFound, "Project not found")
		return
	case errors.Is(err, project.ErrDuplicateTitle):
		writeError(w, http.StatusConflict, "Project with this title already exists")
		return
	case err != nil:
		h.logger.Error("failed to update project", "error", err, "project_id", id)
		writeError(w, http.StatusInternalServerError, "Error updating project")
		return
	}
	writeSuccess(w, http.StatusOK, "Project updated successfully", displayProject(*p))
}

// deleteResult reports an entity removal plus how many of its stored
// images were actually deleted.
type deleteResult struct {
	Project any `json:"project,omitempty"`
	Service any `json:"service,omitempty"`
	Deleted int `json:"deletedImages"`
}

// Delete handles DELETE /api/v1/projects/{id}.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}

	p, deleted, err := h.projects.Delete(r.Context(), id)
	if errors.Is(err, project.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Project not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to delete project", "error", err, "project_id", id)
		writeError(w, http.StatusInternalServerError, "Error deleting project")
		return
	}
	writeSuccess(w, http.StatusOK, "Project deleted successfully", deleteResult{
		Project: displayProject(*p),
		Deleted: deleted,
	})
}
