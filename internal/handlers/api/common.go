package api

import (
	"log/slog"
	"net/http"

	"github.com/ateliercms/api/internal/services/common"
)

// CommonHandler serves the aggregated dashboard overview.
type CommonHandler struct {
	overview *common.Service
	logger   *slog.Logger
}

// NewCommonHandler creates a new overview handler.
func NewCommonHandler(overview *common.Service, logger *slog.Logger) *CommonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommonHandler{overview: overview, logger: logger}
}

// RegisterRoutes registers the overview route behind the admin guard.
func (h *CommonHandler) RegisterRoutes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/v1/common", admin(http.HandlerFunc(h.Get)))
}

// Get handles GET /api/v1/common.
func (h *CommonHandler) Get(w http.ResponseWriter, r *http.Request) {
	out, err := h.overview.Overview(r.Context())
	if err != nil {
		h.logger.Error("failed to build overview", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching data")
		return
	}

	out.Projects = displayProjects(out.Projects)
	out.Services = displayOfferings(out.Services)
	writeSuccess(w, http.StatusOK, "Projects, services, and user count fetched successfully", out)
}
