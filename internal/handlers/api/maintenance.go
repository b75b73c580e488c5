package api

import (
	"log/slog"
	"net/http"

	"github.com/ateliercms/api/internal/services/media"
)

// MaintenanceHandler exposes operational tasks over HTTP.
type MaintenanceHandler struct {
	sweeper *media.Sweeper
	logger  *slog.Logger
}

// NewMaintenanceHandler creates a new maintenance handler.
func NewMaintenanceHandler(sweeper *media.Sweeper, logger *slog.Logger) *MaintenanceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceHandler{sweeper: sweeper, logger: logger}
}

// RegisterRoutes registers maintenance routes behind the admin guard.
func (h *MaintenanceHandler) RegisterRoutes(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.Handle("POST /api/v1/maintenance/sweep", admin(http.HandlerFunc(h.Sweep)))
}

// Sweep handles POST /api/v1/maintenance/sweep: deletes stored images no
// live entity references anymore and reports the counts.
func (h *MaintenanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.sweeper.Sweep(r.Context())
	if err != nil {
		h.logger.Error("orphan sweep failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error sweeping orphaned images")
		return
	}
	writeSuccess(w, http.StatusOK, "Orphan sweep completed", report)
}
