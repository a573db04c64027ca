package http

import (
	"log/slog"
	"net/http"

	"github.com/louvornalaje/distribuidora-sub000/internal/service"
	"github.com/louvornalaje/distribuidora-sub000/pkg/httputil"
)

// DashboardHandler serves the aggregated sales metrics.
type DashboardHandler struct {
	service *service.MetricsService
	logger  *slog.Logger
}

// NewDashboardHandler creates a new dashboard HTTP handler.
func NewDashboardHandler(svc *service.MetricsService, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: svc, logger: logger}
}

// GetDashboard handles GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.service.Dashboard(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: metrics})
}
