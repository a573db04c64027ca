package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/louvornalaje/distribuidora-sub000/internal/service"
	"github.com/louvornalaje/distribuidora-sub000/pkg/health"
	"github.com/louvornalaje/distribuidora-sub000/pkg/middleware"
)

// NewRouter creates a chi router with all sales service routes registered.
func NewRouter(
	orderService *service.OrderService,
	catalogService *service.CatalogService,
	metricsService *service.MetricsService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	pprofCIDRs []string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("sales"))
	r.Use(middleware.Tracing("sales"))
	r.Use(middleware.RequestLogger(logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Pprof debug endpoints with IP allowlist.
	middleware.RegisterPprof(r, pprofCIDRs, logger)

	orderHandler := NewOrderHandler(orderService, logger)
	catalogHandler := NewCatalogHandler(catalogService, logger)
	dashboardHandler := NewDashboardHandler(metricsService, logger)

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", orderHandler.CreateOrder)
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{id}", orderHandler.GetOrder)
		r.Put("/{id}", orderHandler.EditOrder)
		r.Put("/{id}/status", orderHandler.UpdateOrderStatus)
		r.Put("/{id}/paid", orderHandler.SetOrderPaid)
		r.Delete("/{id}", orderHandler.DeleteOrder)
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", catalogHandler.ListProducts)
		r.Get("/{id}", catalogHandler.GetProduct)
		r.Post("/{id}/stock", catalogHandler.AdjustStock)
	})

	r.Get("/api/v1/dashboard", dashboardHandler.GetDashboard)

	return r
}
