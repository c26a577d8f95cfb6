package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/erazemk/blagajna/internal/imaging"
	"github.com/erazemk/blagajna/internal/inventory"
	"github.com/erazemk/blagajna/internal/telemetry"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the services and infrastructure the router serves.
type Deps struct {
	Catalog   *inventory.Catalog
	Ledger    *inventory.Ledger
	Reports   *inventory.Reports
	DB        Pinger
	ImagesDir string
	Logger    *zap.Logger
	Metrics   *telemetry.Metrics
	Gatherer  prometheus.Gatherer
	// Limiter throttles mutating endpoints. Nil disables rate limiting.
	Limiter *rate.Limiter
}

// NewRouter creates the HTTP router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(d.Logger, d.Metrics))

	items := &ItemsHandler{Catalog: d.Catalog, Ledger: d.Ledger, Logger: d.Logger}
	sales := &SalesHandler{Ledger: d.Ledger, Logger: d.Logger}
	reports := &ReportsHandler{Reports: d.Reports, Logger: d.Logger}
	limit := RateLimitMiddleware(d.Limiter)

	r.Route("/api", func(r chi.Router) {
		r.Get("/items", items.List)
		r.With(limit).Post("/items", items.Create)
		r.Get("/items/{id}", items.Get)
		r.With(limit).Put("/items/{id}", items.Update)
		r.With(limit).Delete("/items/{id}", items.Delete)
		r.With(limit).Post("/items/{id}/sell", items.Sell)

		r.Get("/sales", sales.List)

		r.Get("/reports/monthly", reports.Monthly)
		r.Get("/reports/top", reports.Top)
		r.Get("/reports/low-stock", reports.LowStock)
		r.Get("/dashboard", reports.Dashboard)
	})

	if d.ImagesDir != "" {
		prefix := "/" + imaging.RefPrefix + "/"
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(d.ImagesDir))))
	}

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := d.DB.PingContext(r.Context()); err != nil {
			d.Logger.Warn("health check failed", zap.Error(err))
			jsonError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
