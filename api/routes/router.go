package routes

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/supplypulse/supplypulse-backend/api/controllers"
	"github.com/supplypulse/supplypulse-backend/api/middleware"
	"github.com/supplypulse/supplypulse-backend/internal/ingest"
	"github.com/supplypulse/supplypulse-backend/internal/reconciliation"
	"github.com/supplypulse/supplypulse-backend/internal/transactions"
	"github.com/supplypulse/supplypulse-backend/pkg/config"
	"github.com/supplypulse/supplypulse-backend/pkg/logger"
)

// Deps collects everything the router mounts.
type Deps struct {
	Cfg  *config.Config
	Logg *logger.Logger

	Transactions   transactions.Service
	Ingest         ingest.Service
	Reconciliation reconciliation.Service

	ReadinessChecks []controllers.ReadinessCheck
	Metrics         prometheus.Gatherer
}

func New(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(deps.Logg))
	r.Use(middleware.RequestID(deps.Logg))
	r.Use(middleware.CORS())
	r.Use(middleware.Logging(deps.Logg))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Cfg))
		r.Get("/ready", controllers.HealthReady(deps.Logg, deps.ReadinessChecks...))
	})

	if deps.Metrics != nil {
		r.Method("GET", "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.OrgContext(deps.Logg))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", controllers.ListTransactions(deps.Transactions, deps.Logg))
			r.Post("/batch", controllers.CreateTransactionBatch(deps.Transactions, deps.Logg))
			r.Get("/{transactionID}", controllers.GetTransaction(deps.Transactions, deps.Logg))
			r.Patch("/{transactionID}/status", controllers.UpdateTransactionStatus(deps.Transactions, deps.Logg))
		})

		r.Post("/ingest/workbook", controllers.UploadWorkbook(deps.Ingest, deps.Logg))

		r.Route("/reconciliation", func(r chi.Router) {
			r.Route("/runs", func(r chi.Router) {
				r.Post("/", controllers.StartReconciliation(deps.Reconciliation, deps.Logg))
				r.Get("/", controllers.ListReconciliationRuns(deps.Reconciliation, deps.Logg))
				r.Get("/{runID}", controllers.GetReconciliationRun(deps.Reconciliation, deps.Logg))
			})
		})

		r.Get("/alerts", controllers.ListAlerts(deps.Reconciliation, deps.Logg))
	})

	return r
}
