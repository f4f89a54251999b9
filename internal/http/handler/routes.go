package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"informeclaro/internal/http/middleware"
	"informeclaro/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// db may be nil when no report ledger is configured.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.ReportService, metrics prometheus.Gatherer) {
	app.Get("/", Index())
	app.Get("/openapi.yaml", OpenAPISpec())
	app.Get("/docs", SwaggerUI())

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	app.Get(middleware.MetricsPath, middleware.MetricsHandler(metrics))

	app.Post("/upload_pdf", UploadPDF(svc))
	app.Post("/confirm_and_process", ConfirmAndProcess(svc))
	app.Get("/download/:filename", Download(svc))

	app.Get("/reports", ListReports(svc))
	app.Get("/reports/:id", GetReport(svc))
	app.Get("/reports/:id/archive", ReportArchive(svc))
}
