package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"informeclaro/internal/anonymizer"
	"informeclaro/internal/config"
	"informeclaro/internal/database"
	"informeclaro/internal/database/migration"
	handlers "informeclaro/internal/http/handler"
	"informeclaro/internal/http/middleware"
	"informeclaro/internal/llm"
	"informeclaro/internal/logging"
	tracing "informeclaro/internal/otel"
	"informeclaro/internal/pdfdoc"
	"informeclaro/internal/repository/postgres"
	"informeclaro/internal/service"
	"informeclaro/internal/session"
	"informeclaro/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

// run builds and serves the application. Startup failures are returned so the
// deferred closers (log file, tracing, database) still run.
func run() error {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cfg.DataRoot
	if root == "" {
		var err error
		if root, err = storage.DefaultRoot(); err != nil {
			return fmt.Errorf("resolve data root: %w", err)
		}
	}
	layout, err := storage.EnsureLayout(root)
	if err != nil {
		return fmt.Errorf("create data directories: %w", err)
	}

	log, logCloser := logging.New(cfg.Log, layout.LogDir)
	defer logCloser.Close()
	log.WithField("data_root", layout.Root).Info("data directories ready")

	shutdownTracing, err := tracing.Init(ctx, log)
	if err != nil {
		return fmt.Errorf("initialize tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	extractor := pdfdoc.NewExtractor()
	extractor.Log = log
	deps := service.Deps{
		Layout:         layout,
		Extractor:      extractor,
		Renderer:       pdfdoc.NewRenderer(),
		Merger:         pdfdoc.NewMerger(),
		Log:            log,
		AnalyzeTimeout: cfg.LLM.Timeout(),
	}

	// The report ledger and the archive are optional.
	var db *sql.DB
	if cfg.Database.Enabled() {
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		deps.Reports = postgres.NewReportPostgres(db)
	} else {
		log.Info("report ledger disabled")
	}

	if cfg.MinIO.Enabled() {
		archive, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return fmt.Errorf("initialize object storage: %w", err)
		}
		deps.Archive = archive
	} else {
		log.Info("report archive disabled")
	}

	keywords, err := anonymizer.LoadKeywordRedactor(cfg.RedactionFile)
	if err != nil {
		return fmt.Errorf("load redaction keywords: %w", err)
	}
	deps.Anonymizer = anonymizer.New(keywords)
	log.WithField("keywords", keywords.Len()).Info("anonymizer ready")

	analyzer, err := llm.New(ctx, cfg.LLM)
	if err != nil {
		return fmt.Errorf("initialize language model: %w", err)
	}
	deps.Analyzer = analyzer
	log.WithFields(logrus.Fields{"provider": cfg.LLM.Provider, "model": cfg.LLM.Model}).Info("language model ready")

	sessions := session.NewManager(layout.UploadDir, log)
	deps.Sessions = sessions
	svc := service.NewReportService(deps)
	sessions.StartSweeper(ctx, cfg.Session.SweepInterval(), cfg.Session.TTL(), svc.DiscardPreview)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: handlers.ErrorHandler(),
		ReadTimeout:  time.Minute,
		IdleTimeout:  2 * time.Minute,
	})

	// RequestID first so every later middleware and handler sees the id.
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log))
	app.Use(prom.Handler())

	handlers.RegisterRoutes(app, db, svc, reg)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	log.WithFields(logrus.Fields{"addr": addr, "url": "http://" + cfg.AppHost}).Info("server listening")
	if err := app.Listen(addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
