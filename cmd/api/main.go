package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reportvault/internal/config"
	"reportvault/internal/database"
	"reportvault/internal/database/migration"
	handlers "reportvault/internal/http/handler"
	"reportvault/internal/http/middleware"
	"reportvault/internal/otel"
	"reportvault/internal/repository/postgres"
	"reportvault/internal/service"
	"reportvault/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC

	ctx := context.Background()

	// Tracing first so the DB driver and HTTP middleware pick up the provider
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// File storage: resolver-backed local disk store
	store, err := storage.NewDiskStore(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize file storage: %v", err)
	}
	validator := storage.NewValidator(cfg.Storage.MaxUploadBytes)

	logStartup(loc, cfg)

	// Repositories, policy and services
	reportRepo := postgres.NewReportPostgres(db)
	accessLogRepo := postgres.NewAccessLogPostgres(db)
	policy := service.NewAccessPolicy(cfg.Storage, accessLogRepo)
	downloadSvc := service.NewDownloadService(reportRepo, accessLogRepo, store, policy)
	uploadSvc := service.NewUploadService(validator, store)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Storage.MaxUploadBytes) + 1<<20, // multipart overhead headroom
	})

	// Global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Principal())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	reg := prometheus.NewRegistry()
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, downloadSvc, uploadSvc, reportRepo)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

// logStartup records the effective storage configuration, storage_mode in
// particular: it is informational only, serving decisions are made per
// stored path.
func logStartup(loc *time.Location, cfg *config.AppConfig) {
	entry := map[string]any{
		"ts":                     time.Now().In(loc).Format(time.RFC3339Nano),
		"level":                  "info",
		"msg":                    "storage_configured",
		"storage_mode":           cfg.Storage.Mode,
		"storage_root":           cfg.Storage.RootDir,
		"legacy_root":            cfg.Storage.LegacyRootDir,
		"require_authentication": cfg.Storage.RequireAuthentication,
		"downloads_per_minute":   cfg.Storage.DownloadsPerMinute,
		"max_upload_bytes":       cfg.Storage.MaxUploadBytes,
	}
	if b, err := json.Marshal(entry); err == nil {
		log.SetFlags(0)
		log.Println(string(b))
	}
}
