package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/auth"
	"github.com/pricecart/pricecart-engine/pkg/config"
	"github.com/pricecart/pricecart-engine/pkg/database"
	"github.com/pricecart/pricecart-engine/pkg/handlers"
	"github.com/pricecart/pricecart-engine/pkg/logging"
	"github.com/pricecart/pricecart-engine/pkg/middleware"
	"github.com/pricecart/pricecart-engine/pkg/repositories"
	"github.com/pricecart/pricecart-engine/pkg/retry"
	"github.com/pricecart/pricecart-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The database container may still be starting when the engine boots.
	if err := retry.Do(ctx, nil, func() error { return migrate(cfg, logger) }); err != nil {
		logger.Fatal("Migrations failed", zap.String("error", logging.SanitizeError(err)))
	}

	db, err := connectDB(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	listRepo := repositories.NewListRepository(db)
	comparisonRepo := repositories.NewComparisonRepository(db)
	comparisons := services.NewComparisonService(listRepo, comparisonRepo, cfg.Comparison.MaxListItems, logger)
	catalog := services.NewCatalogService(comparisonRepo, cfg.Comparison.SearchLimit, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	api := http.NewServeMux()
	handlers.NewCompareHandler(comparisons, logger).RegisterRoutes(api)
	handlers.NewProductsHandler(catalog, logger).RegisterRoutes(api)
	authed := auth.Middleware(&cfg.Auth, logger)(api)
	mux.Handle("/api/", middleware.RequestLogger(logger)(authed))

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("Starting pricecart-engine",
		zap.String("addr", server.Addr),
		zap.String("version", cfg.Version),
		zap.String("environment", cfg.Env))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// connectDB opens the pgx pool, retrying transient failures so a restart
// racing the database container does not crash-loop.
func connectDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*database.DB, error) {
	dsn := cfg.Database.ConnectionString()
	logger.Info("Connecting to database",
		zap.String("target", logging.SanitizeConnectionString(dsn)))

	var db *database.DB
	err := retry.DoIfRetryable(ctx, nil, func() error {
		var err error
		db, err = database.NewConnection(ctx, &database.Config{
			URL:             dsn,
			MaxConnections:  cfg.Database.MaxConnections,
			MaxConnLifetime: cfg.Database.ConnLifetime,
			MaxConnIdleTime: cfg.Database.ConnIdleTime,
		})
		return err
	})
	return db, err
}

// migrate runs schema migrations over a short-lived database/sql handle,
// which is what golang-migrate expects.
func migrate(cfg *config.Config, logger *zap.Logger) error {
	db, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()
	return database.RunMigrations(db, cfg.Database.MigrationsPath, logger)
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
