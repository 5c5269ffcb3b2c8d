// Command ingest performs one ingestion pass over the feeds root: every
// chain directory, store feeds before price feeds, archiving each file once
// it is disposed of. Rerunning the command retries whatever failed.
package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/config"
	"github.com/pricecart/pricecart-engine/pkg/database"
	"github.com/pricecart/pricecart-engine/pkg/feed"
	"github.com/pricecart/pricecart-engine/pkg/logging"
	"github.com/pricecart/pricecart-engine/pkg/repositories"
	"github.com/pricecart/pricecart-engine/pkg/retry"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	root := flag.String("root", "", "feeds root directory (overrides FEEDS_ROOT)")
	flag.Parse()

	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *root != "" {
		cfg.Feeds.Root = *root
	}

	logger, err := buildLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dsn := cfg.Database.ConnectionString()
	logger.Info("Connecting to database",
		zap.String("target", logging.SanitizeConnectionString(dsn)))

	migrateDB, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatal("Failed to open database", zap.String("error", logging.SanitizeError(err)))
	}
	// The nightly downloader may start this pass while the database is
	// still restarting after maintenance.
	err = retry.Do(ctx, nil, func() error {
		return database.RunMigrations(migrateDB, cfg.Database.MigrationsPath, logger)
	})
	if err != nil {
		logger.Fatal("Migrations failed", zap.String("error", logging.SanitizeError(err)))
	}
	_ = migrateDB.Close()

	var db *database.DB
	err = retry.DoIfRetryable(ctx, nil, func() error {
		var cerr error
		db, cerr = database.NewConnection(ctx, &database.Config{
			URL:             dsn,
			MaxConnections:  cfg.Database.MaxConnections,
			MaxConnLifetime: cfg.Database.ConnLifetime,
			MaxConnIdleTime: cfg.Database.ConnIdleTime,
		})
		return cerr
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
	}
	defer db.Close()

	catalog := repositories.NewCatalogRepository(db)
	archiver := feed.NewArchiver(cfg.Feeds.ArchiveDir, logger)
	scheduler := feed.NewScheduler(
		feed.NewStoreProcessor(catalog, logger),
		feed.NewPriceProcessor(catalog, logger),
		archiver,
		cfg.Feeds.Workers,
		logger,
	)

	stats, err := scheduler.Run(ctx, cfg.Feeds.Root)
	if err != nil {
		logger.Fatal("Ingestion pass aborted", zap.Error(err))
	}

	logger.Info("Ingestion pass complete",
		zap.Int("processed", stats.FilesProcessed),
		zap.Int("skipped", stats.FilesSkipped),
		zap.Int("failed", stats.FilesFailed))

	// Failed files stay in place; a non-zero exit tells cron to alert and
	// the next run to retry them.
	if stats.FilesFailed > 0 {
		os.Exit(1)
	}
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
