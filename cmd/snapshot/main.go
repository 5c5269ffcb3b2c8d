// Command snapshot copies every current price into the price_history time
// series and prunes entries past retention. Run daily from cron.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/config"
	"github.com/pricecart/pricecart-engine/pkg/database"
	"github.com/pricecart/pricecart-engine/pkg/logging"
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

	ctx := context.Background()

	dsn := cfg.Database.ConnectionString()
	logger.Info("Connecting to database",
		zap.String("target", logging.SanitizeConnectionString(dsn)))

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

	snapshots := services.NewSnapshotService(repositories.NewHistoryRepository(db), logger)
	result, err := snapshots.Run(ctx)
	if err != nil {
		logger.Fatal("Price snapshot failed", zap.Error(err))
	}

	logger.Info("Done",
		zap.Int64("inserted", result.Inserted),
		zap.Int64("pruned", result.Pruned))
}

func buildLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
