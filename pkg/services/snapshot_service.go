package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/repositories"
	"github.com/pricecart/pricecart-engine/pkg/retry"
)

// historyRetentionDays is how long daily price snapshots are kept.
const historyRetentionDays = 90

// SnapshotResult reports one snapshot run.
type SnapshotResult struct {
	Inserted int64
	Pruned   int64
}

// SnapshotService copies current prices into the price_history time series.
// Intended to run once a day from a cron-invoked binary.
type SnapshotService interface {
	Run(ctx context.Context) (SnapshotResult, error)
}

type snapshotService struct {
	repo   repositories.HistoryRepository
	retry  *retry.Config
	logger *zap.Logger
}

// NewSnapshotService creates a new SnapshotService.
func NewSnapshotService(repo repositories.HistoryRepository, logger *zap.Logger) SnapshotService {
	return &snapshotService{
		repo:   repo,
		retry:  retry.DefaultConfig(),
		logger: logger.Named("price-snapshot"),
	}
}

var _ SnapshotService = (*snapshotService)(nil)

// Run snapshots current prices and prunes expired history. Each step is a
// single statement, so retrying it on a transient failure cannot duplicate
// rows within a run.
func (s *snapshotService) Run(ctx context.Context) (SnapshotResult, error) {
	inserted, err := retry.DoWithResult(ctx, s.retry, func() (int64, error) {
		return s.repo.SnapshotPrices(ctx)
	})
	if err != nil {
		return SnapshotResult{}, fmt.Errorf("snapshot prices: %w", err)
	}

	pruned, err := retry.DoWithResult(ctx, s.retry, func() (int64, error) {
		return s.repo.PruneHistory(ctx, historyRetentionDays)
	})
	if err != nil {
		return SnapshotResult{Inserted: inserted}, fmt.Errorf("prune price history: %w", err)
	}

	s.logger.Info("Price snapshot complete",
		zap.Int64("inserted", inserted),
		zap.Int64("pruned", pruned))
	return SnapshotResult{Inserted: inserted, Pruned: pruned}, nil
}
