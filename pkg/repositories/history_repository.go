package repositories

import (
	"context"
	"fmt"

	"github.com/pricecart/pricecart-engine/pkg/database"
)

// HistoryRepository maintains the price_history time-series table fed by the
// daily snapshot job.
type HistoryRepository interface {
	// SnapshotPrices copies every current price into price_history and
	// returns how many rows were recorded.
	SnapshotPrices(ctx context.Context) (int64, error)

	// PruneHistory deletes snapshots older than retentionDays and returns
	// how many rows were removed.
	PruneHistory(ctx context.Context, retentionDays int) (int64, error)
}

type historyRepository struct {
	db *database.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *database.DB) HistoryRepository {
	return &historyRepository{db: db}
}

var _ HistoryRepository = (*historyRepository)(nil)

func (r *historyRepository) SnapshotPrices(ctx context.Context) (int64, error) {
	query := `
		INSERT INTO price_history (product_id, chain_id, price, recorded_at)
		SELECT p.item_id, b.chain_id, p.price, NOW()
		FROM prices p
		JOIN branches b ON b.id = p.branch_id`

	tag, err := r.db.Exec(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to snapshot prices: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *historyRepository) PruneHistory(ctx context.Context, retentionDays int) (int64, error) {
	query := `
		DELETE FROM price_history
		WHERE recorded_at < NOW() - make_interval(days => $1)`

	tag, err := r.db.Exec(ctx, query, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to prune price history: %w", err)
	}
	return tag.RowsAffected(), nil
}
