package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/retry"
)

type mockHistoryRepo struct {
	inserted    int64
	pruned      int64
	snapshotErr error
	pruneErr    error

	// snapshotFailures makes SnapshotPrices fail that many times before
	// succeeding, to exercise transient-error retries.
	snapshotFailures int

	snapshotCalls int
	gotRetention  int
}

func (m *mockHistoryRepo) SnapshotPrices(ctx context.Context) (int64, error) {
	m.snapshotCalls++
	if m.snapshotFailures > 0 {
		m.snapshotFailures--
		return 0, errors.New("connection reset by peer")
	}
	if m.snapshotErr != nil {
		return 0, m.snapshotErr
	}
	return m.inserted, nil
}

func (m *mockHistoryRepo) PruneHistory(ctx context.Context, retentionDays int) (int64, error) {
	m.gotRetention = retentionDays
	if m.pruneErr != nil {
		return 0, m.pruneErr
	}
	return m.pruned, nil
}

// newSnapshotServiceNoBackoff builds the service with zero-delay retries so
// failure paths do not sleep through the backoff schedule.
func newSnapshotServiceNoBackoff(repo *mockHistoryRepo) *snapshotService {
	svc := NewSnapshotService(repo, zap.NewNop()).(*snapshotService)
	svc.retry = &retry.Config{MaxRetries: 2, Multiplier: 1}
	return svc
}

func TestSnapshotService(t *testing.T) {
	t.Run("snapshots then prunes with the retention window", func(t *testing.T) {
		repo := &mockHistoryRepo{inserted: 120000, pruned: 3500}
		svc := newSnapshotServiceNoBackoff(repo)

		res, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, SnapshotResult{Inserted: 120000, Pruned: 3500}, res)
		assert.Equal(t, 90, repo.gotRetention)
	})

	t.Run("retries a transient snapshot failure", func(t *testing.T) {
		repo := &mockHistoryRepo{inserted: 500, snapshotFailures: 1}
		svc := newSnapshotServiceNoBackoff(repo)

		res, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(500), res.Inserted)
		assert.Equal(t, 2, repo.snapshotCalls)
	})

	t.Run("aborts before pruning when the snapshot keeps failing", func(t *testing.T) {
		repo := &mockHistoryRepo{snapshotErr: errors.New("disk full")}
		svc := newSnapshotServiceNoBackoff(repo)

		_, err := svc.Run(context.Background())
		require.Error(t, err)
		assert.Zero(t, repo.gotRetention, "prune must not run")
	})

	t.Run("reports inserted rows even when pruning fails", func(t *testing.T) {
		repo := &mockHistoryRepo{inserted: 10, pruneErr: errors.New("lock timeout")}
		svc := newSnapshotServiceNoBackoff(repo)

		res, err := svc.Run(context.Background())
		require.Error(t, err)
		assert.Equal(t, int64(10), res.Inserted)
	})
}
