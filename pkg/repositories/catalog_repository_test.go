//go:build integration

package repositories

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricecart/pricecart-engine/pkg/models"
	"github.com/pricecart/pricecart-engine/pkg/testhelpers"
)

// catalogTestContext holds test dependencies for catalog repository tests.
type catalogTestContext struct {
	t      *testing.T
	testDB *testhelpers.TestDB
	repo   CatalogRepository
}

func setupCatalogTest(t *testing.T) *catalogTestContext {
	testDB := testhelpers.GetTestDB(t)
	return &catalogTestContext{
		t:      t,
		testDB: testDB,
		repo:   NewCatalogRepository(testDB.DB),
	}
}

// ensureChain upserts a chain fixture directly.
func (tc *catalogTestContext) ensureChain(id, name string) {
	tc.t.Helper()
	require.NoError(tc.t, tc.repo.UpsertChain(context.Background(), &models.Chain{ID: id, Name: name}))
}

func (tc *catalogTestContext) ensureBranch(id, chainID string) {
	tc.t.Helper()
	require.NoError(tc.t, tc.repo.UpsertBranch(context.Background(), &models.Branch{
		ID:      id,
		ChainID: chainID,
		Name:    "branch " + id,
	}))
}

func (tc *catalogTestContext) currentPrice(itemCode, manufacturer string, weighted bool, branchID string) decimal.Decimal {
	tc.t.Helper()
	var price decimal.Decimal
	err := tc.testDB.DB.QueryRow(context.Background(), `
		SELECT p.price
		FROM prices p
		JOIN items i ON i.id = p.item_id
		WHERE i.item_code = $1 AND i.manufacturer = $2 AND i.is_weighted = $3 AND p.branch_id = $4`,
		itemCode, manufacturer, weighted, branchID,
	).Scan(&price)
	require.NoError(tc.t, err)
	return price
}

func TestCatalogRepositoryChains(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	tc.ensureChain("cat-chain-1", "שופרסל")

	t.Run("chain upsert refreshes the name", func(t *testing.T) {
		tc.ensureChain("cat-chain-1", "שופרסל בע\"מ")

		var name string
		require.NoError(t, tc.testDB.DB.QueryRow(ctx,
			`SELECT name FROM chains WHERE id = $1`, "cat-chain-1").Scan(&name))
		assert.Equal(t, "שופרסל בע\"מ", name)
	})

	t.Run("sub-chain upsert is idempotent", func(t *testing.T) {
		sub := &models.SubChain{ID: "cat-sub-1", ChainID: "cat-chain-1", Name: "דיל"}
		require.NoError(t, tc.repo.UpsertSubChain(ctx, sub))
		sub.Name = "דיל עודפים"
		require.NoError(t, tc.repo.UpsertSubChain(ctx, sub))

		var name string
		require.NoError(t, tc.testDB.DB.QueryRow(ctx,
			`SELECT name FROM sub_chains WHERE id = $1`, "cat-sub-1").Scan(&name))
		assert.Equal(t, "דיל עודפים", name)
	})
}

func TestCatalogRepositoryBranches(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	tc.ensureChain("cat-chain-2", "ויקטורי")

	t.Run("branch attributes are immutable once created", func(t *testing.T) {
		first := &models.Branch{ID: "cat-branch-1", ChainID: "cat-chain-2", Name: "מרכז", City: "תל אביב"}
		require.NoError(t, tc.repo.UpsertBranch(ctx, first))

		second := &models.Branch{ID: "cat-branch-1", ChainID: "cat-chain-2", Name: "אחר", City: "חיפה"}
		require.NoError(t, tc.repo.UpsertBranch(ctx, second))

		var name, city string
		require.NoError(t, tc.testDB.DB.QueryRow(ctx,
			`SELECT branch_name, city FROM branches WHERE id = $1`, "cat-branch-1").Scan(&name, &city))
		assert.Equal(t, "מרכז", name)
		assert.Equal(t, "תל אביב", city)
	})

	t.Run("branch existence check", func(t *testing.T) {
		exists, err := tc.repo.BranchExists(ctx, "cat-branch-1")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = tc.repo.BranchExists(ctx, "no-such-branch")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("empty sub-chain id is stored as NULL", func(t *testing.T) {
		require.NoError(t, tc.repo.UpsertBranch(ctx, &models.Branch{
			ID:      "cat-branch-2",
			ChainID: "cat-chain-2",
		}))

		var subChainID *string
		require.NoError(t, tc.testDB.DB.QueryRow(ctx,
			`SELECT sub_chain_id FROM branches WHERE id = $1`, "cat-branch-2").Scan(&subChainID))
		assert.Nil(t, subChainID)
	})
}

func TestCatalogRepositoryItemPrices(t *testing.T) {
	tc := setupCatalogTest(t)
	ctx := context.Background()

	tc.ensureChain("cat-chain-3", "רמי לוי")
	tc.ensureBranch("cat-branch-3", "cat-chain-3")
	tc.ensureBranch("cat-branch-4", "cat-chain-3")

	rec := &models.ItemPriceUpsert{
		ItemCode:     "cat-item-100",
		Name:         "חלב 3%",
		Manufacturer: "תנובה",
		UnitQty:      "ליטר",
		BranchID:     "cat-branch-3",
		Price:        decimal.RequireFromString("6.90"),
	}

	t.Run("creates item and price atomically", func(t *testing.T) {
		require.NoError(t, tc.repo.UpsertItemPrice(ctx, rec))
		got := tc.currentPrice("cat-item-100", "תנובה", false, "cat-branch-3")
		assert.True(t, got.Equal(decimal.RequireFromString("6.90")))
	})

	t.Run("re-ingestion overwrites the price in place", func(t *testing.T) {
		update := *rec
		update.Price = decimal.RequireFromString("7.20")
		require.NoError(t, tc.repo.UpsertItemPrice(ctx, &update))

		got := tc.currentPrice("cat-item-100", "תנובה", false, "cat-branch-3")
		assert.True(t, got.Equal(decimal.RequireFromString("7.20")))

		var count int
		require.NoError(t, tc.testDB.DB.QueryRow(ctx, `
			SELECT COUNT(*) FROM prices p
			JOIN items i ON i.id = p.item_id
			WHERE i.item_code = $1`, "cat-item-100").Scan(&count))
		assert.Equal(t, 1, count)
	})

	t.Run("same item at another branch keeps both prices", func(t *testing.T) {
		other := *rec
		other.BranchID = "cat-branch-4"
		other.Price = decimal.RequireFromString("6.50")
		require.NoError(t, tc.repo.UpsertItemPrice(ctx, &other))

		var count int
		require.NoError(t, tc.testDB.DB.QueryRow(ctx, `
			SELECT COUNT(*) FROM prices p
			JOIN items i ON i.id = p.item_id
			WHERE i.item_code = $1`, "cat-item-100").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("weighted and unit variants are distinct items", func(t *testing.T) {
		weighted := *rec
		weighted.IsWeighted = true
		weighted.Price = decimal.RequireFromString("12.40")
		require.NoError(t, tc.repo.UpsertItemPrice(ctx, &weighted))

		var count int
		require.NoError(t, tc.testDB.DB.QueryRow(ctx,
			`SELECT COUNT(*) FROM items WHERE item_code = $1`, "cat-item-100").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("different manufacturers are distinct items", func(t *testing.T) {
		other := *rec
		other.Manufacturer = "טרה"
		require.NoError(t, tc.repo.UpsertItemPrice(ctx, &other))

		var count int
		require.NoError(t, tc.testDB.DB.QueryRow(ctx,
			`SELECT COUNT(*) FROM items WHERE item_code = $1 AND is_weighted = FALSE`,
			"cat-item-100").Scan(&count))
		assert.Equal(t, 2, count)
	})

	t.Run("price against an unknown branch fails", func(t *testing.T) {
		bad := *rec
		bad.BranchID = "no-such-branch"
		assert.Error(t, tc.repo.UpsertItemPrice(ctx, &bad))
	})
}
