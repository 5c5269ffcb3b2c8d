package repositories

import (
	"context"
	"fmt"

	"github.com/pricecart/pricecart-engine/pkg/database"
	"github.com/pricecart/pricecart-engine/pkg/models"
)

// CatalogRepository is the catalog write surface used by feed ingestion.
// Every operation is an idempotent upsert keyed by the entity's declared
// identity; re-applying identical input is a no-op or an attribute refresh,
// never a duplicate.
type CatalogRepository interface {
	UpsertChain(ctx context.Context, chain *models.Chain) error
	UpsertSubChain(ctx context.Context, subChain *models.SubChain) error
	UpsertBranch(ctx context.Context, branch *models.Branch) error
	BranchExists(ctx context.Context, branchID string) (bool, error)
	UpsertItemPrice(ctx context.Context, rec *models.ItemPriceUpsert) error
}

type catalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(db *database.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

var _ CatalogRepository = (*catalogRepository)(nil)

func (r *catalogRepository) UpsertChain(ctx context.Context, chain *models.Chain) error {
	query := `
		INSERT INTO chains (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	if _, err := r.db.Exec(ctx, query, chain.ID, chain.Name); err != nil {
		return fmt.Errorf("failed to upsert chain %s: %w", chain.ID, err)
	}
	return nil
}

func (r *catalogRepository) UpsertSubChain(ctx context.Context, subChain *models.SubChain) error {
	query := `
		INSERT INTO sub_chains (id, chain_id, name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`

	if _, err := r.db.Exec(ctx, query, subChain.ID, subChain.ChainID, subChain.Name); err != nil {
		return fmt.Errorf("failed to upsert sub-chain %s: %w", subChain.ID, err)
	}
	return nil
}

// UpsertBranch inserts a branch if it is not yet known. Branch attributes are
// treated as immutable once created, so a conflict on id is a no-op.
func (r *catalogRepository) UpsertBranch(ctx context.Context, branch *models.Branch) error {
	query := `
		INSERT INTO branches (id, chain_id, sub_chain_id, branch_name, address, city)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.Exec(ctx, query,
		branch.ID,
		branch.ChainID,
		nullString(branch.SubChainID),
		branch.Name,
		branch.Address,
		branch.City,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert branch %s: %w", branch.ID, err)
	}
	return nil
}

func (r *catalogRepository) BranchExists(ctx context.Context, branchID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM branches WHERE id = $1)`, branchID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check branch %s: %w", branchID, err)
	}
	return exists, nil
}

// UpsertItemPrice applies one price-feed record in a single statement: the
// item row keyed by (item_code, manufacturer, is_weighted) and its price row
// keyed by (item_id, branch_id). Atomicity matters - a price must never
// reference a half-created item.
func (r *catalogRepository) UpsertItemPrice(ctx context.Context, rec *models.ItemPriceUpsert) error {
	query := `
		WITH ins_item AS (
			INSERT INTO items (barcode, item_code, name, manufacturer, unit_qty, is_weighted)
			VALUES ($1, $1, $2, $3, $4, $5)
			ON CONFLICT (item_code, manufacturer, is_weighted) DO UPDATE SET
				name = EXCLUDED.name,
				unit_qty = EXCLUDED.unit_qty
			RETURNING id
		)
		INSERT INTO prices (item_id, branch_id, price, price_update_time)
		SELECT id, $6, $7, NOW() FROM ins_item
		ON CONFLICT (item_id, branch_id) DO UPDATE SET
			price = EXCLUDED.price,
			price_update_time = NOW()`

	_, err := r.db.Exec(ctx, query,
		rec.ItemCode,
		rec.Name,
		rec.Manufacturer,
		rec.UnitQty,
		rec.IsWeighted,
		rec.BranchID,
		rec.Price,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item %s price at branch %s: %w", rec.ItemCode, rec.BranchID, err)
	}
	return nil
}

// nullString maps "" to NULL for nullable text columns.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
