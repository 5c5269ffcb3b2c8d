package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/pricecart/pricecart-engine/pkg/database"
	"github.com/pricecart/pricecart-engine/pkg/models"
)

// ComparisonRepository is the read-only query surface of the comparison
// engine. It never mutates the catalog.
type ComparisonRepository interface {
	// ChainMinPrices returns, per (chain, product), the lowest current branch
	// price within that chain for each of the given product ids.
	ChainMinPrices(ctx context.Context, productIDs []int64) ([]models.ChainItemPrice, error)

	// FuzzyChainPrices returns the same per-chain minimum collapse for every
	// catalog item whose name contains one of the given free-text fragments
	// (case-insensitive). ProductName is populated on the returned rows.
	FuzzyChainPrices(ctx context.Context, names []string) ([]models.ChainItemPrice, error)

	// SearchProducts returns catalog items whose name contains the query.
	SearchProducts(ctx context.Context, query string, limit int) ([]models.ProductHit, error)
}

type comparisonRepository struct {
	db *database.DB
}

// NewComparisonRepository creates a new ComparisonRepository.
func NewComparisonRepository(db *database.DB) ComparisonRepository {
	return &comparisonRepository{db: db}
}

var _ ComparisonRepository = (*comparisonRepository)(nil)

func (r *comparisonRepository) ChainMinPrices(ctx context.Context, productIDs []int64) ([]models.ChainItemPrice, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT ON (c.id, p.item_id)
		       c.id, c.name, p.item_id, p.price
		FROM prices p
		JOIN branches b ON p.branch_id = b.id
		JOIN chains c ON b.chain_id = c.id
		WHERE p.item_id = ANY($1)
		ORDER BY c.id, p.item_id, p.price ASC`

	rows, err := r.db.Query(ctx, query, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query chain prices: %w", err)
	}
	defer rows.Close()

	var result []models.ChainItemPrice
	for rows.Next() {
		var cp models.ChainItemPrice
		if err := rows.Scan(&cp.ChainID, &cp.ChainName, &cp.ProductID, &cp.Price); err != nil {
			return nil, fmt.Errorf("failed to scan chain price: %w", err)
		}
		result = append(result, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chain prices: %w", err)
	}
	return result, nil
}

func (r *comparisonRepository) FuzzyChainPrices(ctx context.Context, names []string) ([]models.ChainItemPrice, error) {
	if len(names) == 0 {
		return nil, nil
	}

	conds := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		conds[i] = fmt.Sprintf("i.name ILIKE $%d", i+1)
		args[i] = "%" + name + "%"
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT ON (c.id, i.id)
		       c.id, c.name, i.id, i.name, p.price
		FROM prices p
		JOIN items i ON p.item_id = i.id
		JOIN branches b ON p.branch_id = b.id
		JOIN chains c ON b.chain_id = c.id
		WHERE %s
		ORDER BY c.id, i.id, p.price ASC`, strings.Join(conds, " OR "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query name matches: %w", err)
	}
	defer rows.Close()

	var result []models.ChainItemPrice
	for rows.Next() {
		var cp models.ChainItemPrice
		if err := rows.Scan(&cp.ChainID, &cp.ChainName, &cp.ProductID, &cp.ProductName, &cp.Price); err != nil {
			return nil, fmt.Errorf("failed to scan name match: %w", err)
		}
		result = append(result, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read name matches: %w", err)
	}
	return result, nil
}

func (r *comparisonRepository) SearchProducts(ctx context.Context, query string, limit int) ([]models.ProductHit, error) {
	sql := `
		SELECT DISTINCT ON (i.id)
		       i.id, i.name, i.barcode, i.item_code,
		       p.price, c.id, c.name, b.branch_name
		FROM items i
		LEFT JOIN prices p ON p.item_id = i.id
		LEFT JOIN branches b ON b.id = p.branch_id
		LEFT JOIN chains c ON c.id = b.chain_id
		WHERE i.name ILIKE $1
		ORDER BY i.id, p.price DESC NULLS LAST
		LIMIT $2`

	rows, err := r.db.Query(ctx, sql, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	var hits []models.ProductHit
	for rows.Next() {
		var h models.ProductHit
		if err := rows.Scan(&h.ItemID, &h.ItemName, &h.Barcode, &h.ItemCode,
			&h.Price, &h.ChainID, &h.ChainName, &h.BranchName); err != nil {
			return nil, fmt.Errorf("failed to scan product hit: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read product hits: %w", err)
	}
	return hits, nil
}
