package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pricecart/pricecart-engine/pkg/database"
	"github.com/pricecart/pricecart-engine/pkg/models"
)

// ListRepository reads shopping list items. The list lifecycle (CRUD,
// membership, sharing) belongs to the external list service; the comparison
// engine only consumes items as an input sequence.
type ListRepository interface {
	GetListItems(ctx context.Context, listID uuid.UUID) ([]models.ListItem, error)
}

type listRepository struct {
	db *database.DB
}

// NewListRepository creates a new ListRepository.
func NewListRepository(db *database.DB) ListRepository {
	return &listRepository{db: db}
}

var _ ListRepository = (*listRepository)(nil)

func (r *listRepository) GetListItems(ctx context.Context, listID uuid.UUID) ([]models.ListItem, error) {
	query := `
		SELECT id, list_id, item_name, quantity, product_id, user_price
		FROM list_items
		WHERE list_id = $1
		ORDER BY added_at`

	rows, err := r.db.Query(ctx, query, listID)
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer rows.Close()

	var items []models.ListItem
	for rows.Next() {
		var li models.ListItem
		if err := rows.Scan(&li.ID, &li.ListID, &li.Name, &li.Quantity, &li.ProductID, &li.UserPrice); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		items = append(items, li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list items: %w", err)
	}
	return items, nil
}
