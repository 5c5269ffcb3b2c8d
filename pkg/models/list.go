package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ListItem is one entry on a shopping list. The list store is owned by an
// external service; this engine only reads items as comparison input.
//
// An item is "linked" when ProductID references a catalog item, and
// "unlinked" when it is free text only. UserPrice is whatever the user
// typed when adding the item; it is advisory and never used for totals.
type ListItem struct {
	ID        uuid.UUID        `json:"id"`
	ListID    uuid.UUID        `json:"list_id"`
	Name      string           `json:"item_name"`
	Quantity  decimal.Decimal  `json:"quantity"`
	ProductID *int64           `json:"product_id,omitempty"`
	UserPrice *decimal.Decimal `json:"user_price,omitempty"`
}

// Linked reports whether the item already references a catalog product.
func (li *ListItem) Linked() bool {
	return li.ProductID != nil
}
