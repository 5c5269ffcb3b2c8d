package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownManufacturer is recorded when a price feed omits the manufacturer.
// Kept in Hebrew to match the regulator feeds the catalog is built from.
const UnknownManufacturer = "לא ידוע"

// Chain is a retail company publishing transparency feeds, identified by its
// regulator-assigned chain code. The code is immutable identity; the display
// name may change between feeds.
type Chain struct {
	ID   string `json:"chain_id"`
	Name string `json:"chain_name"`
}

// SubChain is a banner/format operated by a chain (e.g. a discount line).
type SubChain struct {
	ID      string `json:"sub_chain_id"`
	ChainID string `json:"chain_id"`
	Name    string `json:"name"`
}

// Branch is a single physical store. Branches are immutable once known;
// re-ingesting a store feed never rewrites an existing branch.
type Branch struct {
	ID         string `json:"branch_id"`
	ChainID    string `json:"chain_id"`
	SubChainID string `json:"sub_chain_id,omitempty"`
	Name       string `json:"branch_name"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
}

// Item is a catalog product. Identity is the tuple
// (item_code, manufacturer, is_weighted): the same barcode can denote two
// distinct rows when one sells by weight and the other by fixed unit.
type Item struct {
	ID           int64  `json:"item_id"`
	Barcode      string `json:"barcode"`
	ItemCode     string `json:"item_code"`
	Name         string `json:"item_name"`
	Manufacturer string `json:"manufacturer"`
	UnitQty      string `json:"unit_qty"`
	IsWeighted   bool   `json:"is_weighted"`
}

// Price is the current price of one item at one branch. At most one row per
// (item, branch); re-ingestion overwrites price and timestamp in place.
type Price struct {
	ItemID    int64           `json:"item_id"`
	BranchID  string          `json:"branch_id"`
	Price     decimal.Decimal `json:"price"`
	UpdatedAt time.Time       `json:"price_update_time"`
}

// ItemPriceUpsert is one price-feed record destined for the catalog: an item
// upsert plus a price upsert, applied as a single atomic statement so a price
// is never written against a half-created item.
type ItemPriceUpsert struct {
	ItemCode     string
	Name         string
	Manufacturer string
	UnitQty      string
	IsWeighted   bool
	BranchID     string
	Price        decimal.Decimal
}

// ProductHit is one product search result with its highest observed price
// and the chain/branch carrying it.
type ProductHit struct {
	ItemID     int64            `json:"item_id"`
	ItemName   string           `json:"item_name"`
	Barcode    string           `json:"barcode"`
	ItemCode   string           `json:"item_code"`
	Price      *decimal.Decimal `json:"price"`
	ChainID    *string          `json:"chain_id"`
	ChainName  *string          `json:"chain_name"`
	BranchName *string          `json:"branch_name"`
}
