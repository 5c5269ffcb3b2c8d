package models

import "github.com/shopspring/decimal"

// ChainItemPrice is the cheapest current price of one product within one
// chain (branch granularity collapsed to the lowest branch price).
// ProductName is populated only by the free-text match query.
type ChainItemPrice struct {
	ChainID     string
	ChainName   string
	ProductID   int64
	ProductName string
	Price       decimal.Decimal
}

// ComparisonItem is one matched list item priced at a particular chain.
type ComparisonItem struct {
	ItemName string          `json:"item_name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// ChainComparison is one chain's bid for the whole list: the total over the
// items it carries, plus the items it is missing. Missing items are excluded
// from the total, never costed at zero.
type ChainComparison struct {
	ChainID      string           `json:"chain_id"`
	ChainName    string           `json:"chain_name"`
	Total        decimal.Decimal  `json:"total"`
	Items        []ComparisonItem `json:"items"`
	Missing      []string         `json:"missing"`
	MissingCount int              `json:"missingCount"`
	ItemCount    int              `json:"itemCount"`
}

// CheapestChain identifies the lowest-total chain.
type CheapestChain struct {
	ChainName string          `json:"chain_name"`
	Total     decimal.Decimal `json:"total"`
}

// BestMixItem is one list item bought at whichever chain is cheapest for it.
type BestMixItem struct {
	ItemName string          `json:"item_name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Chain    string          `json:"store"`
}

// BestMix is the theoretical minimum spend when every item is bought at its
// cheapest chain, ignoring single-store convenience.
type BestMix struct {
	Total      decimal.Decimal `json:"total"`
	Items      []BestMixItem   `json:"items"`
	StoreCount int             `json:"storeCount"`
	Stores     []string        `json:"stores"`
}

// Comparison is the full result of comparing one list across all chains.
// It is computed per request and never persisted.
type Comparison struct {
	Chains         []ChainComparison `json:"chains"`
	Cheapest       *CheapestChain    `json:"cheapest"`
	BestMix        *BestMix          `json:"bestMix"`
	TotalItems     int               `json:"totalItems"`
	MatchedItems   int               `json:"matchedItems"`
	UnmatchedItems int               `json:"unmatchedItems"`
	Savings        decimal.Decimal   `json:"savings"`
	BestMixSavings decimal.Decimal   `json:"bestMixSavings"`
}
