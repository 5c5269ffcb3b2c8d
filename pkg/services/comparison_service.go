package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/apperrors"
	"github.com/pricecart/pricecart-engine/pkg/metrics"
	"github.com/pricecart/pricecart-engine/pkg/models"
	"github.com/pricecart/pricecart-engine/pkg/repositories"
)

// ComparisonService computes, for a shopping list, the cheapest total cost
// per retail chain and the theoretical cheapest cross-chain mix. It is a
// pure read computation: no side effects, and any data-fetch error aborts
// the whole comparison rather than returning a misleading partial result.
type ComparisonService interface {
	Compare(ctx context.Context, listID uuid.UUID) (*models.Comparison, error)
}

type comparisonService struct {
	lists        repositories.ListRepository
	prices       repositories.ComparisonRepository
	maxListItems int
	logger       *zap.Logger
}

// NewComparisonService creates a new ComparisonService. maxListItems bounds
// the size of a comparable list; 0 means unbounded.
func NewComparisonService(lists repositories.ListRepository, prices repositories.ComparisonRepository, maxListItems int, logger *zap.Logger) ComparisonService {
	return &comparisonService{
		lists:        lists,
		prices:       prices,
		maxListItems: maxListItems,
		logger:       logger.Named("comparison"),
	}
}

var _ ComparisonService = (*comparisonService)(nil)

// chainAgg accumulates one chain's lowest price per product.
type chainAgg struct {
	id     string
	name   string
	prices map[int64]decimal.Decimal
}

func (s *comparisonService) Compare(ctx context.Context, listID uuid.UUID) (*models.Comparison, error) {
	result, err := s.compare(ctx, listID)
	if err != nil {
		metrics.ComparisonRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.ComparisonRequests.WithLabelValues("ok").Inc()
	return result, nil
}

func (s *comparisonService) compare(ctx context.Context, listID uuid.UUID) (*models.Comparison, error) {
	items, err := s.lists.GetListItems(ctx, listID)
	if err != nil {
		return nil, fmt.Errorf("fetch list items: %w", err)
	}

	if s.maxListItems > 0 && len(items) > s.maxListItems {
		return nil, apperrors.ErrListTooLarge
	}
	if len(items) == 0 {
		return &models.Comparison{
			Chains:         []models.ChainComparison{},
			Savings:        decimal.Zero,
			BestMixSavings: decimal.Zero,
		}, nil
	}

	var linked, unlinked []models.ListItem
	for _, li := range items {
		if li.Linked() {
			linked = append(linked, li)
		} else {
			unlinked = append(unlinked, li)
		}
	}

	productIDs := make([]int64, 0, len(linked))
	for _, li := range linked {
		productIDs = append(productIDs, *li.ProductID)
	}
	priceRows, err := s.prices.ChainMinPrices(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("fetch chain prices: %w", err)
	}

	names := make([]string, 0, len(unlinked))
	for _, li := range unlinked {
		names = append(names, li.Name)
	}
	nameRows, err := s.prices.FuzzyChainPrices(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("match free-text items: %w", err)
	}

	matchable, unmatched := resolveFreeText(linked, unlinked, nameRows)

	allRows := make([]models.ChainItemPrice, 0, len(priceRows)+len(nameRows))
	allRows = append(allRows, priceRows...)
	allRows = append(allRows, nameRows...)
	chainOrder, chains := collapseByChain(allRows)

	ranked := rankChains(chainOrder, chains, matchable)

	cmp := &models.Comparison{
		Chains:         ranked,
		TotalItems:     len(items),
		MatchedItems:   len(matchable),
		UnmatchedItems: unmatched,
		Savings:        decimal.Zero,
		BestMixSavings: decimal.Zero,
	}

	var mostExpensive decimal.Decimal
	if len(ranked) > 0 {
		cmp.Cheapest = &models.CheapestChain{
			ChainName: ranked[0].ChainName,
			Total:     ranked[0].Total,
		}
		mostExpensive = ranked[len(ranked)-1].Total
	}

	cmp.BestMix = bestMix(chainOrder, chains, matchable)

	// Savings only exist when there is a spread to save against.
	if len(ranked) > 1 {
		cmp.Savings = mostExpensive.Sub(cmp.Cheapest.Total).Round(2)
		if cmp.BestMix != nil {
			cmp.BestMixSavings = mostExpensive.Sub(cmp.BestMix.Total).Round(2)
		}
	}

	s.logger.Debug("Computed comparison",
		zap.String("list_id", listID.String()),
		zap.Int("chains", len(ranked)),
		zap.Int("matched", cmp.MatchedItems),
		zap.Int("unmatched", cmp.UnmatchedItems))
	return cmp, nil
}

// resolveFreeText assigns each unlinked item the first catalog product whose
// name contains the item's text, case-insensitively. Rows arrive in query
// order and the first hit wins; items with no hit stay unmatched and are
// excluded from every chain total.
func resolveFreeText(linked, unlinked []models.ListItem, nameRows []models.ChainItemPrice) (matchable []models.ListItem, unmatched int) {
	nameToProduct := make(map[uuid.UUID]int64)
	for _, row := range nameRows {
		if row.ProductName == "" {
			continue
		}
		productName := strings.ToLower(row.ProductName)
		for _, li := range unlinked {
			if _, done := nameToProduct[li.ID]; done {
				continue
			}
			if strings.Contains(productName, strings.ToLower(li.Name)) {
				nameToProduct[li.ID] = row.ProductID
			}
		}
	}

	matchable = make([]models.ListItem, 0, len(linked)+len(nameToProduct))
	matchable = append(matchable, linked...)
	for _, li := range unlinked {
		if pid, ok := nameToProduct[li.ID]; ok {
			li.ProductID = &pid
			matchable = append(matchable, li)
		}
	}
	return matchable, len(unlinked) - len(nameToProduct)
}

// collapseByChain folds price rows into one lowest price per (chain,
// product), preserving first-appearance chain order for deterministic
// ranking and tie-breaks.
func collapseByChain(rows []models.ChainItemPrice) ([]string, map[string]*chainAgg) {
	var order []string
	chains := make(map[string]*chainAgg)
	for _, row := range rows {
		agg, ok := chains[row.ChainID]
		if !ok {
			agg = &chainAgg{
				id:     row.ChainID,
				name:   row.ChainName,
				prices: make(map[int64]decimal.Decimal),
			}
			chains[row.ChainID] = agg
			order = append(order, row.ChainID)
		}
		if cur, ok := agg.prices[row.ProductID]; !ok || row.Price.LessThan(cur) {
			agg.prices[row.ProductID] = row.Price
		}
	}
	return order, chains
}

// rankChains totals every chain over the matchable items and sorts ascending
// by total. Items a chain has no price for are recorded as missing and
// excluded from its total - never costed at zero.
func rankChains(chainOrder []string, chains map[string]*chainAgg, matchable []models.ListItem) []models.ChainComparison {
	ranked := make([]models.ChainComparison, 0, len(chainOrder))
	for _, id := range chainOrder {
		agg := chains[id]
		cc := models.ChainComparison{
			ChainID:   agg.id,
			ChainName: agg.name,
			Total:     decimal.Zero,
			Items:     []models.ComparisonItem{},
			Missing:   []string{},
		}
		for _, li := range matchable {
			price, ok := agg.prices[*li.ProductID]
			if !ok {
				cc.Missing = append(cc.Missing, li.Name)
				continue
			}
			qty := itemQuantity(li)
			subtotal := price.Mul(qty)
			cc.Total = cc.Total.Add(subtotal)
			cc.Items = append(cc.Items, models.ComparisonItem{
				ItemName: li.Name,
				Price:    price,
				Quantity: qty,
				Subtotal: subtotal,
			})
		}
		cc.MissingCount = len(cc.Missing)
		cc.ItemCount = len(cc.Items)
		ranked = append(ranked, cc)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total.LessThan(ranked[j].Total)
	})
	return ranked
}

// bestMix buys each item at whichever chain is cheapest for it, ties going
// to the first-seen chain. Returns nil when nothing is priceable.
func bestMix(chainOrder []string, chains map[string]*chainAgg, matchable []models.ListItem) *models.BestMix {
	mix := &models.BestMix{
		Total:  decimal.Zero,
		Items:  []models.BestMixItem{},
		Stores: []string{},
	}
	seen := make(map[string]bool)

	for _, li := range matchable {
		var (
			found     bool
			bestPrice decimal.Decimal
			bestChain string
		)
		for _, id := range chainOrder {
			price, ok := chains[id].prices[*li.ProductID]
			if !ok {
				continue
			}
			if !found || price.LessThan(bestPrice) {
				found = true
				bestPrice = price
				bestChain = chains[id].name
			}
		}
		if !found {
			continue
		}

		qty := itemQuantity(li)
		subtotal := bestPrice.Mul(qty)
		mix.Items = append(mix.Items, models.BestMixItem{
			ItemName: li.Name,
			Price:    bestPrice,
			Quantity: qty,
			Subtotal: subtotal,
			Chain:    bestChain,
		})
		mix.Total = mix.Total.Add(subtotal)
		if !seen[bestChain] {
			seen[bestChain] = true
			mix.Stores = append(mix.Stores, bestChain)
		}
	}

	if len(mix.Items) == 0 {
		return nil
	}
	mix.StoreCount = len(mix.Stores)
	return mix
}

// itemQuantity defaults a missing or zero quantity to 1.
func itemQuantity(li models.ListItem) decimal.Decimal {
	if li.Quantity.IsPositive() {
		return li.Quantity
	}
	return decimal.NewFromInt(1)
}
