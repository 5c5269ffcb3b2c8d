package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/pricecart/pricecart-engine/pkg/models"
)

// mockListRepo serves a fixed item slice for every list.
type mockListRepo struct {
	items []models.ListItem
	err   error
}

func (m *mockListRepo) GetListItems(ctx context.Context, listID uuid.UUID) ([]models.ListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

// mockComparisonRepo returns canned price rows and records the arguments of
// the last calls.
type mockComparisonRepo struct {
	minPrices  []models.ChainItemPrice
	fuzzyRows  []models.ChainItemPrice
	searchHits []models.ProductHit

	minPricesErr error
	fuzzyErr     error
	searchErr    error

	gotProductIDs []int64
	gotNames      []string
	gotQuery      string
	gotLimit      int
}

func (m *mockComparisonRepo) ChainMinPrices(ctx context.Context, productIDs []int64) ([]models.ChainItemPrice, error) {
	m.gotProductIDs = productIDs
	if m.minPricesErr != nil {
		return nil, m.minPricesErr
	}
	return m.minPrices, nil
}

func (m *mockComparisonRepo) FuzzyChainPrices(ctx context.Context, names []string) ([]models.ChainItemPrice, error) {
	m.gotNames = names
	if m.fuzzyErr != nil {
		return nil, m.fuzzyErr
	}
	return m.fuzzyRows, nil
}

func (m *mockComparisonRepo) SearchProducts(ctx context.Context, query string, limit int) ([]models.ProductHit, error) {
	m.gotQuery = query
	m.gotLimit = limit
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchHits, nil
}
