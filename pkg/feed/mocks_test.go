package feed

import (
	"context"
	"sync"

	"github.com/pricecart/pricecart-engine/pkg/models"
)

// mockCatalog is an in-memory CatalogRepository recording every upsert, with
// injectable per-operation failures.
type mockCatalog struct {
	mu sync.Mutex

	chains    map[string]models.Chain
	subChains map[string]models.SubChain
	branches  map[string]models.Branch
	upserts   []models.ItemPriceUpsert

	chainErr    error
	subChainErr error
	branchErr   error
	itemErr     func(rec *models.ItemPriceUpsert) error
	existsErr   error
}

func newMockCatalog() *mockCatalog {
	return &mockCatalog{
		chains:    make(map[string]models.Chain),
		subChains: make(map[string]models.SubChain),
		branches:  make(map[string]models.Branch),
	}
}

func (m *mockCatalog) UpsertChain(ctx context.Context, chain *models.Chain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chainErr != nil {
		return m.chainErr
	}
	m.chains[chain.ID] = *chain
	return nil
}

func (m *mockCatalog) UpsertSubChain(ctx context.Context, subChain *models.SubChain) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subChainErr != nil {
		return m.subChainErr
	}
	m.subChains[subChain.ID] = *subChain
	return nil
}

func (m *mockCatalog) UpsertBranch(ctx context.Context, branch *models.Branch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.branchErr != nil {
		return m.branchErr
	}
	// Branches are immutable once known.
	if _, ok := m.branches[branch.ID]; !ok {
		m.branches[branch.ID] = *branch
	}
	return nil
}

func (m *mockCatalog) BranchExists(ctx context.Context, branchID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.branches[branchID]
	return ok, nil
}

func (m *mockCatalog) UpsertItemPrice(ctx context.Context, rec *models.ItemPriceUpsert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.itemErr != nil {
		if err := m.itemErr(rec); err != nil {
			return err
		}
	}
	m.upserts = append(m.upserts, *rec)
	return nil
}

func (m *mockCatalog) addBranch(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches[id] = models.Branch{ID: id}
}
