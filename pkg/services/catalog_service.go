package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/logging"
	"github.com/pricecart/pricecart-engine/pkg/models"
	"github.com/pricecart/pricecart-engine/pkg/repositories"
)

// CatalogService serves read-only catalog lookups for the HTTP surface.
type CatalogService interface {
	// SearchProducts returns catalog items whose name contains query.
	SearchProducts(ctx context.Context, query string) ([]models.ProductHit, error)
}

type catalogService struct {
	repo        repositories.ComparisonRepository
	searchLimit int
	logger      *zap.Logger
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ComparisonRepository, searchLimit int, logger *zap.Logger) CatalogService {
	if searchLimit <= 0 {
		searchLimit = 15
	}
	return &catalogService{
		repo:        repo,
		searchLimit: searchLimit,
		logger:      logger.Named("catalog"),
	}
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) SearchProducts(ctx context.Context, query string) ([]models.ProductHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.ProductHit{}, nil
	}

	// Queries are arbitrary user input; keep log lines bounded.
	s.logger.Debug("Searching products",
		zap.String("query", logging.TruncateString(query, 80)))

	hits, err := s.repo.SearchProducts(ctx, query, s.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	if hits == nil {
		hits = []models.ProductHit{}
	}
	return hits, nil
}
