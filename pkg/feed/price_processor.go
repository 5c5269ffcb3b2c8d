package feed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/apperrors"
	"github.com/pricecart/pricecart-engine/pkg/metrics"
	"github.com/pricecart/pricecart-engine/pkg/models"
	"github.com/pricecart/pricecart-engine/pkg/repositories"
)

// PriceProcessor ingests one price-feed document: the items and current
// prices of a single branch. The branch must already exist in the catalog;
// a price row must never reference an unknown branch, and retrying a price
// file without its store feed would fail identically forever.
type PriceProcessor struct {
	catalog repositories.CatalogRepository
	logger  *zap.Logger
}

// NewPriceProcessor creates a new PriceProcessor.
func NewPriceProcessor(catalog repositories.CatalogRepository, logger *zap.Logger) *PriceProcessor {
	return &PriceProcessor{
		catalog: catalog,
		logger:  logger.Named("price-feed"),
	}
}

// Process parses and ingests the price feed at path for the given branch.
// It returns apperrors.ErrBranchUnknown, before any parsing, when the branch
// is not in the catalog; the caller archives the file as a permanent skip.
// The caller also archives after a nil return. Any other error leaves the
// file for retry.
func (p *PriceProcessor) Process(ctx context.Context, path, branchID string) error {
	exists, err := p.catalog.BranchExists(ctx, branchID)
	if err != nil {
		return fmt.Errorf("check branch %s: %w", branchID, err)
	}
	if !exists {
		return apperrors.ErrBranchUnknown
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open price feed: %w", err)
	}
	defer f.Close()

	p.logger.Info("Processing price feed",
		zap.String("file", filepath.Base(path)),
		zap.String("branch_id", branchID))
	return p.process(ctx, NewUTF8Reader(f), branchID)
}

func (p *PriceProcessor) process(ctx context.Context, r io.Reader, branchID string) error {
	scanner := NewScanner(r, "Item")

	for {
		el, err := scanner.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse price feed: %w", err)
		}
		p.handleItem(ctx, el, branchID)
	}
}

// handleItem upserts one item record. Malformed or failing records are
// dropped without aborting the file; one bad row must not block the
// remaining thousands.
func (p *PriceProcessor) handleItem(ctx context.Context, item *Element, branchID string) {
	rec, err := parseItemRecord(item, branchID)
	if err != nil {
		p.logger.Warn("Skipping malformed item record",
			zap.String("branch_id", branchID),
			zap.Error(err))
		metrics.FeedRecordsSkipped.WithLabelValues("item_price").Inc()
		return
	}

	if err := p.catalog.UpsertItemPrice(ctx, rec); err != nil {
		p.logger.Error("Failed to upsert item price",
			zap.String("item_code", rec.ItemCode),
			zap.String("branch_id", branchID),
			zap.Error(err))
		metrics.FeedRecordsSkipped.WithLabelValues("item_price").Inc()
		return
	}
	metrics.FeedRecordsUpserted.WithLabelValues("item_price").Inc()
}

// parseItemRecord extracts one feed item. Manufacturer defaults to the
// unknown marker, unit quantity to "1". A missing code or name, or an
// unparseable price, makes the record malformed.
func parseItemRecord(item *Element, branchID string) (*models.ItemPriceUpsert, error) {
	code := item.Child("ItemCode")
	name := item.Child("ItemName")
	if code == "" || name == "" {
		return nil, fmt.Errorf("item record missing code or name (code=%q)", code)
	}

	price, err := decimal.NewFromString(item.Child("ItemPrice"))
	if err != nil {
		return nil, fmt.Errorf("item %s has malformed price %q: %w", code, item.Child("ItemPrice"), err)
	}

	manufacturer := item.Child("ManufacturerName")
	if manufacturer == "" {
		manufacturer = models.UnknownManufacturer
	}

	unitQty := item.Child("UnitQty")
	if unitQty == "" {
		unitQty = "1"
	}

	weighted := item.Child("bIsWeighted")

	return &models.ItemPriceUpsert{
		ItemCode:     code,
		Name:         name,
		Manufacturer: manufacturer,
		UnitQty:      unitQty,
		IsWeighted:   weighted == "1" || weighted == "true",
		BranchID:     branchID,
		Price:        price,
	}, nil
}
