package feed

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/metrics"
	"github.com/pricecart/pricecart-engine/pkg/models"
	"github.com/pricecart/pricecart-engine/pkg/repositories"
)

// StoreProcessor ingests one store-feed document (chain, sub-chain and
// branch metadata) into the catalog. A failed record is logged and dropped;
// one bad store must not lose the rest of the chain's stores. An
// unrecoverable parse error propagates so the file is retried on the next
// scheduler pass.
type StoreProcessor struct {
	catalog repositories.CatalogRepository
	logger  *zap.Logger
}

// NewStoreProcessor creates a new StoreProcessor.
func NewStoreProcessor(catalog repositories.CatalogRepository, logger *zap.Logger) *StoreProcessor {
	return &StoreProcessor{
		catalog: catalog,
		logger:  logger.Named("store-feed"),
	}
}

// storeDocState is the mutable parse state of a single document. ChainID and
// ChainName arrive as separate elements, in either order depending on the
// chain's format, so the chain upsert waits until both are known.
type storeDocState struct {
	chainID       string
	chainName     string
	subChainID    string
	chainUpserted bool
}

// Process parses and ingests the store feed at path. The caller archives the
// file once Process returns nil.
func (p *StoreProcessor) Process(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open store feed: %w", err)
	}
	defer f.Close()

	p.logger.Info("Processing store feed", zap.String("file", filepath.Base(path)))
	return p.process(ctx, NewUTF8Reader(f))
}

func (p *StoreProcessor) process(ctx context.Context, r io.Reader) error {
	scanner := NewScanner(r, "ChainID", "ChainName", "SubChainID", "SubChainName", "Store")
	st := &storeDocState{}

	for {
		el, err := scanner.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("parse store feed: %w", err)
		}
		p.handle(ctx, st, el)
	}
}

func (p *StoreProcessor) handle(ctx context.Context, st *storeDocState, el *Element) {
	switch strings.ToLower(el.Name) {
	case "chainid":
		if st.chainID == "" && el.Text() != "" {
			st.chainID = el.Text()
			p.tryUpsertChain(ctx, st)
		}
	case "chainname":
		if st.chainName == "" && el.Text() != "" {
			st.chainName = el.Text()
			p.tryUpsertChain(ctx, st)
		}
	case "subchainid":
		if el.Text() != "" {
			st.subChainID = el.Text()
		}
	case "subchainname":
		p.upsertSubChain(ctx, st, el.Text())
	case "store":
		p.handleStore(ctx, st, el)
	}
}

// tryUpsertChain upserts the chain once both id and name are known. The
// upsert happens at most once per document.
func (p *StoreProcessor) tryUpsertChain(ctx context.Context, st *storeDocState) {
	if st.chainID == "" || st.chainName == "" || st.chainUpserted {
		return
	}
	st.chainUpserted = true

	chain := &models.Chain{ID: st.chainID, Name: st.chainName}
	if err := p.catalog.UpsertChain(ctx, chain); err != nil {
		p.logger.Error("Failed to upsert chain",
			zap.String("chain_id", st.chainID),
			zap.Error(err))
		metrics.FeedRecordsSkipped.WithLabelValues("chain").Inc()
		return
	}
	metrics.FeedRecordsUpserted.WithLabelValues("chain").Inc()
}

func (p *StoreProcessor) upsertSubChain(ctx context.Context, st *storeDocState, name string) {
	if st.chainID == "" || st.subChainID == "" {
		return
	}

	subChain := &models.SubChain{
		ID:      st.subChainID,
		ChainID: st.chainID,
		Name:    name,
	}
	if err := p.catalog.UpsertSubChain(ctx, subChain); err != nil {
		p.logger.Error("Failed to upsert sub-chain",
			zap.String("sub_chain_id", st.subChainID),
			zap.Error(err))
		metrics.FeedRecordsSkipped.WithLabelValues("sub_chain").Inc()
		return
	}
	metrics.FeedRecordsUpserted.WithLabelValues("sub_chain").Inc()
}

func (p *StoreProcessor) handleStore(ctx context.Context, st *storeDocState, store *Element) {
	// Some chains publish ChainName only inside Store records; feed the
	// pending chain upsert from there when the document level was silent.
	if cn := store.Child("ChainName"); cn != "" && st.chainName == "" {
		st.chainName = cn
		p.tryUpsertChain(ctx, st)
	}

	storeID := store.Child("StoreID")
	if storeID == "" || st.chainID == "" {
		p.logger.Warn("Skipping store record without store id or chain id",
			zap.String("store_id", storeID),
			zap.String("chain_id", st.chainID))
		metrics.FeedRecordsSkipped.WithLabelValues("branch").Inc()
		return
	}

	subChainID := store.Child("SubChainID")
	if subChainID == "" {
		subChainID = st.subChainID
	} else {
		// A store-level SubChainID also advances the document state; later
		// stores without their own id belong to the last sub-chain seen.
		st.subChainID = subChainID
	}

	branch := &models.Branch{
		ID:         storeID,
		ChainID:    st.chainID,
		SubChainID: subChainID,
		Name:       store.Child("StoreName"),
		Address:    store.Child("Address"),
		City:       store.Child("City"),
	}
	if err := p.catalog.UpsertBranch(ctx, branch); err != nil {
		p.logger.Error("Failed to upsert branch",
			zap.String("branch_id", storeID),
			zap.Error(err))
		metrics.FeedRecordsSkipped.WithLabelValues("branch").Inc()
		return
	}
	metrics.FeedRecordsUpserted.WithLabelValues("branch").Inc()
}
