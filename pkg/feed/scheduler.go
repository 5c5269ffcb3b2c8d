package feed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/pricecart/pricecart-engine/pkg/apperrors"
	"github.com/pricecart/pricecart-engine/pkg/metrics"
)

// statusDirName is the regulator downloader's bookkeeping folder; it never
// contains feed files.
const statusDirName = "status"

var (
	// branchIDPattern is the canonical price-file naming convention: a
	// 3-digit branch code between the chain code and the timestamp.
	branchIDPattern = regexp.MustCompile(`-(\d{3})-\d{8}`)

	// branchIDFallback accepts any hyphen-delimited numeric run for chains
	// that deviate from the canonical naming.
	branchIDFallback = regexp.MustCompile(`-(\d+)-`)
)

// ExtractBranchID parses the branch id out of a price-feed filename. The
// extraction is two-stage: the canonical positional pattern first, then the
// permissive fallback. Failures are named so the permanent-skip taxonomy
// stays auditable: apperrors.ErrBranchIDMissing when no numeric run exists,
// apperrors.ErrBranchIDAmbiguous when the fallback finds more than one.
func ExtractBranchID(filename string) (string, error) {
	if m := branchIDPattern.FindStringSubmatch(filename); m != nil {
		return m[1], nil
	}

	matches := branchIDFallback.FindAllStringSubmatch(filename, -1)
	switch len(matches) {
	case 0:
		return "", apperrors.ErrBranchIDMissing
	case 1:
		return matches[0][1], nil
	default:
		return "", apperrors.ErrBranchIDAmbiguous
	}
}

// IsStoreFeed reports whether filename names a store (branch metadata) feed.
func IsStoreFeed(filename string) bool {
	return strings.HasPrefix(filename, "Stores") && strings.HasSuffix(filename, ".xml")
}

// IsPriceFeed reports whether filename names a price feed. Covers both the
// incremental "Price" and the full "PriceFull" dumps.
func IsPriceFeed(filename string) bool {
	return strings.HasPrefix(filename, "Price") && strings.HasSuffix(filename, ".xml")
}

// Stats summarizes one scheduler pass.
type Stats struct {
	// FilesProcessed is how many feed files were fully ingested and archived.
	FilesProcessed int
	// FilesSkipped is how many files were archived unprocessed as permanent
	// skips (unknown branch, unparseable filename).
	FilesSkipped int
	// FilesFailed is how many files hit a retryable error and were left in
	// place for the next pass.
	FilesFailed int
}

func (s *Stats) add(other Stats) {
	s.FilesProcessed += other.FilesProcessed
	s.FilesSkipped += other.FilesSkipped
	s.FilesFailed += other.FilesFailed
}

// Scheduler drives one ingestion pass over a feeds root directory holding
// one subdirectory per chain. Within a chain, every store feed is processed
// before any price feed - price ingestion requires its branch to already be
// in the catalog. Chains are independent (disjoint branch and item spaces)
// and may be processed concurrently; files within a chain never are.
type Scheduler struct {
	stores   *StoreProcessor
	prices   *PriceProcessor
	archiver *Archiver
	workers  int
	logger   *zap.Logger
}

// NewScheduler creates a Scheduler. workers bounds cross-chain concurrency;
// values below 1 mean sequential.
func NewScheduler(stores *StoreProcessor, prices *PriceProcessor, archiver *Archiver, workers int, logger *zap.Logger) *Scheduler {
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		stores:   stores,
		prices:   prices,
		archiver: archiver,
		workers:  workers,
		logger:   logger.Named("feed-scheduler"),
	}
}

// Run performs one pass over every chain directory under root. Per-chain
// failures are isolated; the returned Stats report how files were disposed
// of. Rerunning the scheduler is the retry mechanism for failed files.
func (s *Scheduler) Run(ctx context.Context, root string) (Stats, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return Stats{}, fmt.Errorf("read feeds root %s: %w", root, err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && e.Name() != statusDirName {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	s.logger.Info("Starting ingestion pass",
		zap.String("root", root),
		zap.Int("chains", len(dirs)),
		zap.Int("workers", s.workers))

	var total Stats
	if s.workers == 1 {
		for _, dir := range dirs {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			total.add(s.processChain(ctx, dir))
		}
		return total, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, s.workers)
	)
	for _, dir := range dirs {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(dir string) {
			defer wg.Done()
			defer func() { <-sem }()
			st := s.processChain(ctx, dir)
			mu.Lock()
			total.add(st)
			mu.Unlock()
		}(dir)
	}
	wg.Wait()
	return total, ctx.Err()
}

// processChain ingests one chain directory: store feeds first, price feeds
// after.
func (s *Scheduler) processChain(ctx context.Context, dir string) Stats {
	var st Stats

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.logger.Error("Failed to read chain directory", zap.String("dir", dir), zap.Error(err))
		return st
	}

	var storeFiles, priceFiles []string
	for _, e := range entries {
		switch {
		case e.IsDir():
		case IsStoreFeed(e.Name()):
			storeFiles = append(storeFiles, e.Name())
		case IsPriceFeed(e.Name()):
			priceFiles = append(priceFiles, e.Name())
		}
	}

	for _, name := range storeFiles {
		if ctx.Err() != nil {
			return st
		}
		s.runStoreFile(ctx, filepath.Join(dir, name), &st)
	}
	for _, name := range priceFiles {
		if ctx.Err() != nil {
			return st
		}
		s.runPriceFile(ctx, filepath.Join(dir, name), &st)
	}

	s.logger.Info("Finished chain directory",
		zap.String("dir", filepath.Base(dir)),
		zap.Int("processed", st.FilesProcessed),
		zap.Int("skipped", st.FilesSkipped),
		zap.Int("failed", st.FilesFailed))
	return st
}

func (s *Scheduler) runStoreFile(ctx context.Context, path string, st *Stats) {
	if err := s.stores.Process(ctx, path); err != nil {
		s.logger.Error("Store feed failed, leaving for retry",
			zap.String("file", filepath.Base(path)),
			zap.Error(err))
		metrics.FeedFilesFailed.WithLabelValues("store").Inc()
		st.FilesFailed++
		return
	}
	s.dispose(path, "store", st)
}

func (s *Scheduler) runPriceFile(ctx context.Context, path string, st *Stats) {
	name := filepath.Base(path)

	branchID, err := ExtractBranchID(name)
	if err != nil {
		// Naming-format failure: retrying would repeat the outcome, so the
		// file is archived unparsed.
		s.logger.Warn("Skipping price feed with unusable file name",
			zap.String("file", name),
			zap.Error(err))
		metrics.FeedFilesSkipped.WithLabelValues("bad_filename").Inc()
		s.archive(path, st, &st.FilesSkipped)
		return
	}

	err = s.prices.Process(ctx, path, branchID)
	switch {
	case errors.Is(err, apperrors.ErrBranchUnknown):
		s.logger.Warn("Skipping price feed for unknown branch",
			zap.String("file", name),
			zap.String("branch_id", branchID))
		metrics.FeedFilesSkipped.WithLabelValues("branch_unknown").Inc()
		s.archive(path, st, &st.FilesSkipped)
	case err != nil:
		s.logger.Error("Price feed failed, leaving for retry",
			zap.String("file", name),
			zap.String("branch_id", branchID),
			zap.Error(err))
		metrics.FeedFilesFailed.WithLabelValues("price").Inc()
		st.FilesFailed++
	default:
		s.dispose(path, "price", st)
	}
}

func (s *Scheduler) dispose(path, kind string, st *Stats) {
	metrics.FeedFilesProcessed.WithLabelValues(kind).Inc()
	s.archive(path, st, &st.FilesProcessed)
}

// archive moves the file and bumps the given counter. An archive failure
// leaves the file in place; ingestion was idempotent, so the retry on the
// next pass is harmless.
func (s *Scheduler) archive(path string, st *Stats, counter *int) {
	if err := s.archiver.Archive(path); err != nil {
		s.logger.Error("Failed to archive feed file", zap.String("file", filepath.Base(path)), zap.Error(err))
		st.FilesFailed++
		return
	}
	*counter++
}
