package feed

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Archiver moves disposed feed files into a per-directory archive folder.
// The move is the durable idempotence marker: a file either still sits at its
// original path (it must be retried) or lives solely under the archive,
// never both.
type Archiver struct {
	dirName string
	logger  *zap.Logger
}

// NewArchiver creates an Archiver that moves files into a sibling directory
// with the given name ("process" by convention).
func NewArchiver(dirName string, logger *zap.Logger) *Archiver {
	return &Archiver{
		dirName: dirName,
		logger:  logger.Named("archiver"),
	}
}

// Archive moves path into the archive folder alongside it, creating the
// folder if needed.
func (a *Archiver) Archive(path string) error {
	dir := filepath.Join(filepath.Dir(path), a.dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir %s: %w", dir, err)
	}

	target := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, target); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}

	a.logger.Debug("Archived feed file", zap.String("file", filepath.Base(path)))
	return nil
}
