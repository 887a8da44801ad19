package search

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/noobbricks/noob-bricks/internal/domain"
)

// Index wraps an in-memory Bleve index of the collection.
//
// Thread safety: All public methods are safe for concurrent use.
// Sync swaps in a freshly built index under the write lock.
type Index struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	Logger *slog.Logger // Logger for operations (uses discard if nil)
}

// batchSize bounds how many documents go into one Bleve batch during Sync.
const batchSize = 500

// New creates an empty in-memory index.
func New(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &Index{index: index, logger: logger}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// Sync replaces the index contents with items.
// The new index is built off to the side, so searches keep hitting the old
// one until the swap. For large collections (>500 items) documents are
// committed in chunks.
func (s *Index) Sync(items []domain.Brick) error {
	// Build a fresh index with the current mapping.
	fresh, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))

		batch := fresh.NewBatch()
		for _, item := range items[i:end] {
			doc := NewBrickDocument(item)
			// Convert to map to ensure field names match the mapping (lowercase)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				_ = fresh.Close()
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := fresh.Batch(batch); err != nil {
			_ = fresh.Close()
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	// Swap under the write lock, then close the old index outside it.
	s.mu.Lock()
	old := s.index
	s.index = fresh
	s.mu.Unlock()

	if err := old.Close(); err != nil {
		s.logger.Warn("failed to close replaced search index", "error", err)
	}
	s.logger.Debug("rebuilt search index", "documents", len(items))
	return nil
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}
