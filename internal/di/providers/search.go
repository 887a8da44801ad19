package providers

import (
	"github.com/samber/do/v2"

	"github.com/noobbricks/noob-bricks/internal/logger"
	"github.com/noobbricks/noob-bricks/internal/search"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory Bleve index.
// It starts empty; the collection service fills it on first use.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.New(search.Options{Logger: log.Component("search")})
	if err != nil {
		return nil, err
	}

	return &SearchIndexHandle{Index: index}, nil
}
