package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noobbricks/noob-bricks/internal/domain"
	"github.com/noobbricks/noob-bricks/internal/imageref"
	"github.com/noobbricks/noob-bricks/internal/migration"
	"github.com/noobbricks/noob-bricks/internal/search"
	"github.com/noobbricks/noob-bricks/internal/store"
	"github.com/noobbricks/noob-bricks/internal/store/sqlite"
	"github.com/noobbricks/noob-bricks/internal/validation"
)

const (
	pngA = "data:image/png;base64,iVBORw0KGgo="
	pngB = "data:image/png;base64,AAAA"
)

// testServices wires every service over in-memory stores.
type testServices struct {
	records     *store.Store
	blobs       *sqlite.BlobStore
	resolver    *imageref.Resolver
	collection  *CollectionService
	links       *LinkService
	transfer    *TransferService
	maintenance *MaintenanceService
}

func setupTestServices(t *testing.T, blobOpts sqlite.Options) *testServices {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	records, err := store.New("", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = records.Close() })

	blobOpts.Logger = logger
	blobs := sqlite.New(blobOpts)
	t.Cleanup(func() { _ = blobs.Close() })

	index, err := search.New(search.Options{Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	lock := NewDocumentLock()
	resolver := imageref.New(blobs, logger)
	validator := validation.New()
	collection := NewCollectionService(lock, records, resolver, index, validator, logger)

	return &testServices{
		records:     records,
		blobs:       blobs,
		resolver:    resolver,
		collection:  collection,
		links:       NewLinkService(lock, records, validator, logger),
		transfer:    NewTransferService(records, resolver, collection, logger),
		maintenance: NewMaintenanceService(lock, records, blobs, migration.New(records, resolver, logger), logger),
	}
}

func withBlobs() sqlite.Options {
	return sqlite.Options{Path: sqlite.MemoryPath, Enabled: true}
}

func withoutBlobs() sqlite.Options {
	return sqlite.Options{Path: sqlite.MemoryPath, Enabled: false}
}

// brokenBlobs reports the capability but fails every write.
func brokenBlobs() sqlite.Options {
	return sqlite.Options{Path: "", Enabled: true}
}

// fixedClock makes the collection service stamp predictable times.
func (ts *testServices) fixedClock(t time.Time) {
	ts.collection.now = func() time.Time { return t }
}

func (ts *testServices) blobIDs(t *testing.T) []string {
	t.Helper()
	ids, err := ts.blobs.ListIDs(context.Background())
	require.NoError(t, err)
	return ids
}

func (ts *testServices) mustAdd(t *testing.T, number string, tags []string, payload string) domain.Brick {
	t.Helper()
	b, _, err := ts.collection.AddBrick(context.Background(), domain.BrickForm{Number: number, Tags: tags}, payload)
	require.NoError(t, err)
	return b
}
