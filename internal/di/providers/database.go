package providers

import (
	"github.com/samber/do/v2"

	"github.com/noobbricks/noob-bricks/internal/config"
	"github.com/noobbricks/noob-bricks/internal/logger"
	"github.com/noobbricks/noob-bricks/internal/store"
	"github.com/noobbricks/noob-bricks/internal/store/sqlite"
)

// RecordStoreHandle wraps the record store with shutdown capability.
type RecordStoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *RecordStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideRecordStore provides the record store holding the collection document.
func ProvideRecordStore(i do.Injector) (*RecordStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	records, err := store.New(cfg.Storage.RecordPath(), log.Component("records"))
	if err != nil {
		return nil, err
	}

	return &RecordStoreHandle{Store: records}, nil
}

// BlobStoreHandle wraps the blob store with shutdown capability.
type BlobStoreHandle struct {
	*sqlite.BlobStore
}

// Shutdown implements do.Shutdownable.
func (h *BlobStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideBlobStore provides the image blob store.
// The database file is not opened until the first image operation.
func ProvideBlobStore(i do.Injector) (*BlobStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	blobs := sqlite.New(sqlite.Options{
		Path:    cfg.Storage.BlobPath(),
		Enabled: cfg.Storage.ImagesEnabled,
		Logger:  log.Component("blobs"),
	})

	return &BlobStoreHandle{BlobStore: blobs}, nil
}
