package providers

import (
	"github.com/samber/do/v2"

	"github.com/noobbricks/noob-bricks/internal/imageref"
	"github.com/noobbricks/noob-bricks/internal/logger"
	"github.com/noobbricks/noob-bricks/internal/migration"
	"github.com/noobbricks/noob-bricks/internal/service"
	"github.com/noobbricks/noob-bricks/internal/validation"
)

// ProvideDocumentLock provides the lock serializing read-modify-write cycles on the collection document.
func ProvideDocumentLock(i do.Injector) (*service.DocumentLock, error) {
	return service.NewDocumentLock(), nil
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideResolver provides the image reference resolver.
func ProvideResolver(i do.Injector) (*imageref.Resolver, error) {
	blobs := do.MustInvoke[*BlobStoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return imageref.New(blobs.BlobStore, log.Component("imageref")), nil
}

// ProvideMigrationEngine provides the inline-image migration engine.
func ProvideMigrationEngine(i do.Injector) (*migration.Engine, error) {
	records := do.MustInvoke[*RecordStoreHandle](i)
	resolver := do.MustInvoke[*imageref.Resolver](i)
	log := do.MustInvoke[*logger.Logger](i)

	return migration.New(records.Store, resolver, log.Component("migration")), nil
}

// ProvideCollectionService provides the collection service.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	lock := do.MustInvoke[*service.DocumentLock](i)
	records := do.MustInvoke[*RecordStoreHandle](i)
	resolver := do.MustInvoke[*imageref.Resolver](i)
	index := do.MustInvoke[*SearchIndexHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCollectionService(lock, records.Store, resolver, index.Index, validator, log.Component("collection")), nil
}

// ProvideLinkService provides the external link service.
func ProvideLinkService(i do.Injector) (*service.LinkService, error) {
	lock := do.MustInvoke[*service.DocumentLock](i)
	records := do.MustInvoke[*RecordStoreHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLinkService(lock, records.Store, validator, log.Component("links")), nil
}

// ProvideTransferService provides the import/export service.
func ProvideTransferService(i do.Injector) (*service.TransferService, error) {
	records := do.MustInvoke[*RecordStoreHandle](i)
	resolver := do.MustInvoke[*imageref.Resolver](i)
	collection := do.MustInvoke[*service.CollectionService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTransferService(records.Store, resolver, collection, log.Component("transfer")), nil
}

// ProvideMaintenanceService provides migration and blob housekeeping.
func ProvideMaintenanceService(i do.Injector) (*service.MaintenanceService, error) {
	lock := do.MustInvoke[*service.DocumentLock](i)
	records := do.MustInvoke[*RecordStoreHandle](i)
	blobs := do.MustInvoke[*BlobStoreHandle](i)
	engine := do.MustInvoke[*migration.Engine](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewMaintenanceService(lock, records.Store, blobs.BlobStore, engine, log.Component("maintenance")), nil
}
