// Package di provides dependency injection configuration for noob-bricks.
package di

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/noobbricks/noob-bricks/internal/config"
	"github.com/noobbricks/noob-bricks/internal/di/providers"
	"github.com/noobbricks/noob-bricks/internal/imageref"
	"github.com/noobbricks/noob-bricks/internal/logger"
	"github.com/noobbricks/noob-bricks/internal/migration"
	"github.com/noobbricks/noob-bricks/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideRecordStore)
	do.Provide(injector, providers.ProvideBlobStore)
	do.Provide(injector, providers.ProvideResolver)
	do.Provide(injector, providers.ProvideMigrationEngine)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndex)

	// Business services
	do.Provide(injector, providers.ProvideDocumentLock)
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideLinkService)
	do.Provide(injector, providers.ProvideTransferService)
	do.Provide(injector, providers.ProvideMaintenanceService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes the stores and services, then runs the one-time
// image migration. A failed migration is logged and startup continues;
// the flag stays unset so the next launch retries.
func Bootstrap(ctx context.Context, injector do.Injector) error {
	log, err := do.Invoke[*logger.Logger](injector)
	if err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.RecordStoreHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.BlobStoreHandle](injector)
	_ = do.MustInvoke[*imageref.Resolver](injector)
	_ = do.MustInvoke[*migration.Engine](injector)
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return err
	}

	_ = do.MustInvoke[*service.CollectionService](injector)
	_ = do.MustInvoke[*service.LinkService](injector)
	_ = do.MustInvoke[*service.TransferService](injector)
	maintenance := do.MustInvoke[*service.MaintenanceService](injector)

	if result := maintenance.Migrate(ctx); result.Success && result.MigratedCount > 0 {
		log.Info("images moved to blob store", "count", result.MigratedCount)
	}

	return nil
}
