package service

import (
	"context"
	"log/slog"

	"github.com/noobbricks/noob-bricks/internal/migration"
	"github.com/noobbricks/noob-bricks/internal/store"
	"github.com/noobbricks/noob-bricks/internal/store/sqlite"
)

// MaintenanceService runs the image migration, orphan collection and
// first-launch bookkeeping.
type MaintenanceService struct {
	lock    *DocumentLock
	records *store.Store
	blobs   *sqlite.BlobStore
	engine  *migration.Engine
	logger  *slog.Logger
}

// NewMaintenanceService creates a new maintenance service.
func NewMaintenanceService(lock *DocumentLock, records *store.Store, blobs *sqlite.BlobStore, engine *migration.Engine, logger *slog.Logger) *MaintenanceService {
	return &MaintenanceService{
		lock:    lock,
		records: records,
		blobs:   blobs,
		engine:  engine,
		logger:  logger,
	}
}

// Migrate runs the image migration. It is a no-op once completed.
func (s *MaintenanceService) Migrate(ctx context.Context) migration.Result {
	s.lock.Lock()
	defer s.lock.Unlock()

	result := s.engine.Migrate(ctx)
	if !result.Success {
		s.logger.Error("image migration failed, continuing with inline images", "error", result.Error)
	}
	return result
}

// MigrationPending reports whether the migration has yet to complete.
func (s *MaintenanceService) MigrationPending(ctx context.Context) bool {
	return s.engine.Pending(ctx)
}

// ResetMigration clears the completed flag so the next Migrate runs again.
func (s *MaintenanceService) ResetMigration(ctx context.Context) error {
	return s.records.ResetMigration(ctx)
}

// Orphans returns blob ids that no brick references.
func (s *MaintenanceService) Orphans(ctx context.Context) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.orphans(ctx)
}

// CollectOrphans deletes every unreferenced blob and returns how many were removed.
func (s *MaintenanceService) CollectOrphans(ctx context.Context) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	orphans, err := s.orphans(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, blobID := range orphans {
		if err := s.blobs.Delete(ctx, blobID); err != nil {
			s.logger.Warn("failed to delete orphaned image", "image_id", blobID, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		s.logger.Info("orphaned images collected", "removed", removed)
	}
	return removed, nil
}

func (s *MaintenanceService) orphans(ctx context.Context) ([]string, error) {
	if !s.blobs.IsSupported() {
		return []string{}, nil
	}
	ids, err := s.blobs.ListIDs(ctx)
	if err != nil {
		return nil, err
	}

	referenced := map[string]struct{}{}
	for _, b := range loadDocument(ctx, s.records).Items {
		if b.Image.IsReference() {
			referenced[b.Image.Value()] = struct{}{}
		}
	}

	orphans := []string{}
	for _, blobID := range ids {
		if _, ok := referenced[blobID]; !ok {
			orphans = append(orphans, blobID)
		}
	}
	return orphans, nil
}

// FirstLaunch reports true exactly once per data directory.
func (s *MaintenanceService) FirstLaunch(ctx context.Context) (bool, error) {
	if s.records.FirstLaunchSeen(ctx) {
		return false, nil
	}
	if err := s.records.MarkFirstLaunchSeen(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ImageStoreStatus reports whether the blob store is available and how many payloads it holds.
func (s *MaintenanceService) ImageStoreStatus(ctx context.Context) (supported bool, count int, err error) {
	if !s.blobs.IsSupported() {
		return false, 0, nil
	}
	ids, err := s.blobs.ListIDs(ctx)
	if err != nil {
		return true, 0, err
	}
	return true, len(ids), nil
}
