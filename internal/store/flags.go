package store

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

const flagTrue = "true"

// HasMigrated reports whether the image migration has completed.
// A read failure is logged and reported as not migrated.
func (s *Store) HasMigrated(ctx context.Context) bool {
	if err := ctxErr(ctx); err != nil {
		return false
	}
	val, err := s.get(KeyMigrated)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false
	}
	if err != nil {
		s.logger.Warn("failed to read migration flag", "error", err)
		return false
	}
	return string(val) == flagTrue
}

// MarkMigrated records that the image migration has completed.
func (s *Store) MarkMigrated(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if err := s.set(KeyMigrated, []byte(flagTrue)); err != nil {
		return domainerrors.Persistence(err)
	}
	return nil
}

// ResetMigration clears the migration flag so the next startup migrates again.
func (s *Store) ResetMigration(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if err := s.delete(KeyMigrated); err != nil {
		return domainerrors.Persistence(err)
	}
	return nil
}

// FirstLaunchSeen reports whether the first-launch notice was already shown.
func (s *Store) FirstLaunchSeen(ctx context.Context) bool {
	if err := ctxErr(ctx); err != nil {
		return false
	}
	seen, err := s.exists(KeyFirstLaunch)
	if err != nil {
		s.logger.Warn("failed to read first-launch flag", "error", err)
		return false
	}
	return seen
}

// MarkFirstLaunchSeen records that the first-launch notice was shown.
func (s *Store) MarkFirstLaunchSeen(ctx context.Context) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if err := s.set(KeyFirstLaunch, []byte(flagTrue)); err != nil {
		return domainerrors.Persistence(err)
	}
	return nil
}
