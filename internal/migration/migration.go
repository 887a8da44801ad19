// Package migration moves inline image payloads out of the collection document
// and into the blob store, once per installation.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// RecordStore is the subset of the record store the engine needs.
type RecordStore interface {
	LoadStored(ctx context.Context) *domain.Document
	Save(ctx context.Context, doc *domain.Document) error
	HasMigrated(ctx context.Context) bool
	MarkMigrated(ctx context.Context) error
}

// Images persists and releases blob references.
type Images interface {
	Supported() bool
	Persist(ctx context.Context, payload string) (domain.ImageRef, error)
	Release(ctx context.Context, ref domain.ImageRef) error
}

// Result reports the outcome of a migration run. Migrate never returns an error;
// failures are reported here and the completed flag stays unset.
// Err carries the MIGRATION coded error behind the Error message.
type Result struct {
	Success       bool   `json:"success"`
	MigratedCount int    `json:"migratedCount"`
	Error         string `json:"error,omitempty"`
	Err           error  `json:"-"`
}

func failed(err error) Result {
	merr := domainerrors.Wrap(err, domainerrors.CodeMigration, "image migration failed")
	return Result{Success: false, MigratedCount: 0, Error: merr.Error(), Err: merr}
}

// Engine runs the inline-to-reference image migration.
type Engine struct {
	records RecordStore
	images  Images
	logger  *slog.Logger
}

// New creates a migration engine.
func New(records RecordStore, images Images, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{records: records, images: images, logger: logger}
}

// Pending reports whether the migration still has to run.
func (e *Engine) Pending(ctx context.Context) bool {
	return !e.records.HasMigrated(ctx)
}

// Migrate converts every inline image into a blob reference. It is a no-op once completed.
func (e *Engine) Migrate(ctx context.Context) Result {
	if e.records.HasMigrated(ctx) {
		return Result{Success: true}
	}

	if !e.images.Supported() {
		e.logger.Info("blob store unavailable, nothing to migrate")
		return e.complete(ctx, 0)
	}

	start := time.Now()
	doc := e.records.LoadStored(ctx)
	if doc == nil || len(doc.Items) == 0 {
		return e.complete(ctx, 0)
	}

	rewritten := doc.Clone()
	created := make([]domain.ImageRef, 0)

	for i, b := range rewritten.Items {
		if !b.Image.IsInline() {
			continue
		}
		ref, err := e.images.Persist(ctx, b.Image.Value())
		if err != nil {
			return e.fail(ctx, created, fmt.Errorf("persist image of brick %s: %w", b.ID, err))
		}
		rewritten.Items[i].Image = ref
		created = append(created, ref)
	}

	if len(created) > 0 {
		if err := e.records.Save(ctx, rewritten); err != nil {
			return e.fail(ctx, created, fmt.Errorf("save migrated document: %w", err))
		}
	}

	if err := e.records.MarkMigrated(ctx); err != nil {
		// The document already holds references; the next run finds nothing inline.
		e.logger.Error("failed to mark image migration complete", "error", err)
		return failed(fmt.Errorf("mark migration complete: %w", err))
	}

	e.logger.Info("image migration complete",
		"migrated", len(created),
		"items", len(rewritten.Items),
		"duration", time.Since(start),
	)
	return Result{Success: true, MigratedCount: len(created)}
}

func (e *Engine) complete(ctx context.Context, count int) Result {
	if err := e.records.MarkMigrated(ctx); err != nil {
		e.logger.Error("failed to mark image migration complete", "error", err)
		return failed(fmt.Errorf("mark migration complete: %w", err))
	}
	return Result{Success: true, MigratedCount: count}
}

// fail releases the blobs written during this run so a retry starts clean.
func (e *Engine) fail(ctx context.Context, created []domain.ImageRef, err error) Result {
	for _, ref := range created {
		if releaseErr := e.images.Release(ctx, ref); releaseErr != nil {
			e.logger.Warn("failed to release image after aborted migration", "id", ref.Value(), "error", releaseErr)
		}
	}
	e.logger.Error("image migration failed", "error", err)
	return failed(err)
}
