// Package imageref moves brick images between inline payloads and blob store references.
package imageref

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/id"
)

// BlobStore is the subset of the blob store the resolver needs.
type BlobStore interface {
	IsSupported() bool
	Put(ctx context.Context, id, data string) error
	Get(ctx context.Context, id string) (string, bool)
	Delete(ctx context.Context, id string) error
}

// Resolver bridges the record store and the blob store.
type Resolver struct {
	blobs  BlobStore
	logger *slog.Logger
	newID  func() (string, error)
}

// New creates a resolver over blobs.
func New(blobs BlobStore, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{blobs: blobs, logger: logger, newID: id.NewImageID}
}

// Classify turns a raw stored string into an ImageRef.
// Values that are neither inline nor references classify as absent.
func Classify(raw string) domain.ImageRef {
	ref, _ := domain.ParseImageRef(raw)
	return ref
}

// Supported reports whether images can be moved out of the record document.
func (r *Resolver) Supported() bool {
	return r.blobs.IsSupported()
}

// Resolve returns the inline payload for ref. A reference that is missing from
// the blob store, or any reference when the store is unsupported, resolves to absent.
func (r *Resolver) Resolve(ctx context.Context, ref domain.ImageRef) (string, bool) {
	switch ref.Kind() {
	case domain.ImageInline:
		return ref.Value(), true
	case domain.ImageReference:
		if !r.blobs.IsSupported() {
			return "", false
		}
		return r.blobs.Get(ctx, ref.Value())
	default:
		return "", false
	}
}

// Persist stores payload under a new reference id. When the blob store is
// unsupported the payload is returned inline, unchanged.
func (r *Resolver) Persist(ctx context.Context, payload string) (domain.ImageRef, error) {
	if !strings.HasPrefix(payload, domain.InlinePrefix) {
		return domain.NoImage(), domainerrors.Validation("image must be an inline data payload")
	}
	if !r.blobs.IsSupported() {
		return domain.InlineImage(payload), nil
	}

	refID, err := r.newID()
	if err != nil {
		return domain.NoImage(), fmt.Errorf("generate image id: %w", err)
	}
	if err := r.blobs.Put(ctx, refID, payload); err != nil {
		return domain.NoImage(), err
	}

	r.logger.Debug("image persisted", "id", refID, "bytes", len(payload))
	return domain.ReferenceImage(refID), nil
}

// Replace releases old, then persists payload. If the release fails nothing is persisted.
func (r *Resolver) Replace(ctx context.Context, old domain.ImageRef, payload string) (domain.ImageRef, error) {
	if err := r.Release(ctx, old); err != nil {
		return old, err
	}
	return r.Persist(ctx, payload)
}

// Release deletes the blob behind ref. Inline and absent refs are a no-op.
func (r *Resolver) Release(ctx context.Context, ref domain.ImageRef) error {
	if !ref.IsReference() || !r.blobs.IsSupported() {
		return nil
	}
	if err := r.blobs.Delete(ctx, ref.Value()); err != nil {
		return err
	}
	r.logger.Debug("image released", "id", ref.Value())
	return nil
}

// Inline resolves a reference into its payload for self-contained exports.
// A reference that cannot be resolved is returned unchanged.
func (r *Resolver) Inline(ctx context.Context, ref domain.ImageRef) domain.ImageRef {
	if !ref.IsReference() {
		return ref
	}
	payload, ok := r.Resolve(ctx, ref)
	if !ok {
		r.logger.Warn("image reference could not be resolved, exporting id", "id", ref.Value())
		return ref
	}
	return domain.InlineImage(payload)
}
