package service

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/noobbricks/noob-bricks/internal/codec"
	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/imageref"
	"github.com/noobbricks/noob-bricks/internal/media/images"
	"github.com/noobbricks/noob-bricks/internal/search"
	"github.com/noobbricks/noob-bricks/internal/store"
	"github.com/noobbricks/noob-bricks/internal/validation"
)

// ImageAction selects what UpdateBrick does with the brick image.
type ImageAction int

// Image actions.
const (
	ImageKeep ImageAction = iota
	ImageSet
	ImageClear
)

// ImageChange describes an image edit. Payload is only read for ImageSet.
type ImageChange struct {
	Action  ImageAction
	Payload string
}

// KeepImage leaves the image untouched.
func KeepImage() ImageChange { return ImageChange{Action: ImageKeep} }

// SetImage replaces the image with an inline payload.
func SetImage(payload string) ImageChange { return ImageChange{Action: ImageSet, Payload: payload} }

// ClearImage removes the image.
func ClearImage() ImageChange { return ImageChange{Action: ImageClear} }

// ListOptions filters and orders ListBricks.
type ListOptions struct {
	Tags   []string // Keep bricks carrying any of these tags
	Sorted bool     // Order by catalog number
}

// CollectionService owns the brick items.
type CollectionService struct {
	lock      *DocumentLock
	records   *store.Store
	resolver  *imageref.Resolver
	index     *search.Index
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
	indexed   atomic.Bool
}

// NewCollectionService creates a new collection service.
func NewCollectionService(
	lock *DocumentLock,
	records *store.Store,
	resolver *imageref.Resolver,
	index *search.Index,
	validator *validation.Validator,
	logger *slog.Logger,
) *CollectionService {
	return &CollectionService{
		lock:      lock,
		records:   records,
		resolver:  resolver,
		index:     index,
		validator: validator,
		logger:    logger,
		now:       domain.Now,
	}
}

// State returns the current items and tag index.
func (s *CollectionService) State(ctx context.Context) State {
	return stateOf(s.records.Load(ctx))
}

// GetBrick returns one brick by id.
func (s *CollectionService) GetBrick(ctx context.Context, brickID string) (domain.Brick, error) {
	items := s.State(ctx).Items
	i := domain.FindBrick(items, brickID)
	if i < 0 {
		return domain.Brick{}, domainerrors.NotFoundf("brick %q not found", brickID)
	}
	return items[i], nil
}

// ListBricks returns the items, optionally filtered by tag and sorted by number.
func (s *CollectionService) ListBricks(ctx context.Context, opts ListOptions) []domain.Brick {
	items := domain.FilterByTags(s.State(ctx).Items, opts.Tags)
	if opts.Sorted {
		items = domain.SortByNumber(items)
	}
	return items
}

// AddBrick creates a brick from form data. A non-empty imagePayload is stored
// in the blob store when available.
func (s *CollectionService) AddBrick(ctx context.Context, form domain.BrickForm, imagePayload string) (domain.Brick, State, error) {
	// 1. Validate input before touching storage.
	form, err := s.validateForm(form)
	if err != nil {
		return domain.Brick{}, State{}, err
	}
	if imagePayload != "" {
		if err := validatePayload(imagePayload); err != nil {
			return domain.Brick{}, State{}, err
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	// 2. Reload and check number uniqueness.
	doc := loadForWrite(ctx, s.records)
	if err := domain.CheckUniqueNumber(doc.Items, form.Number, ""); err != nil {
		return domain.Brick{}, State{}, err
	}

	brick, err := domain.CreateBrick(form, s.now())
	if err != nil {
		return domain.Brick{}, State{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "create brick")
	}

	// 3. Persist the image first so the saved record never points at a missing blob.
	if imagePayload != "" {
		if brick.Image, err = s.resolver.Persist(ctx, imagePayload); err != nil {
			return domain.Brick{}, State{}, err
		}
	}

	// 4. Save; on failure the new blob is dropped again.
	doc.Items = append(doc.Items, brick)
	state, err := s.save(ctx, doc)
	if err != nil {
		s.release(ctx, brick.Image)
		return domain.Brick{}, State{}, err
	}

	s.logger.Info("brick added", "brick_id", brick.ID, "number", brick.Number, "image", brick.Image.Kind().String())
	return brick, state, nil
}

// UpdateBrick applies form data and an image change to an existing brick.
func (s *CollectionService) UpdateBrick(ctx context.Context, brickID string, form domain.BrickForm, change ImageChange) (domain.Brick, State, error) {
	form, err := s.validateForm(form)
	if err != nil {
		return domain.Brick{}, State{}, err
	}
	if change.Action == ImageSet {
		if err := validatePayload(change.Payload); err != nil {
			return domain.Brick{}, State{}, err
		}
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	doc := loadForWrite(ctx, s.records)
	i := domain.FindBrick(doc.Items, brickID)
	if i < 0 {
		return domain.Brick{}, State{}, domainerrors.NotFoundf("brick %q not found", brickID)
	}
	if err := domain.CheckUniqueNumber(doc.Items, form.Number, brickID); err != nil {
		return domain.Brick{}, State{}, err
	}

	old := doc.Items[i]
	updated := domain.UpdateBrick(old, form, s.now())

	// The new blob is written first and the old one is released only after the
	// record is saved, so the stored brick always points at a live blob.
	switch change.Action {
	case ImageSet:
		if updated.Image, err = s.resolver.Persist(ctx, change.Payload); err != nil {
			return domain.Brick{}, State{}, err
		}
	case ImageClear:
		updated.Image = domain.NoImage()
	}

	doc.Items[i] = updated
	state, err := s.save(ctx, doc)
	if err != nil {
		if change.Action == ImageSet {
			s.release(ctx, updated.Image)
		}
		return domain.Brick{}, State{}, err
	}

	if change.Action != ImageKeep && old.Image.Value() != updated.Image.Value() {
		s.release(ctx, old.Image)
	}

	s.logger.Info("brick updated", "brick_id", brickID, "number", updated.Number)
	return updated, state, nil
}

// DeleteBrick removes a brick and releases its image.
func (s *CollectionService) DeleteBrick(ctx context.Context, brickID string) (State, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	doc := loadForWrite(ctx, s.records)
	i := domain.FindBrick(doc.Items, brickID)
	if i < 0 {
		return State{}, domainerrors.NotFoundf("brick %q not found", brickID)
	}
	removed := doc.Items[i]
	doc.Items = slices.Delete(doc.Items, i, i+1)

	// The record is saved before the blob is released: a crash in between
	// leaves an unreferenced blob, never a brick pointing at a deleted one.
	state, err := s.save(ctx, doc)
	if err != nil {
		return State{}, err
	}
	s.release(ctx, removed.Image)

	s.logger.Info("brick deleted", "brick_id", brickID)
	return state, nil
}

// ImportCollection replaces every item with the imported ones. Links are
// replaced too when the import carried them. Either everything is applied or
// the stored document is left untouched.
func (s *CollectionService) ImportCollection(ctx context.Context, result *codec.ImportResult) (State, error) {
	if result == nil || len(result.Items) == 0 {
		return State{}, domainerrors.Validation("no bricks found in the imported file")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	previous := loadForWrite(ctx, s.records)

	// 1. Move inline payloads into the blob store.
	items := slices.Clone(result.Items)
	var created []domain.ImageRef
	for i := range items {
		if !items[i].Image.IsInline() {
			continue
		}
		ref, err := s.resolver.Persist(ctx, items[i].Image.Value())
		if err != nil {
			s.releaseAll(ctx, created)
			return State{}, err
		}
		if ref.IsReference() {
			created = append(created, ref)
		}
		items[i].Image = ref
	}

	// 2. Save the replacement document in one write.
	links := previous.ExternalLinks
	if result.HasExternalLinks() {
		links = result.ExternalLinks
	}
	state, err := s.save(ctx, domain.NewDocument(items, links))
	if err != nil {
		s.releaseAll(ctx, created)
		return State{}, err
	}

	// 3. Drop blobs only the replaced items used.
	s.releaseAll(ctx, unreferenced(previous.Items, items))

	s.logger.Info("collection imported",
		"items", len(items),
		"images_stored", len(created),
		"links_replaced", result.HasExternalLinks(),
	)
	return state, nil
}

// ClearAll removes every item and its image. External links are kept.
func (s *CollectionService) ClearAll(ctx context.Context) (State, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	previous := loadForWrite(ctx, s.records)
	state, err := s.save(ctx, domain.NewDocument(nil, previous.ExternalLinks))
	if err != nil {
		return State{}, err
	}
	s.releaseAll(ctx, unreferenced(previous.Items, nil))

	s.logger.Info("collection cleared", "items", len(previous.Items))
	return state, nil
}

// BrickImage returns the inline payload of a brick image.
func (s *CollectionService) BrickImage(ctx context.Context, brickID string) (string, error) {
	brick, err := s.GetBrick(ctx, brickID)
	if err != nil {
		return "", err
	}
	if brick.Image.IsZero() {
		return "", domainerrors.NotFoundf("brick %q has no image", brickID)
	}
	payload, ok := s.resolver.Resolve(ctx, brick.Image)
	if !ok {
		return "", domainerrors.NotFoundf("image for brick %q is not available", brickID)
	}
	return payload, nil
}

// Search returns matching bricks in rank order.
func (s *CollectionService) Search(ctx context.Context, params search.Params) ([]domain.Brick, error) {
	items := s.State(ctx).Items
	if !s.indexed.Load() {
		if err := s.index.Sync(items); err != nil {
			return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "build search index")
		}
		s.indexed.Store(true)
	}

	res, err := s.index.Search(ctx, params)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "search")
	}

	out := make([]domain.Brick, 0, len(res.Hits))
	for _, brickID := range res.IDs() {
		if i := domain.FindBrick(items, brickID); i >= 0 {
			out = append(out, items[i])
		}
	}
	return out, nil
}

func (s *CollectionService) validateForm(form domain.BrickForm) (domain.BrickForm, error) {
	form = form.Normalize()
	if err := s.validator.Validate(form); err != nil {
		return domain.BrickForm{}, err
	}
	return form, nil
}

func validatePayload(payload string) error {
	_, err := images.ParseDataURI(payload)
	return err
}

// save derives the tag index, writes the document and refreshes the search index.
func (s *CollectionService) save(ctx context.Context, doc *domain.Document) (State, error) {
	doc.Tags = domain.ExtractTags(doc.Items)
	if err := s.records.Save(ctx, doc); err != nil {
		return State{}, err
	}
	if err := s.index.Sync(doc.Items); err != nil {
		s.indexed.Store(false)
		s.logger.Warn("failed to refresh search index", "error", err)
	} else {
		s.indexed.Store(true)
	}
	return stateOf(doc), nil
}

func (s *CollectionService) release(ctx context.Context, ref domain.ImageRef) {
	if err := s.resolver.Release(ctx, ref); err != nil {
		s.logger.Warn("failed to release image, blob left orphaned", "image_id", ref.Value(), "error", err)
	}
}

func (s *CollectionService) releaseAll(ctx context.Context, refs []domain.ImageRef) {
	for _, ref := range refs {
		s.release(ctx, ref)
	}
}

// unreferenced returns the image references in before that after no longer uses.
func unreferenced(before, after []domain.Brick) []domain.ImageRef {
	keep := make(map[string]struct{}, len(after))
	for _, b := range after {
		if b.Image.IsReference() {
			keep[b.Image.Value()] = struct{}{}
		}
	}
	var out []domain.ImageRef
	for _, b := range before {
		if !b.Image.IsReference() {
			continue
		}
		if _, ok := keep[b.Image.Value()]; !ok {
			out = append(out, b.Image)
		}
	}
	return out
}
