package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobbricks/noob-bricks/internal/codec"
	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/imageref"
	"github.com/noobbricks/noob-bricks/internal/search"
	"github.com/noobbricks/noob-bricks/internal/store/sqlite"
)

// flakyBlobs fails writes on demand.
type flakyBlobs struct {
	*sqlite.BlobStore
	failPut bool
}

func (f *flakyBlobs) Put(ctx context.Context, id, data string) error {
	if f.failPut {
		return errors.New("disk full")
	}
	return f.BlobStore.Put(ctx, id, data)
}

func TestCollectionService_AddBrick(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	now := time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC)
	ts.fixedClock(now)

	brick, state, err := ts.collection.AddBrick(ctx, domain.BrickForm{
		Number: " 3001 ",
		Title:  "Brick 2x4",
		Tags:   []string{"red", " ", "basic"},
	}, pngA)
	require.NoError(t, err)

	assert.Equal(t, "3001", brick.Number)
	assert.Equal(t, []string{"red", "basic"}, brick.Tags)
	assert.Equal(t, now, brick.CreatedAt)
	assert.True(t, brick.Image.IsReference(), "image moved to the blob store")

	assert.Len(t, state.Items, 1)
	assert.Equal(t, []string{"basic", "red"}, state.Tags)

	payload, err := ts.collection.BrickImage(ctx, brick.ID)
	require.NoError(t, err)
	assert.Equal(t, pngA, payload)
}

func TestCollectionService_AddBrick_Errors(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	ts.mustAdd(t, "3001", nil, "")

	tests := []struct {
		name    string
		form    domain.BrickForm
		payload string
		want    error
	}{
		{"missing number", domain.BrickForm{Number: "  "}, "", domainerrors.ErrValidation},
		{"duplicate tags", domain.BrickForm{Number: "1", Tags: []string{"red", "red"}}, "", domainerrors.ErrValidation},
		{"duplicate number", domain.BrickForm{Number: "3001"}, "", domainerrors.ErrAlreadyExists},
		{"not an image payload", domain.BrickForm{Number: "2"}, "img-123", domainerrors.ErrValidation},
		{"undecodable payload", domain.BrickForm{Number: "2"}, "data:image/png;base64,!!!", domainerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ts.collection.AddBrick(ctx, tt.form, tt.payload)
			assert.True(t, domainerrors.Is(err, tt.want), "got %v", err)
		})
	}
	assert.Len(t, ts.collection.State(ctx).Items, 1)
}

func TestCollectionService_WritesKeepAbsentLinks(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()

	b := ts.mustAdd(t, "3001", nil, pngA)
	_, err := ts.collection.DeleteBrick(ctx, b.ID)
	require.NoError(t, err)
	_, err = ts.collection.ImportCollection(ctx, &codec.ImportResult{Items: []domain.Brick{{ID: "b1", Number: "1", Tags: []string{}}}})
	require.NoError(t, err)

	stored := ts.records.LoadStored(ctx)
	require.NotNil(t, stored)
	assert.Nil(t, stored.ExternalLinks)
	assert.Equal(t, domain.DefaultExternalLinks(), ts.records.Load(ctx).ExternalLinks)
}

func TestCollectionService_AddBrick_NoBlobStore(t *testing.T) {
	ts := setupTestServices(t, withoutBlobs())

	brick := ts.mustAdd(t, "3001", nil, pngA)
	assert.Equal(t, domain.InlineImage(pngA), brick.Image, "payload stays inline")
}

func TestCollectionService_AddBrick_BlobWriteFailure(t *testing.T) {
	ts := setupTestServices(t, brokenBlobs())

	_, _, err := ts.collection.AddBrick(context.Background(), domain.BrickForm{Number: "1"}, pngA)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrBlobWrite))
	assert.Empty(t, ts.collection.State(context.Background()).Items)
}

func TestCollectionService_UpdateBrick(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts.fixedClock(created)
	original := ts.mustAdd(t, "3001", []string{"red"}, pngA)

	later := created.Add(time.Hour)
	ts.fixedClock(later)
	updated, state, err := ts.collection.UpdateBrick(ctx, original.ID, domain.BrickForm{Number: "3001b", Tags: []string{"blue"}}, KeepImage())
	require.NoError(t, err)

	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, "3001b", updated.Number)
	assert.True(t, updated.CreatedAt.Equal(created), "createdAt preserved")
	assert.True(t, updated.UpdatedAt.Equal(later), "updatedAt refreshed")
	assert.Equal(t, original.Image, updated.Image)
	assert.Equal(t, []string{"blue"}, state.Tags)
}

func TestCollectionService_UpdateBrick_ReplaceImageWriteFailure(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	original := ts.mustAdd(t, "3001", nil, pngA)

	flaky := &flakyBlobs{BlobStore: ts.blobs}
	ts.collection.resolver = imageref.New(flaky, slog.New(slog.NewTextHandler(io.Discard, nil)))
	flaky.failPut = true

	_, _, err := ts.collection.UpdateBrick(ctx, original.ID, domain.BrickForm{Number: "3001"}, SetImage(pngB))
	require.Error(t, err)

	stored, err := ts.collection.GetBrick(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, original.Image, stored.Image, "record keeps the old reference")
	assert.Equal(t, []string{original.Image.Value()}, ts.blobIDs(t), "old blob still stored")

	payload, err := ts.collection.BrickImage(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, pngA, payload)
}

func TestCollectionService_UpdateBrick_ReplaceImage(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	original := ts.mustAdd(t, "3001", nil, pngA)

	updated, _, err := ts.collection.UpdateBrick(ctx, original.ID, domain.BrickForm{Number: "3001"}, SetImage(pngB))
	require.NoError(t, err)

	assert.NotEqual(t, original.Image, updated.Image)
	assert.Equal(t, []string{updated.Image.Value()}, ts.blobIDs(t), "old blob deleted, new blob stored")

	payload, err := ts.collection.BrickImage(ctx, original.ID)
	require.NoError(t, err)
	assert.Equal(t, pngB, payload)
}

func TestCollectionService_UpdateBrick_ClearImage(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	original := ts.mustAdd(t, "3001", nil, pngA)

	updated, _, err := ts.collection.UpdateBrick(ctx, original.ID, domain.BrickForm{Number: "3001"}, ClearImage())
	require.NoError(t, err)

	assert.True(t, updated.Image.IsZero())
	assert.Empty(t, ts.blobIDs(t))

	_, err = ts.collection.BrickImage(ctx, original.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestCollectionService_UpdateBrick_Errors(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	first := ts.mustAdd(t, "3001", nil, "")
	ts.mustAdd(t, "3003", nil, "")

	_, _, err := ts.collection.UpdateBrick(ctx, "brick-missing", domain.BrickForm{Number: "1"}, KeepImage())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))

	_, _, err = ts.collection.UpdateBrick(ctx, first.ID, domain.BrickForm{Number: "3003"}, KeepImage())
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

	_, _, err = ts.collection.UpdateBrick(ctx, first.ID, domain.BrickForm{Number: "3001"}, KeepImage())
	assert.NoError(t, err, "a brick may keep its own number")
}

func TestCollectionService_DeleteBrick_ReleasesBlob(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	keep := ts.mustAdd(t, "3001", nil, pngA)
	gone := ts.mustAdd(t, "3003", []string{"old"}, pngB)

	state, err := ts.collection.DeleteBrick(ctx, gone.ID)
	require.NoError(t, err)

	assert.Len(t, state.Items, 1)
	assert.Empty(t, state.Tags)
	assert.Equal(t, []string{keep.Image.Value()}, ts.blobIDs(t))

	_, err = ts.collection.DeleteBrick(ctx, gone.ID)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestCollectionService_MutationsKeepLinks(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()

	link, err := ts.links.Add(ctx, LinkInput{Name: "Shop", URL: "https://shop.example/?q="})
	require.NoError(t, err)

	b := ts.mustAdd(t, "3001", nil, "")
	_, err = ts.collection.DeleteBrick(ctx, b.ID)
	require.NoError(t, err)
	_, err = ts.collection.ClearAll(ctx)
	require.NoError(t, err)

	assert.Contains(t, ts.links.List(ctx), link)
}

func TestCollectionService_ImportCollection(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	old := ts.mustAdd(t, "1", nil, pngA)

	result := &codec.ImportResult{Items: []domain.Brick{
		{ID: "brick-a", Number: "3001", Tags: []string{"red"}, Image: domain.InlineImage(pngB)},
		{ID: "brick-b", Number: "3003", Tags: []string{}},
	}}
	state, err := ts.collection.ImportCollection(ctx, result)
	require.NoError(t, err)

	require.Len(t, state.Items, 2)
	assert.Equal(t, []string{"red"}, state.Tags)
	assert.True(t, state.Items[0].Image.IsReference())
	assert.Equal(t, []string{state.Items[0].Image.Value()}, ts.blobIDs(t), "replaced brick's blob released")
	assert.NotContains(t, ts.blobIDs(t), old.Image.Value())

	assert.Equal(t, domain.DefaultExternalLinks(), ts.links.List(ctx), "links kept when the file has none")
}

func TestCollectionService_ImportCollection_ReplacesLinks(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()

	links := []domain.ExternalLink{{ID: "link-x", Name: "X", URL: "https://x.example/?q=", Enabled: false}}
	_, err := ts.collection.ImportCollection(ctx, &codec.ImportResult{
		Items:         []domain.Brick{{ID: "b", Number: "1", Tags: []string{}}},
		ExternalLinks: links,
	})
	require.NoError(t, err)
	assert.Equal(t, links, ts.links.List(ctx))
}

func TestCollectionService_ImportCollection_AllOrNothing(t *testing.T) {
	ts := setupTestServices(t, brokenBlobs())
	ctx := context.Background()
	existing := domain.NewDocument([]domain.Brick{{ID: "b0", Number: "9", Tags: []string{}}}, nil)
	require.NoError(t, ts.records.Save(ctx, existing))

	_, err := ts.collection.ImportCollection(ctx, &codec.ImportResult{Items: []domain.Brick{
		{ID: "b1", Number: "1", Tags: []string{}, Image: domain.InlineImage(pngA)},
	}})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrBlobWrite))

	state := ts.collection.State(ctx)
	require.Len(t, state.Items, 1)
	assert.Equal(t, "b0", state.Items[0].ID)
}

func TestCollectionService_ImportCollection_Empty(t *testing.T) {
	ts := setupTestServices(t, withBlobs())

	_, err := ts.collection.ImportCollection(context.Background(), &codec.ImportResult{Items: []domain.Brick{}})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
}

func TestCollectionService_ClearAll(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	ts.mustAdd(t, "1", []string{"a"}, pngA)
	ts.mustAdd(t, "2", nil, pngB)

	state, err := ts.collection.ClearAll(ctx)
	require.NoError(t, err)

	assert.Empty(t, state.Items)
	assert.Empty(t, state.Tags)
	assert.Empty(t, ts.blobIDs(t))
}

func TestCollectionService_ListBricks(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	ts.mustAdd(t, "10", []string{"red"}, "")
	ts.mustAdd(t, "abc", []string{"blue"}, "")
	ts.mustAdd(t, "2", []string{"red"}, "")

	numbers := func(items []domain.Brick) []string {
		out := make([]string, len(items))
		for i, b := range items {
			out[i] = b.Number
		}
		return out
	}

	assert.Equal(t, []string{"10", "abc", "2"}, numbers(ts.collection.ListBricks(ctx, ListOptions{})))
	assert.Equal(t, []string{"2", "10", "abc"}, numbers(ts.collection.ListBricks(ctx, ListOptions{Sorted: true})))
	assert.Equal(t, []string{"2", "10"}, numbers(ts.collection.ListBricks(ctx, ListOptions{Tags: []string{"red"}, Sorted: true})))
}

func TestCollectionService_Search(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	plate, _, err := ts.collection.AddBrick(ctx, domain.BrickForm{Number: "3020", Title: "Plate 2x4", Tags: []string{"red"}}, "")
	require.NoError(t, err)
	ts.mustAdd(t, "3001", []string{"blue"}, "")

	got, err := ts.collection.Search(ctx, search.Params{Query: "plate"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, plate.ID, got[0].ID)

	got, err = ts.collection.Search(ctx, search.Params{Query: "30"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestCollectionService_GetBrick(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	b := ts.mustAdd(t, "1", nil, "")

	got, err := ts.collection.GetBrick(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = ts.collection.GetBrick(context.Background(), "nope")
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestUnreferenced(t *testing.T) {
	before := []domain.Brick{
		{Image: domain.ReferenceImage("img-1")},
		{Image: domain.ReferenceImage("img-2")},
		{Image: domain.InlineImage(pngA)},
		{},
	}
	after := []domain.Brick{{Image: domain.ReferenceImage("img-2")}}

	assert.Equal(t, []domain.ImageRef{domain.ReferenceImage("img-1")}, unreferenced(before, after))
}
