package api

import (
	"bytes"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobbricks/noob-bricks/internal/media/images"
)

func TestCreateBrick(t *testing.T) {
	ts := setupTestServer(t)

	brick := ts.createBrick(t, map[string]any{
		"number": " 3001 ",
		"title":  "Brick 2 x 4",
		"tags":   []string{"red", "classic"},
	})

	assert.True(t, strings.HasPrefix(brick.ID, "brick-"))
	assert.Equal(t, "3001", brick.Number)
	assert.Equal(t, []string{"red", "classic"}, brick.Tags)
	assert.False(t, brick.HasImage)
	assert.Empty(t, brick.ImageURL)
	assert.False(t, brick.CreatedAt.IsZero())
}

func TestCreateBrick_DuplicateNumber(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBrick(t, map[string]any{"number": "3001"})

	resp := ts.api.Post("/api/v1/bricks", map[string]any{"number": "3001"})

	assert.Equal(t, http.StatusConflict, resp.Code)
	env := decode[any](t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, "ALREADY_EXISTS", env.Code)
}

func TestCreateBrick_Validation(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{name: "blank number", body: map[string]any{"number": "   "}, status: http.StatusBadRequest},
		{name: "missing number", body: map[string]any{"title": "x"}, status: http.StatusUnprocessableEntity},
		{name: "image is not inline", body: map[string]any{"number": "1", "image": "https://example.com/a.png"}, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/bricks", tt.body)
			assert.Equal(t, tt.status, resp.Code, resp.Body.String())
			assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
		})
	}
}

func TestGetBrick(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createBrick(t, map[string]any{"number": "3001"})

	resp := ts.api.Get("/api/v1/bricks/" + created.ID)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, created.ID, decode[BrickResponse](t, resp).Data.ID)

	resp = ts.api.Get("/api/v1/bricks/brick-missing")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decode[any](t, resp).Code)
}

func TestListBricks_FilterAndSort(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBrick(t, map[string]any{"number": "3010", "tags": []string{"red"}})
	ts.createBrick(t, map[string]any{"number": "3001", "tags": []string{"blue"}})
	ts.createBrick(t, map[string]any{"number": "3003", "tags": []string{"red"}})

	resp := ts.api.Get("/api/v1/bricks?sort=true")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[ListBricksResponse](t, resp).Data
	assert.Equal(t, 3, list.Total)
	assert.Equal(t, []string{"3001", "3003", "3010"}, numbers(list.Bricks))

	resp = ts.api.Get("/api/v1/bricks?tags=red&sort=true")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, []string{"3003", "3010"}, numbers(decode[ListBricksResponse](t, resp).Data.Bricks))
}

func TestUpdateBrick(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createBrick(t, map[string]any{"number": "3001", "tags": []string{"red"}})
	other := ts.createBrick(t, map[string]any{"number": "3002"})

	resp := ts.api.Put("/api/v1/bricks/"+created.ID, map[string]any{
		"number": "3001b",
		"title":  "Renamed",
		"tags":   []string{"blue"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[BrickResponse](t, resp).Data
	assert.Equal(t, "3001b", updated.Number)
	assert.Equal(t, []string{"blue"}, updated.Tags)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	resp = ts.api.Put("/api/v1/bricks/"+other.ID, map[string]any{"number": "3001b"})
	assert.Equal(t, http.StatusConflict, resp.Code)

	resp = ts.api.Put("/api/v1/bricks/"+created.ID, map[string]any{
		"number":      "3001b",
		"image":       "data:image/png;base64,AAAA",
		"removeImage": true,
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDeleteBrick(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createBrick(t, map[string]any{"number": "3001"})

	resp := ts.api.Delete("/api/v1/bricks/" + created.ID)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Delete("/api/v1/bricks/" + created.ID)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestClearBricks_KeepsLinks(t *testing.T) {
	ts := setupTestServer(t)
	ts.createBrick(t, map[string]any{"number": "3001"})
	ts.createBrick(t, map[string]any{"number": "3002"})

	resp := ts.api.Delete("/api/v1/bricks")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 2, decode[ClearResponse](t, resp).Data.Removed)

	resp = ts.api.Get("/api/v1/bricks")
	assert.Zero(t, decode[ListBricksResponse](t, resp).Data.Total)

	resp = ts.api.Get("/api/v1/links")
	assert.NotEmpty(t, decode[ListLinksResponse](t, resp).Data.Links)
}

func TestBrickImage_Lifecycle(t *testing.T) {
	ts := setupTestServer(t)
	raw := pngBytes(t, 8, 6)
	created := ts.createBrick(t, map[string]any{
		"number": "3001",
		"image":  images.EncodeDataURI("image/png", raw),
	})
	require.True(t, created.HasImage)
	assert.Equal(t, "/api/v1/bricks/"+created.ID+"/image", created.ImageURL)

	resp := ts.api.Get(created.ImageURL)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	assert.Equal(t, raw, resp.Body.Bytes())

	resp = ts.api.Get(created.ImageURL + "/info")
	require.Equal(t, http.StatusOK, resp.Code)
	info := decode[images.Info](t, resp).Data
	assert.Equal(t, "png", info.Format)
	assert.Equal(t, 8, info.Width)
	assert.Equal(t, 6, info.Height)
	assert.NotEmpty(t, info.BlurHash)

	ids, err := ts.blobs.ListIDs(t.Context())
	require.NoError(t, err)
	require.Len(t, ids, 1, "the payload lives in the image store")

	resp = ts.api.Delete(created.ImageURL)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get(created.ImageURL)
	assert.Equal(t, http.StatusNotFound, resp.Code)

	ids, err = ts.blobs.ListIDs(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ids, "cleared images are released")
}

func TestUploadBrickImage(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createBrick(t, map[string]any{"number": "3001", "title": "Keep me"})
	raw := pngBytes(t, 4, 4)

	resp := ts.api.Put("/api/v1/bricks/"+created.ID+"/image", "Content-Type: image/png", bytes.NewReader(raw))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	updated := decode[BrickResponse](t, resp).Data
	assert.True(t, updated.HasImage)
	assert.Equal(t, "Keep me", updated.Title)

	resp = ts.api.Put("/api/v1/bricks/"+created.ID+"/image", "Content-Type: text/plain", strings.NewReader("not an image"))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetBrickLinks(t *testing.T) {
	ts := setupTestServer(t)
	created := ts.createBrick(t, map[string]any{"number": "3001"})

	resp := ts.api.Get("/api/v1/bricks/" + created.ID + "/links")
	require.Equal(t, http.StatusOK, resp.Code)
	links := decode[BrickLinksResponse](t, resp).Data.Links
	require.Len(t, links, 1)
	assert.Equal(t, "BrickLink", links[0].Name)
	assert.Equal(t, "https://www.bricklink.com/v2/search.page?q=3001", links[0].URL)
}

func numbers(bricks []BrickResponse) []string {
	out := make([]string, len(bricks))
	for i, b := range bricks {
		out[i] = b.Number
	}
	return out
}
