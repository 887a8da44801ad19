package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobbricks/noob-bricks/internal/domain"
	"github.com/noobbricks/noob-bricks/internal/migration"
)

func TestMigration_Endpoints(t *testing.T) {
	ts := setupTestServer(t)
	ctx := t.Context()

	legacy := domain.NewDocument([]domain.Brick{
		{ID: "b1", Number: "3001", Tags: []string{}, Image: domain.InlineImage("data:image/png;base64,AAAA")},
	}, nil)
	require.NoError(t, ts.records.Save(ctx, legacy))

	resp := ts.api.Get("/api/v1/maintenance/migrate")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, decode[MigrationStatusResponse](t, resp).Data.Pending)

	resp = ts.api.Post("/api/v1/maintenance/migrate")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, migration.Result{Success: true, MigratedCount: 1}, decode[migration.Result](t, resp).Data)

	resp = ts.api.Get("/api/v1/maintenance/migrate")
	assert.False(t, decode[MigrationStatusResponse](t, resp).Data.Pending)

	resp = ts.api.Get("/api/v1/bricks/b1")
	assert.True(t, decode[BrickResponse](t, resp).Data.HasImage)
}

func TestOrphans_Endpoints(t *testing.T) {
	ts := setupTestServer(t)
	ctx := t.Context()
	ts.createBrick(t, map[string]any{"number": "3001", "image": "data:image/png;base64,AAAA"})
	require.NoError(t, ts.blobs.Put(ctx, "img-stray", "data:image/png;base64,BBBB"))

	resp := ts.api.Get("/api/v1/maintenance/orphans")
	require.Equal(t, http.StatusOK, resp.Code)
	orphans := decode[OrphansResponse](t, resp).Data
	assert.Equal(t, []string{"img-stray"}, orphans.IDs)
	assert.Equal(t, 1, orphans.Count)

	resp = ts.api.Delete("/api/v1/maintenance/orphans")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 1, decode[CollectOrphansResponse](t, resp).Data.Removed)

	resp = ts.api.Get("/api/v1/maintenance/orphans")
	assert.Empty(t, decode[OrphansResponse](t, resp).Data.IDs)
}
