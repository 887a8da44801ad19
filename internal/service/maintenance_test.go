package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobbricks/noob-bricks/internal/domain"
	"github.com/noobbricks/noob-bricks/internal/migration"
)

func TestMaintenanceService_Migrate(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	legacy := domain.NewDocument([]domain.Brick{
		{ID: "b1", Number: "1", Tags: []string{}, Image: domain.InlineImage(pngA)},
	}, nil)
	require.NoError(t, ts.records.Save(ctx, legacy))

	assert.True(t, ts.maintenance.MigrationPending(ctx))
	assert.Equal(t, migration.Result{Success: true, MigratedCount: 1}, ts.maintenance.Migrate(ctx))
	assert.False(t, ts.maintenance.MigrationPending(ctx))
	assert.Equal(t, migration.Result{Success: true}, ts.maintenance.Migrate(ctx))

	require.NoError(t, ts.maintenance.ResetMigration(ctx))
	assert.True(t, ts.maintenance.MigrationPending(ctx))
}

func TestMaintenanceService_Orphans(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()
	b := ts.mustAdd(t, "1", nil, pngA)
	require.NoError(t, ts.blobs.Put(ctx, "img-stray", pngB))

	orphans, err := ts.maintenance.Orphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"img-stray"}, orphans)

	removed, err := ts.maintenance.CollectOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{b.Image.Value()}, ts.blobIDs(t))
}

func TestMaintenanceService_OrphansWithoutBlobStore(t *testing.T) {
	ts := setupTestServices(t, withoutBlobs())

	orphans, err := ts.maintenance.Orphans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestMaintenanceService_FirstLaunch(t *testing.T) {
	ts := setupTestServices(t, withBlobs())
	ctx := context.Background()

	first, err := ts.maintenance.FirstLaunch(ctx)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := ts.maintenance.FirstLaunch(ctx)
	require.NoError(t, err)
	assert.False(t, again)
}

func TestMaintenanceService_ImageStoreStatus(t *testing.T) {
	ctx := context.Background()

	ts := setupTestServices(t, withBlobs())
	ts.mustAdd(t, "1", nil, pngA)
	supported, count, err := ts.maintenance.ImageStoreStatus(ctx)
	require.NoError(t, err)
	assert.True(t, supported)
	assert.Equal(t, 1, count)

	ts = setupTestServices(t, withoutBlobs())
	supported, count, err = ts.maintenance.ImageStoreStatus(ctx)
	require.NoError(t, err)
	assert.False(t, supported)
	assert.Zero(t, count)
}
