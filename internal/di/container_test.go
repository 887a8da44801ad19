package di

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noobbricks/noob-bricks/internal/config"
	"github.com/noobbricks/noob-bricks/internal/di/providers"
	"github.com/noobbricks/noob-bricks/internal/domain"
	"github.com/noobbricks/noob-bricks/internal/service"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App:     config.AppConfig{Environment: "development"},
		Logger:  config.LoggerConfig{Level: "error"},
		Storage: config.StorageConfig{DataDir: t.TempDir(), ImagesEnabled: true},
		Server:  config.ServerConfig{Addr: "127.0.0.1:0", RateLimit: 0},
	}
}

func TestBootstrap_WiresServices(t *testing.T) {
	injector := NewContainer(testConfig(t))
	require.NoError(t, Bootstrap(t.Context(), injector))

	collection := do.MustInvoke[*service.CollectionService](injector)
	brick, _, err := collection.AddBrick(t.Context(), domain.BrickForm{Number: "3001"}, "")
	require.NoError(t, err)

	maintenance := do.MustInvoke[*service.MaintenanceService](injector)
	assert.False(t, maintenance.MigrationPending(t.Context()), "bootstrap runs the migration")

	handle := do.MustInvoke[*providers.HTTPServerHandle](injector)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/bricks/"+brick.ID, nil)
	rec := httptest.NewRecorder()
	handle.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	injector.Shutdown()
}

func TestBootstrap_PersistsAcrossContainers(t *testing.T) {
	cfg := testConfig(t)

	first := NewContainer(cfg)
	require.NoError(t, Bootstrap(t.Context(), first))
	_, _, err := do.MustInvoke[*service.CollectionService](first).
		AddBrick(t.Context(), domain.BrickForm{Number: "3001", Tags: []string{"red"}}, "")
	require.NoError(t, err)
	first.Shutdown()

	second := NewContainer(cfg)
	require.NoError(t, Bootstrap(t.Context(), second))
	defer second.Shutdown()

	state := do.MustInvoke[*service.CollectionService](second).State(t.Context())
	require.Len(t, state.Items, 1)
	assert.Equal(t, []string{"red"}, state.Tags)
}

func TestBootstrap_StartsWithoutBlobStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.ImagesEnabled = false

	injector := NewContainer(cfg)
	require.NoError(t, Bootstrap(t.Context(), injector))
	defer injector.Shutdown()

	supported, count, err := do.MustInvoke[*service.MaintenanceService](injector).ImageStoreStatus(t.Context())
	require.NoError(t, err)
	assert.False(t, supported)
	assert.Zero(t, count)
}
