package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/noobbricks/noob-bricks/internal/api"
	"github.com/noobbricks/noob-bricks/internal/config"
	"github.com/noobbricks/noob-bricks/internal/logger"
	"github.com/noobbricks/noob-bricks/internal/service"
)

// Version is reported by the HTTP API. Overridden at build time with -ldflags.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	defer h.api.Close()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.Server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ProvideHTTPServer provides the HTTP server. It is not started here; callers run ListenAndServe.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	index := do.MustInvoke[*SearchIndexHandle](i)

	services := &api.Services{
		Collection:  do.MustInvoke[*service.CollectionService](i),
		Links:       do.MustInvoke[*service.LinkService](i),
		Transfer:    do.MustInvoke[*service.TransferService](i),
		Maintenance: do.MustInvoke[*service.MaintenanceService](i),
		Index:       index.Index,
	}

	apiServer := api.NewServer(services, api.Options{
		Version:   Version,
		RateLimit: cfg.Server.RateLimit,
	}, log.Component("http"))

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      apiServer,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &HTTPServerHandle{Server: srv, api: apiServer}, nil
}
