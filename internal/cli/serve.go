package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"

	"github.com/noobbricks/noob-bricks/internal/di/providers"
)

// ServeCmd returns the serve command.
func ServeCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("serve", flag.ContinueOnError),
		Usage: "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the collection over HTTP at --addr until interrupted.

The API lives under /api/v1; the OpenAPI document is at /openapi.json.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			handle, err := do.Invoke[*providers.HTTPServerHandle](app.injector)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", handle.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", handle.Addr, err)
			}
			o.Printf("Listening on http://%s\n", ln.Addr())

			errCh := make(chan error, 1)
			go func() {
				errCh <- handle.Serve(ln)
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				o.ErrPrintln("Shutting down server gracefully...")
				return handle.Shutdown()
			}
		},
	}
}
