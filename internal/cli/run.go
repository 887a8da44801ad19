// Package cli implements the bricks command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samber/do/v2"
	flag "github.com/spf13/pflag"

	"github.com/noobbricks/noob-bricks/internal/config"
	"github.com/noobbricks/noob-bricks/internal/di"
	"github.com/noobbricks/noob-bricks/internal/service"
)

const helpFlag = "--help"

const disclaimer = `noob-bricks is an independent tool for cataloguing your own bricks.
It is not affiliated with, endorsed by, or sponsored by any brick manufacturer.
Product names and catalog numbers belong to their respective owners.`

// App resolves services from the container on demand.
type App struct {
	cfg      *config.Config
	injector do.Injector
}

func (a *App) collection() *service.CollectionService {
	return do.MustInvoke[*service.CollectionService](a.injector)
}

func (a *App) links() *service.LinkService {
	return do.MustInvoke[*service.LinkService](a.injector)
}

func (a *App) transfer() *service.TransferService {
	return do.MustInvoke[*service.TransferService](a.injector)
}

func (a *App) maintenance() *service.MaintenanceService {
	return do.MustInvoke[*service.MaintenanceService](a.injector)
}

func (a *App) commands() []*Command {
	return []*Command{
		AddCmd(a),
		EditCmd(a),
		RmCmd(a),
		LsCmd(a),
		ShowCmd(a),
		TagsCmd(a),
		SearchCmd(a),
		ExportCmd(a),
		ImportCmd(a),
		ClearCmd(a),
		LinksCmd(a),
		ImageCmd(a),
		MigrateCmd(a),
		GCCmd(a),
		ServeCmd(a),
	}
}

// Run is the main entry point. Returns exit code.
// A value on sigCh cancels the command context.
func Run(in io.Reader, out, errOut io.Writer, args []string, sigCh <-chan os.Signal) int {
	app := &App{}
	commands := app.commands()

	if len(args) < 2 {
		printUsage(out, commands)
		return 0
	}

	cfg, rest, err := config.Load(args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(out, commands)
			return 0
		}
		fprintln(errOut, "error:", err)
		return 1
	}
	app.cfg = cfg

	if len(rest) == 0 || rest[0] == "help" || rest[0] == "-h" || rest[0] == helpFlag {
		printUsage(out, commands)
		return 0
	}

	cmd := findCommand(commands, rest[0])
	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, commands)
		return 1
	}

	o := NewIO(in, out, errOut)
	cmdArgs := rest[1:]

	if hasHelpFlag(cmdArgs) {
		return cmd.Run(context.Background(), o, cmdArgs)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	injector := di.NewContainer(cfg)
	defer func() {
		if err := injector.Shutdown(); err != nil {
			fprintln(errOut, "error: shutdown:", err)
		}
	}()

	if err := di.Bootstrap(ctx, injector); err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}
	app.injector = injector

	if first, err := app.maintenance().FirstLaunch(ctx); err == nil && first {
		fprintln(errOut, disclaimer)
		fprintln(errOut)
	}

	return cmd.Run(ctx, o, cmdArgs)
}

func findCommand(commands []*Command, name string) *Command {
	for _, c := range commands {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--" {
			return false
		}
		if arg == "-h" || arg == helpFlag {
			return true
		}
	}
	return false
}

func printUsage(w io.Writer, commands []*Command) {
	fprintln(w, `bricks - catalogue your brick collection

Usage: bricks [options] <command> [args]

Options:
  -d, --data-dir <dir>   Collection directory (default ~/.noob-bricks)
      --images <bool>    Keep images in the blob store (default true)
      --env <name>       development or production
      --log-level <lvl>  debug, info, warn or error
      --addr <addr>      HTTP listen address for serve

Commands:`)
	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
