package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/noobbricks/noob-bricks/internal/service"
)

var (
	errLinkAction  = errors.New("links action must be one of: ls, add, rm, toggle")
	errLinkArgs    = errors.New("usage: links add <name> <url>")
	errLinkIDGiven = errors.New("link ID is required")
)

// LinksCmd returns the links command.
func LinksCmd(app *App) *Command {
	fs := flag.NewFlagSet("links", flag.ContinueOnError)
	fs.Bool("disabled", false, "Create the link disabled (add only)")

	return &Command{
		Flags: fs,
		Usage: "links [ls|add|rm|toggle] [args]",
		Short: "Manage external catalog links",
		Long: `Manage the catalog sites linked from each brick.

  links ls                 List links
  links add <name> <url>   Add a link; the brick number is appended to url
  links rm <id>            Remove a link
  links toggle <id>        Enable or disable a link`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execLinks(ctx, o, app, fs, args)
		},
	}
}

func execLinks(ctx context.Context, o *IO, app *App, fs *flag.FlagSet, args []string) error {
	action := "ls"
	if len(args) > 0 {
		action, args = args[0], args[1:]
	}

	svc := app.links()

	switch action {
	case "ls":
		w := tabwriter.NewWriter(o.Out(), 0, 4, 2, ' ', 0)
		for _, link := range svc.List(ctx) {
			state := "enabled"
			if !link.Enabled {
				state = "disabled"
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", link.ID, link.Name, link.URL, state)
		}
		return w.Flush()

	case "add":
		if len(args) != 2 {
			return errLinkArgs
		}
		disabled, _ := fs.GetBool("disabled")
		enabled := !disabled
		link, err := svc.Add(ctx, service.LinkInput{Name: args[0], URL: args[1], Enabled: &enabled})
		if err != nil {
			return err
		}
		o.Println(link.ID)
		return nil

	case "rm":
		if len(args) == 0 {
			return errLinkIDGiven
		}
		if err := svc.Delete(ctx, args[0]); err != nil {
			return err
		}
		o.Println("Removed", args[0])
		return nil

	case "toggle":
		if len(args) == 0 {
			return errLinkIDGiven
		}
		link, err := svc.Toggle(ctx, args[0])
		if err != nil {
			return err
		}
		if link.Enabled {
			o.Println("Enabled", link.ID)
		} else {
			o.Println("Disabled", link.ID)
		}
		return nil

	default:
		return fmt.Errorf("%w (got %q)", errLinkAction, action)
	}
}
