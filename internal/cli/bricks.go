package cli

import (
	"context"
	"encoding/json/jsontext"
	"encoding/json/v2"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	flag "github.com/spf13/pflag"

	"github.com/noobbricks/noob-bricks/internal/domain"
	"github.com/noobbricks/noob-bricks/internal/media/images"
	"github.com/noobbricks/noob-bricks/internal/search"
	"github.com/noobbricks/noob-bricks/internal/service"
)

var (
	errNumberRequired = errors.New("brick number is required")
	errIDRequired     = errors.New("brick ID is required")
	errQueryRequired  = errors.New("search query is required")
	errConfirm        = errors.New("refusing to clear the collection without --yes")
	errImageConflict  = errors.New("--image and --remove-image are mutually exclusive")
)

// AddCmd returns the add command.
func AddCmd(app *App) *Command {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.StringP("title", "t", "", "Brick title")
	fs.StringArray("tag", nil, "Tag (repeatable)")
	fs.StringP("image", "i", "", "Path to an image file")

	return &Command{
		Flags: fs,
		Usage: "add <number> [flags]",
		Short: "Add a brick, prints its ID",
		Long: `Add a brick to the collection. Prints the new brick ID.

The catalog number must not already be in the collection.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execAdd(ctx, o, app, fs, args)
		},
	}
}

func execAdd(ctx context.Context, o *IO, app *App, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errNumberRequired
	}

	title, _ := fs.GetString("title")
	tags, _ := fs.GetStringArray("tag")
	imagePath, _ := fs.GetString("image")

	payload := ""
	if imagePath != "" {
		var err error
		if payload, err = images.FromFile(imagePath); err != nil {
			return err
		}
	}

	brick, _, err := app.collection().AddBrick(ctx, domain.BrickForm{
		Number: args[0],
		Title:  title,
		Tags:   tags,
	}, payload)
	if err != nil {
		return err
	}

	o.Println(brick.ID)
	return nil
}

// EditCmd returns the edit command.
func EditCmd(app *App) *Command {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.StringP("number", "n", "", "New catalog number")
	fs.StringP("title", "t", "", "New title")
	fs.StringArray("tag", nil, "Replace tags (repeatable)")
	fs.Bool("clear-tags", false, "Remove all tags")
	fs.StringP("image", "i", "", "Replace the image with this file")
	fs.Bool("remove-image", false, "Remove the image")

	return &Command{
		Flags: fs,
		Usage: "edit <id> [flags]",
		Short: "Edit a brick",
		Long:  "Change the fields given as flags. Fields without a flag keep their value.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execEdit(ctx, o, app, fs, args)
		},
	}
}

func execEdit(ctx context.Context, o *IO, app *App, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errIDRequired
	}

	current, err := app.collection().GetBrick(ctx, args[0])
	if err != nil {
		return err
	}

	form := domain.BrickForm{Number: current.Number, Title: current.Title, Tags: current.Tags}
	if fs.Changed("number") {
		form.Number, _ = fs.GetString("number")
	}
	if fs.Changed("title") {
		form.Title, _ = fs.GetString("title")
	}
	if clearTags, _ := fs.GetBool("clear-tags"); clearTags {
		form.Tags = []string{}
	}
	if fs.Changed("tag") {
		form.Tags, _ = fs.GetStringArray("tag")
	}

	change := service.KeepImage()
	imagePath, _ := fs.GetString("image")
	remove, _ := fs.GetBool("remove-image")
	switch {
	case imagePath != "" && remove:
		return errImageConflict
	case imagePath != "":
		payload, err := images.FromFile(imagePath)
		if err != nil {
			return err
		}
		change = service.SetImage(payload)
	case remove:
		change = service.ClearImage()
	}

	brick, _, err := app.collection().UpdateBrick(ctx, current.ID, form, change)
	if err != nil {
		return err
	}

	o.Println("Updated", brick.ID)
	return nil
}

// RmCmd returns the rm command.
func RmCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <id>...",
		Short: "Remove bricks",
		Long:  "Remove bricks and their images.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errIDRequired
			}
			for _, brickID := range args {
				if _, err := app.collection().DeleteBrick(ctx, brickID); err != nil {
					return err
				}
				o.Println("Removed", brickID)
			}
			return nil
		},
	}
}

// LsCmd returns the ls command.
func LsCmd(app *App) *Command {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	fs.StringArray("tag", nil, "Only bricks with this tag (repeatable, any match)")
	fs.BoolP("sort", "s", false, "Order by catalog number")
	fs.Bool("json", false, "Print JSON")

	return &Command{
		Flags: fs,
		Usage: "ls [flags]",
		Short: "List bricks",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			tags, _ := fs.GetStringArray("tag")
			sorted, _ := fs.GetBool("sort")
			asJSON, _ := fs.GetBool("json")

			bricks := app.collection().ListBricks(ctx, service.ListOptions{Tags: tags, Sorted: sorted})
			if asJSON {
				return printJSON(o, bricks)
			}
			printBricks(o, bricks)
			return nil
		},
	}
}

// ShowCmd returns the show command.
func ShowCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <id>",
		Short: "Show brick details",
		Long:  "Display a brick with its image reference and catalog links.",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errIDRequired
			}

			brick, err := app.collection().GetBrick(ctx, args[0])
			if err != nil {
				return err
			}

			o.Printf("id:      %s\n", brick.ID)
			o.Printf("number:  %s\n", brick.Number)
			if brick.Title != "" {
				o.Printf("title:   %s\n", brick.Title)
			}
			if len(brick.Tags) > 0 {
				o.Printf("tags:    %s\n", strings.Join(brick.Tags, ", "))
			}
			o.Printf("image:   %s\n", describeImage(brick.Image))
			o.Printf("created: %s\n", domain.FormatTime(brick.CreatedAt))
			o.Printf("updated: %s\n", domain.FormatTime(brick.UpdatedAt))

			for _, link := range app.links().Lookup(ctx, brick.Number) {
				o.Printf("link:    %s %s\n", link.Name, link.URL)
			}
			return nil
		},
	}
}

// TagsCmd returns the tags command.
func TagsCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("tags", flag.ContinueOnError),
		Usage: "tags",
		Short: "List all tags",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			for _, tag := range app.collection().State(ctx).Tags {
				o.Println(tag)
			}
			return nil
		},
	}
}

// SearchCmd returns the search command.
func SearchCmd(app *App) *Command {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.StringArray("tag", nil, "Only bricks with this tag (repeatable, any match)")
	fs.Int("limit", search.DefaultLimit, "Maximum results")
	fs.Bool("json", false, "Print JSON")

	return &Command{
		Flags: fs,
		Usage: "search <query> [flags]",
		Short: "Search number, title and tags",
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errQueryRequired
			}

			tags, _ := fs.GetStringArray("tag")
			limit, _ := fs.GetInt("limit")
			asJSON, _ := fs.GetBool("json")

			bricks, err := app.collection().Search(ctx, search.Params{
				Query: strings.Join(args, " "),
				Tags:  tags,
				Limit: limit,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(o, bricks)
			}
			printBricks(o, bricks)
			return nil
		},
	}
}

// ClearCmd returns the clear command.
func ClearCmd(app *App) *Command {
	fs := flag.NewFlagSet("clear", flag.ContinueOnError)
	fs.Bool("yes", false, "Confirm removing every brick")

	return &Command{
		Flags: fs,
		Usage: "clear --yes",
		Short: "Remove every brick",
		Long:  "Remove every brick and its image. External links are kept.",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			if yes, _ := fs.GetBool("yes"); !yes {
				return errConfirm
			}

			removed := len(app.collection().State(ctx).Items)
			if _, err := app.collection().ClearAll(ctx); err != nil {
				return err
			}
			o.Printf("Removed %d bricks\n", removed)
			return nil
		},
	}
}

func printBricks(o *IO, bricks []domain.Brick) {
	w := tabwriter.NewWriter(o.Out(), 0, 4, 2, ' ', 0)
	for _, b := range bricks {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.ID, b.Number, b.Title, strings.Join(b.Tags, ","))
	}
	_ = w.Flush()
}

func printJSON(o *IO, v any) error {
	if err := json.MarshalWrite(o.Out(), v, jsontext.WithIndent("  ")); err != nil {
		return err
	}
	o.Println()
	return nil
}

func describeImage(ref domain.ImageRef) string {
	switch {
	case ref.IsReference():
		return ref.Value()
	case ref.IsInline():
		return "inline"
	default:
		return "none"
	}
}
