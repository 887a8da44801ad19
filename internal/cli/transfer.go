package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/noobbricks/noob-bricks/internal/codec"
	"github.com/noobbricks/noob-bricks/internal/domain"
)

var (
	errFileRequired  = errors.New("import file is required (use - for stdin)")
	errStdinFormat   = errors.New("--format is required when reading from stdin")
	errOutputIsEmpty = errors.New("--output cannot be empty")
)

// ExportCmd returns the export command.
func ExportCmd(app *App) *Command {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.StringP("format", "f", "", "json, csv or xml (default from --output, else json)")
	fs.StringP("output", "o", "", "Write to file instead of stdout")
	fs.Bool("with-images", false, "Inline image payloads so the file is self-contained")

	return &Command{
		Flags: fs,
		Usage: "export [flags]",
		Short: "Export the collection",
		Long: `Export bricks and external links as JSON, CSV or XML.

Files written with --output are replaced atomically.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execExport(ctx, o, app, fs)
		},
	}
}

func execExport(ctx context.Context, o *IO, app *App, fs *flag.FlagSet) error {
	output, _ := fs.GetString("output")
	if fs.Changed("output") && output == "" {
		return errOutputIsEmpty
	}

	format, err := exportFormat(fs, output)
	if err != nil {
		return err
	}

	withImages, _ := fs.GetBool("with-images")
	export, err := app.transfer().ExportCollection(ctx, format, withImages)
	if err != nil {
		return err
	}

	if output == "" {
		o.Printf("%s", export.Content)
		return nil
	}

	if err := atomic.WriteFile(output, strings.NewReader(export.Content)); err != nil {
		return fmt.Errorf("write %s: %w", output, err)
	}
	o.Printf("Exported %d bricks to %s\n", export.Count, output)
	return nil
}

func exportFormat(fs *flag.FlagSet, output string) (codec.Format, error) {
	if name, _ := fs.GetString("format"); name != "" {
		return codec.ParseFormat(name)
	}
	if output != "" {
		return codec.FormatFromFilename(output)
	}
	return codec.FormatJSON, nil
}

// ImportCmd returns the import command.
func ImportCmd(app *App) *Command {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.StringP("format", "f", "", "json, csv or xml (default from file extension)")
	fs.Bool("dry-run", false, "Validate and preview without changing the collection")

	return &Command{
		Flags: fs,
		Usage: "import <file> [flags]",
		Short: "Replace the collection from a file",
		Long: `Import bricks from a JSON, CSV or XML file. The current collection is replaced.

External links in the file replace the configured links.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execImport(ctx, o, app, fs, args)
		},
	}
}

func execImport(ctx context.Context, o *IO, app *App, fs *flag.FlagSet, args []string) error {
	if len(args) == 0 {
		return errFileRequired
	}
	path := args[0]

	format, err := importFormat(fs, path)
	if err != nil {
		return err
	}

	content, err := readInput(o, path)
	if err != nil {
		return err
	}

	if dryRun, _ := fs.GetBool("dry-run"); dryRun {
		result, err := app.transfer().ImportFromFile(ctx, content, format)
		if err != nil {
			return err
		}
		o.Printf("Would import %d bricks\n", len(result.Items))
		if result.HasExternalLinks() {
			o.Printf("Would replace external links with %d entries\n", len(result.ExternalLinks))
		}
		if tags := domain.ExtractTags(result.Items); len(tags) > 0 {
			o.Printf("Tags: %s\n", strings.Join(tags, ", "))
		}
		return nil
	}

	state, result, err := app.transfer().Import(ctx, content, format)
	if err != nil {
		return err
	}
	o.Printf("Imported %d bricks\n", len(state.Items))
	if result.HasExternalLinks() {
		o.Printf("Imported %d external links\n", len(result.ExternalLinks))
	}
	return nil
}

func importFormat(fs *flag.FlagSet, path string) (codec.Format, error) {
	if name, _ := fs.GetString("format"); name != "" {
		return codec.ParseFormat(name)
	}
	if path == "-" {
		return "", errStdinFormat
	}
	return codec.FormatFromFilename(path)
}

func readInput(o *IO, path string) (string, error) {
	if path == "-" {
		if o.In() == nil {
			return "", errors.New("stdin is not available")
		}
		data, err := io.ReadAll(o.In())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path) //#nosec G304 -- user-selected import file
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}
