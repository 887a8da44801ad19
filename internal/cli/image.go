package cli

import (
	"bytes"
	"context"
	"fmt"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/noobbricks/noob-bricks/internal/media/images"
)

// ImageCmd returns the image command.
func ImageCmd(app *App) *Command {
	fs := flag.NewFlagSet("image", flag.ContinueOnError)
	fs.StringP("output", "o", "", "Write the image to this file")
	fs.Bool("json", false, "Print details as JSON")

	return &Command{
		Flags: fs,
		Usage: "image <id> [flags]",
		Short: "Inspect or extract a brick image",
		Long: `Print the format, dimensions and BlurHash of a brick image.
With --output, write the decoded image to a file instead.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			if len(args) == 0 {
				return errIDRequired
			}

			payload, err := app.collection().BrickImage(ctx, args[0])
			if err != nil {
				return err
			}

			if output, _ := fs.GetString("output"); output != "" {
				p, err := images.ParseDataURI(payload)
				if err != nil {
					return err
				}
				if err := atomic.WriteFile(output, bytes.NewReader(p.Data)); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				o.Printf("Wrote %d bytes to %s\n", len(p.Data), output)
				return nil
			}

			info, err := images.Inspect(payload)
			if err != nil {
				return err
			}
			if asJSON, _ := fs.GetBool("json"); asJSON {
				return printJSON(o, info)
			}
			o.Printf("format:   %s\n", info.Format)
			o.Printf("type:     %s\n", info.MIMEType)
			o.Printf("size:     %dx%d\n", info.Width, info.Height)
			o.Printf("bytes:    %d\n", info.Bytes)
			if info.BlurHash != "" {
				o.Printf("blurhash: %s\n", info.BlurHash)
			}
			return nil
		},
	}
}
