package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// MigrateCmd returns the migrate command.
func MigrateCmd(app *App) *Command {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.Bool("status", false, "Only report whether the migration is pending")
	fs.Bool("reset", false, "Clear the completed flag and run again")

	return &Command{
		Flags: fs,
		Usage: "migrate [flags]",
		Short: "Move inline images into the blob store",
		Long: `Move inline image data out of the record document into the blob store.

The migration runs automatically on startup and once completed is a no-op.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			svc := app.maintenance()

			if status, _ := fs.GetBool("status"); status {
				if svc.MigrationPending(ctx) {
					o.Println("pending")
				} else {
					o.Println("done")
				}
				return nil
			}

			if reset, _ := fs.GetBool("reset"); reset {
				if err := svc.ResetMigration(ctx); err != nil {
					return err
				}
			}

			result := svc.Migrate(ctx)
			if !result.Success {
				return result.Err
			}
			o.Printf("Migrated %d images\n", result.MigratedCount)
			return nil
		},
	}
}

// GCCmd returns the gc command.
func GCCmd(app *App) *Command {
	fs := flag.NewFlagSet("gc", flag.ContinueOnError)
	fs.Bool("dry-run", false, "List orphaned images without removing them")

	return &Command{
		Flags: fs,
		Usage: "gc [flags]",
		Short: "Remove images no brick references",
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			svc := app.maintenance()

			if dryRun, _ := fs.GetBool("dry-run"); dryRun {
				orphans, err := svc.Orphans(ctx)
				if err != nil {
					return err
				}
				for _, blobID := range orphans {
					o.Println(blobID)
				}
				return nil
			}

			removed, err := svc.CollectOrphans(ctx)
			if err != nil {
				return err
			}
			o.Printf("Removed %d orphaned images\n", removed)
			return nil
		},
	}
}
