// Package providers contains dependency injection providers for noob-bricks.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/noobbricks/noob-bricks/internal/config"
	"github.com/noobbricks/noob-bricks/internal/logger"
)

// ProvideLogger provides the structured logger.
// Logs go to stderr so command output on stdout stays clean.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development" && cfg.Logger.Level == "debug",
		Environment: cfg.App.Environment,
	})

	log.Debug("configuration loaded",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_dir", cfg.Storage.DataDir,
		"images_enabled", cfg.Storage.ImagesEnabled,
	)

	return log, nil
}
