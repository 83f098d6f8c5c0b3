package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"
	"github.com/pnavk/gMusic/internal/shared"
	"github.com/urfave/cli/v3"
)

// resolveConfig loads the config file at path, falling back to defaults when
// the file is absent or unreadable. A present but invalid file is reported.
func resolveConfig(path string, logger *log.Logger) *shared.Config {
	if _, err := os.Stat(path); err != nil {
		return shared.DefaultConfig()
	}
	config, err := shared.LoadConfig(path)
	if err != nil {
		logger.Warn("ignoring invalid config file", "path", path, "error", err)
		return shared.DefaultConfig()
	}
	return config
}

func main() {
	logger := shared.NewLogger(nil)
	config := resolveConfig("config.toml", logger)

	runner := NewRunner(RunnerOpts{
		Config: config,
		Logger: logger,
	})

	app := &cli.Command{
		Name:     "gmusic",
		Usage:    "Aggregate and sync your music services behind one library",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
