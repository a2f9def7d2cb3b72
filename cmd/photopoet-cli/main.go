package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/vbonduro/photopoet/internal/app"
	"github.com/vbonduro/photopoet/internal/config"
	"github.com/vbonduro/photopoet/internal/logging"
	"github.com/vbonduro/photopoet/internal/service"
)

func main() {
	if err := newRootCmd(openEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

// openEnv builds the services from configuration. The vision backend is
// only initialized when withWriter is set, so gallery commands work without
// provider credentials.
func openEnv(ctx context.Context, withWriter, verbose bool) (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewWriter(os.Stderr, level)

	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open gallery backend: %w", err)
	}

	env := &cliEnv{
		gallery: service.NewGalleryService(app.NewGallery(backend, cfg, logger), logger),
		close: func() {
			if err := backend.Close(); err != nil {
				logger.Error("failed to close gallery backend", "error", err)
			}
		},
	}

	if withWriter {
		writer, err := app.NewPoemWriter(ctx, cfg, logger)
		if err != nil {
			env.close()
			return nil, err
		}
		env.poems = service.NewPoemService(writer, logger)
	}
	return env, nil
}
