package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vbonduro/photopoet/internal/app"
	"github.com/vbonduro/photopoet/internal/config"
	"github.com/vbonduro/photopoet/internal/logging"
	"github.com/vbonduro/photopoet/internal/service"
	genkitvision "github.com/vbonduro/photopoet/internal/vision/genkit"
	"github.com/vbonduro/photopoet/internal/web"
	"github.com/vbonduro/photopoet/internal/web/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := app.NewPoemWriter(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize vision backend", "error", err)
		return
	}

	backend, err := app.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open gallery backend", "error", err)
		return
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("failed to close gallery backend", "error", err)
		}
	}()

	poemService := service.NewPoemService(writer, logger)
	galleryService := service.NewGalleryService(app.NewGallery(backend, cfg, logger), logger)
	server := web.NewServer(poemService, galleryService, templates.FS, logger)

	if gw, ok := writer.(*genkitvision.GenkitWriter); ok {
		server.Handle(gw.Route(), gw.Handler())
		logger.Info("serving genkit flow", "route", gw.Route())
	}

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
