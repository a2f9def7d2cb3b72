// Package app builds the vision provider and gallery backend selected by
// configuration. It is shared by the server and CLI entrypoints.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vbonduro/photopoet/internal/config"
	"github.com/vbonduro/photopoet/internal/gallery"
	"github.com/vbonduro/photopoet/internal/kv"
	kvfile "github.com/vbonduro/photopoet/internal/kv/file"
	"github.com/vbonduro/photopoet/internal/kv/memory"
	kvredis "github.com/vbonduro/photopoet/internal/kv/redis"
	kvsqlite "github.com/vbonduro/photopoet/internal/kv/sqlite"
	"github.com/vbonduro/photopoet/internal/vision"
	claudevision "github.com/vbonduro/photopoet/internal/vision/claude"
	geminivision "github.com/vbonduro/photopoet/internal/vision/gemini"
	genkitvision "github.com/vbonduro/photopoet/internal/vision/genkit"
	ollamavision "github.com/vbonduro/photopoet/internal/vision/ollama"
)

// NewPoemWriter returns the provider named by cfg.VisionBackend.
func NewPoemWriter(ctx context.Context, cfg *config.Config, logger *slog.Logger) (vision.PoemWriter, error) {
	switch cfg.VisionBackend {
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when VISION_BACKEND=gemini")
		}
		logger.Info("using Gemini vision backend", "model", cfg.GeminiModel)
		w, err := geminivision.NewGeminiWriter(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "genkit":
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required when VISION_BACKEND=genkit")
		}
		logger.Info("using Genkit vision backend", "model", cfg.GenkitModel)
		w, err := genkitvision.NewGoogleAIWriter(ctx, cfg.GeminiAPIKey, cfg.GenkitModel)
		if err != nil {
			return nil, err
		}
		return w, nil
	case "claude":
		if cfg.ClaudeAPIKey == "" {
			return nil, fmt.Errorf("CLAUDE_API_KEY is required when VISION_BACKEND=claude")
		}
		logger.Info("using Claude vision backend", "model", cfg.ClaudeModel)
		return claudevision.NewClaudeWriter(cfg.ClaudeAPIKey, cfg.ClaudeModel), nil
	case "ollama":
		logger.Info("using Ollama vision backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		return ollamavision.NewOllamaWriter(cfg.OllamaHost, cfg.OllamaModel), nil
	default:
		return nil, fmt.Errorf("unknown VISION_BACKEND %q", cfg.VisionBackend)
	}
}

// OpenBackend opens the key-value store named by cfg.GalleryBackend. The
// caller owns the returned store and must close it.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (kv.Store, error) {
	switch cfg.GalleryBackend {
	case "file":
		logger.Info("using file gallery backend", "path", cfg.GalleryPath)
		s, err := kvfile.New(cfg.GalleryPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		logger.Info("using sqlite gallery backend", "path", cfg.DBPath)
		s, err := kvsqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "redis":
		logger.Info("using redis gallery backend", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		s, err := kvredis.Open(ctx, kvredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		logger.Warn("using in-memory gallery backend; saved poems are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown GALLERY_BACKEND %q", cfg.GalleryBackend)
	}
}

// NewGallery wraps backend in a gallery store using the configured key.
func NewGallery(backend kv.Store, cfg *config.Config, logger *slog.Logger) *gallery.Store {
	return gallery.New(backend, logger, gallery.WithKey(cfg.GalleryKey))
}
