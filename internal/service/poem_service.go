package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/vbonduro/photopoet/internal/domain"
	"github.com/vbonduro/photopoet/internal/media"
	"github.com/vbonduro/photopoet/internal/vision"
)

// FallbackMessage is shown to the user in place of a poem when generation
// fails.
const FallbackMessage = "Failed to generate poem. Please try again."

// ErrInputMissing is returned when generation is requested without a photo.
var ErrInputMissing = errors.New("no photo provided")

// GenerationError wraps any failure of the model round-trip.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("poem generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PoemService turns a photo reference into a poem with exactly one model
// call. It holds no per-request state and is safe for concurrent use.
type PoemService struct {
	writer   vision.PoemWriter
	logger   *slog.Logger
	inFlight atomic.Int64
}

func NewPoemService(writer vision.PoemWriter, logger *slog.Logger) *PoemService {
	return &PoemService{writer: writer, logger: logger}
}

// Generate sends photo to the model and returns its text verbatim. Failures
// of the model call, including references the model cannot use, are
// reported as *GenerationError.
func (s *PoemService) Generate(ctx context.Context, photo domain.PhotoReference) (domain.PoemResult, error) {
	if strings.TrimSpace(string(photo)) == "" {
		return "", ErrInputMissing
	}

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	m, err := media.Parse(photo)
	if err != nil {
		s.logger.Warn("photo reference rejected", "error", err)
		return "", &GenerationError{Err: err}
	}

	attrs := []any{"mime_type", m.MIMEType, "remote", !m.Inline(), "bytes", len(m.Data)}
	if m.Inline() {
		if info, err := media.Describe(m.Data); err == nil {
			attrs = append(attrs, "format", info.Format, "width", info.Width, "height", info.Height)
		}
	}
	s.logger.Info("poem generation started", attrs...)

	start := time.Now()
	text, err := s.writer.WritePoem(ctx, vision.PhotoFromMedia(m))
	if err != nil {
		s.logger.Error("poem generation failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return "", &GenerationError{Err: err}
	}

	s.logger.Info("poem generation complete",
		"duration_ms", time.Since(start).Milliseconds(),
		"poem_length", len(text),
	)
	return domain.PoemResult(text), nil
}

// GenerateFromUpload encodes raw image bytes and generates a poem for them.
// The reference is returned even when generation fails so the caller can
// retry or save with the same photo.
func (s *PoemService) GenerateFromUpload(ctx context.Context, data []byte, mimeType string) (domain.PhotoReference, domain.PoemResult, error) {
	if len(data) == 0 {
		return "", "", ErrInputMissing
	}
	photo := media.Encode(data, mimeType)
	poem, err := s.Generate(ctx, photo)
	return photo, poem, err
}

// Busy reports whether any generation is outstanding.
func (s *PoemService) Busy() bool {
	return s.inFlight.Load() > 0
}

// InFlight returns the number of outstanding generations.
func (s *PoemService) InFlight() int64 {
	return s.inFlight.Load()
}
