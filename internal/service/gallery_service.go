package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/vbonduro/photopoet/internal/domain"
)

// ErrEntryNotFound is returned by Export for unknown ids.
var ErrEntryNotFound = errors.New("gallery entry not found")

// galleryRepository is the subset of gallery.Store that GalleryService requires.
type galleryRepository interface {
	Load(ctx context.Context) ([]domain.SavedPoemEntry, error)
	Get(ctx context.Context, id string) (domain.SavedPoemEntry, bool, error)
	Add(ctx context.Context, photo domain.PhotoReference, poem domain.PoemResult) (domain.SavedPoemEntry, error)
	Delete(ctx context.Context, id string) error
}

type GalleryService struct {
	store  galleryRepository
	logger *slog.Logger
}

func NewGalleryService(store galleryRepository, logger *slog.Logger) *GalleryService {
	return &GalleryService{store: store, logger: logger}
}

func (s *GalleryService) List(ctx context.Context) ([]domain.SavedPoemEntry, error) {
	return s.store.Load(ctx)
}

// Save stores a generated poem. Saving without a photo is ErrInputMissing.
func (s *GalleryService) Save(ctx context.Context, photo domain.PhotoReference, poem domain.PoemResult) (domain.SavedPoemEntry, error) {
	if strings.TrimSpace(string(photo)) == "" {
		return domain.SavedPoemEntry{}, ErrInputMissing
	}
	return s.store.Add(ctx, photo, poem)
}

func (s *GalleryService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Export returns the poem text of a saved entry for a plain-text download.
func (s *GalleryService) Export(ctx context.Context, id string) (string, error) {
	entry, ok, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrEntryNotFound
	}
	return string(entry.Poem), nil
}
