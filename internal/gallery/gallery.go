package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/photopoet/internal/domain"
	"github.com/vbonduro/photopoet/internal/kv"
)

// DefaultKey is the storage key holding the serialized collection.
const DefaultKey = "savedPoems"

// PersistError reports that a mutation could not be written to the backend.
// The stored collection is left as it was.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("gallery %s: failed to persist: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Store is an ordered collection of saved poems. Every mutation re-reads the
// stored collection, applies the change and writes the full collection back
// under one key, so several processes may share a backend one at a time.
type Store struct {
	backend kv.Store
	key     string
	now     func() time.Time
	newID   func() string
	logger  *slog.Logger

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

type Option func(*Store)

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock sets the timestamp source used by Add.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator sets the identifier source used by Add.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

func New(backend kv.Store, logger *slog.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the persisted collection in insertion order. A missing key is
// an empty gallery.
func (s *Store) Load(ctx context.Context) ([]domain.SavedPoemEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx)
}

// Get returns the entry with the given id.
func (s *Store) Get(ctx context.Context, id string) (domain.SavedPoemEntry, bool, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return domain.SavedPoemEntry{}, false, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, true, nil
		}
	}
	return domain.SavedPoemEntry{}, false, nil
}

// Add appends a new entry and persists the collection.
func (s *Store) Add(ctx context.Context, photo domain.PhotoReference, poem domain.PoemResult) (domain.SavedPoemEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read(ctx)
	if err != nil {
		return domain.SavedPoemEntry{}, err
	}

	entry := domain.SavedPoemEntry{
		ID:    s.newID(),
		Photo: photo,
		Poem:  poem,
		Date:  s.now(),
	}

	entries = append(entries, entry)
	if err := s.persist(ctx, entries); err != nil {
		s.logger.Error("gallery add not persisted", "id", entry.ID, "error", err)
		return domain.SavedPoemEntry{}, &PersistError{Op: "add", Err: err}
	}

	s.logger.Info("gallery entry added", "id", entry.ID, "entries", len(entries))
	return entry, nil
}

// Delete removes the entry with the given id. Deleting an unknown id is a
// no-op and writes nothing.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read(ctx)
	if err != nil {
		return err
	}

	idx := slices.IndexFunc(entries, func(e domain.SavedPoemEntry) bool { return e.ID == id })
	if idx < 0 {
		s.logger.Debug("gallery delete of unknown id", "id", id)
		return nil
	}

	entries = slices.Delete(entries, idx, idx+1)
	if err := s.persist(ctx, entries); err != nil {
		s.logger.Error("gallery delete not persisted", "id", id, "error", err)
		return &PersistError{Op: "delete", Err: err}
	}

	s.logger.Info("gallery entry deleted", "id", id, "entries", len(entries))
	return nil
}

func (s *Store) read(ctx context.Context) ([]domain.SavedPoemEntry, error) {
	data, err := s.backend.Get(ctx, s.key)
	if errors.Is(err, kv.ErrNotFound) {
		return []domain.SavedPoemEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read gallery: %w", err)
	}

	entries := []domain.SavedPoemEntry{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode gallery: %w", err)
	}
	if entries == nil {
		// A stored JSON null is an empty gallery.
		entries = []domain.SavedPoemEntry{}
	}
	return entries, nil
}

func (s *Store) persist(ctx context.Context, entries []domain.SavedPoemEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode gallery: %w", err)
	}
	return s.backend.Put(ctx, s.key, data)
}
