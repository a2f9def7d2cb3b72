package file

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vbonduro/photopoet/internal/kv"
)

// Store keeps one file per key under basePath. Writes go to a temporary file
// in the same directory and are renamed over the target, so a crash never
// leaves a half-written value behind.
type Store struct {
	basePath string
}

func New(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &Store{basePath: basePath}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, kv.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	filePath, err := s.safeJoin(key)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(s.basePath, "."+filepath.Base(filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(value); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		removeTemp(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Sync(); err != nil {
		if cerr := f.Close(); cerr != nil {
			slog.Error("failed to close file after sync error", "error", cerr)
		}
		removeTemp(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := f.Close(); err != nil {
		removeTemp(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, filePath); err != nil {
		removeTemp(tmpPath)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}

func (s *Store) Close() error { return nil }

func removeTemp(path string) {
	if err := os.Remove(path); err != nil {
		slog.Error("failed to remove temp file", "path", path, "error", err)
	}
}

// safeJoin resolves key relative to basePath and rejects directory traversal.
func (s *Store) safeJoin(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("empty key")
	}

	absBase, err := filepath.Abs(s.basePath)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}

	absPath, err := filepath.Abs(filepath.Join(s.basePath, key+".json"))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}
