package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv(FileEnv, "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.ListenAddr)
	assert.NotEmpty(t, cfg.VisionBackend)
	assert.NotEmpty(t, cfg.GalleryBackend)
	assert.Equal(t, "savedPoems", cfg.GalleryKey)
}

func TestLoadCustomValues(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("LISTEN_ADDR", ":9000")
	t.Setenv("DB_PATH", "/custom/db.sqlite")
	t.Setenv("VISION_BACKEND", "claude")
	t.Setenv("CLAUDE_API_KEY", "sk-test123")
	t.Setenv("GALLERY_BACKEND", "redis")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/custom/db.sqlite", cfg.DBPath)
	assert.Equal(t, "claude", cfg.VisionBackend)
	assert.Equal(t, "sk-test123", cfg.ClaudeAPIKey)
	assert.Equal(t, "redis", cfg.GalleryBackend)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadInvalidRedisDB(t *testing.T) {
	t.Setenv(FileEnv, "")
	t.Setenv("REDIS_DB", "zero")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photopoet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
vision_backend: ollama
ollama_model: bakllava
gallery_backend: sqlite
redis_db: 2
`), 0600))
	t.Setenv(FileEnv, path)
	t.Setenv("OLLAMA_MODEL", "llava:13b")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.VisionBackend)
	assert.Equal(t, "llava:13b", cfg.OllamaModel, "environment wins over file")
	assert.Equal(t, "sqlite", cfg.GalleryBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, ":8080", cfg.ListenAddr, "defaults survive for absent keys")
}

func TestLoadFileErrors(t *testing.T) {
	t.Setenv(FileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("vision_backend: [unclosed"), 0600))
	t.Setenv(FileEnv, bad)
	_, err = Load()
	assert.Error(t, err)
}
