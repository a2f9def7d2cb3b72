package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenForTesting(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var tableName string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&tableName)
	require.NoError(t, err)
	assert.Equal(t, "kv", tableName)
}

func TestOpenForTestingIsolated(t *testing.T) {
	first, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, first.Close()) })

	second, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, second.Close()) })

	_, err = first.Exec("INSERT INTO kv (key, value) VALUES ('a', 'b')")
	require.NoError(t, err)

	var n int
	require.NoError(t, second.QueryRow("SELECT COUNT(*) FROM kv").Scan(&n))
	assert.Zero(t, n)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photopoet.db")

	db, err := Open(path)
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO kv (key, value) VALUES ('savedPoems', '[]')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	var value string
	require.NoError(t, db.QueryRow("SELECT value FROM kv WHERE key = 'savedPoems'").Scan(&value))
	assert.Equal(t, "[]", value)

	var version int
	require.NoError(t, db.QueryRow("SELECT version FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)
}

func TestOpenUnreachablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "photopoet.db")

	db, err := Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping database")
	assert.Nil(t, db)
}
