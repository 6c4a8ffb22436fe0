package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haiintel/dashboard/internal/logging"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()

	_, ok, err := s.GetItem("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem("k", "v1"))
	require.NoError(t, s.SetItem("k", "v2"))

	v, ok, err := s.GetItem("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v2", v)

	require.NoError(t, s.RemoveItem("k"))
	require.NoError(t, s.RemoveItem("k"))

	_, ok, err = s.GetItem("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage(0))
}

func TestMemoryStorageQuota(t *testing.T) {
	s := NewMemoryStorage(10)

	require.NoError(t, s.SetItem("k", "12345"))
	require.ErrorIs(t, s.SetItem("k", "1234567890"), ErrQuotaExceeded)

	v, _, _ := s.GetItem("k")
	assert.Equal(t, "12345", v, "a rejected write keeps the previous value")

	// replacing an item only counts the new size
	require.NoError(t, s.SetItem("k", "123456789"))
	require.NoError(t, s.RemoveItem("k"))
	require.NoError(t, s.SetItem("other", "12345"))
}

func TestMemoryRegistryScopesAreIsolated(t *testing.T) {
	r := NewMemoryRegistry(0)
	a := r.Scope("device-a")
	b := r.Scope("device-b")

	require.NoError(t, a.SetItem("k", "a"))
	_, ok, _ := b.GetItem("k")
	assert.False(t, ok)

	assert.Same(t, a, r.Scope("device-a"))
}

func TestDisabled(t *testing.T) {
	var s Storage = Disabled{}
	_, _, err := s.GetItem("k")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.SetItem("k", "v"), ErrUnavailable)
	assert.ErrorIs(t, s.RemoveItem("k"), ErrUnavailable)
}

func TestSQLiteStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "local.db")
	db, err := OpenSQLite(path, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	exerciseStorage(t, db.Scope("cli"))

	require.NoError(t, db.Scope("a").SetItem("k", "a"))
	_, ok, err := db.Scope("b").GetItem("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.db")

	db, err := OpenSQLite(path, logging.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Scope("cli").SetItem("k", `[{"id":"1"}]`))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	v, ok, err := db.Scope("cli").GetItem("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"1"}]`, v)
}
