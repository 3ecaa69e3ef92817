package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compresr/truncation-engine/internal/store"
)

// =============================================================================
// MEMORY STORE TESTS
// =============================================================================

func TestMemoryStore_SetGet(t *testing.T) {
	s := store.NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set("key1", "value1"))

	got, ok := s.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", got)
}

func TestMemoryStore_GetMissing(t *testing.T) {
	s := store.NewMemoryStore(time.Minute)
	defer s.Close()

	_, ok := s.Get("nope")
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := store.NewMemoryStore(10 * time.Millisecond)
	defer s.Close()

	require.NoError(t, s.Set("key1", "value1"))
	time.Sleep(30 * time.Millisecond)

	_, ok := s.Get("key1")
	assert.False(t, ok, "entries expire after the TTL")
}

func TestMemoryStore_Delete(t *testing.T) {
	s := store.NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set("key1", "value1"))
	require.NoError(t, s.Delete("key1"))

	_, ok := s.Get("key1")
	assert.False(t, ok)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	s := store.NewMemoryStore(time.Minute)
	defer s.Close()

	require.NoError(t, s.Set("key1", "old"))
	require.NoError(t, s.Set("key1", "new"))

	got, _ := s.Get("key1")
	assert.Equal(t, "new", got)
}

func TestMemoryStore_SetAfterClose_IsANoOp(t *testing.T) {
	s := store.NewMemoryStore(time.Minute)
	require.NoError(t, s.Close())

	assert.NoError(t, s.Set("key1", "value1"))
	assert.NoError(t, s.Close(), "double close is safe")
}

// =============================================================================
// SQLITE STORE TESTS
// =============================================================================

func TestSQLiteStore_SetGetDelete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := store.NewSQLiteStore(path, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("key1", "value1"))

	got, ok := s.Get("key1")
	assert.True(t, ok)
	assert.Equal(t, "value1", got)

	require.NoError(t, s.Delete("key1"))
	_, ok = s.Get("key1")
	assert.False(t, ok)
}

func TestSQLiteStore_Upsert(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := store.NewSQLiteStore(path, time.Minute)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set("key1", "old"))
	require.NoError(t, s.Set("key1", "new"))

	got, _ := s.Get("key1")
	assert.Equal(t, "new", got)
}

func TestSQLiteStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := store.NewSQLiteStore(path, time.Minute)
	require.NoError(t, err)
	require.NoError(t, s.Set("key1", "persisted"))
	require.NoError(t, s.Close())

	reopened, err := store.NewSQLiteStore(path, time.Minute)
	require.NoError(t, err)
	defer reopened.Close()

	got, ok := reopened.Get("key1")
	assert.True(t, ok, "cache entries survive a restart")
	assert.Equal(t, "persisted", got)
}

func TestSQLiteStore_EmptyPath(t *testing.T) {
	_, err := store.NewSQLiteStore("", time.Minute)
	assert.Error(t, err)
}
