package recordstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studio.db")
	store, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, path, store.Path())
	exerciseContract(t, store)

	t.Run("SurvivesReopen", func(t *testing.T) {
		require.NoError(t, store.Close())

		reopened, err := NewSQLiteStore(context.Background(), path)
		require.NoError(t, err)
		defer reopened.Close()

		payload, err := reopened.Get(context.Background(), "bookings")
		require.NoError(t, err)
		assert.JSONEq(t, `[{"id":"b1"}]`, string(payload))
	})
}

func TestSQLiteStore_BadPath(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewSQLiteStore(context.Background(), filepath.Join(file, "studio.db"))
	assert.Error(t, err)
}

// Runs against a real server only when STUDIOBOOK_TEST_POSTGRES_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STUDIOBOOK_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STUDIOBOOK_TEST_POSTGRES_DSN not set")
	}

	store, err := NewPostgresStore(context.Background(), dsn, 2)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.db.Exec(`DELETE FROM records`)
	require.NoError(t, err)

	assert.Empty(t, store.Path())
	exerciseContract(t, store)
}
