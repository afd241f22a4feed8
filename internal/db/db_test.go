package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.db")
	db, err := OpenAndMigrate(path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sheet_rows`).Scan(&n))
	assert.Zero(t, n)

	// a second run is a no-op
	require.NoError(t, Migrate(db))
	require.NoError(t, db.Ping())
}

func TestOpenMemory(t *testing.T) {
	db, err := OpenAndMigrate(":memory:")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO sheet_rows (sheet, cells, created_at) VALUES ('Humans', '[]', '2024-12-01')`)
	require.NoError(t, err)
}
