package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hirecircle/internal/config"
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	db, err := config.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, Migrate(ctx, db))

		var tables []string
		require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`))
		assert.Subset(t, tables, []string{"credentials", "job_applications", "job_posts", "notifications", "profiles", "sessions"})
	})

	t.Run("Idempotent", func(t *testing.T) {
		require.NoError(t, Migrate(ctx, db))

		var count int
		require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM schema_migrations`))
		assert.Equal(t, 1, count)
	})
}

func TestRun_OrderAndRollback(t *testing.T) {
	ctx := context.Background()
	db, err := config.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"m/000002_second.up.sql": {Data: []byte(`ALTER TABLE things ADD COLUMN label TEXT`)},
		"m/000001_first.up.sql":  {Data: []byte(`CREATE TABLE things (id TEXT PRIMARY KEY)`)},
		"m/000003_broken.up.sql": {Data: []byte(`CREATE TABLE`)},
		"m/README.md":            {Data: []byte(`ignored`)},
	}

	err = run(ctx, db, fsys, "m")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "000003")

	var versions []int
	require.NoError(t, db.Select(&versions, `SELECT version FROM schema_migrations ORDER BY version`))
	assert.Equal(t, []int{1, 2}, versions)

	_, err = db.Exec(`INSERT INTO things (id, label) VALUES ('a', 'b')`)
	assert.NoError(t, err)
}
