package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/recondesk/internal/database/repository"
)

func TestMigrationsAreIdempotent(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "nested", "recondesk.db")
	db, err := OpenMigrated(dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NoError(t, RunMigrations(dbPath))
	v, dirty, err := SchemaVersion(dbPath)
	require.NoError(t, err)
	require.False(t, dirty)
	require.Equal(t, uint(1), v)
}

func TestSeedDefaultsKeepsExistingTheme(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := OpenMigrated(filepath.Join(t.TempDir(), "recondesk.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, SeedDefaults(ctx, db, "blue"))
	prefs := repository.NewPreferenceRepo(db)
	require.NoError(t, prefs.Set(ctx, repository.PrefTheme, "red"))
	require.NoError(t, SeedDefaults(ctx, db, "blue"))

	v, ok, err := prefs.Get(ctx, repository.PrefTheme)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "red", v)
}
