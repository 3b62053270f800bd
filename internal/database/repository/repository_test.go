package repository_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/recondesk/internal/database"
	"github.com/jask/recondesk/internal/database/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.OpenMigrated(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPreferenceRepoUpsert(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := repository.NewPreferenceRepo(openTestDB(t))

	_, ok, err := repo.Get(ctx, repository.PrefTheme)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Set(ctx, repository.PrefTheme, "blue"))
	require.NoError(t, repo.Set(ctx, repository.PrefTheme, "pink"))

	v, ok, err := repo.Get(ctx, repository.PrefTheme)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "pink", v)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestUploadRepoNewestFirst(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := repository.NewUploadRepo(openTestDB(t))

	for i, name := range []string{"jan.csv", "feb.csv", "mar.csv"} {
		_, err := repo.Add(ctx, repository.Upload{
			MerchantID:     "m1",
			AccountID:      "a1",
			FileName:       name,
			ProcessingMode: "CONFIRMATION",
			Successful:     i,
		})
		require.NoError(t, err)
	}
	_, err := repo.Add(ctx, repository.Upload{MerchantID: "m2", AccountID: "a9", FileName: "other.csv", ProcessingMode: "TRANSACTION", Error: "Upload failed"})
	require.NoError(t, err)

	got, err := repo.ListRecent(ctx, "m1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "mar.csv", got[0].FileName)
	require.Equal(t, "feb.csv", got[1].FileName)
	require.NotEmpty(t, got[0].ID)

	all, err := repo.ListRecent(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	require.True(t, all[0].Rejected())

	n, err := repo.DeleteForAccount(ctx, "a1")
	require.NoError(t, err)
	require.Equal(t, int64(3), n)
}

func TestUploadRepoRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := repository.NewUploadRepo(openTestDB(t))
	_, err := repo.Add(ctx, repository.Upload{MerchantID: "m1", AccountID: "a1", FileName: "x.csv", ProcessingMode: "BOGUS"})
	require.Error(t, err)
}
