package database

import (
	"context"
	"database/sql"

	"github.com/jask/recondesk/internal/database/repository"
)

// SeedDefaults stores baseline preferences for new databases.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, theme string) error {
	prefs := repository.NewPreferenceRepo(db)
	if _, ok, err := prefs.Get(ctx, repository.PrefTheme); err != nil || ok {
		return err
	}
	if theme == "" {
		return nil
	}
	return prefs.Set(ctx, repository.PrefTheme, theme)
}
