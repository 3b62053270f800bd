package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// UploadRepo handles upload history.
type UploadRepo struct {
	db *sql.DB
}

func NewUploadRepo(db *sql.DB) *UploadRepo {
	return &UploadRepo{db: db}
}

// Add stores u, assigning an id when it has none, and returns the id.
func (r *UploadRepo) Add(ctx context.Context, u Upload) (string, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO upload_history(id, merchant_id, account_id, account_name, file_name, processing_mode, successful, failed, message, error, uploaded_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP);
	`, u.ID, u.MerchantID, u.AccountID, u.AccountName, u.FileName, u.ProcessingMode, u.Successful, u.Failed, u.Message, u.Error)
	if err != nil {
		return "", err
	}
	return u.ID, nil
}

// ListRecent returns the newest uploads for a merchant (all merchants when empty).
func (r *UploadRepo) ListRecent(ctx context.Context, merchantID string, limit int) ([]Upload, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT id, merchant_id, account_id, account_name, file_name, processing_mode, successful, failed, message, error, uploaded_at
	FROM upload_history`
	args := []any{}
	if merchantID != "" {
		query += ` WHERE merchant_id = ?`
		args = append(args, merchantID)
	}
	query += ` ORDER BY uploaded_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Upload
	for rows.Next() {
		var u Upload
		if err := rows.Scan(&u.ID, &u.MerchantID, &u.AccountID, &u.AccountName, &u.FileName, &u.ProcessingMode,
			&u.Successful, &u.Failed, &u.Message, &u.Error, &u.UploadedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteForAccount drops the history of a deleted account.
func (r *UploadRepo) DeleteForAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM upload_history WHERE account_id = ?`, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
