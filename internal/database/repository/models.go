package repository

import "time"

// Preference is a key/value row in the preferences table.
type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

// Upload records the outcome of one file upload.
type Upload struct {
	ID             string
	MerchantID     string
	AccountID      string
	AccountName    string
	FileName       string
	ProcessingMode string
	Successful     int
	Failed         int
	Message        string
	Error          string
	UploadedAt     time.Time
}

// Rejected reports whether the upload request itself failed.
func (u Upload) Rejected() bool { return u.Error != "" }
