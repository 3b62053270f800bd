package service

import (
	"errors"

	"github.com/jask/recondesk/internal/api"
	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
)

// Level of a transient notification.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Failure
)

// Notice is a transient global notification: a title plus optional detail.
type Notice struct {
	Level  Level
	Title  string
	Detail string
}

// FailureNotice builds the notification for a failed mutation, carrying the
// server detail when there is one.
func FailureNotice(title string, err error) Notice {
	return Notice{Level: Failure, Title: title, Detail: api.Detail(err)}
}

// IsInline reports whether err belongs next to the form control rather than
// in a global notification.
func IsInline(err error) bool {
	var verr *domain.ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrSameAccount) ||
		errors.Is(err, ErrDuplicateRule) ||
		errors.Is(err, ErrMissingAccount) ||
		errors.Is(err, ErrInvalidFileType) ||
		errors.Is(err, ErrNoFile) ||
		errors.Is(err, ErrNoAccount) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, directory.ErrNoMerchantSelected)
}

// InlineMessage is the text shown beside the control for an inline error.
func InlineMessage(err error) string {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	switch {
	case errors.Is(err, ErrSameAccount):
		return "Source and target accounts must be different"
	case errors.Is(err, ErrDuplicateRule):
		return "A rule for these accounts already exists"
	case errors.Is(err, ErrMissingAccount):
		return "Select both accounts"
	case errors.Is(err, ErrInvalidFileType):
		return "Please upload a valid CSV file"
	case errors.Is(err, ErrNoFile):
		return "Please select a file to upload."
	case errors.Is(err, ErrNoAccount):
		return "Please select an account first."
	case errors.Is(err, ErrInvalidMode):
		return "Please select a processing mode."
	case errors.Is(err, directory.ErrNoMerchantSelected):
		return "Please select a merchant first"
	}
	return err.Error()
}
