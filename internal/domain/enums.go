package domain

import "strings"

type MerchantStatus string

const (
	MerchantActive   MerchantStatus = "ACTIVE"
	MerchantInactive MerchantStatus = "INACTIVE"
)

// AccountType is the balance polarity of an account.
type AccountType string

const (
	DebitNormal  AccountType = "DEBIT_NORMAL"
	CreditNormal AccountType = "CREDIT_NORMAL"
)

func (t AccountType) Valid() bool {
	return t == DebitNormal || t == CreditNormal
}

// Label is the short display form ("Debit"/"Credit").
func (t AccountType) Label() string {
	switch t {
	case DebitNormal:
		return "Debit"
	case CreditNormal:
		return "Credit"
	default:
		return string(t)
	}
}

// Toggle flips between the two polarities.
func (t AccountType) Toggle() AccountType {
	if t == DebitNormal {
		return CreditNormal
	}
	return DebitNormal
}

type EntryType string

const (
	Debit  EntryType = "DEBIT"
	Credit EntryType = "CREDIT"
)

// ProcessingMode tells the server how to interpret an uploaded file.
type ProcessingMode string

const (
	ModeConfirmation ProcessingMode = "CONFIRMATION"
	ModeTransaction  ProcessingMode = "TRANSACTION"
)

func (m ProcessingMode) Valid() bool {
	return m == ModeConfirmation || m == ModeTransaction
}

func (m ProcessingMode) Toggle() ProcessingMode {
	if m == ModeConfirmation {
		return ModeTransaction
	}
	return ModeConfirmation
}

// ParseProcessingMode accepts either mode name case-insensitively.
func ParseProcessingMode(s string) (ProcessingMode, bool) {
	m := ProcessingMode(strings.ToUpper(strings.TrimSpace(s)))
	return m, m.Valid()
}

// Ledger entry and transaction statuses.
const (
	StatusExpected = "EXPECTED"
	StatusPosted   = "POSTED"
	StatusMismatch = "MISMATCH"
	StatusArchived = "ARCHIVED"
)

// Staging entry statuses seen in practice; the field itself is free-form.
const (
	StagingPending           = "PENDING"
	StagingProcessed         = "PROCESSED"
	StagingNeedsManualReview = "NEEDS_MANUAL_REVIEW"
)

// EntryStatuses are the filter choices for ledger entries.
var EntryStatuses = []string{StatusExpected, StatusPosted, StatusArchived}

// ReconStatuses are the filter choices for the parent transaction status.
var ReconStatuses = []string{StatusExpected, StatusPosted, StatusMismatch, StatusArchived}

// StagingStatuses are the filter choices for staging entries.
var StagingStatuses = []string{StagingPending, StagingProcessed, StagingNeedsManualReview}

// StatusLabel turns "NEEDS_MANUAL_REVIEW" into "Needs Manual Review".
func StatusLabel(s string) string {
	if s == "" {
		return "-"
	}
	parts := strings.Split(strings.ToLower(s), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
