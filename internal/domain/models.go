package domain

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// Merchant is a tenant of the reconciliation API.
type Merchant struct {
	ID        string         `json:"merchant_id"`
	Name      string         `json:"merchant_name"`
	Code      string         `json:"merchant_code,omitempty"`
	Status    MerchantStatus `json:"status,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at,omitempty"`
}

// MerchantInput is the create/update payload for a merchant.
type MerchantInput struct {
	Name string `json:"merchant_name"`
	Code string `json:"merchant_code,omitempty"`
}

// Account belongs to exactly one merchant. Balances are decimals decoded from
// the API's string fields.
type Account struct {
	ID               string          `json:"account_id"`
	MerchantID       string          `json:"merchant_id"`
	Name             string          `json:"account_name"`
	Type             AccountType     `json:"account_type"`
	Currency         string          `json:"currency"`
	InitialBalance   decimal.Decimal `json:"initial_balance"`
	PostedBalance    decimal.Decimal `json:"posted_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	CreatedAt        string          `json:"created_at,omitempty"`
	UpdatedAt        string          `json:"updated_at,omitempty"`
}

// AccountInput is the create payload. InitialBalance is optional on the wire.
type AccountInput struct {
	Name           string           `json:"account_name"`
	Type           AccountType      `json:"account_type"`
	Currency       string           `json:"currency"`
	InitialBalance *decimal.Decimal `json:"initial_balance,omitempty"`
}

// AccountUpdate is the rename payload.
type AccountUpdate struct {
	Name string `json:"account_name"`
}

// AccountDetails is the denormalized account view embedded in rules.
type AccountDetails struct {
	ID         string `json:"account_id"`
	Name       string `json:"account_name"`
	MerchantID string `json:"merchant_id"`
}

// ReconRule links two accounts of one merchant for reconciliation.
type ReconRule struct {
	ID           string         `json:"id"`
	AccountOneID string         `json:"account_one_id"`
	AccountTwoID string         `json:"account_two_id"`
	CreatedAt    string         `json:"created_at"`
	UpdatedAt    string         `json:"updated_at"`
	AccountOne   AccountDetails `json:"accountOne"`
	AccountTwo   AccountDetails `json:"accountTwo"`
}

// RuleInput is the create payload for a rule.
type RuleInput struct {
	AccountOneID string `json:"account_one_id"`
	AccountTwoID string `json:"account_two_id"`
}

// PairKey identifies the unordered account pair of a rule.
func (r ReconRule) PairKey() string {
	return PairKey(r.AccountOneID, r.AccountTwoID)
}

// PairKey orders two account ids so (a,b) and (b,a) share a key.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Metadata is free-form entry metadata.
type Metadata map[string]any

// OrderID returns the order id recorded by ingestion, if any.
func (m Metadata) OrderID() string {
	if m == nil {
		return ""
	}
	if v, ok := m["order_id"].(string); ok {
		return v
	}
	return ""
}

// StagingEntry is a raw ingested row awaiting promotion into the ledger.
type StagingEntry struct {
	ID            string          `json:"staging_entry_id"`
	AccountID     string          `json:"account_id"`
	EntryType     EntryType       `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	EffectiveDate string          `json:"effective_date"`
	Metadata      Metadata        `json:"metadata"`
	DiscardedAt   *string         `json:"discarded_at"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// EntryTransaction is the parent transaction reference carried by a ledger entry.
type EntryTransaction struct {
	TransactionID        string `json:"transaction_id"`
	Status               string `json:"status"`
	LogicalTransactionID string `json:"logical_transaction_id,omitempty"`
	Version              int    `json:"version,omitempty"`
}

// AccountEntry is a posted or expected ledger entry.
type AccountEntry struct {
	ID            string            `json:"entry_id"`
	AccountID     string            `json:"account_id"`
	TransactionID string            `json:"transaction_id"`
	EntryType     EntryType         `json:"entry_type"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	Status        string            `json:"status"`
	EffectiveDate string            `json:"effective_date"`
	Metadata      Metadata          `json:"metadata"`
	DiscardedAt   *string           `json:"discarded_at"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
	Transaction   *EntryTransaction `json:"transaction,omitempty"`
}

// ReconStatus returns the parent transaction's status, or "" when unlinked.
func (e AccountEntry) ReconStatus() string {
	if e.Transaction == nil {
		return ""
	}
	return e.Transaction.Status
}

// TransactionEntry is an entry inside one transaction version.
type TransactionEntry struct {
	ID            string          `json:"entry_id"`
	AccountID     string          `json:"account_id"`
	TransactionID string          `json:"transaction_id"`
	EntryType     EntryType       `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	EffectiveDate string          `json:"effective_date"`
	Metadata      Metadata        `json:"metadata"`
	DiscardedAt   *string         `json:"discarded_at"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// TransactionVersion is one append-only revision of a logical transaction.
type TransactionVersion struct {
	TransactionID        string             `json:"transaction_id"`
	LogicalTransactionID string             `json:"logical_transaction_id"`
	Version              int                `json:"version"`
	Amount               decimal.Decimal    `json:"amount"`
	Currency             string             `json:"currency"`
	MerchantID           string             `json:"merchant_id"`
	Status               string             `json:"status"`
	CreatedAt            string             `json:"created_at"`
	UpdatedAt            string             `json:"updated_at"`
	DiscardedAt          *string            `json:"discarded_at"`
	Metadata             Metadata           `json:"metadata"`
	Entries              []TransactionEntry `json:"entries"`
}

// TransactionAccount names one side of a logical transaction.
type TransactionAccount struct {
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	EntryType   EntryType `json:"entry_type"`
	MerchantID  string    `json:"merchant_id,omitempty"`
}

// Transaction is a logical transaction with its version history.
type Transaction struct {
	LogicalTransactionID string               `json:"logical_transaction_id"`
	CurrentVersion       int                  `json:"current_version"`
	Amount               decimal.Decimal      `json:"amount"`
	Currency             string               `json:"currency"`
	FromAccounts         []TransactionAccount `json:"from_accounts"`
	ToAccounts           []TransactionAccount `json:"to_accounts"`
	Status               string               `json:"status"`
	Versions             []TransactionVersion `json:"versions"`
}

// SortedVersions returns a copy of the versions, newest first.
func (t Transaction) SortedVersions() []TransactionVersion {
	out := make([]TransactionVersion, len(t.Versions))
	copy(out, t.Versions)
	slices.SortStableFunc(out, func(a, b TransactionVersion) int {
		return cmp.Compare(b.Version, a.Version)
	})
	return out
}

// LatestVersion returns the highest-numbered version.
func (t Transaction) LatestVersion() (TransactionVersion, bool) {
	if len(t.Versions) == 0 {
		return TransactionVersion{}, false
	}
	latest := t.Versions[0]
	for _, v := range t.Versions[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	return latest, true
}

// CurrentEntries returns the entries of the latest version only.
func (t Transaction) CurrentEntries() []TransactionEntry {
	v, ok := t.LatestVersion()
	if !ok {
		return nil
	}
	return v.Entries
}

// ShortID is the trailing segment of the logical id, used in compact listings.
func (t Transaction) ShortID() string {
	id := t.LogicalTransactionID
	if i := strings.LastIndex(id, "_"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// FromName returns the first debit-side account name or "N/A".
func (t Transaction) FromName() string {
	if len(t.FromAccounts) == 0 || t.FromAccounts[0].AccountName == "" {
		return "N/A"
	}
	return t.FromAccounts[0].AccountName
}

// ToName returns the first credit-side account name or "N/A".
func (t Transaction) ToName() string {
	if len(t.ToAccounts) == 0 || t.ToAccounts[0].AccountName == "" {
		return "N/A"
	}
	return t.ToAccounts[0].AccountName
}

// UploadError describes one rejected row of an uploaded file.
type UploadError struct {
	RowNumber    int            `json:"row_number"`
	ErrorDetails string         `json:"error_details"`
	RowData      map[string]any `json:"row_data"`
}

// DataText renders the row data as key=value pairs in key order.
func (e UploadError) DataText() string {
	keys := make([]string, 0, len(e.RowData))
	for k := range e.RowData {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, e.RowData[k])
	}
	return strings.Join(parts, " ")
}

// UploadResponse is returned synchronously by the file upload call.
type UploadResponse struct {
	Message              string        `json:"message"`
	SuccessfulIngestions int           `json:"successful_ingestions"`
	FailedIngestions     int           `json:"failed_ingestions"`
	Errors               []UploadError `json:"errors"`
}

// TriggerResult is the recon engine batch summary.
type TriggerResult struct {
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Duration  int64  `json:"duration"`
	Error     string `json:"error,omitempty"`
}
