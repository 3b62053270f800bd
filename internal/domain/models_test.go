package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAccountDecodesDecimalStringsAndMissingInitialBalance(t *testing.T) {
	t.Parallel()

	raw := `{"account_id":"a1","merchant_id":"m1","account_name":"Checking",
		"account_type":"DEBIT_NORMAL","currency":"USD",
		"posted_balance":"0","pending_balance":"0.00","available_balance":"12.10"}`
	var acct Account
	require.NoError(t, json.Unmarshal([]byte(raw), &acct))
	require.True(t, acct.InitialBalance.IsZero())
	require.Equal(t, "0", acct.PostedBalance.String())
	require.Equal(t, "0", acct.PendingBalance.String())
	require.Equal(t, "12.1", acct.AvailableBalance.String())
	require.Equal(t, "Debit", acct.Type.Label())
}

func TestAccountEntryDecodesNumericAmount(t *testing.T) {
	t.Parallel()

	raw := `{"entry_id":"e1","amount":100.25,"status":"POSTED","transaction":{"transaction_id":"t1","status":"MISMATCH"}}`
	var e AccountEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	require.True(t, e.Amount.Equal(decimal.RequireFromString("100.25")))
	require.Equal(t, StatusMismatch, e.ReconStatus())
	require.Equal(t, "", AccountEntry{}.ReconStatus())
}

func TestAccountInputOmitsAbsentInitialBalance(t *testing.T) {
	t.Parallel()

	body, err := json.Marshal(AccountInput{Name: "Checking", Type: DebitNormal, Currency: "USD"})
	require.NoError(t, err)
	require.NotContains(t, string(body), "initial_balance")

	zero := decimal.Zero
	body, err = json.Marshal(AccountInput{Name: "Checking", Type: DebitNormal, Currency: "USD", InitialBalance: &zero})
	require.NoError(t, err)
	require.Contains(t, string(body), `"initial_balance":"0"`)
}

func TestTransactionVersionsNewestFirst(t *testing.T) {
	t.Parallel()

	tx := Transaction{
		LogicalTransactionID: "ltx_merchant_ab12",
		Versions: []TransactionVersion{
			{TransactionID: "v1", Version: 1, Entries: []TransactionEntry{{ID: "old"}}},
			{TransactionID: "v3", Version: 3, Entries: []TransactionEntry{{ID: "cur"}}},
			{TransactionID: "v2", Version: 2},
		},
	}
	sorted := tx.SortedVersions()
	require.Equal(t, []int{3, 2, 1}, []int{sorted[0].Version, sorted[1].Version, sorted[2].Version})
	require.Equal(t, 1, tx.Versions[0].Version, "input must stay untouched")

	entries := tx.CurrentEntries()
	require.Len(t, entries, 1)
	require.Equal(t, "cur", entries[0].ID)
	require.Equal(t, "ab12", tx.ShortID())
	require.Equal(t, "N/A", tx.FromName())
}

func TestPairKeyIsUnordered(t *testing.T) {
	t.Parallel()

	require.Equal(t, PairKey("a", "b"), PairKey("b", "a"))
	require.NotEqual(t, PairKey("a", "b"), PairKey("a", "c"))
	require.Equal(t, PairKey("b", "a"), ReconRule{AccountOneID: "a", AccountTwoID: "b"}.PairKey())
}

func TestValidation(t *testing.T) {
	t.Parallel()

	var verr *ValidationError
	require.ErrorAs(t, MerchantInput{Name: "   "}.Validate(), &verr)
	require.Equal(t, "Merchant name is required", verr.Message)
	require.NoError(t, MerchantInput{Name: "Acme"}.Validate())

	neg := decimal.NewFromInt(-1)
	cases := []struct {
		name  string
		in    AccountInput
		field string
	}{
		{"missing name", AccountInput{Type: DebitNormal, Currency: "USD"}, "account_name"},
		{"bad type", AccountInput{Name: "x", Type: "SIDEWAYS", Currency: "USD"}, "account_type"},
		{"bad currency", AccountInput{Name: "x", Type: CreditNormal, Currency: "US"}, "currency"},
		{"negative balance", AccountInput{Name: "x", Type: CreditNormal, Currency: "USD", InitialBalance: &neg}, "initial_balance"},
	}
	for _, tc := range cases {
		err := tc.in.Validate()
		require.True(t, errors.As(err, &verr), tc.name)
		require.Equal(t, tc.field, verr.Field, tc.name)
	}
	require.NoError(t, AccountInput{Name: "x", Type: CreditNormal, Currency: "usd"}.Normalize().Validate())
}

func TestParseTimeFormats(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"2024-05-01T10:00:00Z", "2024-05-01T10:00:00.123Z", "2024-05-01 10:00:00", "2024-05-01"} {
		_, ok := ParseTime(s)
		require.True(t, ok, s)
	}
	_, ok := ParseTime("yesterday")
	require.False(t, ok)
	require.Equal(t, "Needs Manual Review", StatusLabel(StagingNeedsManualReview))
}
