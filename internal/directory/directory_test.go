package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/recondesk/internal/domain"
)

type fakeBackend struct {
	mu        sync.Mutex
	calls     int
	merchants []domain.Merchant
	accounts  map[string][]domain.Account
	listErr   error
	nextID    int
}

func newFakeBackend(names ...string) *fakeBackend {
	f := &fakeBackend{accounts: map[string][]domain.Account{}}
	for _, n := range names {
		f.nextID++
		f.merchants = append(f.merchants, domain.Merchant{ID: fmt.Sprintf("m%d", f.nextID), Name: n})
	}
	return f
}

func (f *fakeBackend) ListMerchants(ctx context.Context) ([]domain.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.Merchant(nil), f.merchants...), nil
}

func (f *fakeBackend) CreateMerchant(ctx context.Context, in domain.MerchantInput) (domain.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.nextID++
	m := domain.Merchant{ID: fmt.Sprintf("m%d", f.nextID), Name: in.Name}
	f.merchants = append(f.merchants, m)
	return m, nil
}

func (f *fakeBackend) UpdateMerchant(ctx context.Context, id string, in domain.MerchantInput) (domain.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return domain.Merchant{ID: id, Name: in.Name, Code: in.Code}, nil
}

func (f *fakeBackend) DeleteMerchant(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeBackend) ListAccounts(ctx context.Context, merchantID string) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return append([]domain.Account(nil), f.accounts[merchantID]...), nil
}

func (f *fakeBackend) CreateAccount(ctx context.Context, merchantID string, in domain.AccountInput) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	acct := domain.Account{
		ID:         fmt.Sprintf("a%d", len(f.accounts[merchantID])+1),
		MerchantID: merchantID,
		Name:       in.Name,
		Type:       in.Type,
		Currency:   in.Currency,
	}
	if in.InitialBalance != nil {
		acct.InitialBalance = *in.InitialBalance
	}
	f.accounts[merchantID] = append(f.accounts[merchantID], acct)
	return acct, nil
}

func (f *fakeBackend) UpdateAccount(ctx context.Context, merchantID, accountID string, in domain.AccountUpdate) (domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return domain.Account{ID: accountID, MerchantID: merchantID, Name: in.Name}, nil
}

func (f *fakeBackend) DeleteAccount(ctx context.Context, merchantID, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeBackend) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestLoadAutoSelectsFirstMerchantOnce(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend("Acme", "Globex")
	d := New(backend, zerolog.Nop())
	d.Load(context.Background())
	require.Equal(t, "m1", d.Selected())

	d.Select("")
	_, err := d.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "", d.Selected(), "auto-select must not re-run on refetch")
}

func TestLoadFailureLeavesListEmpty(t *testing.T) {
	t.Parallel()

	backend := newFakeBackend("Acme")
	backend.listErr = errors.New("boom")
	d := New(backend, zerolog.Nop())
	d.Load(context.Background())
	require.Empty(t, d.Merchants())
	require.Equal(t, "", d.Selected())

	// the first successful fetch still auto-selects
	backend.listErr = nil
	_, err := d.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "m1", d.Selected())
}

func TestAutoSelectRespectsExistingSelection(t *testing.T) {
	t.Parallel()

	d := New(newFakeBackend("Acme", "Globex"), zerolog.Nop())
	d.Select("m2")
	d.Load(context.Background())
	require.Equal(t, "m2", d.Selected())
}

func TestCreateAccountScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := newFakeBackend()
	d := New(backend, zerolog.Nop())
	d.Load(ctx)

	m, err := d.AddMerchant(ctx, "  Acme ")
	require.NoError(t, err)
	require.Equal(t, "Acme", m.Name)
	require.Equal(t, m.ID, d.Selected())

	zero := decimal.Zero
	_, err = d.CreateAccount(ctx, domain.AccountInput{Name: "Checking", Type: domain.DebitNormal, Currency: "usd", InitialBalance: &zero})
	require.NoError(t, err)

	accts, err := d.Accounts(ctx)
	require.NoError(t, err)
	require.Len(t, accts, 1)
	require.Equal(t, "Checking", accts[0].Name)
	require.Equal(t, "USD", accts[0].Currency)
	require.Equal(t, "0", accts[0].PostedBalance.String())
	require.Equal(t, "0", accts[0].PendingBalance.String())
	require.Equal(t, "0", accts[0].AvailableBalance.String())
}

func TestAccountOpsRequireSelection(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := newFakeBackend()
	d := New(backend, zerolog.Nop())

	_, err := d.Accounts(ctx)
	require.ErrorIs(t, err, ErrNoMerchantSelected)
	_, err = d.CreateAccount(ctx, domain.AccountInput{Name: "x", Type: domain.DebitNormal, Currency: "USD"})
	require.ErrorIs(t, err, ErrNoMerchantSelected)
	require.ErrorIs(t, d.DeleteAccount(ctx, "a1"), ErrNoMerchantSelected)
	_, err = d.UpdateAccount(ctx, "", "a1", domain.AccountUpdate{Name: "y"})
	require.ErrorIs(t, err, ErrNoMerchantSelected)
	require.Zero(t, backend.callCount())
}

func TestValidationHappensBeforeNetwork(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := newFakeBackend()
	d := New(backend, zerolog.Nop())

	_, err := d.AddMerchant(ctx, "   ")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "Merchant name is required", verr.Message)

	d.Select("m1")
	_, err = d.CreateAccount(ctx, domain.AccountInput{Type: domain.DebitNormal, Currency: "USD"})
	require.ErrorAs(t, err, &verr)
	require.Zero(t, backend.callCount())
}

func TestUpdateAndDeleteMerchantPatchCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := newFakeBackend("Acme", "Globex")
	d := New(backend, zerolog.Nop())
	d.Load(ctx)
	before := backend.callCount()

	_, err := d.UpdateMerchant(ctx, "m2", domain.MerchantInput{Name: "Globex Corp"})
	require.NoError(t, err)
	m, ok := d.Merchant("m2")
	require.True(t, ok)
	require.Equal(t, "Globex Corp", m.Name)

	require.NoError(t, d.DeleteMerchant(ctx, "m1"))
	require.Len(t, d.Merchants(), 1)
	require.Equal(t, "", d.Selected())
	require.Equal(t, before+2, backend.callCount(), "no refetch on update/delete")
}

func TestWatchFiresOnChangeOnly(t *testing.T) {
	t.Parallel()

	d := New(newFakeBackend("Acme"), zerolog.Nop())
	var seen []string
	cancel := d.Watch(func(id string) { seen = append(seen, id) })

	d.Select("m1")
	d.Select("m1")
	d.Select("")
	cancel()
	d.Select("m1")
	require.Equal(t, []string{"m1", ""}, seen)
}

func TestSearchAndSuggest(t *testing.T) {
	t.Parallel()

	d := New(newFakeBackend("Acme Payments", "Globex", "Initech"), zerolog.Nop())
	d.Load(context.Background())

	require.Len(t, d.Search(""), 3)
	got := d.Search("GLO")
	require.Len(t, got, 1)
	require.Equal(t, "Globex", got[0].Name)
	require.Empty(t, d.Search("umbrella"))

	m, ok := d.Suggest("Initeck")
	require.True(t, ok)
	require.Equal(t, "Initech", m.Name)
	_, ok = d.Suggest("zzzzzzzzzzzz")
	require.False(t, ok)
}
