package directory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jask/recondesk/internal/domain"
)

// ErrNoMerchantSelected is returned by account operations when no merchant is selected.
var ErrNoMerchantSelected = errors.New("no merchant selected")

// Backend is the slice of the API the directory needs. *api.Client satisfies it.
type Backend interface {
	ListMerchants(ctx context.Context) ([]domain.Merchant, error)
	CreateMerchant(ctx context.Context, in domain.MerchantInput) (domain.Merchant, error)
	UpdateMerchant(ctx context.Context, id string, in domain.MerchantInput) (domain.Merchant, error)
	DeleteMerchant(ctx context.Context, id string) error

	ListAccounts(ctx context.Context, merchantID string) ([]domain.Account, error)
	CreateAccount(ctx context.Context, merchantID string, in domain.AccountInput) (domain.Account, error)
	UpdateAccount(ctx context.Context, merchantID, accountID string, in domain.AccountUpdate) (domain.Account, error)
	DeleteAccount(ctx context.Context, merchantID, accountID string) error
}

// Directory is the shared merchant context: the cached merchant list, the
// selected merchant, and account operations scoped to that selection.
type Directory struct {
	backend Backend
	log     zerolog.Logger

	mu           sync.RWMutex
	merchants    []domain.Merchant
	selected     string
	autoSelected bool
	watchers     map[int]func(string)
	nextWatcher  int
}

func New(backend Backend, log zerolog.Logger) *Directory {
	return &Directory{
		backend:  backend,
		log:      log.With().Str("component", "directory").Logger(),
		watchers: map[int]func(string){},
	}
}

// -----------------------------------------------------------------------------
// Merchant list
// -----------------------------------------------------------------------------

// Load is the boot-time fetch. Failures are logged and leave the list empty.
func (d *Directory) Load(ctx context.Context) {
	if _, err := d.Refresh(ctx); err != nil {
		d.log.Error().Err(err).Msg("load merchants")
	}
}

// Refresh replaces the cached list with the server's.
func (d *Directory) Refresh(ctx context.Context) ([]domain.Merchant, error) {
	list, err := d.backend.ListMerchants(ctx)
	if err != nil {
		return nil, fmt.Errorf("list merchants: %w", err)
	}

	d.mu.Lock()
	d.merchants = append([]domain.Merchant(nil), list...)
	changed := d.autoSelectLocked()
	selected := d.selected
	out := d.copyLocked()
	d.mu.Unlock()

	if changed {
		d.notify(selected)
	}
	return out, nil
}

// autoSelectLocked runs once, after the first successful fetch, and only
// when nothing is selected yet.
func (d *Directory) autoSelectLocked() bool {
	if d.autoSelected {
		return false
	}
	d.autoSelected = true
	if d.selected != "" || len(d.merchants) == 0 {
		return false
	}
	d.selected = d.merchants[0].ID
	return true
}

func (d *Directory) copyLocked() []domain.Merchant {
	return append([]domain.Merchant(nil), d.merchants...)
}

func (d *Directory) Merchants() []domain.Merchant {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.copyLocked()
}

// Merchant returns the cached merchant with id.
func (d *Directory) Merchant(id string) (domain.Merchant, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, m := range d.merchants {
		if m.ID == id {
			return m, true
		}
	}
	return domain.Merchant{}, false
}

// CreateMerchant creates a merchant, appends it to the cache and selects it.
func (d *Directory) CreateMerchant(ctx context.Context, in domain.MerchantInput) (domain.Merchant, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.Merchant{}, err
	}
	m, err := d.backend.CreateMerchant(ctx, in)
	if err != nil {
		return domain.Merchant{}, fmt.Errorf("create merchant: %w", err)
	}

	d.mu.Lock()
	d.merchants = append(d.merchants, m)
	changed := d.selected != m.ID
	d.selected = m.ID
	d.mu.Unlock()

	if changed {
		d.notify(m.ID)
	}
	return m, nil
}

// AddMerchant is the name-only quick add.
func (d *Directory) AddMerchant(ctx context.Context, name string) (domain.Merchant, error) {
	return d.CreateMerchant(ctx, domain.MerchantInput{Name: name})
}

// UpdateMerchant patches the cached entry in place; the list is not refetched.
func (d *Directory) UpdateMerchant(ctx context.Context, id string, in domain.MerchantInput) (domain.Merchant, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.Merchant{}, err
	}
	m, err := d.backend.UpdateMerchant(ctx, id, in)
	if err != nil {
		return domain.Merchant{}, fmt.Errorf("update merchant: %w", err)
	}
	if m.ID == "" {
		m.ID = id
	}

	d.mu.Lock()
	for i := range d.merchants {
		if d.merchants[i].ID == id {
			d.merchants[i] = m
			break
		}
	}
	d.mu.Unlock()
	return m, nil
}

// DeleteMerchant removes the merchant from the server and the cache. Deleting
// the selected merchant clears the selection.
func (d *Directory) DeleteMerchant(ctx context.Context, id string) error {
	if err := d.backend.DeleteMerchant(ctx, id); err != nil {
		return fmt.Errorf("delete merchant: %w", err)
	}

	d.mu.Lock()
	kept := d.merchants[:0]
	for _, m := range d.merchants {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	d.merchants = kept
	changed := d.selected == id
	if changed {
		d.selected = ""
	}
	d.mu.Unlock()

	if changed {
		d.notify("")
	}
	return nil
}

// -----------------------------------------------------------------------------
// Selection
// -----------------------------------------------------------------------------

func (d *Directory) Selected() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.selected
}

// SelectedMerchant returns the selected merchant when it is in the cache.
func (d *Directory) SelectedMerchant() (domain.Merchant, bool) {
	id := d.Selected()
	if id == "" {
		return domain.Merchant{}, false
	}
	return d.Merchant(id)
}

// Select sets the selected merchant ("" clears it). It performs no I/O.
func (d *Directory) Select(id string) {
	d.mu.Lock()
	changed := d.selected != id
	d.selected = id
	d.mu.Unlock()

	if changed {
		d.notify(id)
	}
}

// Watch registers fn to run after each selection change. The returned func unregisters it.
func (d *Directory) Watch(fn func(merchantID string)) (cancel func()) {
	d.mu.Lock()
	id := d.nextWatcher
	d.nextWatcher++
	d.watchers[id] = fn
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		delete(d.watchers, id)
		d.mu.Unlock()
	}
}

func (d *Directory) notify(merchantID string) {
	d.mu.RLock()
	fns := make([]func(string), 0, len(d.watchers))
	for _, fn := range d.watchers {
		fns = append(fns, fn)
	}
	d.mu.RUnlock()

	for _, fn := range fns {
		fn(merchantID)
	}
}

// -----------------------------------------------------------------------------
// Accounts (scoped to the selected merchant)
// -----------------------------------------------------------------------------

func (d *Directory) requireSelected() (string, error) {
	id := d.Selected()
	if id == "" {
		return "", ErrNoMerchantSelected
	}
	return id, nil
}

func (d *Directory) Accounts(ctx context.Context) ([]domain.Account, error) {
	merchantID, err := d.requireSelected()
	if err != nil {
		return nil, err
	}
	accts, err := d.backend.ListAccounts(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accts, nil
}

func (d *Directory) CreateAccount(ctx context.Context, in domain.AccountInput) (domain.Account, error) {
	merchantID, err := d.requireSelected()
	if err != nil {
		return domain.Account{}, err
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return domain.Account{}, err
	}
	acct, err := d.backend.CreateAccount(ctx, merchantID, in)
	if err != nil {
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}
	return acct, nil
}

func (d *Directory) DeleteAccount(ctx context.Context, accountID string) error {
	merchantID, err := d.requireSelected()
	if err != nil {
		return err
	}
	if err := d.backend.DeleteAccount(ctx, merchantID, accountID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}

// UpdateAccount takes the merchant explicitly so a rename can target an
// account listed before the selection changed.
func (d *Directory) UpdateAccount(ctx context.Context, merchantID, accountID string, in domain.AccountUpdate) (domain.Account, error) {
	if merchantID == "" {
		return domain.Account{}, ErrNoMerchantSelected
	}
	if err := in.Validate(); err != nil {
		return domain.Account{}, err
	}
	acct, err := d.backend.UpdateAccount(ctx, merchantID, accountID, in)
	if err != nil {
		return domain.Account{}, fmt.Errorf("update account: %w", err)
	}
	return acct, nil
}
