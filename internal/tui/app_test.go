package tui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jask/recondesk/internal/config"
	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/service"
)

// fakeAPI is an in-memory reconciliation API.
type fakeAPI struct {
	mu          sync.Mutex
	merchants   []domain.Merchant
	accounts    map[string][]domain.Account
	rules       map[string][]domain.ReconRule
	nextID      int
	creates     int
	ruleCreates int
	uploads     int
	triggers    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		merchants: []domain.Merchant{
			{ID: "m1", Name: "Acme"},
			{ID: "m2", Name: "Beta"},
		},
		accounts: map[string][]domain.Account{
			"m1": {
				{ID: "a1", MerchantID: "m1", Name: "Bank", Type: domain.DebitNormal, Currency: "USD", PostedBalance: decimal.NewFromInt(10)},
				{ID: "a2", MerchantID: "m1", Name: "Stripe", Type: domain.CreditNormal, Currency: "USD"},
			},
		},
		rules: map[string][]domain.ReconRule{
			"m1": {{ID: "r1", AccountOneID: "a1", AccountTwoID: "a2"}},
		},
	}
}

func (f *fakeAPI) ListMerchants(context.Context) ([]domain.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Merchant(nil), f.merchants...), nil
}

func (f *fakeAPI) CreateMerchant(_ context.Context, in domain.MerchantInput) (domain.Merchant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	f.nextID++
	m := domain.Merchant{ID: fmt.Sprintf("new%d", f.nextID), Name: in.Name}
	f.merchants = append(f.merchants, m)
	return m, nil
}

func (f *fakeAPI) UpdateMerchant(_ context.Context, id string, in domain.MerchantInput) (domain.Merchant, error) {
	return domain.Merchant{ID: id, Name: in.Name}, nil
}

func (f *fakeAPI) DeleteMerchant(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.merchants[:0]
	for _, m := range f.merchants {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	f.merchants = kept
	return nil
}

func (f *fakeAPI) ListAccounts(_ context.Context, merchantID string) ([]domain.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Account(nil), f.accounts[merchantID]...), nil
}

func (f *fakeAPI) CreateAccount(_ context.Context, merchantID string, in domain.AccountInput) (domain.Account, error) {
	return domain.Account{ID: "a9", MerchantID: merchantID, Name: in.Name, Type: in.Type, Currency: in.Currency}, nil
}

func (f *fakeAPI) UpdateAccount(_ context.Context, merchantID, accountID string, in domain.AccountUpdate) (domain.Account, error) {
	return domain.Account{ID: accountID, MerchantID: merchantID, Name: in.Name}, nil
}

func (f *fakeAPI) DeleteAccount(context.Context, string, string) error { return nil }

func (f *fakeAPI) ListRules(_ context.Context, merchantID string) ([]domain.ReconRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ReconRule(nil), f.rules[merchantID]...), nil
}

func (f *fakeAPI) CreateRule(_ context.Context, _ string, in domain.RuleInput) (domain.ReconRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ruleCreates++
	return domain.ReconRule{ID: "r2", AccountOneID: in.AccountOneID, AccountTwoID: in.AccountTwoID}, nil
}

func (f *fakeAPI) DeleteRule(context.Context, string, string) error { return nil }

func (f *fakeAPI) ListStagingEntries(_ context.Context, accountID string) ([]domain.StagingEntry, error) {
	return []domain.StagingEntry{{ID: "s-" + accountID, AccountID: accountID, Status: domain.StagingPending}}, nil
}

func (f *fakeAPI) ListAccountEntries(_ context.Context, accountID string) ([]domain.AccountEntry, error) {
	return []domain.AccountEntry{{ID: "e-" + accountID, AccountID: accountID, Status: domain.StatusPosted}}, nil
}

func (f *fakeAPI) UploadFile(context.Context, string, domain.ProcessingMode, string, io.Reader) (domain.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	return domain.UploadResponse{SuccessfulIngestions: 1}, nil
}

func (f *fakeAPI) TriggerRecon(context.Context) (domain.TriggerResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
	return domain.TriggerResult{Processed: 3, Succeeded: 2, Failed: 1, Duration: 12}, nil
}

func (f *fakeAPI) ListTransactions(context.Context, string) ([]domain.Transaction, error) {
	return []domain.Transaction{{
		LogicalTransactionID: "ltx_1",
		CurrentVersion:       2,
		Versions:             []domain.TransactionVersion{{Version: 1}, {Version: 2}},
	}}, nil
}

func (f *fakeAPI) count(n *int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *n
}

func newTestApp(t *testing.T, f *fakeAPI) *App {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.Config{
		Poll: config.PollConfig{Interval: time.Hour},
		UI:   config.UIConfig{Theme: "blue", DateFormat: "2006-01-02"},
	}
	services := Services{
		Directory:    directory.New(f, zerolog.Nop()),
		Rules:        service.NewRuleBook(f),
		Uploader:     &service.Uploader{Backend: f, Log: zerolog.Nop()},
		Reconciler:   &service.Reconciler{Backend: f},
		Transactions: &service.TransactionBrowser{Backend: f},
		Entries:      f,
	}
	a := New(ctx, cfg, services, nil, zerolog.Nop())
	t.Cleanup(func() {
		cancel()
		a.Close()
	})
	return a
}

// runCmd executes cmd, giving up on commands that block (ticks, cursor blink).
func runCmd(cmd tea.Cmd, wait time.Duration) (tea.Msg, bool) {
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		return msg, true
	case <-time.After(wait):
		return nil, false
	}
}

// drain runs cmd and feeds the resulting messages back into the app.
func drain(a *App, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0 && steps < 100; steps++ {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := runCmd(c, 100*time.Millisecond)
		if !ok || msg == nil {
			continue
		}
		switch m := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, m...)
			continue
		case tea.QuitMsg:
			continue
		}
		_, next := a.Update(msg)
		queue = append(queue, next)
	}
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func press(a *App, keys ...string) tea.Cmd {
	var last tea.Cmd
	for _, k := range keys {
		_, cmd := a.Update(keyMsg(k))
		drain(a, cmd)
		last = cmd
	}
	return last
}

func typeText(a *App, text string) {
	for _, r := range text {
		press(a, string(r))
	}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	msg, ok := runCmd(cmd, 100*time.Millisecond)
	if !ok {
		return false
	}
	switch m := msg.(type) {
	case tea.QuitMsg:
		return true
	case tea.BatchMsg:
		for _, c := range m {
			if isQuit(c) {
				return true
			}
		}
	}
	return false
}

func boot(t *testing.T, f *fakeAPI) *App {
	t.Helper()
	a := newTestApp(t, f)
	drain(a, a.loadMerchants())
	if a.merchantID != "m1" {
		t.Fatalf("expected boot to select m1, got %q", a.merchantID)
	}
	return a
}

func TestBootSelectsFirstMerchantAndLoadsAccounts(t *testing.T) {
	a := boot(t, newFakeAPI())
	if len(a.accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(a.accounts))
	}
	if len(a.services.Rules.Rules()) != 1 {
		t.Fatalf("expected the rule cache to be loaded")
	}
	if len(a.txs.list) != 1 {
		t.Fatalf("expected transactions to be loaded, got %d", len(a.txs.list))
	}
}

func TestStepNavigationKeys(t *testing.T) {
	a := newTestApp(t, newFakeAPI())
	press(a, "tab")
	if a.wizard.Current() != int(stepAccounts) {
		t.Fatalf("tab: expected step %d, got %d", stepAccounts, a.wizard.Current())
	}
	press(a, "shift+tab", "shift+tab")
	if a.wizard.Current() != int(stepMerchants) {
		t.Fatalf("shift+tab should stop at the first step, got %d", a.wizard.Current())
	}
	press(a, "5")
	if a.wizard.Current() != int(stepRecon) {
		t.Fatalf("5: expected recon step, got %d", a.wizard.Current())
	}
}

func TestQuitOnlyWhenNoInputFocused(t *testing.T) {
	a := newTestApp(t, newFakeAPI())
	press(a, "n")
	if a.modal != modalAddMerchant {
		t.Fatalf("expected the add merchant form, got %q", a.modal)
	}
	if cmd := press(a, "q"); isQuit(cmd) {
		t.Fatal("q inside a text input must not quit")
	}
	if a.input.Value() != "q" {
		t.Fatalf("expected q to be typed, got %q", a.input.Value())
	}
	press(a, "esc")
	if cmd := press(a, "q"); !isQuit(cmd) {
		t.Fatal("q outside a text input should quit")
	}
}

func TestMerchantNameRequiredIsInline(t *testing.T) {
	f := newFakeAPI()
	a := newTestApp(t, f)
	press(a, "n", "enter")
	if a.formErr != "Merchant name is required" {
		t.Fatalf("unexpected inline error %q", a.formErr)
	}
	if a.modal != modalAddMerchant {
		t.Fatal("the form should stay open")
	}
	if f.count(&f.creates) != 0 {
		t.Fatal("no request should be sent for an empty name")
	}
}

func TestCreateMerchantSelectsIt(t *testing.T) {
	f := newFakeAPI()
	a := boot(t, f)
	press(a, "n")
	typeText(a, "Gamma")
	press(a, "enter")
	if a.modal != modalNone {
		t.Fatalf("expected the form to close, got %q", a.modal)
	}
	sel, ok := a.services.Directory.SelectedMerchant()
	if !ok || sel.Name != "Gamma" {
		t.Fatalf("expected Gamma to be selected, got %+v", sel)
	}
	if a.merchantID != sel.ID {
		t.Fatalf("merchant scoped data should follow the selection")
	}
	if a.toast == nil || a.toast.Title != "Merchant created" {
		t.Fatalf("expected a success toast, got %+v", a.toast)
	}
}

func TestDuplicateRuleIsInline(t *testing.T) {
	f := newFakeAPI()
	a := boot(t, f)
	press(a, "3", "n", "right", "down", "right", "right", "enter")
	if a.rules.one != "a1" || a.rules.two != "a2" {
		t.Fatalf("pickers: got %q / %q", a.rules.one, a.rules.two)
	}
	if a.formErr != "A rule for these accounts already exists" {
		t.Fatalf("unexpected inline error %q", a.formErr)
	}
	if f.count(&f.ruleCreates) != 0 {
		t.Fatal("duplicate check must not call the API")
	}
}

func TestUploadRejectsNonCSV(t *testing.T) {
	f := newFakeAPI()
	a := boot(t, f)
	press(a, "4", "f")
	typeText(a, "data.txt")
	press(a, "enter")
	if a.formErr != "Please upload a valid CSV file" {
		t.Fatalf("unexpected inline error %q", a.formErr)
	}
	press(a, "a", "u")
	if f.count(&f.uploads) != 0 {
		t.Fatal("a non-csv file must never be sent")
	}
}

func TestReconPanesExcludeEachOther(t *testing.T) {
	a := boot(t, newFakeAPI())
	press(a, "5", "a")
	if _, acct := a.recon.panes[0].sync.Selection(); acct != "a1" {
		t.Fatalf("pane 1: expected a1, got %q", acct)
	}
	press(a, "w", "a")
	if _, acct := a.recon.panes[1].sync.Selection(); acct != "a2" {
		t.Fatalf("pane 2 should skip the account of pane 1, got %q", acct)
	}
	press(a, "a")
	if _, acct := a.recon.panes[1].sync.Selection(); acct != "" {
		t.Fatalf("cycling past the last account should clear the pane, got %q", acct)
	}
}

func TestTriggerShowsSummary(t *testing.T) {
	f := newFakeAPI()
	a := boot(t, f)
	press(a, "5", "r")
	if f.count(&f.triggers) != 1 {
		t.Fatalf("expected one trigger call, got %d", f.count(&f.triggers))
	}
	if a.toast == nil || a.toast.Title != "Recon Engine Completed" {
		t.Fatalf("unexpected toast %+v", a.toast)
	}
	if a.toast.Detail != "Processed: 3, Succeeded: 2, Failed: 1, Duration: 12ms" {
		t.Fatalf("unexpected detail %q", a.toast.Detail)
	}
}

func TestDeletingSelectedMerchantStopsPanes(t *testing.T) {
	a := boot(t, newFakeAPI())
	press(a, "5", "a")
	if !a.recon.panes[0].sync.Active() {
		t.Fatal("pane 1 should be polling")
	}
	press(a, "1", "d", "y")
	if a.services.Directory.Selected() != "" {
		t.Fatalf("selection should be cleared, got %q", a.services.Directory.Selected())
	}
	if a.recon.panes[0].sync.Active() {
		t.Fatal("pane 1 should stop polling once its merchant is gone")
	}
	if a.merchantID != "" || a.accounts != nil {
		t.Fatal("merchant scoped data should be cleared")
	}
}

func TestTransactionExpandToggles(t *testing.T) {
	a := boot(t, newFakeAPI())
	press(a, "6", "enter")
	if !a.txs.expanded["ltx_1"] {
		t.Fatal("enter should expand the transaction")
	}
	press(a, "enter")
	if a.txs.expanded["ltx_1"] {
		t.Fatal("enter again should collapse it")
	}
}

func TestThemeCycleWraps(t *testing.T) {
	if got := NextTheme(Themes[len(Themes)-1].Name); got.Name != Themes[0].Name {
		t.Fatalf("expected wrap to %s, got %s", Themes[0].Name, got.Name)
	}
	if got := ThemeByName("nope"); got.Name != "blue" {
		t.Fatalf("unknown theme should fall back to blue, got %s", got.Name)
	}
	a := newTestApp(t, newFakeAPI())
	press(a, "ctrl+t")
	if a.theme.Name != "red" {
		t.Fatalf("ctrl+t should move to the next theme, got %s", a.theme.Name)
	}
}

func TestCycleAccountSkipsExcluded(t *testing.T) {
	accts := []domain.Account{{ID: "a1"}, {ID: "a2"}, {ID: "a3"}}
	cases := []struct {
		cur, exclude string
		delta        int
		want         string
	}{
		{"", "", 1, "a1"},
		{"", "a1", 1, "a2"},
		{"a3", "", 1, ""},
		{"", "", -1, "a3"},
		{"a2", "a3", 1, ""},
	}
	for _, tc := range cases {
		if got := cycleAccount(accts, tc.cur, tc.exclude, tc.delta); got != tc.want {
			t.Fatalf("cycleAccount(%q, exclude %q, %d) = %q, want %q", tc.cur, tc.exclude, tc.delta, got, tc.want)
		}
	}
}
