package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/jask/recondesk/internal/config"
	"github.com/jask/recondesk/internal/database/repository"
	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/poller"
	"github.com/jask/recondesk/internal/service"
	"github.com/jask/recondesk/internal/wizard"
)

const toastTTL = 4 * time.Second

// App is the wizard shell: step indicator, merchant bar, the active page,
// a toast line and the key help footer.
type App struct {
	ctx      context.Context
	cfg      config.Config
	services Services
	prefs    *repository.PreferenceRepo
	log      zerolog.Logger

	wizard *wizard.Controller
	keys   keyMap
	help   help.Model
	theme  Theme
	st     styles
	width  int
	height int

	modal   modalState
	input   textinput.Model
	formErr string

	// merchant the loaded accounts, rules and transactions belong to
	merchantID  string
	accounts    []domain.Account
	accountsErr bool

	toast        *service.Notice
	toastSeq     int
	toastPending bool

	merchants    merchantPage
	accountsPage accountPage
	rules        rulePage
	upload       uploadPage
	recon        reconPage
	txs          txPage

	unwatch func()
}

// Services are the collaborators the pages call into. Uploads and
// PollMetrics are optional.
type Services struct {
	Directory    *directory.Directory
	Rules        *service.RuleBook
	Uploader     *service.Uploader
	Reconciler   *service.Reconciler
	Transactions *service.TransactionBrowser
	Entries      poller.Fetcher
	Uploads      *repository.UploadRepo
	PollMetrics  *poller.Metrics
}

type step int

const (
	stepMerchants step = iota
	stepAccounts
	stepRules
	stepUpload
	stepRecon
	stepTransactions
)

type modalState string

const (
	modalNone           modalState = ""
	modalSearch         modalState = "search"
	modalAddMerchant    modalState = "addMerchant"
	modalRenameMerchant modalState = "renameMerchant"
	modalDeleteMerchant modalState = "deleteMerchant"
	modalAddAccount     modalState = "addAccount"
	modalRenameAccount  modalState = "renameAccount"
	modalDeleteAccount  modalState = "deleteAccount"
	modalAddRule        modalState = "addRule"
	modalDeleteRule     modalState = "deleteRule"
	modalUploadPath     modalState = "uploadPath"
)

// textModal reports whether the modal owns a focused text input.
func (m modalState) textModal() bool {
	switch m {
	case modalSearch, modalAddMerchant, modalRenameMerchant, modalAddAccount, modalRenameAccount, modalUploadPath:
		return true
	}
	return false
}

func New(ctx context.Context, cfg config.Config, services Services, prefs *repository.PreferenceRepo, log zerolog.Logger) *App {
	theme := ThemeByName(cfg.UI.Theme)
	a := &App{
		ctx:      ctx,
		cfg:      cfg,
		services: services,
		prefs:    prefs,
		log:      log.With().Str("component", "tui").Logger(),
		wizard:   wizard.New(),
		keys:     defaultKeys(),
		help:     help.New(),
		input:    newInput(""),
	}
	a.applyTheme(theme)
	a.syncStepKeys()

	a.merchants = newMerchantPage()
	a.accountsPage = newAccountPage()
	a.upload = newUploadPage()
	a.txs = newTxPage()
	for i := range a.recon.panes {
		a.recon.panes[i] = newReconPane(poller.New(services.Entries, poller.Options{
			Interval: cfg.Poll.Interval,
			Logger:   a.log.With().Int("pane", i+1).Logger(),
			Metrics:  services.PollMetrics,
		}))
	}
	panes := a.recon.panes
	a.unwatch = services.Directory.Watch(func(merchantID string) {
		for _, p := range panes {
			p.sync.FollowMerchant(merchantID)
		}
	})
	return a
}

// Close stops both entry pollers. Call it after the program exits.
func (a *App) Close() {
	if a.unwatch != nil {
		a.unwatch()
	}
	for _, p := range a.recon.panes {
		p.sync.Stop()
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadMerchants(),
		a.loadTheme(),
		a.waitForPoll(0),
		a.waitForPoll(1),
		textinput.Blink,
	)
}

func newInput(placeholder string) textinput.Model {
	in := textinput.New()
	in.Prompt = "> "
	in.Placeholder = placeholder
	in.CharLimit = 256
	return in
}

func (a *App) applyTheme(t Theme) {
	a.theme = t
	a.st = newStyles(t)
	a.help.Styles.ShortKey = a.st.helpKey
	a.help.Styles.ShortDesc = a.st.helpDesc
	a.help.Styles.ShortSeparator = a.st.muted
}

// openInput focuses the shared single-line input for a modal.
func (a *App) openInput(m modalState, value, placeholder string) tea.Cmd {
	a.modal = m
	a.formErr = ""
	a.input = newInput(placeholder)
	a.input.SetValue(value)
	a.input.CursorEnd()
	return a.input.Focus()
}

func (a *App) closeModal() {
	a.modal = modalNone
	a.formErr = ""
	a.input.Blur()
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		a.help.Width = m.Width
	case tea.KeyMsg:
		if m.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.modal != modalNone {
			cmds = append(cmds, a.updateModal(m))
			break
		}
		if cmd, handled := a.updateGlobal(m); handled {
			cmds = append(cmds, cmd)
			break
		}
		cmds = append(cmds, a.updatePage(m))
	case merchantsMsg:
		a.merchants.loaded = true
		a.merchants.clamp(len(a.filteredMerchants()))
	case merchantSavedMsg:
		a.closeModal()
		a.showToast(service.Notice{Level: service.Success, Title: m.title, Detail: m.merchant.Name})
	case merchantDeletedMsg:
		a.closeModal()
		a.merchants.state.AfterRemove(len(a.filteredMerchants()))
		a.merchants.clamp(len(a.filteredMerchants()))
		a.showToast(service.Notice{Level: service.Success, Title: "Merchant deleted"})
	case accountsMsg:
		if m.merchantID == a.merchantID {
			a.accounts, a.accountsErr = m.accounts, m.err != nil
			a.accountsPage.clamp(len(a.accounts))
			a.upload.syncAccount(a.accounts)
		}
	case accountSavedMsg:
		a.closeModal()
		a.showToast(service.Notice{Level: service.Success, Title: m.title, Detail: m.account.Name})
		cmds = append(cmds, a.loadAccounts())
	case accountDeletedMsg:
		a.closeModal()
		a.forgetAccount(m.accountID)
		a.showToast(service.Notice{Level: service.Success, Title: "Account deleted"})
		cmds = append(cmds, a.loadAccounts(), a.loadRules())
	case rulesMsg:
		if m.merchantID == a.merchantID {
			a.rules.loaded, a.rules.loadErr = true, m.err != nil
			a.rules.clamp(len(a.services.Rules.Rules()))
		}
	case ruleSavedMsg:
		a.closeModal()
		a.showToast(service.Notice{Level: service.Success, Title: "Rule created"})
	case ruleDeletedMsg:
		a.closeModal()
		a.rules.clamp(len(a.services.Rules.Rules()))
		a.showToast(service.Notice{Level: service.Success, Title: "Rule deleted"})
	case previewMsg:
		a.upload.applyPreview(m)
	case uploadDoneMsg:
		cmds = append(cmds, a.applyUpload(m), a.loadHistory())
	case historyMsg:
		if m.merchantID == a.merchantID {
			a.upload.history = m.uploads
		}
	case triggerMsg:
		a.recon.triggering = false
		if m.err == nil {
			a.recon.last = &m.result
		}
		a.showToast(service.TriggerNotice(m.result, m.err))
		for _, p := range a.recon.panes {
			cmds = append(cmds, a.refreshPane(p))
		}
	case transactionsMsg:
		if m.merchantID == a.merchantID {
			a.txs.apply(m)
		}
	case pollMsg:
		cmds = append(cmds, a.waitForPoll(m.pane))
	case themeMsg:
		a.applyTheme(ThemeByName(string(m)))
	case opFailedMsg:
		if service.IsInline(m.err) {
			a.formErr = service.InlineMessage(m.err)
		} else {
			a.showToast(service.FailureNotice(m.title, m.err))
		}
	case toastExpiredMsg:
		if int(m) == a.toastSeq {
			a.toast = nil
		}
	}
	if a.toast != nil && a.toastPending {
		a.toastPending = false
		seq := a.toastSeq
		cmds = append(cmds, tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpiredMsg(seq) }))
	}
	cmds = append(cmds, a.followMerchant())
	return a, tea.Batch(cmds...)
}

// updateGlobal handles keys that work on every page while no modal is open.
func (a *App) updateGlobal(m tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(m, a.keys.Quit):
		return tea.Quit, true
	case key.Matches(m, a.keys.NextStep):
		return a.enterStep(a.wizard.Next()), true
	case key.Matches(m, a.keys.PrevStep):
		return a.enterStep(a.wizard.Prev()), true
	case key.Matches(m, a.keys.Jump):
		n := int(m.String()[0] - '1')
		return a.enterStep(a.wizard.Jump(n)), true
	case key.Matches(m, a.keys.Theme):
		next := NextTheme(a.theme.Name)
		a.applyTheme(next)
		return a.saveTheme(next.Name), true
	}
	return nil, false
}

// enterStep refreshes the data a page shows when it becomes active.
// syncStepKeys hides next/prev step from the footer at either end.
func (a *App) syncStepKeys() {
	a.keys.NextStep.SetEnabled(a.wizard.CanNext())
	a.keys.PrevStep.SetEnabled(a.wizard.CanPrev())
}

func (a *App) enterStep(moved bool) tea.Cmd {
	if !moved {
		return nil
	}
	a.formErr = ""
	a.syncStepKeys()
	switch step(a.wizard.Current()) {
	case stepMerchants:
		return a.loadMerchants()
	case stepAccounts:
		return a.loadAccounts()
	case stepRules:
		return tea.Batch(a.loadAccounts(), a.loadRules())
	case stepUpload:
		return tea.Batch(a.loadAccounts(), a.loadHistory())
	case stepRecon:
		return a.loadAccounts()
	case stepTransactions:
		return a.loadTransactions()
	}
	return nil
}

func (a *App) updatePage(m tea.KeyMsg) tea.Cmd {
	switch step(a.wizard.Current()) {
	case stepMerchants:
		return a.updateMerchants(m)
	case stepAccounts:
		return a.updateAccounts(m)
	case stepRules:
		return a.updateRules(m)
	case stepUpload:
		return a.updateUpload(m)
	case stepRecon:
		return a.updateRecon(m)
	case stepTransactions:
		return a.updateTransactions(m)
	}
	return nil
}

func (a *App) updateModal(m tea.KeyMsg) tea.Cmd {
	switch a.modal {
	case modalSearch:
		return a.updateSearch(m)
	case modalAddMerchant, modalRenameMerchant:
		return a.updateMerchantForm(m)
	case modalDeleteMerchant:
		return a.confirm(m, a.deleteMerchant)
	case modalAddAccount:
		return a.updateAccountForm(m)
	case modalRenameAccount:
		return a.updateAccountRename(m)
	case modalDeleteAccount:
		return a.confirm(m, a.deleteAccount)
	case modalAddRule:
		return a.updateRuleForm(m)
	case modalDeleteRule:
		return a.confirm(m, a.deleteRule)
	case modalUploadPath:
		return a.updateUploadPath(m)
	}
	return nil
}

// confirm runs action on "y" and closes the modal on "n" or esc.
func (a *App) confirm(m tea.KeyMsg, action func() tea.Cmd) tea.Cmd {
	switch m.String() {
	case "y", "Y":
		return action()
	case "n", "N", "esc":
		a.closeModal()
	}
	return nil
}

// followMerchant reloads merchant scoped data after the selection changed.
func (a *App) followMerchant() tea.Cmd {
	selected := a.services.Directory.Selected()
	if selected == a.merchantID {
		return nil
	}
	a.merchantID = selected
	a.accounts, a.accountsErr = nil, false
	a.accountsPage.reset()
	a.rules.reset()
	a.upload.reset()
	a.txs.reset()
	a.recon.last = nil
	if selected == "" {
		a.services.Rules.Reset()
		return nil
	}
	return tea.Batch(a.loadAccounts(), a.loadRules(), a.loadHistory(), a.loadTransactions())
}

// forgetAccount drops a deleted account from every selection holding it.
func (a *App) forgetAccount(id string) {
	for _, p := range a.recon.panes {
		if _, acct := p.sync.Selection(); acct == id {
			p.sync.Select(a.merchantID, "")
		}
	}
	if a.upload.accountID == id {
		a.upload.accountID = ""
	}
}

func (a *App) showToast(n service.Notice) {
	a.toast = &n
	a.toastSeq++
	a.toastPending = true
}

func (a *App) accountName(id string) string {
	for _, acct := range a.accounts {
		if acct.ID == id {
			return acct.Name
		}
	}
	if id == "" {
		return "-"
	}
	return id
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func (a *App) View() string {
	var body string
	switch step(a.wizard.Current()) {
	case stepMerchants:
		body = a.viewMerchants()
	case stepAccounts:
		body = a.viewAccounts()
	case stepRules:
		body = a.viewRules()
	case stepUpload:
		body = a.viewUpload()
	case stepRecon:
		body = a.viewRecon()
	case stepTransactions:
		body = a.viewTransactions()
	}

	parts := []string{
		a.viewSteps(),
		a.viewMerchantBar(),
		a.st.title.Render(a.wizard.Title()),
		body,
	}
	if t := a.viewToast(); t != "" {
		parts = append(parts, t)
	}
	parts = append(parts, a.help.ShortHelpView(a.footerBindings()))
	return strings.Join(parts, "\n\n")
}

func (a *App) viewSteps() string {
	out := make([]string, 0, a.wizard.Len())
	for i := 0; i < a.wizard.Len(); i++ {
		label := fmt.Sprintf("%d %s", i+1, a.wizard.TitleAt(i))
		switch a.wizard.Status(i) {
		case wizard.Complete:
			out = append(out, a.st.stepDone.Render("✓ "+label))
		case wizard.Active:
			out = append(out, a.st.stepNow.Render(label))
		default:
			out = append(out, a.st.stepNext.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, strings.Join(out, a.st.muted.Render(" › ")))
}

func (a *App) viewMerchantBar() string {
	text := "No merchant selected"
	if m, ok := a.services.Directory.SelectedMerchant(); ok {
		text = "Merchant: " + m.Name
		if m.Code != "" {
			text += " (" + m.Code + ")"
		}
	}
	if a.width > 0 {
		return a.st.bar.Width(a.width).Render(text)
	}
	return a.st.bar.Render(text)
}

func (a *App) viewToast() string {
	if a.toast == nil {
		return ""
	}
	style := a.st.info
	switch a.toast.Level {
	case service.Success:
		style = a.st.success
	case service.Warning:
		style = a.st.warning
	case service.Failure:
		style = a.st.failure
	}
	out := style.Render(a.toast.Title)
	if a.toast.Detail != "" {
		out += "  " + a.toast.Detail
	}
	return out
}

func (a *App) footerBindings() []key.Binding {
	switch {
	case a.modal.textModal():
		return a.keys.formBindings()
	case a.modal != modalNone:
		return confirmBindings()
	}
	return append(a.pageBindings(), a.keys.globalBindings()...)
}

func (a *App) pageBindings() []key.Binding {
	switch step(a.wizard.Current()) {
	case stepMerchants:
		return []key.Binding{a.keys.Enter, a.keys.Search, a.keys.Add, a.keys.Rename, a.keys.Delete}
	case stepAccounts:
		return []key.Binding{a.keys.Add, a.keys.Rename, a.keys.Delete, a.keys.PrevPage, a.keys.NextPage}
	case stepRules:
		return []key.Binding{a.keys.Add, a.keys.Delete}
	case stepUpload:
		return []key.Binding{bind("a", "account"), bind("m", "mode"), bind("f", "file"), bind("u", "upload")}
	case stepRecon:
		return []key.Binding{bind("w", "pane"), bind("a", "account"), bind("s", "staging/ledger"), bind("f", "status"), bind("g", "recon"), bind("x", "archived"), bind("o", "sort"), bind("v", "direction"), bind("r", "run engine")}
	case stepTransactions:
		return []key.Binding{a.keys.Enter, a.keys.Reload}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Commands shared across pages
// ---------------------------------------------------------------------------

func (a *App) loadMerchants() tea.Cmd {
	dir := a.services.Directory
	return func() tea.Msg {
		list, err := dir.Refresh(a.ctx)
		if err != nil {
			a.log.Error().Err(err).Msg("load merchants")
		}
		return merchantsMsg(list)
	}
}

func (a *App) loadAccounts() tea.Cmd {
	merchantID := a.merchantID
	if merchantID == "" {
		return nil
	}
	dir := a.services.Directory
	return func() tea.Msg {
		list, err := dir.Accounts(a.ctx)
		if err != nil {
			a.log.Error().Err(err).Str("merchant_id", merchantID).Msg("load accounts")
		}
		return accountsMsg{merchantID: merchantID, accounts: list, err: err}
	}
}

func (a *App) loadTheme() tea.Cmd {
	if a.prefs == nil {
		return nil
	}
	return func() tea.Msg {
		name, ok, err := a.prefs.Get(a.ctx, repository.PrefTheme)
		if err != nil {
			a.log.Warn().Err(err).Msg("load theme preference")
			return nil
		}
		if !ok {
			return nil
		}
		return themeMsg(name)
	}
}

func (a *App) saveTheme(name string) tea.Cmd {
	if a.prefs == nil {
		return nil
	}
	return func() tea.Msg {
		if err := a.prefs.Set(a.ctx, repository.PrefTheme, name); err != nil {
			a.log.Warn().Err(err).Str("theme", name).Msg("save theme preference")
		}
		return nil
	}
}

// waitForPoll turns the pane's change signal into a message. It is re-armed
// after each pollMsg.
func (a *App) waitForPoll(pane int) tea.Cmd {
	changes := a.recon.panes[pane].sync.Changes()
	done := a.ctx.Done()
	return func() tea.Msg {
		select {
		case <-changes:
			return pollMsg{pane: pane}
		case <-done:
			return nil
		}
	}
}

// messages
type merchantsMsg []domain.Merchant

type merchantSavedMsg struct {
	title    string
	merchant domain.Merchant
}

type merchantDeletedMsg struct{ id string }

type accountsMsg struct {
	merchantID string
	accounts   []domain.Account
	err        error
}

type accountSavedMsg struct {
	title   string
	account domain.Account
}

type accountDeletedMsg struct{ accountID string }

type rulesMsg struct {
	merchantID string
	err        error
}

type ruleSavedMsg struct{ rule domain.ReconRule }

type ruleDeletedMsg struct{ id string }

type previewMsg struct {
	path    string
	preview service.CSVPreview
	err     error
}

type uploadDoneMsg struct {
	outcome service.UploadOutcome
	err     error
}

type historyMsg struct {
	merchantID string
	uploads    []repository.Upload
}

type triggerMsg struct {
	result domain.TriggerResult
	err    error
}

type transactionsMsg struct {
	merchantID string
	list       []domain.Transaction
	err        error
}

type pollMsg struct{ pane int }

type themeMsg string

// opFailedMsg is a failed mutation. Validation errors render inline, the
// rest become a toast; the form stays open either way.
type opFailedMsg struct {
	title string
	err   error
}

type toastExpiredMsg int
