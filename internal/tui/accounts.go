package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/view"
)

const accountPageSize = 5

// account form fields, in focus order
const (
	fieldName = iota
	fieldType
	fieldCurrency
	fieldBalance
	fieldCount
)

type accountPage struct {
	state     *view.State
	cursor    int
	editingID string

	field    int
	kind     domain.AccountType
	name     textinput.Model
	currency textinput.Model
	balance  textinput.Model
}

func newAccountPage() accountPage {
	return accountPage{state: view.NewState(accountPageSize, view.Sort{})}
}

func (p *accountPage) reset() {
	p.state.SetPage(1, 0)
	p.cursor = 0
	p.editingID = ""
}

func (p *accountPage) clamp(n int) {
	p.state.SetPage(p.state.Query().Page, n)
	p.cursor = clampCursor(p.cursor, rowsOnPage(n, p.state.Query().Page, accountPageSize))
}

// focus moves form focus to field; the polarity field has no text input.
func (p *accountPage) focus(field int) tea.Cmd {
	p.field = (field + fieldCount) % fieldCount
	p.name.Blur()
	p.currency.Blur()
	p.balance.Blur()
	switch p.field {
	case fieldName:
		return p.name.Focus()
	case fieldCurrency:
		return p.currency.Focus()
	case fieldBalance:
		return p.balance.Focus()
	}
	return nil
}

func (a *App) accountRows() view.Page[domain.Account] {
	return view.Paginate(a.accounts, a.accountsPage.state.Query().Page, accountPageSize)
}

func (a *App) cursorAccount() (domain.Account, bool) {
	rows := a.accountRows().Rows
	if a.accountsPage.cursor < 0 || a.accountsPage.cursor >= len(rows) {
		return domain.Account{}, false
	}
	return rows[a.accountsPage.cursor], true
}

func (a *App) updateAccounts(m tea.KeyMsg) tea.Cmd {
	p := &a.accountsPage
	switch {
	case key.Matches(m, a.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if p.cursor < len(a.accountRows().Rows)-1 {
			p.cursor++
		}
	case key.Matches(m, a.keys.PrevPage):
		p.state.Prev(len(a.accounts))
		p.cursor = 0
	case key.Matches(m, a.keys.NextPage):
		p.state.Next(len(a.accounts))
		p.cursor = 0
	case key.Matches(m, a.keys.Add):
		return a.openAccountForm()
	case key.Matches(m, a.keys.Rename):
		if acct, ok := a.cursorAccount(); ok {
			p.editingID = acct.ID
			return a.openInput(modalRenameAccount, acct.Name, "account name")
		}
	case key.Matches(m, a.keys.Delete):
		if acct, ok := a.cursorAccount(); ok {
			p.editingID = acct.ID
			a.modal = modalDeleteAccount
		}
	case key.Matches(m, a.keys.Reload):
		return a.loadAccounts()
	}
	return nil
}

func (a *App) openAccountForm() tea.Cmd {
	p := &a.accountsPage
	a.modal = modalAddAccount
	a.formErr = ""
	p.kind = domain.DebitNormal
	p.name = newInput("account name")
	p.currency = newInput("currency, e.g. USD")
	p.currency.CharLimit = 3
	p.balance = newInput("initial balance (optional)")
	return p.focus(fieldName)
}

func (a *App) updateAccountForm(m tea.KeyMsg) tea.Cmd {
	p := &a.accountsPage
	switch m.String() {
	case "esc":
		a.closeModal()
		return nil
	case "enter":
		return a.createAccount()
	case "tab", "down":
		return p.focus(p.field + 1)
	case "shift+tab", "up":
		return p.focus(p.field - 1)
	}
	if p.field == fieldType {
		switch m.String() {
		case " ", "left", "right", "h", "l":
			p.kind = p.kind.Toggle()
		}
		return nil
	}
	var cmd tea.Cmd
	switch p.field {
	case fieldName:
		p.name, cmd = p.name.Update(m)
	case fieldCurrency:
		p.currency, cmd = p.currency.Update(m)
	case fieldBalance:
		p.balance, cmd = p.balance.Update(m)
	}
	return cmd
}

func (a *App) updateAccountRename(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "esc":
		a.closeModal()
		return nil
	case "enter":
		return a.renameAccount(a.accountsPage.editingID, a.input.Value())
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	return cmd
}

// accountInput reads the form. A blank balance is left off the payload.
func (p *accountPage) accountInput() (domain.AccountInput, error) {
	in := domain.AccountInput{
		Name:     p.name.Value(),
		Type:     p.kind,
		Currency: p.currency.Value(),
	}
	if strings.TrimSpace(p.balance.Value()) != "" {
		bal, err := domain.ParseBalance(p.balance.Value())
		if err != nil {
			return in, err
		}
		in.InitialBalance = &bal
	}
	return in, nil
}

func (a *App) createAccount() tea.Cmd {
	in, err := a.accountsPage.accountInput()
	if err != nil {
		return func() tea.Msg { return opFailedMsg{title: "Failed to create account", err: err} }
	}
	dir := a.services.Directory
	return func() tea.Msg {
		acct, err := dir.CreateAccount(a.ctx, in)
		if err != nil {
			return opFailedMsg{title: "Failed to create account", err: err}
		}
		return accountSavedMsg{title: "Account created", account: acct}
	}
}

func (a *App) renameAccount(id, name string) tea.Cmd {
	merchantID := a.merchantID
	dir := a.services.Directory
	return func() tea.Msg {
		acct, err := dir.UpdateAccount(a.ctx, merchantID, id, domain.AccountUpdate{Name: name})
		if err != nil {
			return opFailedMsg{title: "Failed to update account", err: err}
		}
		return accountSavedMsg{title: "Account updated", account: acct}
	}
}

func (a *App) deleteAccount() tea.Cmd {
	id := a.accountsPage.editingID
	dir := a.services.Directory
	uploads := a.services.Uploads
	return func() tea.Msg {
		if err := dir.DeleteAccount(a.ctx, id); err != nil {
			return opFailedMsg{title: "Failed to delete account", err: err}
		}
		if uploads != nil {
			if _, err := uploads.DeleteForAccount(a.ctx, id); err != nil {
				a.log.Warn().Err(err).Str("account_id", id).Msg("drop upload history")
			}
		}
		return accountDeletedMsg{accountID: id}
	}
}

func (a *App) viewAccounts() string {
	if a.merchantID == "" {
		return a.st.muted.Render("Please select a merchant first")
	}
	var b strings.Builder
	page := a.accountRows()
	cols := []column{{"Name", 22}, {"Type", 6}, {"Posted", 16}, {"Pending", 16}, {"Available", 16}}
	switch {
	case a.accountsErr:
		b.WriteString(a.st.inlineErr.Render("Failed to load accounts."))
	case page.Total == 0:
		b.WriteString(a.st.muted.Render("No accounts yet. Press n to create one."))
	default:
		b.WriteString("  " + a.tableHeader(cols) + "\n")
		for i, acct := range page.Rows {
			row := tableRow(cols, acct.Name, acct.Type.Label(),
				money(acct.PostedBalance, acct.Currency),
				money(acct.PendingBalance, acct.Currency),
				money(acct.AvailableBalance, acct.Currency))
			b.WriteString(a.line(i == a.accountsPage.cursor, row) + "\n")
		}
		b.WriteString(a.pager(page.Number, page.Pages, page.Total))
	}

	switch a.modal {
	case modalAddAccount:
		b.WriteString("\n\n" + a.viewAccountForm())
	case modalRenameAccount:
		b.WriteString("\n\n" + a.st.header.Render("Rename account") + "\n" + a.input.View())
	case modalDeleteAccount:
		b.WriteString("\n\n" + a.st.warning.Render(fmt.Sprintf("Delete account %q?", a.accountName(a.accountsPage.editingID))))
	}
	if a.formErr != "" {
		b.WriteString("\n" + a.st.inlineErr.Render(a.formErr))
	}
	return a.fit(b.String())
}

func (a *App) viewAccountForm() string {
	p := &a.accountsPage
	label := func(field int, text string) string {
		if p.field == field {
			return a.st.header.Render(text)
		}
		return a.st.muted.Render(text)
	}
	kind := fmt.Sprintf("‹ %s ›", p.kind.Label())
	lines := []string{
		a.st.header.Render("New account"),
		label(fieldName, "Name") + "\n" + p.name.View(),
		label(fieldType, "Type") + "  " + kind,
		label(fieldCurrency, "Currency") + "\n" + p.currency.View(),
		label(fieldBalance, "Initial balance") + "\n" + p.balance.View(),
	}
	return strings.Join(lines, "\n")
}
