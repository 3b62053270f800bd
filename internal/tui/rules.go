package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/recondesk/internal/domain"
)

type rulePage struct {
	cursor    int
	loaded    bool
	loadErr   bool
	one, two  string
	field     int // 0 account one, 1 account two
	editingID string
}

func (p *rulePage) reset() {
	*p = rulePage{}
}

func (p *rulePage) clamp(n int) {
	p.cursor = clampCursor(p.cursor, n)
}

func (a *App) loadRules() tea.Cmd {
	merchantID := a.merchantID
	if merchantID == "" {
		return nil
	}
	book := a.services.Rules
	return func() tea.Msg {
		_, err := book.Load(a.ctx, merchantID)
		if err != nil {
			a.log.Error().Err(err).Str("merchant_id", merchantID).Msg("load rules")
		}
		return rulesMsg{merchantID: merchantID, err: err}
	}
}

func (a *App) updateRules(m tea.KeyMsg) tea.Cmd {
	p := &a.rules
	rules := a.services.Rules.Rules()
	switch {
	case key.Matches(m, a.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if p.cursor < len(rules)-1 {
			p.cursor++
		}
	case key.Matches(m, a.keys.Add):
		a.modal = modalAddRule
		a.formErr = ""
		p.one, p.two, p.field = "", "", 0
	case key.Matches(m, a.keys.Delete):
		if p.cursor < len(rules) {
			p.editingID = rules[p.cursor].ID
			a.modal = modalDeleteRule
		}
	case key.Matches(m, a.keys.Reload):
		return tea.Batch(a.loadAccounts(), a.loadRules())
	}
	return nil
}

func (a *App) updateRuleForm(m tea.KeyMsg) tea.Cmd {
	p := &a.rules
	switch m.String() {
	case "esc":
		a.closeModal()
	case "enter":
		return a.createRule(p.one, p.two)
	case "tab", "down", "shift+tab", "up":
		p.field = 1 - p.field
	case "left", "h":
		p.cycle(a.accounts, -1)
		a.formErr = ""
	case "right", "l", " ":
		p.cycle(a.accounts, 1)
		a.formErr = ""
	}
	return nil
}

func (p *rulePage) cycle(accounts []domain.Account, delta int) {
	if p.field == 0 {
		p.one = cycleAccount(accounts, p.one, "", delta)
		return
	}
	p.two = cycleAccount(accounts, p.two, "", delta)
}

func (a *App) createRule(one, two string) tea.Cmd {
	merchantID := a.merchantID
	book := a.services.Rules
	return func() tea.Msg {
		rule, err := book.Create(a.ctx, merchantID, one, two)
		if err != nil {
			return opFailedMsg{title: "Failed to create rule", err: err}
		}
		return ruleSavedMsg{rule: rule}
	}
}

func (a *App) deleteRule() tea.Cmd {
	merchantID, id := a.merchantID, a.rules.editingID
	book := a.services.Rules
	return func() tea.Msg {
		if err := book.Delete(a.ctx, merchantID, id); err != nil {
			return opFailedMsg{title: "Failed to delete rule", err: err}
		}
		return ruleDeletedMsg{id: id}
	}
}

// ruleSide prefers the name embedded in the rule over the account cache.
func (a *App) ruleSide(d domain.AccountDetails, id string) string {
	if d.Name != "" {
		return d.Name
	}
	return a.accountName(id)
}

func (a *App) viewRules() string {
	if a.merchantID == "" {
		return a.st.muted.Render("Please select a merchant first")
	}
	var b strings.Builder
	rules := a.services.Rules.Rules()
	cols := []column{{"Account one", 24}, {"Account two", 24}, {"Created", 22}}
	switch {
	case a.rules.loadErr:
		b.WriteString(a.st.inlineErr.Render("Failed to load rules."))
	case !a.rules.loaded:
		b.WriteString(a.st.muted.Render("Loading rules..."))
	case len(rules) == 0:
		b.WriteString(a.st.muted.Render("No rules yet. Press n to map two accounts."))
	default:
		b.WriteString("  " + a.tableHeader(cols) + "\n")
		for i, r := range rules {
			row := tableRow(cols,
				a.ruleSide(r.AccountOne, r.AccountOneID),
				a.ruleSide(r.AccountTwo, r.AccountTwoID),
				domain.FormatTime(r.CreatedAt, a.cfg.UI.DateFormat))
			b.WriteString(a.line(i == a.rules.cursor, row) + "\n")
		}
	}

	switch a.modal {
	case modalAddRule:
		b.WriteString("\n\n" + a.st.header.Render("New rule") + "\n")
		for i, id := range []string{a.rules.one, a.rules.two} {
			label := fmt.Sprintf("Account %d", i+1)
			value := fmt.Sprintf("‹ %s ›", a.pickerLabel(id, "select account"))
			if a.rules.field == i {
				b.WriteString(a.st.header.Render(label) + "  " + value + "\n")
			} else {
				b.WriteString(a.st.muted.Render(label) + "  " + value + "\n")
			}
		}
		if len(a.accounts) < 2 {
			b.WriteString(a.st.muted.Render("Create at least two accounts first."))
		}
	case modalDeleteRule:
		b.WriteString("\n\n" + a.st.warning.Render("Delete this rule?"))
	}
	if a.formErr != "" {
		b.WriteString("\n" + a.st.inlineErr.Render(a.formErr))
	}
	return a.fit(b.String())
}
