package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/view"
)

const merchantPageSize = 5

type merchantPage struct {
	state     *view.State
	cursor    int
	term      string
	loaded    bool
	editingID string
}

func newMerchantPage() merchantPage {
	return merchantPage{state: view.NewState(merchantPageSize, view.Sort{})}
}

// clamp keeps the page and cursor inside a list of n merchants.
func (p *merchantPage) clamp(n int) {
	p.state.SetPage(p.state.Query().Page, n)
	p.cursor = clampCursor(p.cursor, rowsOnPage(n, p.state.Query().Page, merchantPageSize))
}

func (a *App) filteredMerchants() []domain.Merchant {
	return a.services.Directory.Search(a.merchants.term)
}

func (a *App) merchantRows() view.Page[domain.Merchant] {
	return view.Paginate(a.filteredMerchants(), a.merchants.state.Query().Page, merchantPageSize)
}

func (a *App) cursorMerchant() (domain.Merchant, bool) {
	rows := a.merchantRows().Rows
	if a.merchants.cursor < 0 || a.merchants.cursor >= len(rows) {
		return domain.Merchant{}, false
	}
	return rows[a.merchants.cursor], true
}

func (a *App) updateMerchants(m tea.KeyMsg) tea.Cmd {
	p := &a.merchants
	total := len(a.filteredMerchants())
	switch {
	case key.Matches(m, a.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if p.cursor < len(a.merchantRows().Rows)-1 {
			p.cursor++
		}
	case key.Matches(m, a.keys.PrevPage):
		p.state.Prev(total)
		p.cursor = 0
	case key.Matches(m, a.keys.NextPage):
		p.state.Next(total)
		p.cursor = 0
	case key.Matches(m, a.keys.Enter):
		if mer, ok := a.cursorMerchant(); ok {
			a.services.Directory.Select(mer.ID)
		}
	case key.Matches(m, a.keys.Search):
		return a.openInput(modalSearch, p.term, "search by name or code")
	case key.Matches(m, a.keys.Add):
		return a.openInput(modalAddMerchant, "", "merchant name")
	case key.Matches(m, a.keys.Rename):
		if mer, ok := a.cursorMerchant(); ok {
			p.editingID = mer.ID
			return a.openInput(modalRenameMerchant, mer.Name, "merchant name")
		}
	case key.Matches(m, a.keys.Delete):
		if mer, ok := a.cursorMerchant(); ok {
			p.editingID = mer.ID
			a.modal = modalDeleteMerchant
		}
	case key.Matches(m, a.keys.Reload):
		return a.loadMerchants()
	}
	return nil
}

func (a *App) updateSearch(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "enter":
		a.closeModal()
		return nil
	case "esc":
		a.merchants.term = ""
		a.merchants.state.SetPage(1, 0)
		a.merchants.cursor = 0
		a.closeModal()
		return nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	if term := a.input.Value(); term != a.merchants.term {
		a.merchants.term = term
		a.merchants.state.SetPage(1, 0)
		a.merchants.cursor = 0
	}
	return cmd
}

func (a *App) updateMerchantForm(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "esc":
		a.closeModal()
		return nil
	case "enter":
		name := a.input.Value()
		if a.modal == modalRenameMerchant {
			return a.renameMerchant(a.merchants.editingID, name)
		}
		return a.createMerchant(name)
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	return cmd
}

func (a *App) createMerchant(name string) tea.Cmd {
	dir := a.services.Directory
	return func() tea.Msg {
		mer, err := dir.AddMerchant(a.ctx, name)
		if err != nil {
			return opFailedMsg{title: "Failed to create merchant", err: err}
		}
		return merchantSavedMsg{title: "Merchant created", merchant: mer}
	}
}

func (a *App) renameMerchant(id, name string) tea.Cmd {
	dir := a.services.Directory
	return func() tea.Msg {
		mer, err := dir.UpdateMerchant(a.ctx, id, domain.MerchantInput{Name: name})
		if err != nil {
			return opFailedMsg{title: "Failed to update merchant", err: err}
		}
		return merchantSavedMsg{title: "Merchant updated", merchant: mer}
	}
}

func (a *App) deleteMerchant() tea.Cmd {
	id := a.merchants.editingID
	dir := a.services.Directory
	return func() tea.Msg {
		if err := dir.DeleteMerchant(a.ctx, id); err != nil {
			return opFailedMsg{title: "Failed to delete merchant", err: err}
		}
		return merchantDeletedMsg{id: id}
	}
}

func (a *App) viewMerchants() string {
	var b strings.Builder
	dir := a.services.Directory
	if a.modal == modalSearch || a.merchants.term != "" {
		b.WriteString("Search: ")
		if a.modal == modalSearch {
			b.WriteString(a.input.View())
		} else {
			b.WriteString(a.merchants.term)
		}
		b.WriteString("\n\n")
	}

	page := a.merchantRows()
	cols := []column{{"", 1}, {"Name", 28}, {"Code", 10}, {"Status", 10}, {"Created", 22}}
	switch {
	case page.Total == 0 && a.merchants.term != "":
		b.WriteString(a.st.muted.Render("No merchants match."))
		if s, ok := dir.Suggest(a.merchants.term); ok {
			b.WriteString(a.st.muted.Render(fmt.Sprintf(" Did you mean %q?", s.Name)))
		}
	case page.Total == 0 && !a.merchants.loaded:
		b.WriteString(a.st.muted.Render("Loading merchants..."))
	case page.Total == 0:
		b.WriteString(a.st.muted.Render("No merchants yet. Press n to create one."))
	default:
		b.WriteString("  " + a.tableHeader(cols) + "\n")
		selected := dir.Selected()
		for i, mer := range page.Rows {
			mark := ""
			if mer.ID == selected {
				mark = "●"
			}
			row := tableRow(cols, mark, mer.Name, mer.Code, domain.StatusLabel(string(mer.Status)),
				domain.FormatTime(mer.CreatedAt, a.cfg.UI.DateFormat))
			b.WriteString(a.line(i == a.merchants.cursor, row) + "\n")
		}
		b.WriteString(a.pager(page.Number, page.Pages, page.Total))
	}

	switch a.modal {
	case modalAddMerchant:
		b.WriteString("\n\n" + a.st.header.Render("New merchant") + "\n" + a.input.View())
	case modalRenameMerchant:
		b.WriteString("\n\n" + a.st.header.Render("Rename merchant") + "\n" + a.input.View())
	case modalDeleteMerchant:
		name := a.merchants.editingID
		if mer, ok := dir.Merchant(name); ok {
			name = mer.Name
		}
		b.WriteString("\n\n" + a.st.warning.Render(fmt.Sprintf("Delete merchant %q? Its accounts and rules go with it.", name)))
	}
	if a.formErr != "" {
		b.WriteString("\n" + a.st.inlineErr.Render(a.formErr))
	}
	return a.fit(b.String())
}
