package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/poller"
	"github.com/jask/recondesk/internal/view"
)

const entryPageSize = 5

type entryTab int

const (
	tabStaging entryTab = iota
	tabLedger
)

var (
	stagingSortColumns = []string{"created_at", "effective_date", "amount", "status"}
	ledgerSortColumns  = []string{"created_at", "effective_date", "amount", "status", "order_id"}
)

func stagingSpec() view.Spec[domain.StagingEntry] {
	return view.Spec[domain.StagingEntry]{
		Status: func(e domain.StagingEntry) string { return e.Status },
		Columns: map[string]view.Column[domain.StagingEntry]{
			"created_at":     {Kind: view.Date, Value: func(e domain.StagingEntry) (string, bool) { return e.CreatedAt, e.CreatedAt != "" }},
			"effective_date": {Kind: view.Date, Value: func(e domain.StagingEntry) (string, bool) { return e.EffectiveDate, e.EffectiveDate != "" }},
			"amount":         {Kind: view.Numeric, Value: func(e domain.StagingEntry) (string, bool) { return e.Amount.String(), true }},
			"status":         {Kind: view.Text, Value: func(e domain.StagingEntry) (string, bool) { return e.Status, e.Status != "" }},
		},
	}
}

func ledgerSpec() view.Spec[domain.AccountEntry] {
	return view.Spec[domain.AccountEntry]{
		Status:    func(e domain.AccountEntry) string { return e.Status },
		Secondary: domain.AccountEntry.ReconStatus,
		Archived:  func(e domain.AccountEntry) bool { return e.ReconStatus() == domain.StatusArchived },
		Columns: map[string]view.Column[domain.AccountEntry]{
			"created_at":     {Kind: view.Date, Value: func(e domain.AccountEntry) (string, bool) { return e.CreatedAt, e.CreatedAt != "" }},
			"effective_date": {Kind: view.Date, Value: func(e domain.AccountEntry) (string, bool) { return e.EffectiveDate, e.EffectiveDate != "" }},
			"amount":         {Kind: view.Numeric, Value: func(e domain.AccountEntry) (string, bool) { return e.Amount.String(), true }},
			"status":         {Kind: view.Text, Value: func(e domain.AccountEntry) (string, bool) { return e.Status, e.Status != "" }},
			"order_id": {Kind: view.Text, Value: func(e domain.AccountEntry) (string, bool) {
				id := e.Metadata.OrderID()
				return id, id != ""
			}},
		},
	}
}

// reconPane shows one account's staging and ledger entries, kept fresh by
// its own synchronizer.
type reconPane struct {
	sync    *poller.Synchronizer
	tab     entryTab
	staging *view.State
	ledger  *view.State
}

func newReconPane(s *poller.Synchronizer) *reconPane {
	defaultSort := view.Sort{Column: "created_at", Direction: view.Descending}
	return &reconPane{
		sync:    s,
		staging: view.NewState(entryPageSize, defaultSort),
		ledger:  view.NewState(entryPageSize, defaultSort),
	}
}

func (p *reconPane) state() *view.State {
	if p.tab == tabLedger {
		return p.ledger
	}
	return p.staging
}

// rows counts the filtered rows of the active tab.
func (p *reconPane) rows(snap poller.Snapshot) int {
	if p.tab == tabLedger {
		return len(view.Filter(snap.Entries, p.ledger.Query(), ledgerSpec()))
	}
	return len(view.Filter(snap.Staging, p.staging.Query(), stagingSpec()))
}

func (p *reconPane) resetView() {
	p.staging.Reset()
	p.ledger.Reset()
}

type reconPage struct {
	panes      [2]*reconPane
	focus      int
	triggering bool
	last       *domain.TriggerResult
}

func (a *App) refreshPane(p *reconPane) tea.Cmd {
	return func() tea.Msg {
		p.sync.Refresh(a.ctx)
		return nil
	}
}

func (a *App) triggerRecon() tea.Cmd {
	merchantID := a.merchantID
	rec := a.services.Reconciler
	a.recon.triggering = true
	return func() tea.Msg {
		res, err := rec.Trigger(a.ctx, merchantID)
		return triggerMsg{result: res, err: err}
	}
}

func (a *App) updateRecon(m tea.KeyMsg) tea.Cmd {
	r := &a.recon
	p := r.panes[r.focus]
	other := r.panes[1-r.focus]
	snap := p.sync.Snapshot()
	switch {
	case m.String() == "w":
		r.focus = 1 - r.focus
	case m.String() == "a", m.String() == "A":
		if a.merchantID == "" {
			return nil
		}
		delta := 1
		if m.String() == "A" {
			delta = -1
		}
		_, exclude := other.sync.Selection()
		next := cycleAccount(a.accounts, snap.AccountID, exclude, delta)
		p.resetView()
		p.sync.Select(a.merchantID, next)
	case m.String() == "s":
		if p.tab == tabStaging {
			p.tab = tabLedger
		} else {
			p.tab = tabStaging
		}
	case m.String() == "f":
		q := p.state().Query()
		choices := domain.StagingStatuses
		if p.tab == tabLedger {
			choices = domain.EntryStatuses
		}
		p.state().SetStatus(view.CycleChoice(q.Status, choices))
	case m.String() == "g":
		if p.tab == tabLedger {
			p.ledger.SetSecondary(view.CycleChoice(p.ledger.Query().Secondary, domain.ReconStatuses))
		}
	case m.String() == "x":
		if p.tab == tabLedger {
			p.ledger.SetExcludeArchived(!p.ledger.Query().ExcludeArchived)
		}
	case m.String() == "o":
		columns := stagingSortColumns
		if p.tab == tabLedger {
			columns = ledgerSortColumns
		}
		cur := p.state().Query().Sort
		p.state().SetSort(nextColumn(columns, cur.Column), cur.Direction)
	case m.String() == "v":
		p.state().ToggleSort(p.state().Query().Sort.Column)
	case key.Matches(m, a.keys.PrevPage):
		p.state().Prev(p.rows(snap))
	case key.Matches(m, a.keys.NextPage):
		p.state().Next(p.rows(snap))
	case m.String() == "r":
		if r.triggering {
			return nil
		}
		return a.triggerRecon()
	case key.Matches(m, a.keys.Reload):
		return tea.Batch(a.loadAccounts(), a.refreshPane(r.panes[0]), a.refreshPane(r.panes[1]))
	}
	return nil
}

func nextColumn(columns []string, cur string) string {
	for i, c := range columns {
		if c == cur {
			return columns[(i+1)%len(columns)]
		}
	}
	return columns[0]
}

func (a *App) viewRecon() string {
	if a.merchantID == "" {
		return a.st.muted.Render("Please select a merchant first")
	}
	r := &a.recon
	paneWidth := 0
	if a.width > 0 {
		paneWidth = max(40, a.width/2-4)
	}
	views := make([]string, len(r.panes))
	for i, p := range r.panes {
		style := a.st.pane
		if i == r.focus {
			style = a.st.paneFocus
		}
		if paneWidth > 0 {
			style = style.Width(paneWidth)
		}
		views[i] = style.Render(a.viewPane(i, p))
	}
	out := lipgloss.JoinHorizontal(lipgloss.Top, views...)

	status := ""
	switch {
	case r.triggering:
		status = a.st.info.Render("Recon engine running...")
	case r.last != nil:
		status = a.st.muted.Render(fmt.Sprintf("Last run: processed %d, succeeded %d, failed %d in %dms",
			r.last.Processed, r.last.Succeeded, r.last.Failed, r.last.Duration))
	}
	if status != "" {
		out += "\n" + status
	}
	return out
}

func (a *App) viewPane(i int, p *reconPane) string {
	snap := p.sync.Snapshot()
	var b strings.Builder
	b.WriteString(a.st.header.Render(fmt.Sprintf("Account %d", i+1)) + "  ")
	b.WriteString(fmt.Sprintf("‹ %s ›\n", a.pickerLabel(snap.AccountID, "select account")))
	if snap.AccountID == "" {
		b.WriteString(a.st.muted.Render("Press a to pick an account."))
		return b.String()
	}

	tabs := []string{"Staging", "Ledger"}
	tabs[p.tab] = a.st.stepNow.Render(tabs[p.tab])
	b.WriteString(strings.Join(tabs, " ") + "\n")

	q := p.state().Query()
	filters := fmt.Sprintf("status: %s  sort: %s %s", q.Status, q.Sort.Column, q.Sort.Direction)
	if p.tab == tabLedger {
		filters = fmt.Sprintf("status: %s  recon: %s  exclude archived: %t  sort: %s %s",
			q.Status, q.Secondary, q.ExcludeArchived, q.Sort.Column, q.Sort.Direction)
	}
	b.WriteString(a.st.muted.Render(filters) + "\n")

	if p.tab == tabLedger {
		b.WriteString(a.viewLedger(snap, q))
	} else {
		b.WriteString(a.viewStaging(snap, q))
	}
	return b.String()
}

func (a *App) viewStaging(snap poller.Snapshot, q view.Query) string {
	if !snap.StagingLoaded {
		return a.st.muted.Render("Loading...")
	}
	page := view.Apply(snap.Staging, q, stagingSpec())
	if page.Total == 0 {
		return a.st.muted.Render("No staging entries.")
	}
	cols := []column{{"Type", 6}, {"Amount", 14}, {"Status", 14}, {"Effective", 12}, {"Created", 20}}
	var b strings.Builder
	b.WriteString(a.tableHeader(cols) + "\n")
	for _, e := range page.Rows {
		b.WriteString(tableRow(cols, string(e.EntryType), money(e.Amount, e.Currency), domain.StatusLabel(e.Status),
			e.EffectiveDate, domain.FormatTime(e.CreatedAt, a.cfg.UI.DateFormat)) + "\n")
	}
	b.WriteString(a.pager(page.Number, page.Pages, page.Total))
	return b.String()
}

func (a *App) viewLedger(snap poller.Snapshot, q view.Query) string {
	if !snap.EntriesLoaded {
		return a.st.muted.Render("Loading...")
	}
	page := view.Apply(snap.Entries, q, ledgerSpec())
	if page.Total == 0 {
		return a.st.muted.Render("No entries.")
	}
	cols := []column{{"Type", 6}, {"Amount", 14}, {"Status", 10}, {"Recon", 10}, {"Order", 12}, {"Created", 20}}
	var b strings.Builder
	b.WriteString(a.tableHeader(cols) + "\n")
	for _, e := range page.Rows {
		b.WriteString(tableRow(cols, string(e.EntryType), money(e.Amount, e.Currency), domain.StatusLabel(e.Status),
			domain.StatusLabel(e.ReconStatus()), e.Metadata.OrderID(),
			domain.FormatTime(e.CreatedAt, a.cfg.UI.DateFormat)) + "\n")
	}
	b.WriteString(a.pager(page.Number, page.Pages, page.Total))
	return b.String()
}
