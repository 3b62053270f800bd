package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/view"
)

const txPageSize = 10

type txPage struct {
	list     []domain.Transaction
	loaded   bool
	loadErr  bool
	page     int
	cursor   int
	expanded map[string]bool
}

func newTxPage() txPage {
	return txPage{page: 1, expanded: map[string]bool{}}
}

func (p *txPage) reset() {
	*p = newTxPage()
}

func (p *txPage) apply(m transactionsMsg) {
	p.loaded, p.loadErr = true, m.err != nil
	if m.err != nil {
		return
	}
	p.list = m.list
	p.page = view.Paginate(p.list, p.page, txPageSize).Number
	p.cursor = clampCursor(p.cursor, rowsOnPage(len(p.list), p.page, txPageSize))
}

func (p *txPage) rows() view.Page[domain.Transaction] {
	return view.Paginate(p.list, p.page, txPageSize)
}

func (a *App) loadTransactions() tea.Cmd {
	merchantID := a.merchantID
	if merchantID == "" {
		return nil
	}
	browser := a.services.Transactions
	return func() tea.Msg {
		list, err := browser.List(a.ctx, merchantID)
		if err != nil {
			a.log.Error().Err(err).Str("merchant_id", merchantID).Msg("load transactions")
		}
		return transactionsMsg{merchantID: merchantID, list: list, err: err}
	}
}

func (a *App) updateTransactions(m tea.KeyMsg) tea.Cmd {
	p := &a.txs
	page := p.rows()
	switch {
	case key.Matches(m, a.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(m, a.keys.Down):
		if p.cursor < len(page.Rows)-1 {
			p.cursor++
		}
	case key.Matches(m, a.keys.PrevPage):
		if p.page > 1 {
			p.page--
			p.cursor = 0
		}
	case key.Matches(m, a.keys.NextPage):
		if p.page < page.Pages {
			p.page++
			p.cursor = 0
		}
	case key.Matches(m, a.keys.Enter), m.String() == " ":
		if p.cursor < len(page.Rows) {
			id := page.Rows[p.cursor].LogicalTransactionID
			p.expanded[id] = !p.expanded[id]
		}
	case key.Matches(m, a.keys.Reload):
		return a.loadTransactions()
	}
	return nil
}

func (a *App) viewTransactions() string {
	if a.merchantID == "" {
		return a.st.muted.Render("Please select a merchant first")
	}
	p := &a.txs
	switch {
	case p.loadErr:
		return a.st.inlineErr.Render("Failed to load transactions.")
	case !p.loaded:
		return a.st.muted.Render("Loading transactions...")
	case len(p.list) == 0:
		return a.st.muted.Render("No transactions yet.")
	}

	var b strings.Builder
	page := p.rows()
	cols := []column{{"ID", 12}, {"From", 18}, {"To", 18}, {"Amount", 16}, {"Status", 10}, {"Version", 7}, {"Entries", 7}}
	b.WriteString("  " + a.tableHeader(cols) + "\n")
	for i, tx := range page.Rows {
		row := tableRow(cols, tx.ShortID(), tx.FromName(), tx.ToName(), money(tx.Amount, tx.Currency),
			domain.StatusLabel(tx.Status), fmt.Sprintf("v%d", tx.CurrentVersion), strconv.Itoa(len(tx.CurrentEntries())))
		b.WriteString(a.line(i == p.cursor, row) + "\n")
		if p.expanded[tx.LogicalTransactionID] {
			b.WriteString(a.viewVersions(tx))
		}
	}
	b.WriteString(a.pager(page.Number, page.Pages, page.Total))
	return a.fit(b.String())
}

// viewVersions lists every version, newest first, with its entries.
func (a *App) viewVersions(tx domain.Transaction) string {
	var b strings.Builder
	versions := tx.SortedVersions()
	if len(versions) == 0 {
		return "      " + a.st.muted.Render("no versions") + "\n"
	}
	entryCols := []column{{"Type", 6}, {"Account", 18}, {"Amount", 16}, {"Status", 10}, {"Effective", 12}}
	for _, v := range versions {
		b.WriteString(fmt.Sprintf("    %s  %s  %s\n",
			a.st.header.Render(fmt.Sprintf("v%d", v.Version)),
			domain.StatusLabel(v.Status),
			a.st.muted.Render(domain.FormatTime(v.CreatedAt, a.cfg.UI.DateFormat))))
		for _, e := range v.Entries {
			b.WriteString("      " + tableRow(entryCols, string(e.EntryType), a.accountName(e.AccountID),
				money(e.Amount, e.Currency), domain.StatusLabel(e.Status), e.EffectiveDate) + "\n")
		}
	}
	return b.String()
}
