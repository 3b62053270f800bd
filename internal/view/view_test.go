package view

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jask/recondesk/internal/domain"
)

func entrySpec() Spec[domain.AccountEntry] {
	return Spec[domain.AccountEntry]{
		Status:    func(e domain.AccountEntry) string { return e.Status },
		Secondary: domain.AccountEntry.ReconStatus,
		Archived:  func(e domain.AccountEntry) bool { return e.ReconStatus() == domain.StatusArchived },
		Columns: map[string]Column[domain.AccountEntry]{
			"created_at": {Kind: Date, Value: func(e domain.AccountEntry) (string, bool) { return e.CreatedAt, e.CreatedAt != "" }},
			"amount":     {Kind: Numeric, Value: func(e domain.AccountEntry) (string, bool) { return e.Amount.String(), true }},
			"order_id":   {Kind: Text, Value: func(e domain.AccountEntry) (string, bool) { id := e.Metadata.OrderID(); return id, id != "" }},
		},
	}
}

func entry(id, status, recon, created string) domain.AccountEntry {
	e := domain.AccountEntry{ID: id, Status: status, CreatedAt: created}
	if recon != "" {
		e.Transaction = &domain.EntryTransaction{TransactionID: "t" + id, Status: recon}
	}
	return e
}

func sampleEntries() []domain.AccountEntry {
	return []domain.AccountEntry{
		entry("1", "POSTED", "POSTED", "2024-05-01T10:00:00Z"),
		entry("2", "EXPECTED", "MISMATCH", "2024-05-03T10:00:00Z"),
		entry("3", "POSTED", "ARCHIVED", "2024-05-02T10:00:00Z"),
		entry("4", "EXPECTED", "", ""),
		entry("5", "ARCHIVED", "ARCHIVED", "2024-04-30 09:00:00"),
	}
}

func ids(rows []domain.AccountEntry) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestPageCountNeverBelowOne(t *testing.T) {
	t.Parallel()

	cases := []struct{ n, size, want int }{
		{0, 5, 1}, {1, 5, 1}, {5, 5, 1}, {6, 5, 2}, {11, 10, 2}, {25, 5, 5},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, PageCount(tc.n, tc.size), fmt.Sprintf("%d/%d", tc.n, tc.size))
	}

	p := Apply([]domain.AccountEntry{}, Query{Status: "POSTED", Page: 3, PageSize: 5}, entrySpec())
	require.Equal(t, 1, p.Pages)
	require.Equal(t, 1, p.Number)
	require.Empty(t, p.Rows)
}

func TestFilterAllIsIdentity(t *testing.T) {
	t.Parallel()

	rows := sampleEntries()
	got := Filter(rows, Query{Status: All, Secondary: All}, entrySpec())
	require.Equal(t, len(rows), len(got))
	require.Same(t, &rows[0], &got[0])
}

func TestFilterByStatusAndRecon(t *testing.T) {
	t.Parallel()

	rows := sampleEntries()
	require.Equal(t, []string{"1", "3"}, ids(Filter(rows, Query{Status: "POSTED", Secondary: All}, entrySpec())))
	require.Equal(t, []string{"2"}, ids(Filter(rows, Query{Status: All, Secondary: "MISMATCH"}, entrySpec())))
	require.Equal(t, []string{"3"}, ids(Filter(rows, Query{Status: "POSTED", Secondary: "ARCHIVED"}, entrySpec())))
}

func TestExcludeArchived(t *testing.T) {
	t.Parallel()

	rows := sampleEntries()
	q := Query{Status: All, Secondary: All, ExcludeArchived: true}
	require.Equal(t, []string{"1", "2", "4"}, ids(Filter(rows, q, entrySpec())))

	q.Secondary = domain.StatusArchived
	require.Equal(t, []string{"3", "5"}, ids(Filter(rows, q, entrySpec())))
}

func TestSortByDateMissingFirst(t *testing.T) {
	t.Parallel()

	rows := sampleEntries()
	asc := SortRows(rows, Sort{Column: "created_at", Direction: Ascending}, entrySpec())
	require.Equal(t, []string{"4", "5", "1", "3", "2"}, ids(asc))

	desc := SortRows(rows, Sort{Column: "created_at", Direction: Descending}, entrySpec())
	require.Equal(t, []string{"2", "3", "1", "5", "4"}, ids(desc))
	require.Equal(t, "1", rows[0].ID, "input must stay untouched")
}

func TestReversingDirectionReversesOrder(t *testing.T) {
	t.Parallel()

	spec := Spec[string]{
		Columns: map[string]Column[string]{
			"amount": {Kind: Numeric, Value: func(s string) (string, bool) { return s, true }},
		},
	}
	rows := []string{"10", "9", "100", "-3", "2.5", "abc"}
	asc := SortRows(rows, Sort{Column: "amount", Direction: Ascending}, spec)
	desc := SortRows(rows, Sort{Column: "amount", Direction: Descending}, spec)
	reversed := slices.Clone(desc)
	slices.Reverse(reversed)
	require.Equal(t, asc, reversed)
	require.Equal(t, []string{"-3", "2.5", "9", "10", "100"}, slices.DeleteFunc(slices.Clone(asc), func(s string) bool { return s == "abc" }))
}

func TestPaginateClamps(t *testing.T) {
	t.Parallel()

	rows := make([]int, 12)
	for i := range rows {
		rows[i] = i
	}
	p := Paginate(rows, 3, 5)
	require.Equal(t, []int{10, 11}, p.Rows)
	require.Equal(t, 3, p.Pages)

	p = Paginate(rows, 9, 5)
	require.Equal(t, 3, p.Number)
	p = Paginate(rows, 0, 5)
	require.Equal(t, 1, p.Number)
	require.Equal(t, []int{0, 1, 2, 3, 4}, p.Rows)
}

func TestStateFilterResetsPage(t *testing.T) {
	t.Parallel()

	s := NewState(5, Sort{Column: "created_at", Direction: Descending})
	s.SetPage(3, 20)
	require.Equal(t, 3, s.Query().Page)
	s.SetStatus("POSTED")
	require.Equal(t, 1, s.Query().Page)

	s.SetPage(2, 20)
	s.SetSecondary("")
	require.Equal(t, All, s.Query().Secondary)
	require.Equal(t, 1, s.Query().Page)

	s.SetPage(4, 20)
	s.SetExcludeArchived(true)
	require.Equal(t, 1, s.Query().Page)

	s.SetPage(99, 12)
	require.Equal(t, 3, s.Query().Page)
}

func TestAfterRemoveStepsBack(t *testing.T) {
	t.Parallel()

	s := NewState(5, Sort{})
	s.SetPage(2, 6)
	s.AfterRemove(5) // deleted the only row on page 2
	require.Equal(t, 1, s.Query().Page)

	s.SetPage(2, 7)
	s.AfterRemove(6)
	require.Equal(t, 2, s.Query().Page)

	s.SetPage(1, 1)
	s.AfterRemove(0)
	require.Equal(t, 1, s.Query().Page)
}

func TestToggleSortAndCycle(t *testing.T) {
	t.Parallel()

	s := NewState(5, Sort{Column: "created_at", Direction: Descending})
	s.ToggleSort("created_at")
	require.Equal(t, Ascending, s.Query().Sort.Direction)
	s.ToggleSort("amount")
	require.Equal(t, Sort{Column: "amount", Direction: Descending}, s.Query().Sort)

	require.Equal(t, "EXPECTED", CycleChoice(All, domain.EntryStatuses))
	require.Equal(t, All, CycleChoice("ARCHIVED", domain.EntryStatuses))
}
