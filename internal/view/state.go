package view

// State holds the query of one table between renders. Changing any filter
// puts the table back on page 1.
type State struct {
	q Query
}

// NewState starts on page 1 with both filters at "all".
func NewState(pageSize int, sort Sort) *State {
	return &State{q: Query{Status: All, Secondary: All, Sort: sort, Page: 1, PageSize: pageSize}}
}

// Query returns a copy of the current query.
func (s *State) Query() Query { return s.q }

func (s *State) SetStatus(v string) {
	if v == "" {
		v = All
	}
	s.q.Status = v
	s.q.Page = 1
}

func (s *State) SetSecondary(v string) {
	if v == "" {
		v = All
	}
	s.q.Secondary = v
	s.q.Page = 1
}

func (s *State) SetExcludeArchived(v bool) {
	s.q.ExcludeArchived = v
	s.q.Page = 1
}

func (s *State) SetSort(column string, dir Direction) {
	s.q.Sort = Sort{Column: column, Direction: dir}
}

// ToggleSort flips the direction of the current column, or sorts a new column descending.
func (s *State) ToggleSort(column string) {
	if s.q.Sort.Column == column {
		s.q.Sort.Direction = s.q.Sort.Direction.Toggle()
		return
	}
	s.q.Sort = Sort{Column: column, Direction: Descending}
}

// SetPage moves to page n, clamped into [1, pages] for total rows.
func (s *State) SetPage(n, total int) {
	s.q.Page = clamp(n, 1, PageCount(total, s.q.PageSize))
}

func (s *State) Next(total int) { s.SetPage(s.q.Page+1, total) }
func (s *State) Prev(total int) { s.SetPage(s.q.Page-1, total) }

// Reset returns to page 1 with no filters.
func (s *State) Reset() {
	s.q.Status, s.q.Secondary, s.q.ExcludeArchived, s.q.Page = All, All, false, 1
}

// AfterRemove steps back one page when a deletion left the current page
// empty while an earlier page still has rows.
func (s *State) AfterRemove(remaining int) {
	if s.q.Page > 1 && (s.q.Page-1)*s.q.PageSize >= remaining {
		s.q.Page--
	}
}

// CycleChoice returns the value after cur in [All, choices...], wrapping around.
func CycleChoice(cur string, choices []string) string {
	all := append([]string{All}, choices...)
	for i, c := range all {
		if c == cur {
			return all[(i+1)%len(all)]
		}
	}
	return All
}
