package view

import (
	"cmp"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jask/recondesk/internal/domain"
)

// All is the filter value that imposes no constraint.
const All = "all"

// Kind selects how a column compares.
type Kind int

const (
	Text Kind = iota
	Date
	Numeric
)

// Direction of a sort.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

func (d Direction) Toggle() Direction {
	if d == Descending {
		return Ascending
	}
	return Descending
}

// Column extracts a sortable value from a row. ok is false when the row has no value.
type Column[T any] struct {
	Kind  Kind
	Value func(T) (string, bool)
}

// Spec describes how rows of type T are filtered and sorted.
type Spec[T any] struct {
	Status    func(T) string
	Secondary func(T) string // nil when the table has no secondary filter
	Columns   map[string]Column[T]
	Archived  func(T) bool // nil when rows cannot be archived
}

type Sort struct {
	Column    string
	Direction Direction
}

// Query is the full view state of one table.
type Query struct {
	Status          string
	Secondary       string
	ExcludeArchived bool
	Sort            Sort
	Page            int
	PageSize        int
}

// Page is the rendered slice of rows.
type Page[T any] struct {
	Rows   []T
	Number int
	Pages  int
	Total  int
}

func isAll(v string) bool { return v == "" || strings.EqualFold(v, All) }

// Filter applies the status, secondary and archived filters. With no
// constraint in effect it returns rows itself.
func Filter[T any](rows []T, q Query, spec Spec[T]) []T {
	status := !isAll(q.Status) && spec.Status != nil
	secondary := !isAll(q.Secondary) && spec.Secondary != nil
	// an explicit ARCHIVED secondary filter wins over the exclude toggle
	archived := q.ExcludeArchived && spec.Archived != nil && !strings.EqualFold(q.Secondary, domain.StatusArchived)
	if !status && !secondary && !archived {
		return rows
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		if status && spec.Status(r) != q.Status {
			continue
		}
		if secondary && spec.Secondary(r) != q.Secondary {
			continue
		}
		if archived && spec.Archived(r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortRows returns a stably sorted copy of rows. Rows missing a value sort
// first in ascending order.
func SortRows[T any](rows []T, s Sort, spec Spec[T]) []T {
	out := slices.Clone(rows)
	col, ok := spec.Columns[s.Column]
	if !ok || col.Value == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := compare(col, a, b)
		if s.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}

func compare[T any](col Column[T], a, b T) int {
	av, aok := col.Value(a)
	bv, bok := col.Value(b)
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return -1
	case !bok:
		return 1
	}

	switch col.Kind {
	case Date:
		at, aok := domain.ParseTime(av)
		bt, bok := domain.ParseTime(bv)
		if aok && bok {
			return at.Compare(bt)
		}
	case Numeric:
		ad, aerr := decimal.NewFromString(strings.TrimSpace(av))
		bd, berr := decimal.NewFromString(strings.TrimSpace(bv))
		if aerr == nil && berr == nil {
			return ad.Cmp(bd)
		}
	}
	return cmp.Compare(av, bv)
}

// PageCount is ceil(n/size), never less than 1.
func PageCount(n, size int) int {
	if size <= 0 || n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Paginate returns page number (clamped into range) of rows.
func Paginate[T any](rows []T, number, size int) Page[T] {
	pages := PageCount(len(rows), size)
	number = clamp(number, 1, pages)
	p := Page[T]{Number: number, Pages: pages, Total: len(rows)}
	if size <= 0 {
		p.Rows = rows
		return p
	}
	start := (number - 1) * size
	if start >= len(rows) {
		return p
	}
	end := min(start+size, len(rows))
	p.Rows = rows[start:end]
	return p
}

// Apply runs filter, sort and pagination in that order.
func Apply[T any](rows []T, q Query, spec Spec[T]) Page[T] {
	filtered := Filter(rows, q, spec)
	sorted := SortRows(filtered, q.Sort, spec)
	return Paginate(sorted, q.Page, q.PageSize)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
