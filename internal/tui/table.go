package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"
)

type column struct {
	title string
	width int
}

// cell truncates s to w display cells and pads it back out to w.
func cell(s string, w int) string {
	s = ansi.Truncate(strings.ReplaceAll(s, "\n", " "), w, "…")
	if pad := w - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func tableRow(cols []column, values ...string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		parts[i] = cell(v, c.width)
	}
	return strings.Join(parts, "  ")
}

func (a *App) tableHeader(cols []column) string {
	titles := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
	}
	return a.st.header.Render(tableRow(cols, titles...))
}

// line renders one row with the cursor marker.
func (a *App) line(selected bool, text string) string {
	if selected {
		return a.st.cursor.Render("▶ " + text)
	}
	return "  " + text
}

func (a *App) pager(number, pages, total int) string {
	return a.st.muted.Render(fmt.Sprintf("Page %d of %d · %d total", number, pages, total))
}

func money(d decimal.Decimal, currency string) string {
	s := d.StringFixed(2)
	if currency == "" {
		return s
	}
	return s + " " + currency
}

// fit narrows text to the terminal width when it is known.
func (a *App) fit(text string) string {
	if a.width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = ansi.Truncate(l, a.width, "")
	}
	return strings.Join(lines, "\n")
}

// rowsOnPage is the number of rows page number shows out of n.
func rowsOnPage(n, number, size int) int {
	if size <= 0 {
		return n
	}
	return max(0, min(size, n-(number-1)*size))
}

func clampCursor(cursor, rows int) int {
	return max(0, min(cursor, rows-1))
}
