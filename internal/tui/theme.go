package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ---------------------------------------------------------------------------
// Named color themes. Each theme only swaps the primary color; the neutral
// palette below is shared.
// ---------------------------------------------------------------------------

type Theme struct {
	Name    string
	Primary lipgloss.Color
	Focus   lipgloss.Color
	Content lipgloss.Color // text drawn on a primary background
}

var Themes = []Theme{
	{Name: "blue", Primary: "#3b82f6", Focus: "#2563eb", Content: "#ffffff"},
	{Name: "red", Primary: "#ef4444", Focus: "#dc2626", Content: "#ffffff"},
	{Name: "pink", Primary: "#ec4899", Focus: "#db2777", Content: "#ffffff"},
	{Name: "yellow", Primary: "#eab308", Focus: "#ca8a04", Content: "#1f2937"},
	{Name: "orange", Primary: "#f97316", Focus: "#ea580c", Content: "#ffffff"},
	{Name: "violet", Primary: "#8b5cf6", Focus: "#7c3aed", Content: "#ffffff"},
	{Name: "purple", Primary: "#a855f7", Focus: "#9333ea", Content: "#ffffff"},
	{Name: "green", Primary: "#22c55e", Focus: "#16a34a", Content: "#ffffff"},
}

// ThemeByName falls back to the first theme for unknown names.
func ThemeByName(name string) Theme {
	for _, t := range Themes {
		if strings.EqualFold(t.Name, strings.TrimSpace(name)) {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after name, wrapping around.
func NextTheme(name string) Theme {
	for i, t := range Themes {
		if strings.EqualFold(t.Name, name) {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

const (
	colorText    lipgloss.Color = "#e5e7eb"
	colorMuted   lipgloss.Color = "#9ca3af"
	colorSubtle  lipgloss.Color = "#4b5563"
	colorSurface lipgloss.Color = "#1f2937"
	colorSuccess lipgloss.Color = "#22c55e"
	colorWarning lipgloss.Color = "#eab308"
	colorError   lipgloss.Color = "#ef4444"
	colorInfo    lipgloss.Color = "#38bdf8"
)

// styles is rebuilt whenever the theme changes.
type styles struct {
	title     lipgloss.Style
	stepDone  lipgloss.Style
	stepNow   lipgloss.Style
	stepNext  lipgloss.Style
	bar       lipgloss.Style
	header    lipgloss.Style
	cursor    lipgloss.Style
	muted     lipgloss.Style
	inlineErr lipgloss.Style
	pane      lipgloss.Style
	paneFocus lipgloss.Style
	helpKey   lipgloss.Style
	helpDesc  lipgloss.Style
	success   lipgloss.Style
	warning   lipgloss.Style
	failure   lipgloss.Style
	info      lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		stepDone:  lipgloss.NewStyle().Foreground(t.Primary),
		stepNow:   lipgloss.NewStyle().Bold(true).Foreground(t.Content).Background(t.Primary).Padding(0, 1),
		stepNext:  lipgloss.NewStyle().Foreground(colorMuted),
		bar:       lipgloss.NewStyle().Foreground(colorText).Background(colorSurface).Padding(0, 1),
		header:    lipgloss.NewStyle().Bold(true).Foreground(t.Focus),
		cursor:    lipgloss.NewStyle().Foreground(t.Content).Background(t.Focus),
		muted:     lipgloss.NewStyle().Foreground(colorMuted),
		inlineErr: lipgloss.NewStyle().Foreground(colorError),
		pane:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorSubtle).Padding(0, 1),
		paneFocus: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(t.Primary).Padding(0, 1),
		helpKey:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		helpDesc:  lipgloss.NewStyle().Foreground(colorMuted),
		success:   lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(colorWarning),
		failure:   lipgloss.NewStyle().Bold(true).Foreground(colorError),
		info:      lipgloss.NewStyle().Bold(true).Foreground(colorInfo),
	}
}
