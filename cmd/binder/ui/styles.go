// Package ui is the terminal card browser behind `binder browse`.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/aretw0/binder/pkg/catalog"
)

var (
	Accent  = lipgloss.Color("#F8D030")
	Muted   = lipgloss.Color("#6C757D")
	Danger  = lipgloss.Color("#E53935")
	Surface = lipgloss.Color("#1A2536")
)

// Styles groups the styles of the browser.
type Styles struct {
	Header   lipgloss.Style
	Cursor   lipgloss.Style
	Selected lipgloss.Style
	Dim      lipgloss.Style
	Footer   lipgloss.Style
	Error    lipgloss.Style
	Loading  lipgloss.Style
}

// DefaultStyles returns the default browser styles.
func DefaultStyles() Styles {
	return Styles{
		Header:   lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Cursor:   lipgloss.NewStyle().Bold(true).Foreground(Accent),
		Selected: lipgloss.NewStyle().Background(Surface),
		Dim:      lipgloss.NewStyle().Foreground(Muted),
		Footer:   lipgloss.NewStyle().Foreground(Muted).BorderTop(true).BorderStyle(lipgloss.NormalBorder()).BorderForeground(Muted),
		Error:    lipgloss.NewStyle().Foreground(Danger),
		Loading:  lipgloss.NewStyle().Italic(true).Foreground(Accent),
	}
}

// rarityStyle colours a card name by rarity tier.
func rarityStyle(rarity string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(catalog.RarityColor(rarity)))
}

// typeBadge renders an energy type in its colour. Unknown types are dimmed.
func typeBadge(t string) string {
	c := catalog.TypeColor(t)
	if c == "" {
		return lipgloss.NewStyle().Foreground(Muted).Render(t)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render(t)
}
