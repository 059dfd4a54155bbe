// Package ui holds the shared terminal styles and small bubbletea widgets
// used by the REPL and the setup wizard.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/yolodolo42/mockchat/internal/render"
)

const (
	SymbolPrompt  = "❯"
	SymbolArrow   = "▸"
	SymbolCheck   = "✓"
	SymbolCross   = "✗"
	SymbolLike    = "▲"
	SymbolDislike = "▼"
)

// Palette is one colour scheme
type Palette struct {
	Primary   lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Dim       lipgloss.Color
	Accent    lipgloss.Color
	Highlight lipgloss.Color
	Text      lipgloss.Color
}

var (
	darkPalette = Palette{
		Primary:   lipgloss.Color("205"), // Pink/magenta
		Success:   lipgloss.Color("35"),  // Green
		Warning:   lipgloss.Color("214"), // Gold/yellow
		Error:     lipgloss.Color("196"), // Red
		Dim:       lipgloss.Color("241"), // Gray
		Accent:    lipgloss.Color("39"),  // Blue
		Highlight: lipgloss.Color("212"), // Light pink
		Text:      lipgloss.Color("252"),
	}
	lightPalette = Palette{
		Primary:   lipgloss.Color("162"),
		Success:   lipgloss.Color("28"),
		Warning:   lipgloss.Color("130"),
		Error:     lipgloss.Color("160"),
		Dim:       lipgloss.Color("245"),
		Accent:    lipgloss.Color("25"),
		Highlight: lipgloss.Color("127"),
		Text:      lipgloss.Color("235"),
	}
)

// Styles is the set of lipgloss styles for one theme
type Styles struct {
	Theme render.Theme

	Prompt    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Error     lipgloss.Style
	System    lipgloss.Style
	Title     lipgloss.Style
	Help      lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Box       lipgloss.Style

	SelectorCursor lipgloss.Style
	SelectorItem   lipgloss.Style
	SelectorDim    lipgloss.Style
	SelectorActive lipgloss.Style
}

// NewStyles builds the styles for theme.
func NewStyles(theme render.Theme) Styles {
	p := darkPalette
	if !theme.IsDark() {
		p = lightPalette
	}
	return Styles{
		Theme: theme,

		Prompt:    lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		User:      lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(p.Success),
		Error:     lipgloss.NewStyle().Foreground(p.Error),
		System:    lipgloss.NewStyle().Foreground(p.Dim),
		Title:     lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		Help:      lipgloss.NewStyle().Foreground(p.Dim),
		Success:   lipgloss.NewStyle().Foreground(p.Success),
		Warning:   lipgloss.NewStyle().Foreground(p.Warning),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Highlight).
			Padding(1, 2),

		SelectorCursor: lipgloss.NewStyle().Foreground(p.Accent).Bold(true),
		SelectorItem:   lipgloss.NewStyle().Foreground(p.Text),
		SelectorDim:    lipgloss.NewStyle().Foreground(p.Dim),
		SelectorActive: lipgloss.NewStyle().Foreground(p.Highlight).Bold(true),
	}
}
