package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
)

const labelWidth = 35

// SelectorItem represents an item in the selector
type SelectorItem struct {
	ID          string
	Label       string
	Description string
	Current     bool
}

// Selector is an interactive list selector
type Selector struct {
	title    string
	items    []SelectorItem
	cursor   int
	selected int
	active   bool
	width    int
	styles   Styles
}

// NewSelector creates a new selector
func NewSelector(title string, items []SelectorItem, styles Styles) Selector {
	// Start on the current item
	selected := 0
	for i, item := range items {
		if item.Current {
			selected = i
			break
		}
	}

	return Selector{
		title:    title,
		items:    items,
		cursor:   selected,
		selected: selected,
		active:   true,
		width:    80,
		styles:   styles,
	}
}

// SetWidth sets the selector width
func (s *Selector) SetWidth(w int) {
	s.width = w
}

// Active returns whether the selector is active
func (s *Selector) Active() bool {
	return s.active
}

// Selected returns the selected item ID, or empty if cancelled
func (s *Selector) Selected() string {
	if s.selected >= 0 && s.selected < len(s.items) {
		return s.items[s.selected].ID
	}
	return ""
}

// Cancelled returns whether the selector was cancelled
func (s *Selector) Cancelled() bool {
	return !s.active && s.selected == -1
}

// Update handles selector input
func (s *Selector) Update(msg tea.Msg) (*Selector, tea.Cmd) {
	if !s.active {
		return s, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.items)-1 {
				s.cursor++
			}
		case "home", "g":
			s.cursor = 0
		case "end", "G":
			if len(s.items) > 0 {
				s.cursor = len(s.items) - 1
			}
		case "enter":
			if len(s.items) == 0 {
				s.selected = -1
			} else {
				s.selected = s.cursor
			}
			s.active = false
		case "esc", "q":
			s.selected = -1
			s.active = false
		}
	}

	return s, nil
}

// View renders the selector. Labels are padded and cut by display width,
// so wide characters in titles keep the columns aligned.
func (s *Selector) View() string {
	if !s.active {
		return ""
	}

	var b strings.Builder

	b.WriteString(s.styles.Help.Render(s.title + " (↑/↓ navigate, enter select, esc cancel)"))
	b.WriteString("\n\n")

	if len(s.items) == 0 {
		b.WriteString(s.styles.SelectorDim.Render("  (none)"))
		b.WriteString("\n")
		return b.String()
	}

	descWidth := s.width - labelWidth - 4
	for i, item := range s.items {
		isCursor := i == s.cursor

		if isCursor {
			b.WriteString(s.styles.SelectorCursor.Render(SymbolArrow) + " ")
		} else {
			b.WriteString("  ")
		}

		display := item.Label
		if display == "" {
			display = item.ID
		}
		label := FitWidth(display, labelWidth)
		if isCursor {
			b.WriteString(s.styles.SelectorActive.Render(label))
		} else {
			b.WriteString(s.styles.SelectorItem.Render(label))
		}

		desc := item.Description
		if item.Current {
			desc = strings.TrimSpace(desc + " (current)")
		}
		if desc != "" && descWidth > 0 {
			b.WriteString(s.styles.SelectorDim.Render(runewidth.Truncate(desc, descWidth, "…")))
		}

		b.WriteString("\n")
	}

	return b.String()
}

// FitWidth truncates s to width display cells and pads it to exactly that
// width.
func FitWidth(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
