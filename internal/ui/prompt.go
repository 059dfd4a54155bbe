package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Prompt is a single-line input with a styled prefix
type Prompt struct {
	input   textinput.Model
	width   int
	focused bool
	styles  Styles
}

// NewPrompt creates a focused prompt with the given placeholder.
func NewPrompt(placeholder string, styles Styles) Prompt {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = placeholder
	ti.CharLimit = 4000
	ti.Width = 76
	ti.Focus()

	return Prompt{
		input:   ti,
		width:   80,
		focused: true,
		styles:  styles,
	}
}

// Focus sets focus on the prompt
func (p *Prompt) Focus() tea.Cmd {
	p.focused = true
	return p.input.Focus()
}

// Blur removes focus from the prompt
func (p *Prompt) Blur() {
	p.focused = false
	p.input.Blur()
}

// Focused returns whether the prompt has focus
func (p *Prompt) Focused() bool {
	return p.focused
}

// SetWidth sets the width of the input
func (p *Prompt) SetWidth(w int) {
	p.width = w
	p.input.Width = w - 4 // prompt symbol and spacing
}

// Value returns the current input value
func (p *Prompt) Value() string {
	return p.input.Value()
}

// SetValue sets the input value
func (p *Prompt) SetValue(s string) {
	p.input.SetValue(s)
}

// Reset clears the input
func (p *Prompt) Reset() {
	p.input.Reset()
}

// Update handles input events
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View renders the prompt
func (p *Prompt) View() string {
	style := p.styles.SelectorDim
	if p.focused {
		style = p.styles.Prompt
	}
	return style.Render(SymbolPrompt) + " " + p.input.View()
}
