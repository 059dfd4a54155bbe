package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yolodolo42/mockchat/internal/render"
	"github.com/yolodolo42/mockchat/internal/session"
	"github.com/yolodolo42/mockchat/internal/ui"
)

// outputFlags are the terminal rendering flags shared by ask, sessions
// show and render.
type outputFlags struct {
	noColor bool
	width   int
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noColor, "no-color", false, "disable colours")
	cmd.Flags().IntVar(&f.width, "width", 0, "wrap width (default: terminal width, no wrapping when piped)")
}

// termOptions picks colour and width for w. Colour needs a terminal and no
// NO_COLOR variable; the width falls back to the terminal size.
func (f outputFlags) termOptions(w io.Writer, theme render.Theme) render.TermOptions {
	opts := render.TermOptions{Theme: theme, Width: f.width}

	file, ok := w.(*os.File)
	if !ok || !isatty.IsTerminal(file.Fd()) {
		return opts
	}
	if _, set := os.LookupEnv("NO_COLOR"); !set && !f.noColor {
		opts.Color = true
	}
	if opts.Width <= 0 {
		if width, _, err := term.GetSize(int(file.Fd())); err == nil && width > 0 {
			opts.Width = width
		}
	}
	return opts
}

// renderEntry renders a stored answer for the terminal.
func renderEntry(e session.Entry, opts render.TermOptions) string {
	return render.Terminal(render.Answer(e.Answer()), opts)
}

// printHistory writes a session's questions and answers in order.
func printHistory(w io.Writer, sess session.Session, opts render.TermOptions) {
	styles := ui.NewStyles(opts.Theme)
	label := func(s lipgloss.Style, text string) string {
		if !opts.Color {
			return text
		}
		return s.Render(text)
	}

	for _, e := range sess.History {
		switch e.EffectiveRole() {
		case session.RoleUser:
			fmt.Fprintf(w, "%s %s\n\n", label(styles.User, "You:"), e.Question)
		case session.RoleAssistant:
			fmt.Fprintf(w, "%s %s\n", label(styles.Assistant, "Answer"), label(styles.System, "["+e.ID+"]"+feedbackMarks(e.Feedback)))
			if body := renderEntry(e, opts); body != "" {
				fmt.Fprintln(w, body)
			}
			fmt.Fprintln(w)
		}
	}
}

func feedbackMarks(f *session.Feedback) string {
	if f == nil {
		return ""
	}
	var marks []string
	if f.Likes > 0 {
		marks = append(marks, ui.SymbolLike)
	}
	if f.Dislikes > 0 {
		marks = append(marks, ui.SymbolDislike)
	}
	if len(marks) == 0 {
		return ""
	}
	return " " + strings.Join(marks, " ")
}
