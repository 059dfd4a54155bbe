package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

// TermOptions controls terminal output. Width <= 0 disables wrapping.
// With Color false the output is plain text with markdown-style markers for
// headings and inline code.
type TermOptions struct {
	Width int
	Theme Theme
	Color bool
}

type termStyles struct {
	headings  [maxHeading + 1]lipgloss.Style
	strong    lipgloss.Style
	code      lipgloss.Style
	codeBlock lipgloss.Style
	title     lipgloss.Style
	dim       lipgloss.Style
}

const maxHeading = 4

func newTermStyles(theme Theme) termStyles {
	fg := lipgloss.Color("252")
	codeFg := lipgloss.Color("151")
	codeBg := lipgloss.Color("236")
	accent := lipgloss.Color("39")
	dim := lipgloss.Color("241")
	if !theme.IsDark() {
		fg = lipgloss.Color("235")
		codeFg = lipgloss.Color("22")
		codeBg = lipgloss.Color("255")
		accent = lipgloss.Color("25")
		dim = lipgloss.Color("244")
	}

	s := termStyles{
		strong:    lipgloss.NewStyle().Bold(true).Foreground(fg),
		code:      lipgloss.NewStyle().Foreground(codeFg).Background(codeBg),
		codeBlock: lipgloss.NewStyle().Foreground(codeFg),
		title:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		dim:       lipgloss.NewStyle().Foreground(dim),
	}
	s.headings[1] = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accent)
	s.headings[2] = lipgloss.NewStyle().Bold(true).Foreground(accent)
	s.headings[3] = lipgloss.NewStyle().Bold(true).Foreground(fg)
	s.headings[4] = lipgloss.NewStyle().Bold(true).Italic(true).Foreground(fg)
	return s
}

type termWriter struct {
	opts   TermOptions
	styles termStyles
}

// Terminal writes the visual tree as terminal text. Top-level blocks are
// separated by one empty line, which already provides the spacing a Spacer
// node stands for.
func Terminal(n *Node, opts TermOptions) string {
	if n.Empty() {
		return ""
	}
	w := termWriter{opts: opts, styles: newTermStyles(opts.Theme)}

	parts := make([]string, 0, len(n.Children))
	for _, c := range n.Children {
		if c.Kind == NodeSpacer {
			continue
		}
		parts = append(parts, w.block(c))
	}
	return strings.Join(parts, "\n\n")
}

func (w termWriter) block(n *Node) string {
	switch n.Kind {
	case NodeHeading:
		return w.heading(n)
	case NodeParagraph:
		return w.wrap(w.inline(n.Children), w.opts.Width)
	case NodeList:
		return w.list(n)
	case NodeCodeBlock, NodeDump:
		return w.code(n.Text)
	case NodeTableTitle:
		return w.style(w.styles.title, n.Text)
	case NodeTableDescription:
		return w.style(w.styles.dim, w.wrap(n.Text, w.opts.Width))
	case NodeTable:
		return w.table(n)
	case NodeDocument:
		return Terminal(n, w.opts)
	default:
		return w.inline([]*Node{n})
	}
}

func (w termWriter) heading(n *Node) string {
	level := n.Level
	if level < 1 || level > maxHeading {
		level = maxHeading
	}
	txt := plainText(n.Children)
	if !w.opts.Color {
		return strings.Repeat("#", level) + " " + txt
	}
	return w.styles.headings[level].Render(txt)
}

func (w termWriter) list(n *Node) string {
	lines := make([]string, 0, len(n.Children))
	for i, item := range n.Children {
		marker := "• "
		if n.Ordered {
			marker = fmt.Sprintf("%d. ", i+1)
		}
		width := runewidth.StringWidth(marker)
		body := w.wrap(w.inline(item.Children), w.opts.Width-width)
		body = indent.String(body, uint(width))
		lines = append(lines, marker+strings.TrimLeft(body, " "))
	}
	return strings.Join(lines, "\n")
}

func (w termWriter) code(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = "  " + w.style(w.styles.codeBlock, line)
	}
	return strings.Join(lines, "\n")
}

func (w termWriter) table(n *Node) string {
	tw := table.NewWriter()
	if w.opts.Color {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.Style().Format.Header = text.FormatDefault
	if w.opts.Width > 0 {
		tw.SetAllowedRowLength(w.opts.Width)
	}

	var (
		headLines int
		rowCells  []int
		rowLines  []int
	)
	for _, row := range n.Children {
		cells := make(table.Row, len(row.Children))
		height := 1
		for i, c := range row.Children {
			cells[i] = c.Text
			height = max(height, strings.Count(c.Text, "\n")+1)
		}
		if row.Kind == NodeTableHead {
			if len(cells) > 0 {
				tw.AppendHeader(cells)
				// header lines plus the separator under them
				headLines = height + 1
			}
			continue
		}
		tw.AppendRow(cells)
		rowCells = append(rowCells, len(cells))
		rowLines = append(rowLines, height)
	}
	return cutShortRows(tw.Render(), tw.Style().Box, headLines, rowCells, rowLines)
}

// cutShortRows ends every data row after its own last cell. go-pretty pads
// short rows to the full column count; those padded cells are cut off so a
// short row shows up truncated.
func cutShortRows(out string, box table.BoxStyle, headLines int, cells, heights []int) string {
	lines := strings.Split(out, "\n")
	ends := columnEnds(lines[0], box)

	line := 1 + headLines
	for i, c := range cells {
		for j := 0; j < heights[i] && line < len(lines); j++ {
			if c < len(ends)-1 {
				lines[line] = truncate.String(lines[line], uint(ends[c]+1))
			}
			line++
		}
	}
	return strings.Join(lines, "\n")
}

// columnEnds returns the display columns of the junctions in the top border:
// the left corner first, then the right edge of each table column.
func columnEnds(top string, box table.BoxStyle) []int {
	var ends []int
	col := 0
	for _, r := range top {
		switch string(r) {
		case box.TopLeft, box.TopSeparator, box.TopRight:
			ends = append(ends, col)
		}
		col += runewidth.RuneWidth(r)
	}
	return ends
}

func (w termWriter) inline(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch n.Kind {
		case NodeStrong:
			b.WriteString(w.style(w.styles.strong, n.Text))
		case NodeCode:
			if w.opts.Color {
				b.WriteString(w.styles.code.Render(n.Text))
			} else {
				b.WriteString("`" + n.Text + "`")
			}
		default:
			b.WriteString(n.Text)
		}
	}
	return b.String()
}

func (w termWriter) style(s lipgloss.Style, txt string) string {
	if !w.opts.Color {
		return txt
	}
	return s.Render(txt)
}

func (w termWriter) wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}

func plainText(nodes []*Node) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Text)
	}
	return b.String()
}
