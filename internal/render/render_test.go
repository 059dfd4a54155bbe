package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/mockchat/internal/answer"
	"github.com/yolodolo42/mockchat/internal/markdown"
)

func TestAnswer_Nil(t *testing.T) {
	assert.Nil(t, Answer(nil))
	assert.True(t, Answer(nil).Empty())
	assert.Equal(t, "", string(HTML(nil, ThemeDark)))
	assert.Equal(t, "", Terminal(nil, TermOptions{}))
}

func TestAnswer_PlainAndStructuredMatch(t *testing.T) {
	plain := Answer(answer.PlainText("plain text"))
	structured := Answer(answer.StructuredText{Text: "plain text"})

	require.NotNil(t, plain)
	assert.Equal(t, plain, structured)
	assert.Equal(t, HTML(plain, ThemeLight), HTML(structured, ThemeLight))
}

func TestAnswer_Idempotent(t *testing.T) {
	answers := []answer.Answer{
		answer.PlainText("# Title\n\n- one\n- **two**\n\n```go\nx := 1\n```"),
		answer.Table{Columns: []string{"A"}, Rows: [][]string{{"1"}}},
		answer.Unknown{Raw: json.RawMessage(`{"type":"chart"}`)},
	}
	for _, a := range answers {
		assert.Equal(t, Answer(a), Answer(a))
	}
}

func TestAnswer_Table(t *testing.T) {
	tbl := answer.Table{
		Title:   "Scores",
		Columns: []string{"A", "B"},
		Rows:    [][]string{{"1", "2"}, {"3"}},
	}
	doc := Answer(tbl)
	require.NotNil(t, doc)
	require.Len(t, doc.Children, 2)

	assert.Equal(t, NodeTableTitle, doc.Children[0].Kind)
	assert.Equal(t, "Scores", doc.Children[0].Text)

	table := doc.Children[1]
	require.Equal(t, NodeTable, table.Kind)
	require.Len(t, table.Children, 3)
	assert.Equal(t, NodeTableHead, table.Children[0].Kind)
	assert.Len(t, table.Children[1].Children, 2)

	t.Run("short row is not padded", func(t *testing.T) {
		short := table.Children[2]
		require.Len(t, short.Children, 1)
		assert.Equal(t, "3", short.Children[0].Text)
	})

	t.Run("html", func(t *testing.T) {
		out := string(HTML(doc, ThemeDark))
		assert.Equal(t, 3, strings.Count(out, "<tr>"))
		assert.Contains(t, out, "<th>A</th><th>B</th>")
		assert.Contains(t, out, "<tr><td>3</td></tr>")
		assert.Contains(t, out, `<div class="table-title">Scores</div>`)
		assert.NotContains(t, out, "table-description")
	})

	t.Run("terminal", func(t *testing.T) {
		out := Terminal(doc, TermOptions{})
		want := "Scores\n\n" +
			"+---+---+\n" +
			"| A | B |\n" +
			"+---+---+\n" +
			"| 1 | 2 |\n" +
			"| 3 |\n" +
			"+---+---+"
		assert.Equal(t, want, out)
	})

	t.Run("terminal rounded", func(t *testing.T) {
		out := Terminal(doc, TermOptions{Color: true})
		lines := strings.Split(out, "\n")
		require.GreaterOrEqual(t, len(lines), 2)
		assert.Equal(t, "│ 3 │", lines[len(lines)-2])
	})
}

func TestAnswer_Unknown(t *testing.T) {
	doc := Answer(answer.Unknown{Raw: json.RawMessage(`{"type":"chart","points":[1,2]}`)})
	require.NotNil(t, doc)
	require.Len(t, doc.Children, 1)

	dump := doc.Children[0]
	assert.Equal(t, NodeDump, dump.Kind)
	assert.Equal(t, "{\n  \"type\": \"chart\",\n  \"points\": [\n    1,\n    2\n  ]\n}", dump.Text)
}

func TestBlocks_GroupsLists(t *testing.T) {
	doc := Text("- a\n- b\n1. c\npara\n- d")
	require.Len(t, doc.Children, 4)

	kinds := make([]NodeKind, len(doc.Children))
	for i, c := range doc.Children {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []NodeKind{NodeList, NodeList, NodeParagraph, NodeList}, kinds)
	assert.False(t, doc.Children[0].Ordered)
	assert.Len(t, doc.Children[0].Children, 2)
	assert.True(t, doc.Children[1].Ordered)
	assert.Len(t, doc.Children[3].Children, 1)
}

func TestBlocks_HeadingIsNotFormatted(t *testing.T) {
	doc := Blocks([]markdown.Block{markdown.Heading{Level: 2, Content: "**raw**"}})
	require.Len(t, doc.Children, 1)
	h := doc.Children[0]
	require.Len(t, h.Children, 1)
	assert.Equal(t, NodeText, h.Children[0].Kind)
	assert.Equal(t, "**raw**", h.Children[0].Text)
}

func TestHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "heading spacer paragraph",
			in:   "# Title\n\nHello world",
			want: `<div class="md-h1">Title</div><div class="md-spacer"></div><p class="md-p">Hello world</p>`,
		},
		{
			name: "escapes markup",
			in:   "hi **b** <script>",
			want: `<p class="md-p">hi <strong>b</strong> &lt;script&gt;</p>`,
		},
		{
			name: "code block keeps language as metadata",
			in:   "```js\nif (a < b) {}\n```",
			want: `<pre class="md-code" data-lang="js"><code>if (a &lt; b) {}</code></pre>`,
		},
		{
			name: "ordered list with inline code",
			in:   "1. run `make`",
			want: `<ol class="md-list"><li>run <code class="md-inline-code">make</code></li></ol>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(HTML(Text(tt.in), ThemeDark))
			assert.Equal(t, `<div class="answer answer-dark">`+tt.want+`</div>`, got)
		})
	}
}

func TestTerminal_Plain(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "heading and paragraph", in: "# Title\n\nHello world", want: "# Title\n\nHello world"},
		{name: "bullets", in: "- a\n- **b**", want: "• a\n• b"},
		{name: "ordered", in: "1. x\n2. `y`", want: "1. x\n2. `y`"},
		{name: "code block", in: "```\nfoo\nbar\n```", want: "  foo\n  bar"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Terminal(Text(tt.in), TermOptions{Theme: ThemeDark}))
		})
	}
}

func TestTerminal_Wraps(t *testing.T) {
	out := Terminal(Text("one two three four five six"), TermOptions{Width: 10})
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(line), 10)
	}
	assert.Equal(t, "one two three four five six", strings.Join(strings.Fields(out), " "))
}

func TestTerminal_ListContinuationIndent(t *testing.T) {
	out := Terminal(Text("- alpha beta gamma"), TermOptions{Width: 10})
	lines := strings.Split(out, "\n")
	require.Greater(t, len(lines), 1)
	assert.True(t, strings.HasPrefix(lines[0], "• alpha"))
	for _, line := range lines[1:] {
		assert.True(t, strings.HasPrefix(line, "  "), "line %q", line)
		assert.False(t, strings.HasPrefix(line, "   "), "line %q", line)
	}
}

func TestParseTheme(t *testing.T) {
	assert.Equal(t, ThemeLight, ParseTheme("Light"))
	assert.Equal(t, ThemeDark, ParseTheme("dark"))
	assert.Equal(t, ThemeDark, ParseTheme(""))
	assert.Equal(t, ThemeLight, ThemeDark.Toggle())
	assert.True(t, ThemeDark.IsDark())
}
