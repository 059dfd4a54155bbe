package render

import (
	"fmt"
	"html/template"
	"strings"
)

// HTML writes the visual tree as an HTML fragment. All text is escaped;
// code blocks keep their whitespace inside <pre>. A nil or empty tree
// yields an empty fragment.
func HTML(n *Node, theme Theme) template.HTML {
	if n.Empty() {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, `<div class="answer answer-%s">`, theme)
	writeHTMLChildren(&b, n)
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}

func writeHTMLChildren(b *strings.Builder, n *Node) {
	for _, c := range n.Children {
		writeHTML(b, c)
	}
}

func writeHTML(b *strings.Builder, n *Node) {
	esc := template.HTMLEscapeString

	switch n.Kind {
	case NodeDocument:
		writeHTMLChildren(b, n)
	case NodeHeading:
		fmt.Fprintf(b, `<div class="md-h%d">`, n.Level)
		writeHTMLChildren(b, n)
		b.WriteString(`</div>`)
	case NodeParagraph:
		b.WriteString(`<p class="md-p">`)
		writeHTMLChildren(b, n)
		b.WriteString(`</p>`)
	case NodeList:
		tag := "ul"
		if n.Ordered {
			tag = "ol"
		}
		fmt.Fprintf(b, `<%s class="md-list">`, tag)
		writeHTMLChildren(b, n)
		fmt.Fprintf(b, `</%s>`, tag)
	case NodeListItem:
		b.WriteString(`<li>`)
		writeHTMLChildren(b, n)
		b.WriteString(`</li>`)
	case NodeCodeBlock:
		if n.Lang != "" {
			fmt.Fprintf(b, `<pre class="md-code" data-lang="%s"><code>`, esc(n.Lang))
		} else {
			b.WriteString(`<pre class="md-code"><code>`)
		}
		b.WriteString(esc(n.Text))
		b.WriteString(`</code></pre>`)
	case NodeSpacer:
		b.WriteString(`<div class="md-spacer"></div>`)
	case NodeText:
		b.WriteString(esc(n.Text))
	case NodeStrong:
		b.WriteString(`<strong>` + esc(n.Text) + `</strong>`)
	case NodeCode:
		b.WriteString(`<code class="md-inline-code">` + esc(n.Text) + `</code>`)
	case NodeTableTitle:
		b.WriteString(`<div class="table-title">` + esc(n.Text) + `</div>`)
	case NodeTableDescription:
		b.WriteString(`<div class="table-description">` + esc(n.Text) + `</div>`)
	case NodeTable:
		writeHTMLTable(b, n)
	case NodeDump:
		b.WriteString(`<pre class="dump">` + esc(n.Text) + `</pre>`)
	}
}

func writeHTMLTable(b *strings.Builder, n *Node) {
	esc := template.HTMLEscapeString

	b.WriteString(`<div class="table-wrap"><table>`)
	for i, row := range n.Children {
		if row.Kind == NodeTableHead {
			b.WriteString(`<thead><tr>`)
			for _, c := range row.Children {
				b.WriteString(`<th>` + esc(c.Text) + `</th>`)
			}
			b.WriteString(`</tr></thead><tbody>`)
			continue
		}
		if i == 0 {
			b.WriteString(`<tbody>`)
		}
		b.WriteString(`<tr>`)
		for _, c := range row.Children {
			b.WriteString(`<td>` + esc(c.Text) + `</td>`)
		}
		b.WriteString(`</tr>`)
	}
	if len(n.Children) == 0 {
		b.WriteString(`<tbody>`)
	}
	b.WriteString(`</tbody></table></div>`)
}
