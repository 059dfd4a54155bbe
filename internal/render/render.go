package render

import (
	"bytes"
	"encoding/json"

	"github.com/yolodolo42/mockchat/internal/answer"
	"github.com/yolodolo42/mockchat/internal/markdown"
)

// Answer dispatches on the answer shape. A nil answer renders nothing and
// returns nil. Plain and structured text share the markdown pipeline, tables
// get a header row plus one row per entry, and anything else is dumped as
// indented JSON.
func Answer(a answer.Answer) *Node {
	switch v := a.(type) {
	case nil:
		return nil
	case answer.PlainText:
		return Text(string(v))
	case answer.StructuredText:
		return Text(v.Text)
	case answer.Table:
		return tableDocument(v)
	case answer.Unknown:
		return &Node{Kind: NodeDocument, Children: []*Node{leaf(NodeDump, prettyJSON(v.Raw))}}
	default:
		return nil
	}
}

// Text runs the markdown pipeline over s.
func Text(s string) *Node {
	return Blocks(markdown.SplitIntoBlocks(s))
}

// Blocks maps each block to its node and then groups runs of list items
// into list containers.
func Blocks(blocks []markdown.Block) *Node {
	nodes := make([]*Node, 0, len(blocks))
	for _, b := range blocks {
		if n := blockNode(b); n != nil {
			nodes = append(nodes, n)
		}
	}
	return &Node{Kind: NodeDocument, Children: groupLists(nodes)}
}

func blockNode(b markdown.Block) *Node {
	switch v := b.(type) {
	case markdown.Heading:
		return &Node{Kind: NodeHeading, Level: v.Level, Children: []*Node{leaf(NodeText, v.Content)}}
	case markdown.Paragraph:
		return &Node{Kind: NodeParagraph, Children: inlineNodes(v.Content)}
	case markdown.ListItem:
		return &Node{Kind: NodeListItem, Ordered: v.Ordered, Children: inlineNodes(v.Content)}
	case markdown.CodeBlock:
		return &Node{Kind: NodeCodeBlock, Lang: v.Lang, Text: v.Content}
	case markdown.Blank:
		return &Node{Kind: NodeSpacer}
	default:
		return nil
	}
}

func inlineNodes(content string) []*Node {
	frags := markdown.FormatInline(content)
	out := make([]*Node, 0, len(frags))
	for _, f := range frags {
		switch f.Kind {
		case markdown.FragmentBold:
			out = append(out, leaf(NodeStrong, f.Text))
		case markdown.FragmentCode:
			out = append(out, leaf(NodeCode, f.Text))
		default:
			out = append(out, leaf(NodeText, f.Text))
		}
	}
	return out
}

// groupLists wraps each maximal run of list items with the same Ordered
// flag in a single list node.
func groupLists(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	var current *Node
	for _, n := range nodes {
		if n.Kind != NodeListItem {
			current = nil
			out = append(out, n)
			continue
		}
		if current == nil || current.Ordered != n.Ordered {
			current = &Node{Kind: NodeList, Ordered: n.Ordered}
			out = append(out, current)
		}
		current.Children = append(current.Children, n)
	}
	return out
}

func tableDocument(t answer.Table) *Node {
	doc := &Node{Kind: NodeDocument}
	if t.Title != "" {
		doc.Children = append(doc.Children, leaf(NodeTableTitle, t.Title))
	}
	if t.Description != "" {
		doc.Children = append(doc.Children, leaf(NodeTableDescription, t.Description))
	}

	head := &Node{Kind: NodeTableHead, Children: cellNodes(t.Columns)}
	table := &Node{Kind: NodeTable, Children: []*Node{head}}
	for _, row := range t.Rows {
		table.Children = append(table.Children, &Node{Kind: NodeTableRow, Children: cellNodes(row)})
	}
	doc.Children = append(doc.Children, table)
	return doc
}

func cellNodes(cells []string) []*Node {
	out := make([]*Node, len(cells))
	for i, c := range cells {
		out[i] = leaf(NodeTableCell, c)
	}
	return out
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
