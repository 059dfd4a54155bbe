// Package render turns markdown blocks and answers into a visual tree and
// writes that tree to HTML or to a terminal.
package render

// NodeKind identifies a node in the visual tree.
type NodeKind string

const (
	NodeDocument         NodeKind = "document"
	NodeHeading          NodeKind = "heading"
	NodeParagraph        NodeKind = "paragraph"
	NodeList             NodeKind = "list"
	NodeListItem         NodeKind = "list_item"
	NodeCodeBlock        NodeKind = "code_block"
	NodeSpacer           NodeKind = "spacer"
	NodeText             NodeKind = "text"
	NodeStrong           NodeKind = "strong"
	NodeCode             NodeKind = "code"
	NodeTableTitle       NodeKind = "table_title"
	NodeTableDescription NodeKind = "table_description"
	NodeTable            NodeKind = "table"
	NodeTableHead        NodeKind = "table_head"
	NodeTableRow         NodeKind = "table_row"
	NodeTableCell        NodeKind = "table_cell"
	NodeDump             NodeKind = "dump"
)

// Node is one element of the visual tree. Leaves carry Text; containers
// carry Children. Level is set on headings, Ordered on lists and Lang on
// code blocks, where it is metadata only.
type Node struct {
	Kind     NodeKind `json:"kind"`
	Level    int      `json:"level,omitempty"`
	Ordered  bool     `json:"ordered,omitempty"`
	Lang     string   `json:"lang,omitempty"`
	Text     string   `json:"text,omitempty"`
	Children []*Node  `json:"children,omitempty"`
}

func leaf(kind NodeKind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

// Empty reports whether n renders to nothing.
func (n *Node) Empty() bool {
	return n == nil || (n.Kind == NodeDocument && len(n.Children) == 0)
}
