// Package markdown implements the small markdown subset used by chat
// answers: fenced code, headings h1-h4, bullet and numbered list items,
// soft-wrapped paragraphs, and **bold** / `code` inline spans.
package markdown

// BlockKind identifies the concrete type of a Block.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindListItem
	KindCodeBlock
	KindBlank
)

func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindListItem:
		return "list_item"
	case KindCodeBlock:
		return "code"
	case KindBlank:
		return "blank"
	default:
		return "unknown"
	}
}

// Block is one structural unit produced by SplitIntoBlocks. The set of
// implementations is closed to this package.
type Block interface {
	Kind() BlockKind
	block()
}

// Heading is a line starting with one to four '#' characters.
type Heading struct {
	Level   int
	Content string
}

// ListItem is a single bullet or numbered item. Items are never nested;
// grouping consecutive items into a list is left to the renderer.
type ListItem struct {
	Ordered bool
	Content string
}

// CodeBlock is the verbatim body of a ``` fence. Lang is recorded but
// carries no rendering meaning.
type CodeBlock struct {
	Lang    string
	Content string
}

// Paragraph holds consecutive non-blank lines joined by single spaces.
type Paragraph struct {
	Content string
}

// Blank is an empty line that does not terminate a paragraph.
type Blank struct{}

func (Heading) Kind() BlockKind   { return KindHeading }
func (ListItem) Kind() BlockKind  { return KindListItem }
func (CodeBlock) Kind() BlockKind { return KindCodeBlock }
func (Paragraph) Kind() BlockKind { return KindParagraph }
func (Blank) Kind() BlockKind     { return KindBlank }

func (Heading) block()   {}
func (ListItem) block()  {}
func (CodeBlock) block() {}
func (Paragraph) block() {}
func (Blank) block()     {}
