package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	fenceMarker     = "```"
	maxHeadingLevel = 4
)

type splitState int

const (
	stateDefault splitState = iota
	stateInCodeFence
	stateInParagraph
	stateInList
)

// splitter is a single forward pass over the lines of a text. Each state
// decides what the next line means; nothing looks ahead.
type splitter struct {
	state  splitState
	blocks []Block

	para []string

	fenceLang  string
	fenceLines []string
}

// SplitIntoBlocks groups text into typed blocks in source order.
//
// An empty string yields no blocks. A single trailing newline does not add a
// Blank block. Unterminated code fences are closed at end of input.
func SplitIntoBlocks(text string) []Block {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	s := &splitter{}
	for _, line := range lines {
		s.feed(line)
	}
	s.finish()
	return s.blocks
}

func (s *splitter) feed(line string) {
	switch s.state {
	case stateInCodeFence:
		if isFence(line) {
			s.closeFence()
			return
		}
		s.fenceLines = append(s.fenceLines, line)

	case stateInParagraph:
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			// The blank line that ends a paragraph belongs to it.
			s.flushParagraph()
			return
		}
		if startsBlock(line) {
			s.flushParagraph()
			s.feedDefault(line)
			return
		}
		s.para = append(s.para, trimmed)

	default:
		s.feedDefault(line)
	}
}

// feedDefault classifies a line that is not inside a fence or paragraph.
func (s *splitter) feedDefault(line string) {
	trimmed := strings.TrimSpace(line)

	if strings.HasPrefix(trimmed, fenceMarker) {
		s.state = stateInCodeFence
		s.fenceLang = strings.TrimSpace(trimmed[len(fenceMarker):])
		s.fenceLines = nil
		return
	}

	if level, content, ok := parseHeading(line); ok {
		s.emit(Heading{Level: level, Content: content}, stateDefault)
		return
	}

	if ordered, content, ok := parseListItem(trimmed); ok {
		s.emit(ListItem{Ordered: ordered, Content: content}, stateInList)
		return
	}

	if trimmed == "" {
		s.emit(Blank{}, stateDefault)
		return
	}

	s.para = append(s.para[:0], trimmed)
	s.state = stateInParagraph
}

func (s *splitter) emit(b Block, next splitState) {
	s.blocks = append(s.blocks, b)
	s.state = next
}

func (s *splitter) flushParagraph() {
	if len(s.para) > 0 {
		s.blocks = append(s.blocks, Paragraph{Content: strings.Join(s.para, " ")})
	}
	s.para = s.para[:0]
	s.state = stateDefault
}

func (s *splitter) closeFence() {
	s.blocks = append(s.blocks, CodeBlock{
		Lang:    s.fenceLang,
		Content: strings.Join(s.fenceLines, "\n"),
	})
	s.fenceLang = ""
	s.fenceLines = nil
	s.state = stateDefault
}

func (s *splitter) finish() {
	switch s.state {
	case stateInCodeFence:
		s.closeFence()
	case stateInParagraph:
		s.flushParagraph()
	}
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fenceMarker)
}

// startsBlock reports whether line would open a non-paragraph block.
func startsBlock(line string) bool {
	if isFence(line) {
		return true
	}
	if _, _, ok := parseHeading(line); ok {
		return true
	}
	_, _, ok := parseListItem(strings.TrimSpace(line))
	return ok
}

// parseHeading matches ^#{1,4}\s+ on the raw line. Five or more '#' is not
// a heading.
func parseHeading(line string) (level int, content string, ok bool) {
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > maxHeadingLevel || level == len(line) {
		return 0, "", false
	}
	r, _ := utf8.DecodeRuneInString(line[level:])
	if !unicode.IsSpace(r) {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}

// parseListItem recognises "- ", "* " and "N. " on an already trimmed line.
func parseListItem(trimmed string) (ordered bool, content string, ok bool) {
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return false, strings.TrimSpace(trimmed[2:]), true
	}

	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits == 0 || digits+1 >= len(trimmed) || trimmed[digits] != '.' {
		return false, "", false
	}
	r, _ := utf8.DecodeRuneInString(trimmed[digits+1:])
	if !unicode.IsSpace(r) {
		return false, "", false
	}
	return true, strings.TrimSpace(trimmed[digits+1:]), true
}
