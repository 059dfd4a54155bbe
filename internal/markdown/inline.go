package markdown

import "strings"

// FragmentKind is the style of an inline run.
type FragmentKind int

const (
	FragmentPlain FragmentKind = iota
	FragmentBold
	FragmentCode
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentBold:
		return "bold"
	case FragmentCode:
		return "code"
	default:
		return "plain"
	}
}

// Fragment is a plain or styled run of text within one block. For styled
// runs Text excludes the markers.
type Fragment struct {
	Kind FragmentKind
	Text string
}

const (
	boldMarker = "**"
	codeMarker = '`'
)

// span is a located inline match: [start, end) covers the markers, inner is
// the text between them.
type span struct {
	kind       FragmentKind
	start, end int
	inner      string
}

// FormatInline splits content into plain, bold and code fragments.
//
// At each step the earliest complete span wins; bold wins a tie. A marker
// without a closer stays literal. Nested spans are not recognised: the inner
// markers are kept verbatim inside the outer span.
func FormatInline(content string) []Fragment {
	var out []Fragment
	rest := content
	for rest != "" {
		next, ok := earliestSpan(rest)
		if !ok {
			out = append(out, Fragment{Kind: FragmentPlain, Text: rest})
			break
		}
		if next.start > 0 {
			out = append(out, Fragment{Kind: FragmentPlain, Text: rest[:next.start]})
		}
		out = append(out, Fragment{Kind: next.kind, Text: next.inner})
		rest = rest[next.end:]
	}
	return out
}

func earliestSpan(s string) (span, bool) {
	bold, okBold := findBold(s)
	code, okCode := findCode(s)
	switch {
	case okBold && okCode:
		if code.start < bold.start {
			return code, true
		}
		return bold, true
	case okBold:
		return bold, true
	case okCode:
		return code, true
	default:
		return span{}, false
	}
}

// findBold locates **...** with the shortest possible body, which may be
// empty. If the first opener has no closer, no later opener can have one.
func findBold(s string) (span, bool) {
	open := strings.Index(s, boldMarker)
	if open < 0 {
		return span{}, false
	}
	bodyStart := open + len(boldMarker)
	closeAt := strings.Index(s[bodyStart:], boldMarker)
	if closeAt < 0 {
		return span{}, false
	}
	end := bodyStart + closeAt + len(boldMarker)
	return span{kind: FragmentBold, start: open, end: end, inner: s[bodyStart : bodyStart+closeAt]}, true
}

// findCode locates `...` whose body is one or more non-backtick bytes.
// A doubled backtick is skipped and the second one is tried as an opener.
func findCode(s string) (span, bool) {
	from := 0
	for {
		open := strings.IndexByte(s[from:], codeMarker)
		if open < 0 {
			return span{}, false
		}
		open += from
		closeAt := strings.IndexByte(s[open+1:], codeMarker)
		if closeAt < 0 {
			return span{}, false
		}
		if closeAt > 0 {
			closePos := open + 1 + closeAt
			return span{kind: FragmentCode, start: open, end: closePos + 1, inner: s[open+1 : closePos]}, true
		}
		from = open + 1
	}
}
