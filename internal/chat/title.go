package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yolodolo42/mockchat/internal/session"
)

// MaxTitleLen is the longest title, in characters, derived from a question.
const MaxTitleLen = 48

const ellipsis = "..."

var greetingPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|hlo|yo)([!. ]|$)`)

// IsGreeting reports whether text opens with a short greeting word.
func IsGreeting(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	return greetingPattern.MatchString(t)
}

// TruncateTitle trims s and shortens it to at most n characters, ending in
// "..." when cut.
func TruncateTitle(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	keep := n - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string([]rune(s)[:keep]) + ellipsis
}

// DisplayTitle is the title shown for a session in listings: the stored
// title when set, else the first non-greeting question, else the default.
func DisplayTitle(s session.Session) string {
	if !s.Untitled() {
		return s.Title
	}
	for _, e := range s.History {
		if e.Question == "" || IsGreeting(e.Question) {
			continue
		}
		return TruncateTitle(e.Question, MaxTitleLen)
	}
	return session.DefaultTitle
}
