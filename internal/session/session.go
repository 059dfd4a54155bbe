// Package session persists chat sessions in a single JSON file.
package session

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/yolodolo42/mockchat/internal/answer"
)

// DefaultTitle is the title of a session that has not been named yet.
const DefaultTitle = "New Chat"

// Role identifies who produced an entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Vote is a feedback action on an assistant entry
type Vote string

const (
	VoteLike    Vote = "like"
	VoteDislike Vote = "dislike"
)

// Valid reports whether v is a known vote.
func (v Vote) Valid() bool {
	return v == VoteLike || v == VoteDislike
}

// Feedback holds the like and dislike flags of an answer. Each is 0 or 1 and
// at most one of them is set.
type Feedback struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// Toggle applies a vote: the voted flag flips and the opposite flag clears.
func (f Feedback) Toggle(v Vote) Feedback {
	switch v {
	case VoteLike:
		return Feedback{Likes: 1 - clamp01(f.Likes), Dislikes: 0}
	case VoteDislike:
		return Feedback{Likes: 0, Dislikes: 1 - clamp01(f.Dislikes)}
	default:
		return f
	}
}

func clamp01(n int) int {
	if n == 1 {
		return 1
	}
	return 0
}

// Entry is one turn of a session. Response is kept as raw JSON so
// structured answers survive a round trip unchanged.
type Entry struct {
	ID       string          `json:"id"`
	Role     Role            `json:"role,omitempty"`
	Question string          `json:"question,omitempty"`
	Response json.RawMessage `json:"response,omitempty"`
	Feedback *Feedback       `json:"feedback,omitempty"`

	extra extraFields
}

var entryKeys = []string{"id", "role", "question", "response", "feedback"}

func (e *Entry) UnmarshalJSON(data []byte) error {
	type plain Entry
	var p plain
	extra, err := decodeWithExtra(data, &p, entryKeys...)
	if err != nil {
		return err
	}
	*e = Entry(p)
	e.extra = extra
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	type plain Entry
	return encodeWithExtra(plain(e), e.extra)
}

// EffectiveRole returns the entry's role, inferring it for entries written
// without one.
func (e Entry) EffectiveRole() Role {
	if e.Role != "" {
		return e.Role
	}
	if len(e.Response) > 0 {
		return RoleAssistant
	}
	return RoleUser
}

// Answer decodes the stored response.
func (e Entry) Answer() answer.Answer {
	return answer.Decode(e.Response)
}

// NewUserEntry creates a user turn.
func NewUserEntry(question string) Entry {
	return Entry{ID: NewID(), Role: RoleUser, Question: question}
}

// NewAssistantEntry creates an assistant turn holding a plain-text reply
// and cleared feedback.
func NewAssistantEntry(reply string) (Entry, error) {
	raw, err := json.Marshal(reply)
	if err != nil {
		return Entry{}, err
	}
	return Entry{ID: NewID(), Role: RoleAssistant, Response: raw, Feedback: &Feedback{}}, nil
}

// Session is a titled conversation
type Session struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	History []Entry `json:"history"`

	extra extraFields
}

var sessionKeys = []string{"id", "title", "history"}

func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session
	var p plain
	extra, err := decodeWithExtra(data, &p, sessionKeys...)
	if err != nil {
		return err
	}
	*s = Session(p)
	s.extra = extra
	return nil
}

func (s Session) MarshalJSON() ([]byte, error) {
	type plain Session
	return encodeWithExtra(plain(s), s.extra)
}

// Summary is the listing form of a session
type Summary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Entry returns the history entry with the given ID.
func (s *Session) Entry(id string) (*Entry, bool) {
	for i := range s.History {
		if s.History[i].ID == id {
			return &s.History[i], true
		}
	}
	return nil, false
}

// Untitled reports whether the session still carries no real title.
func (s Session) Untitled() bool {
	t := strings.TrimSpace(s.Title)
	return t == "" || t == DefaultTitle
}

// NewID returns an 8 character lowercase hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
