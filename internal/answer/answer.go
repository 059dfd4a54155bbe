// Package answer defines the closed set of answer shapes a chat response can
// take and builds them from raw JSON at the system boundary.
package answer

import "encoding/json"

// Kind identifies the concrete type of an Answer.
type Kind string

const (
	KindPlainText      Kind = "plain"
	KindStructuredText Kind = "text"
	KindTable          Kind = "table"
	KindUnknown        Kind = "unknown"
)

// Answer is one of PlainText, StructuredText, Table or Unknown. A nil Answer
// means no answer is present.
type Answer interface {
	Kind() Kind
	answer()
}

// PlainText is a bare string answer.
type PlainText string

// StructuredText is a {"type":"text","text":...} answer.
type StructuredText struct {
	Text string
}

// Table is a {"type":"table",...} answer. Rows are not checked against
// Columns; a short row stays short.
type Table struct {
	Title       string
	Description string
	Columns     []string
	Rows        [][]string
}

// Unknown is any other JSON value, kept verbatim for a fallback dump.
type Unknown struct {
	Raw json.RawMessage
}

func (PlainText) Kind() Kind      { return KindPlainText }
func (StructuredText) Kind() Kind { return KindStructuredText }
func (Table) Kind() Kind          { return KindTable }
func (Unknown) Kind() Kind        { return KindUnknown }

func (PlainText) answer()      {}
func (StructuredText) answer() {}
func (Table) answer()          {}
func (Unknown) answer()        {}
