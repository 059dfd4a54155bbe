package answer

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode turns a raw JSON value into an Answer. It never fails: shapes it
// does not recognise, including malformed tables, become Unknown.
//
//   - empty input or null      -> nil
//   - a JSON string            -> PlainText
//   - {"type":"table", ...}    -> Table
//   - {"type":"text"} or any object with a string "text" -> StructuredText
//   - anything else            -> Unknown
func Decode(raw json.RawMessage) Answer {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return Unknown{Raw: cloneRaw(trimmed)}
		}
		return PlainText(s)
	case '{':
		if a, ok := decodeObject(trimmed); ok {
			return a
		}
	}
	return Unknown{Raw: cloneRaw(trimmed)}
}

func decodeObject(raw []byte) (Answer, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, false
	}

	typ, _ := stringField(fields, "type")
	if typ == string(KindTable) {
		return decodeTable(fields)
	}

	text, hasText := stringField(fields, "text")
	if typ == string(KindStructuredText) || hasText {
		return StructuredText{Text: text}, true
	}
	return nil, false
}

// stringField reports the value of key when it holds a JSON string.
func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := fields[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeTable(fields map[string]json.RawMessage) (Answer, bool) {
	var cols []json.RawMessage
	if err := json.Unmarshal(fields["columns"], &cols); err != nil || cols == nil {
		return nil, false
	}
	var rows [][]json.RawMessage
	if err := json.Unmarshal(fields["rows"], &rows); err != nil || rows == nil {
		return nil, false
	}

	t := Table{
		Title:       optionalString(fields["title"]),
		Description: optionalString(fields["description"]),
		Columns:     make([]string, len(cols)),
		Rows:        make([][]string, len(rows)),
	}
	for i, c := range cols {
		t.Columns[i] = CellString(c)
	}
	for i, row := range rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = CellString(c)
		}
		t.Rows[i] = cells
	}
	return t, true
}

// CellString renders one JSON value for display: strings unquoted, numbers
// and booleans by their literal, null as "null", arrays and objects as
// compact JSON.
func CellString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return string(trimmed)
	}
	return buf.String()
}

func optionalString(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	return CellString(trimmed)
}

func cloneRaw(b []byte) json.RawMessage {
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}

// Encode is the inverse of Decode for storage: PlainText becomes a JSON
// string, the structured shapes become their tagged objects and Unknown is
// written back verbatim.
func Encode(a Answer) (json.RawMessage, error) {
	switch v := a.(type) {
	case nil:
		return json.RawMessage("null"), nil
	case PlainText:
		return json.Marshal(string(v))
	case StructuredText:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: string(KindStructuredText), Text: v.Text})
	case Table:
		rows := v.Rows
		if rows == nil {
			rows = [][]string{}
		}
		cols := v.Columns
		if cols == nil {
			cols = []string{}
		}
		return json.Marshal(struct {
			Type        string     `json:"type"`
			Title       string     `json:"title,omitempty"`
			Description string     `json:"description,omitempty"`
			Columns     []string   `json:"columns"`
			Rows        [][]string `json:"rows"`
		}{Type: string(KindTable), Title: v.Title, Description: v.Description, Columns: cols, Rows: rows})
	case Unknown:
		return cloneRaw(v.Raw), nil
	default:
		return nil, fmt.Errorf("unsupported answer type %T", a)
	}
}
