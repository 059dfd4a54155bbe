package session

import (
	"encoding/json"
	"strings"
)

// extraFields holds JSON members a type does not model. They are written
// back unchanged, so data added by other tools survives a rewrite of the
// file.
type extraFields map[string]json.RawMessage

// decodeWithExtra decodes data into v and returns the members whose names
// match none of known. v must not implement json.Unmarshaler itself.
func decodeWithExtra(data []byte, v any, known ...string) (extraFields, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	extra := extraFields{}
	for name, raw := range all {
		if !isKnown(name, known) {
			extra[name] = raw
		}
	}
	if len(extra) == 0 {
		return nil, nil
	}
	return extra, nil
}

// encodeWithExtra marshals v and adds the extra members it does not already
// contain.
func encodeWithExtra(v any, extra extraFields) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for name, raw := range extra {
		if _, ok := all[name]; !ok {
			all[name] = raw
		}
	}
	return json.Marshal(all)
}

// isKnown matches the way encoding/json maps members to struct fields,
// which ignores case.
func isKnown(name string, known []string) bool {
	for _, k := range known {
		if strings.EqualFold(name, k) {
			return true
		}
	}
	return false
}
