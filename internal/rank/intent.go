package rank

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Intent is a free-form persona or job description: a JSON object whose
// values are expected to be strings or lists of strings. Anything else is
// tolerated and ignored.
type Intent map[string]json.RawMessage

// ParseIntent decodes a persona/job document. Empty, malformed or
// non-object input yields an empty Intent.
func ParseIntent(data []byte) Intent {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Intent{}
	}
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil || in == nil {
		return Intent{}
	}
	return in
}

// Keywords flattens the intent into raw keyword strings in key order.
func (in Intent) Keywords() []string {
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		raw := in[k]
		if s, ok := asString(raw); ok {
			out = append(out, s)
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			continue
		}
		for _, item := range list {
			if s, ok := asString(item); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// asString decodes raw only when it is a JSON string; null is not a string.
func asString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Echo returns the intent as a plain JSON object for output metadata. An
// intent parsed from a non-object document echoes as an empty object.
func (in Intent) Echo() map[string]any {
	out := make(map[string]any, len(in))
	for k, raw := range in {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			out[k] = v
		}
	}
	return out
}
