package grid

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// Stored-Form Decoding
// =============================================================================

// DecodeLayout parses a layout from its stored JSON form. Two shapes are
// accepted: the current form, a JSON object mapping widget id to
// placement, and the legacy form, where that whole object was encoded
// once more as a JSON string.
//
// Decoding never fails. Absent, null, or unparseable values and
// non-object shapes all decode to an empty layout, and individual
// entries that are not placement-shaped are dropped. A user with a
// corrupted stored layout gets a fresh dashboard, not an error page.
func DecodeLayout(data []byte) Layout {
	raw := decodeObject(data)
	out := make(Layout, len(raw))
	for id, val := range raw {
		var p Placement
		if err := json.Unmarshal(val, &p); err != nil {
			continue
		}
		out[WidgetID(id)] = p
	}
	return out
}

// decodeObject returns the stored object's raw entries, unwrapping the
// legacy string encoding. Returns nil for anything that is not an object.
func decodeObject(data []byte) map[string]json.RawMessage {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err == nil {
		return obj
	}

	// Legacy form: the object serialized as a JSON string.
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return nil
	}
	obj = nil
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil
	}
	return obj
}

// UnmarshalJSON implements json.Unmarshaler with the same tolerance as
// [DecodeLayout], so layouts embedded in larger records (preferences,
// import files) inherit the defensive behavior.
func (l *Layout) UnmarshalJSON(data []byte) error {
	*l = DecodeLayout(data)
	return nil
}
