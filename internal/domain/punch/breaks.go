package punch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Stored breaks come from several generations of clients. Keys may be
// snake_case or camelCase, ids may be numbers or live under _id, and times may
// be RFC 3339 strings or Unix milliseconds. Each field is read on its own so
// a bad value blanks that field only.
var (
	breakIDKeys        = []string{"id", "_id"}
	breakTypeKeys      = []string{"break_type", "breakType"}
	breakReasonKeys    = []string{"reason"}
	breakStartTimeKeys = []string{"start_time", "startTime"}
	breakEndTimeKeys   = []string{"end_time", "endTime"}
	breakCreatedAtKeys = []string{"created_at", "createdAt"}
)

func decodeStoredBreak(item json.RawMessage) (BreakInterval, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(item, &fields); err != nil || fields == nil {
		return BreakInterval{}, false
	}

	b := BreakInterval{
		ID:        storedString(fields, breakIDKeys...),
		BreakType: storedString(fields, breakTypeKeys...),
		Reason:    storedString(fields, breakReasonKeys...),
		EndTime:   storedTime(fields, breakEndTimeKeys...),
	}
	if t := storedTime(fields, breakStartTimeKeys...); t != nil {
		b.StartTime = *t
	}
	if t := storedTime(fields, breakCreatedAtKeys...); t != nil {
		b.CreatedAt = *t
	}
	return b, true
}

// storedScalar returns the first of keys holding a string or a number.
func storedScalar(fields map[string]json.RawMessage, keys ...string) (string, json.Number, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			continue
		}
		switch x := v.(type) {
		case string:
			if x != "" {
				return x, "", true
			}
		case json.Number:
			return "", x, true
		}
	}
	return "", "", false
}

func storedString(fields map[string]json.RawMessage, keys ...string) string {
	str, num, ok := storedScalar(fields, keys...)
	if !ok {
		return ""
	}
	if num != "" {
		return num.String()
	}
	return str
}

func storedTime(fields map[string]json.RawMessage, keys ...string) *time.Time {
	for _, key := range keys {
		str, num, ok := storedScalar(fields, key)
		if !ok {
			continue
		}
		if num != "" {
			if ms, err := num.Int64(); err == nil {
				t := time.UnixMilli(ms).UTC()
				return &t
			}
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			return &t
		}
	}
	return nil
}

// DecodeBreaks reads a stored break list. It never fails: arrays, a single
// object, a JSON string wrapping either of those, null and unrecognized input
// are all accepted, the last two yielding an empty list. Entries without a
// usable id get a positional one, see AssignLegacyBreakIDs.
func DecodeBreaks(raw []byte) []BreakInterval {
	return AssignLegacyBreakIDs(decodeBreaks(raw, 0))
}

func decodeBreaks(raw []byte, depth int) []BreakInterval {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || depth > 2 {
		return []BreakInterval{}
	}

	switch raw[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return []BreakInterval{}
		}
		breaks := make([]BreakInterval, 0, len(items))
		for _, item := range items {
			if b, ok := decodeStoredBreak(item); ok {
				breaks = append(breaks, b)
			}
		}
		return breaks
	case '{':
		b, ok := decodeStoredBreak(raw)
		if !ok {
			return []BreakInterval{}
		}
		return []BreakInterval{b}
	case '"':
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return []BreakInterval{}
		}
		return decodeBreaks([]byte(inner), depth+1)
	default:
		return []BreakInterval{}
	}
}

// AssignLegacyBreakIDs gives entries with a blank or repeated id the id
// "legacy-<index>". The result is the same on every read of the same list,
// so such a break can be ended by the id a client was shown.
func AssignLegacyBreakIDs(breaks []BreakInterval) []BreakInterval {
	if breaks == nil {
		return []BreakInterval{}
	}
	seen := make(map[string]struct{}, len(breaks))
	for i := range breaks {
		id := strings.TrimSpace(breaks[i].ID)
		if _, dup := seen[id]; dup || id == "" {
			breaks[i].ID = fmt.Sprintf("legacy-%d", i)
		}
		seen[breaks[i].ID] = struct{}{}
	}
	return breaks
}

// EncodeBreaks validates breaks and serializes them to the stored JSON shape.
func EncodeBreaks(breaks []BreakInterval) ([]byte, error) {
	if err := ValidateBreaks(breaks); err != nil {
		return nil, err
	}
	if breaks == nil {
		breaks = []BreakInterval{}
	}
	return json.Marshal(breaks)
}

// ValidateBreaks checks the structural invariants enforced on every write of a
// break list. Interval contents are checked when a break is created so that
// malformed legacy entries stay readable and contribute nothing to hours.
func ValidateBreaks(breaks []BreakInterval) error {
	seen := make(map[string]struct{}, len(breaks))
	for i, b := range breaks {
		if strings.TrimSpace(b.ID) == "" {
			return fmt.Errorf("%w: break %d has no id", ErrInvalidBreak, i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("%w: duplicate break id %s", ErrInvalidBreak, b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return nil
}

// NormalizeBreaks assigns fresh ids to entries stored without one or with a
// duplicated one, and returns a non-nil list.
func NormalizeBreaks(breaks []BreakInterval, newID func() string) []BreakInterval {
	out := make([]BreakInterval, 0, len(breaks))
	seen := make(map[string]struct{}, len(breaks))
	for _, b := range breaks {
		if _, dup := seen[b.ID]; dup || strings.TrimSpace(b.ID) == "" {
			b.ID = newID()
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out
}
