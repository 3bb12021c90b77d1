// Package jsontree provides a tagged-variant value model for loosely
// structured JSON, plus the recursive-descent helpers the providers use to
// pull text fragments and identifiers out of agent CLI events.
package jsontree

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Kind discriminates between value variants.
type Kind int

const (
	// KindNull is a JSON null or an absent value.
	KindNull Kind = iota

	// KindString is a JSON string.
	KindString

	// KindList is a JSON array.
	KindList

	// KindObject is a JSON object.
	KindObject

	// KindOther covers numbers and booleans, which never contribute text.
	KindOther
)

// Value is one decoded JSON value. The zero Value is null.
type Value struct {
	obj  map[string]Value
	list []Value
	str  string
	kind Kind
}

// Null returns the null value.
func Null() Value { return Value{} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// List wraps a list of values.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// Object wraps a key→value mapping.
func Object(fields map[string]Value) Value { return Value{kind: KindObject, obj: fields} }

// Decode parses JSON bytes into a Value.
func Decode(data []byte) (Value, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return fromAny(v), nil
}

func fromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Value{}
	case string:
		return String(t)
	case []any:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			items = append(items, fromAny(item))
		}
		return Value{kind: KindList, list: items}
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, item := range t {
			fields[k] = fromAny(item)
		}
		return Value{kind: KindObject, obj: fields}
	default:
		// Numbers and booleans are opaque for extraction purposes.
		return Value{kind: KindOther}
	}
}

// Kind returns the value's variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null/absent.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Str returns the string payload and whether the value is a string.
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// StringOr returns the string payload, or def for non-string values.
func (v Value) StringOr(def string) string {
	if v.kind == KindString {
		return v.str
	}
	return def
}

// Field looks up a key on an object value. Missing keys and non-object
// values return null.
func (v Value) Field(key string) Value {
	if v.kind != KindObject {
		return Value{}
	}
	return v.obj[key]
}

// Has reports whether an object value carries the key (even with a null value).
func (v Value) Has(key string) bool {
	if v.kind != KindObject {
		return false
	}
	_, ok := v.obj[key]
	return ok
}

// Len returns the entry count for object and list values, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.obj)
	case KindList:
		return len(v.list)
	}
	return 0
}

// Items returns the elements of a list value, nil otherwise.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	return v.list
}

// CollectText appends every text fragment reachable from v to items,
// descending through the given object keys in preference order, flattening
// lists, and skipping nulls. Every preferred key that is present contributes;
// this is not a first-match search. Empty strings are dropped.
func CollectText(v Value, keys []string, items []string) []string {
	switch v.kind {
	case KindString:
		if v.str != "" {
			items = append(items, v.str)
		}
	case KindList:
		for _, item := range v.list {
			items = CollectText(item, keys, items)
		}
	case KindObject:
		for _, key := range keys {
			if inner, ok := v.obj[key]; ok {
				items = CollectText(inner, keys, items)
			}
		}
	}
	return items
}

// uuidPattern locates UUID-shaped substrings (8-4-4-4-12 hex groups).
var uuidPattern = regexp.MustCompile(
	`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`,
)

// UUIDIn returns the first UUID-shaped substring of s, or "" if none.
// Candidates are confirmed with a real parse so look-alikes are rejected.
func UUIDIn(s string) string {
	for _, candidate := range uuidPattern.FindAllString(s, -1) {
		if _, err := uuid.Parse(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// FindID searches v for a session-scoped identifier. Each preferred key is
// recursed into first, in order; first match wins. An object with no match
// under any preferred key falls back to a UUID scan over its deterministic
// serialization. Strings are scanned directly; list elements are tried in
// order.
func FindID(v Value, keys []string) string {
	switch v.kind {
	case KindString:
		return UUIDIn(v.str)
	case KindList:
		for _, item := range v.list {
			if id := FindID(item, keys); id != "" {
				return id
			}
		}
	case KindObject:
		for _, key := range keys {
			if inner, ok := v.obj[key]; ok {
				if id := FindID(inner, keys); id != "" {
					return id
				}
			}
		}
		return UUIDIn(v.Serialize())
	}
	return ""
}

// Serialize renders v back to compact JSON-ish text with sorted object keys,
// so fallback scans are deterministic. Numbers and booleans render as "?";
// only string content matters to the callers.
func (v Value) Serialize() string {
	var b strings.Builder
	v.serialize(&b)
	return b.String()
}

func (v Value) serialize(b *strings.Builder) {
	switch v.kind {
	case KindNull:
		b.WriteString("null")
	case KindString:
		b.WriteByte('"')
		b.WriteString(v.str)
		b.WriteByte('"')
	case KindList:
		b.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				b.WriteByte(',')
			}
			item.serialize(b)
		}
		b.WriteByte(']')
	case KindObject:
		keys := make([]string, 0, len(v.obj))
		for k := range v.obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(k)
			b.WriteString(`":`)
			v.obj[k].serialize(b)
		}
		b.WriteByte('}')
	default:
		b.WriteByte('?')
	}
}
