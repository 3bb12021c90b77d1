package codex

import (
	"strings"

	"github.com/voxloop/agentpipe/internal/jsontree"
)

// Key preference orders mirror the agent CLI's JSON event shapes. Session
// identifiers are tried before the generic "id" so that unrelated item ids
// do not shadow the conversation handle.
var sessionIDKeys = []string{
	"session_id", "sessionId",
	"conversation_id", "conversationId",
	"session", "conversation",
	"id",
}

var textKeys = []string{
	"text", "content", "message", "output",
	"delta", "data", "response", "result", "final",
}

var messageItemTypes = map[string]bool{
	"agent_message":     true,
	"assistant_message": true,
	"message":           true,
}

// Event is one line of child output. Structured events carry a decoded JSON
// tree; anything that fails to decode is kept as an opaque text line.
type Event struct {
	value      jsontree.Value
	raw        string
	structured bool
}

// ParseEvent decodes a single output line. Blank lines are dropped. An SSE
// style "data:" prefix is tolerated before decoding.
func ParseEvent(line string) (Event, bool) {
	s := strings.TrimSpace(line)
	if s == "" {
		return Event{}, false
	}
	if rest, ok := strings.CutPrefix(s, "data:"); ok {
		s = strings.TrimSpace(rest)
	}
	if v, err := jsontree.Decode([]byte(s)); err == nil {
		return Event{value: v, raw: s, structured: true}, true
	}
	return Event{raw: s}, true
}

// Type returns the event's "type" field, or "" for opaque lines.
func (e Event) Type() string {
	if !e.structured {
		return ""
	}
	return e.value.Field("type").StringOr("")
}

// SessionID extracts a resume handle from the event, if one is present.
// Structured events are searched by key preference with a UUID scan as the
// fallback; opaque lines are scanned directly for a UUID.
func (e Event) SessionID() string {
	if !e.structured {
		return jsontree.UUIDIn(e.raw)
	}
	return jsontree.FindID(e.value, sessionIDKeys)
}

func truthy(v jsontree.Value) bool {
	switch v.Kind() {
	case jsontree.KindNull:
		return false
	case jsontree.KindString:
		return v.StringOr("") != ""
	case jsontree.KindList:
		return len(v.Items()) > 0
	case jsontree.KindObject:
		return v.Len() > 0
	}
	return true
}

func firstTruthy(v jsontree.Value, keys ...string) jsontree.Value {
	for _, k := range keys {
		if f := v.Field(k); truthy(f) {
			return f
		}
	}
	return jsontree.Null()
}

// itemText handles "item.*" events, which nest the payload one level down.
// Only message-like item types yield text here; anything else returns empty
// so extraction falls through to the generic branches.
func itemText(v jsontree.Value) []string {
	typ := v.Field("type").StringOr("")
	if !strings.HasPrefix(typ, "item.") {
		return nil
	}
	item := v.Field("item")
	if item.Kind() != jsontree.KindObject {
		item = v.Field("delta")
	}
	if item.Kind() != jsontree.KindObject {
		return nil
	}
	if !messageItemTypes[item.Field("type").StringOr("")] {
		return nil
	}
	return jsontree.CollectText(item, textKeys, nil)
}

// TextChunks returns the user-visible text fragments carried by the event,
// in order. An opaque line is itself the fragment.
func (e Event) TextChunks() []string {
	if !e.structured {
		return []string{e.raw}
	}
	v := e.value

	if chunks := itemText(v); len(chunks) > 0 {
		return chunks
	}

	typ := v.Field("type").StringOr("")
	switch {
	case strings.HasSuffix(typ, ".delta"):
		if d := firstTruthy(v, "delta", "text"); !d.IsNull() {
			return jsontree.CollectText(d, textKeys, nil)
		}
		return nil
	case strings.HasSuffix(typ, ".error"), typ == "error":
		if d := firstTruthy(v, "error", "message"); !d.IsNull() {
			parts := jsontree.CollectText(d, textKeys, nil)
			if len(parts) == 0 {
				if s := d.StringOr(""); s != "" {
					parts = []string{s}
				}
			}
			return parts
		}
		return nil
	}

	return jsontree.CollectText(v, textKeys, nil)
}

// Text joins the event's fragments into one trimmed string.
func (e Event) Text() string {
	return strings.TrimSpace(strings.Join(e.TextChunks(), "\n"))
}
