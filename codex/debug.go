package codex

import (
	"strings"

	"github.com/voxloop/agentpipe/internal/jsontree"
)

const (
	debugReasoningPrefix = "[codex.reasoning] "
	debugCommandPrefix   = "[codex.command] "
)

// formatDebugEvent renders reasoning and command-execution items for the
// debug path. Message items and non-item events report ok=false and flow
// through normal text extraction instead.
func formatDebugEvent(ev Event, includeOutput bool, maxChars int) (string, bool) {
	if !ev.structured {
		return "", false
	}
	if !strings.HasPrefix(ev.Type(), "item.") {
		return "", false
	}
	item := ev.value.Field("item")
	if item.Kind() != jsontree.KindObject {
		return "", false
	}

	switch item.Field("type").StringOr("") {
	case "reasoning":
		text := joinText(item)
		if text == "" {
			return "", false
		}
		return debugReasoningPrefix + text, true

	case "command_execution":
		command := strings.TrimSpace(strings.Join(
			jsontree.CollectText(item.Field("command"), textKeys, nil), " "))
		if command == "" {
			return "", false
		}
		msg := debugCommandPrefix + command
		if includeOutput {
			out := firstTruthy(item, "aggregated_output", "output")
			if text := joinText(out); text != "" {
				msg += "\n" + truncate(text, maxChars)
			}
		}
		return msg, true
	}
	return "", false
}

func joinText(v jsontree.Value) string {
	if s := v.StringOr(""); s != "" {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(strings.Join(jsontree.CollectText(v, textKeys, nil), "\n"))
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
