package provider

import "strings"

// StatusPrefix marks a fragment as diagnostic/administrative rather than
// generated content. Pipelines check for it before treating a fragment as
// model output.
const StatusPrefix = "[[status]]"

// WrapStatus marks text as a status fragment. Empty text stays empty.
func WrapStatus(text string) string {
	if text == "" {
		return ""
	}
	return StatusPrefix + text
}

// ExtractStatus strips the status marker and returns the remainder with
// leading whitespace removed. ok is false for ordinary content.
func ExtractStatus(content string) (text string, ok bool) {
	if !strings.HasPrefix(content, StatusPrefix) {
		return "", false
	}
	return strings.TrimLeft(content[len(StatusPrefix):], " \t\r\n"), true
}
