package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "[[status]]connecting", WrapStatus("connecting"))
	assert.Equal(t, "", WrapStatus(""))
}

func TestExtractStatus(t *testing.T) {
	t.Parallel()

	text, ok := ExtractStatus("[[status]] disk full")
	assert.True(t, ok)
	assert.Equal(t, "disk full", text)

	text, ok = ExtractStatus("[[status]]no space")
	assert.True(t, ok)
	assert.Equal(t, "no space", text)

	_, ok = ExtractStatus("plain content")
	assert.False(t, ok)

	_, ok = ExtractStatus("")
	assert.False(t, ok)
}

func TestStatusRoundTrip(t *testing.T) {
	t.Parallel()

	text, ok := ExtractStatus(WrapStatus("rate limited"))
	assert.True(t, ok)
	assert.Equal(t, "rate limited", text)
}
