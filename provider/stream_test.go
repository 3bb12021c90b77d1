package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStream_YieldsInOrder(t *testing.T) {
	t.Parallel()

	s := NewStream(0, func(emit func(string) bool) {
		emit("a")
		emit("b")
		emit("c")
	})
	assert.Equal(t, []string{"a", "b", "c"}, s.Collect())
}

func TestStream_ExhaustionIsTerminal(t *testing.T) {
	t.Parallel()

	s := NewStream(0, func(emit func(string) bool) { emit("only") })
	require.True(t, s.Next())
	assert.Equal(t, "only", s.Text())
	assert.False(t, s.Next())
	assert.False(t, s.Next())
}

func TestStream_CloseStopsProducer(t *testing.T) {
	t.Parallel()

	stopped := make(chan struct{})
	s := NewStream(0, func(emit func(string) bool) {
		defer close(stopped)
		for emit("x") {
		}
	})

	require.True(t, s.Next())
	s.Close()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not observe Close")
	}
	assert.False(t, s.Next())
}

func TestStream_CloseIdempotent(t *testing.T) {
	t.Parallel()

	s := NewStream(0, func(emit func(string) bool) {})
	s.Close()
	s.Close()
	assert.False(t, s.Next())
}
