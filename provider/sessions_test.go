package provider

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionStore_ResumeHandleLastWriteWins(t *testing.T) {
	t.Parallel()

	s := NewSessionStore()
	assert.Equal(t, "", s.ResumeHandle("s1"))

	s.SetResumeHandle("s1", "first")
	s.SetResumeHandle("s1", "second")
	assert.Equal(t, "second", s.ResumeHandle("s1"))
	assert.Equal(t, "", s.ResumeHandle("s2"))
}

func TestSessionStore_IgnoresEmptyKeys(t *testing.T) {
	t.Parallel()

	s := NewSessionStore()
	s.SetResumeHandle("", "handle")
	s.SetResumeHandle("s1", "")
	assert.Equal(t, "", s.ResumeHandle(""))
	assert.Equal(t, "", s.ResumeHandle("s1"))
}

func TestSessionStore_Forget(t *testing.T) {
	t.Parallel()

	s := NewSessionStore()
	s.SetResumeHandle("s1", "h")
	s.MarkFullSent("s1")

	s.Forget("s1")
	assert.Equal(t, "", s.ResumeHandle("s1"))
	assert.False(t, s.FullSent("s1"))
}

func TestModeResolver_NonHybridPassesThrough(t *testing.T) {
	t.Parallel()

	r := NewModeResolver(ModeLastUser, true, NewSessionStore(), nil)
	assert.Equal(t, ModeLastUser, r.Effective("s1"))

	// MarkSent is a no-op outside the hybrid mode.
	r.MarkSent("s1")
	assert.Equal(t, ModeLastUser, r.Effective("s1"))
}

func TestModeResolver_HybridWithResume(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	r := NewModeResolver(ModeFirstFullThenLast, true, store, nil)

	assert.Equal(t, ModeFullDialogue, r.Effective("s1"))
	r.MarkSent("s1")
	assert.Equal(t, ModeLastUser, r.Effective("s1"))

	// Other sessions still start full.
	assert.Equal(t, ModeFullDialogue, r.Effective("s2"))

	// Empty sessions always use the full dialogue.
	assert.Equal(t, ModeFullDialogue, r.Effective(""))
}

func TestModeResolver_HybridWithoutResumeWarnsOnce(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	r := NewModeResolver(ModeFirstFullThenLast, false, NewSessionStore(), logger)

	assert.Equal(t, ModeFullDialogue, r.Effective("s1"))
	r.MarkSent("s1")
	// Degrades to full dialogue on every turn, even after MarkSent.
	assert.Equal(t, ModeFullDialogue, r.Effective("s1"))
	assert.Equal(t, ModeFullDialogue, r.Effective("s2"))

	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("first_full_then_last")))
}
