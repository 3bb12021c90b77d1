package codex

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxloop/agentpipe/provider"
)

// writeScript installs a fake agent binary backed by a shell script.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-codex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestProvider(t *testing.T, script string, opts ...Option) *Provider {
	t.Helper()
	base := []Option{
		WithBinary(script),
		WithSessions(provider.NewSessionStore()),
		WithRegistry(provider.NewAbortRegistry()),
	}
	return New(append(base, opts...)...)
}

func userTurn(text string) provider.Dialogue {
	return provider.Dialogue{{Role: provider.RoleUser, Content: text}}
}

func TestRespond_StreamsDeltasInOrder(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"response.output_text.delta","delta":"Hel"}'
echo '{"type":"response.output_text.delta","delta":"lo"}'`)
	p := newTestProvider(t, script)

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"Hel", "lo"}, got)
}

func TestRespond_PromptDeliveredViaStdin(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
p=$(cat)
printf '{"type":"response.output_text.delta","delta":"got:%s"}\n' "$p"`)
	p := newTestProvider(t, script, WithPromptMode(provider.ModeLastUser))

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"got:hi"}, got)
}

func TestRespond_ResumeHandleReused(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"session.created","session_id":"`+testUUID+`"}'
printf '{"type":"response.output_text.delta","delta":"args:%s"}\n' "$*"`)
	p := newTestProvider(t, script, WithResumeSessions(true))

	first := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	require.Len(t, first, 1)
	assert.NotContains(t, first[0], "resume")

	second := p.Respond(context.Background(), "s1", userTurn("more")).Collect()
	require.Len(t, second, 1)
	assert.Contains(t, second[0], "resume "+testUUID)
}

func TestRespond_ResumeScopedPerSession(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"session.created","session_id":"`+testUUID+`"}'
printf '{"type":"response.output_text.delta","delta":"args:%s"}\n' "$*"`)
	p := newTestProvider(t, script, WithResumeSessions(true))

	p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	other := p.Respond(context.Background(), "s2", userTurn("hi")).Collect()
	require.Len(t, other, 1)
	assert.NotContains(t, other[0], "resume")
}

func TestRespond_SessionIDCapturedFromStderr(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"session.created","session_id":"`+testUUID+`"}' >&2
echo '{"type":"response.output_text.delta","delta":"ok"}'`)
	sessions := provider.NewSessionStore()
	// No summarizer, so stderr is not surfaced but still mined for the handle.
	p := newTestProvider(t, script, WithResumeSessions(true), WithSessions(sessions))

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"ok"}, got)
	assert.Equal(t, testUUID, sessions.ResumeHandle("s1"))
}

func TestRespond_ArgvPromptOmittedWhenEmpty(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `printf '{"type":"response.output_text.delta","delta":"argc:%s"}\n' "$#"`)
	p := newTestProvider(t, script, WithPromptViaArgv(), WithPromptMode(provider.ModeLastUser))

	got := p.Respond(context.Background(), "s1", provider.Dialogue{
		{Role: provider.RoleAssistant, Content: "no user turn yet"},
	}).Collect()
	assert.Equal(t, []string{"argc:2"}, got)

	got = p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"argc:3"}, got)
}

func TestRespond_StderrSummaryAndAbortBlock(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo 'disk is full' >&2
sleep 0.3
echo '{"type":"response.output_text.delta","delta":"ok"}'`)
	reg := provider.NewAbortRegistry()
	p := newTestProvider(t, script,
		WithRegistry(reg),
		WithSummarizer(func(string) string { return "disk full" }))

	s := p.Respond(context.Background(), "s1", userTurn("hi"))

	require.True(t, s.Next())
	assert.Equal(t, provider.StatusPrefix+"disk full", s.Text())
	assert.True(t, reg.IsBlocked("s1"), "session should be abort-blocked during diagnostics")

	require.True(t, s.Next())
	assert.Equal(t, "ok", s.Text())
	assert.False(t, reg.IsBlocked("s1"), "first content chunk should unblock the session")

	assert.False(t, s.Next())
}

func TestRespond_BlockClearedWhenNoContentArrives(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `echo 'transient warning' >&2`)
	reg := provider.NewAbortRegistry()
	p := newTestProvider(t, script,
		WithRegistry(reg),
		WithSummarizer(func(s string) string { return s }))

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{provider.StatusPrefix + "transient warning"}, got)
	assert.False(t, reg.IsBlocked("s1"))
}

func TestRespond_ExitCodeWithoutOutput(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, writeScript(t, `exit 3`))

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"[codex error: exit code 3]"}, got)
}

func TestRespond_ExitCodeAfterOutputSuppressed(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"response.output_text.delta","delta":"partial"}'
exit 3`)
	p := newTestProvider(t, script)

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"partial"}, got)
}

func TestRespond_BinaryNotFound(t *testing.T) {
	t.Parallel()
	p := New(
		WithBinary("definitely-missing-agent-binary"),
		WithSessions(provider.NewSessionStore()),
		WithRegistry(provider.NewAbortRegistry()),
	)

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"[codex error: command not found]"}, got)
}

func TestRespond_ContextCancelStopsChild(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"response.output_text.delta","delta":"one"}'
sleep 30
echo '{"type":"response.output_text.delta","delta":"two"}'`)
	p := newTestProvider(t, script)

	ctx, cancel := context.WithCancel(context.Background())
	s := p.Respond(ctx, "s1", userTurn("hi"))

	require.True(t, s.Next())
	assert.Equal(t, "one", s.Text())

	start := time.Now()
	cancel()
	assert.False(t, s.Next(), "stream should end after cancellation")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRespond_HybridModeSendsFullThenDelta(t *testing.T) {
	t.Parallel()
	out := filepath.Join(t.TempDir(), "prompt.txt")
	script := writeScript(t, `
cat > "$PROMPT_OUT"
echo '{"type":"session.created","session_id":"`+testUUID+`"}'
echo '{"type":"response.output_text.delta","delta":"ok"}'`)
	p := newTestProvider(t, script,
		WithPromptMode(provider.ModeFirstFullThenLast),
		WithResumeSessions(true),
		WithEnv(map[string]string{"PROMPT_OUT": out}))

	dialogue := provider.Dialogue{
		{Role: provider.RoleSystem, Content: "S"},
		{Role: provider.RoleUser, Content: "hi"},
	}
	p.Respond(context.Background(), "s1", dialogue).Collect()

	prompt, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "System: S\nUser: hi", string(prompt))

	dialogue = append(dialogue,
		provider.Message{Role: provider.RoleAssistant, Content: "hello"},
		provider.Message{Role: provider.RoleUser, Content: "again"})
	p.Respond(context.Background(), "s1", dialogue).Collect()

	prompt, err = os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "again", string(prompt))
}

func TestRespond_WorkDirApplied(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	script := writeScript(t, `printf '{"type":"response.output_text.delta","delta":"cwd:%s"}\n' "$PWD"`)
	p := newTestProvider(t, script, WithWorkDir(dir))

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	require.Len(t, got, 1)
	assert.Contains(t, got[0], dir)
}

func TestRespond_DebugEventsAsStatus(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"item.completed","item":{"type":"reasoning","text":"pondering"}}'
echo '{"type":"response.output_text.delta","delta":"answer"}'`)
	p := newTestProvider(t, script, WithDebugEvents(DebugToStatus))

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{
		provider.StatusPrefix + "[codex.reasoning] pondering",
		"answer",
	}, got)
}

func TestRespond_StderrDroppedAfterContent(t *testing.T) {
	t.Parallel()
	script := writeScript(t, `
echo '{"type":"response.output_text.delta","delta":"body"}'
sleep 0.2
echo 'late warning' >&2
sleep 0.2
echo '{"type":"response.output_text.delta","delta":"tail"}'`)
	p := newTestProvider(t, script,
		WithSummarizer(func(s string) string { return s }))

	got := p.Respond(context.Background(), "s1", userTurn("hi")).Collect()
	assert.Equal(t, []string{"body", "tail"}, got)
}
