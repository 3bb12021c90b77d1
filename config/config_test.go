package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agentpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, TransportCLI, cfg.Transport)
	assert.Equal(t, "codex", cfg.Command)
	assert.Equal(t, "full_dialogue", cfg.PromptMode)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
transport: cli
command: /opt/agent/codex
args: [exec, --json, "-", --full-auto]
prompt_mode: first_full_then_last
resume_session: true
stderr_min_interval: 2s
debug:
  events: true
  target: status
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/agent/codex", cfg.Command)
	assert.Equal(t, []string{"exec", "--json", "-", "--full-auto"}, cfg.Args)
	assert.Equal(t, "first_full_then_last", cfg.PromptMode)
	assert.True(t, cfg.ResumeSession)
	assert.True(t, cfg.Debug.Events)
	assert.Equal(t, "status", cfg.Debug.Target)

	d, err := cfg.stderrMinInterval()
	require.NoError(t, err)
	assert.Equal(t, "2s", d.String())
}

func TestLoad_MCPSection(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
transport: mcp
mcp:
  args: [mcp]
  start:
    model: gpt-5
    sandbox: workspace-write
    approval_policy: never
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, TransportMCP, cfg.Transport)
	assert.Equal(t, "gpt-5", cfg.MCP.Start.Model)
	assert.Equal(t, "workspace-write", cfg.MCP.Start.Sandbox)
	assert.Equal(t, "never", cfg.MCP.Start.ApprovalPolicy)
}

func TestLoad_RejectsUnknownTransport(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "transport: carrier-pigeon\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsBadDebugTarget(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "transport: cli\ndebug:\n  target: pager\n"))
	assert.Error(t, err)
}

func TestLoad_RejectsBadInterval(t *testing.T) {
	t.Parallel()
	_, err := Load(writeConfig(t, "transport: cli\nstderr_min_interval: soonish\n"))
	assert.Error(t, err)
}

func TestBuildProvider_CLI(t *testing.T) {
	t.Parallel()
	cfg := Default()
	p, err := cfg.BuildProvider(nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestBuildProvider_MCP(t *testing.T) {
	t.Parallel()
	cfg := Default()
	cfg.Transport = TransportMCP
	p, err := cfg.BuildProvider(nil, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}
