// Package codexmcp talks to a codex-style agent through its MCP server
// instead of one-shot CLI runs. A single server process is spawned lazily on
// the first turn and reused for every later one; threads take the place of
// exec resume handles.
package codexmcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/voxloop/agentpipe/internal/jsontree"
	"github.com/voxloop/agentpipe/provider"
)

const defaultStreamBuffer = 4

// Config holds provider settings.
type Config struct {
	// Binary is the agent CLI executable. Defaults to "codex".
	Binary string

	// Args launch the MCP server. Defaults to ["mcp"].
	Args []string

	// Env is merged over the inherited environment.
	Env map[string]string

	// WorkDir is the server's working directory ("" inherits).
	WorkDir string

	// PromptMode selects how the dialogue is rendered into a prompt.
	PromptMode provider.Mode

	// Start is the argument template for thread-starting calls. Prompt is
	// filled in per turn.
	Start StartArgs

	Logger   *slog.Logger
	Sessions *provider.SessionStore

	// StreamBuffer is the capacity of the outgoing chunk channel.
	StreamBuffer int
}

func (c *Config) applyDefaults() {
	if c.Binary == "" {
		c.Binary = "codex"
	}
	if c.Args == nil {
		c.Args = []string{"mcp"}
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Sessions == nil {
		c.Sessions = provider.NewSessionStore()
	}
	if c.StreamBuffer <= 0 {
		c.StreamBuffer = defaultStreamBuffer
	}
}

// Provider routes turns through the agent's MCP tools.
type Provider struct {
	cfg      Config
	logger   *slog.Logger
	client   *Client
	sessions *provider.SessionStore
	modes    *provider.ModeResolver
}

var _ provider.Provider = (*Provider)(nil)

// NewProvider builds a provider backed by a child MCP server process.
func NewProvider(cfg Config) *Provider {
	cfg.applyDefaults()
	return newProviderWithTransport(cfg, newProcessManager(cfg, cfg.Logger))
}

// newProviderWithTransport is the test seam: the wire can be faked.
func newProviderWithTransport(cfg Config, tr transport) *Provider {
	cfg.applyDefaults()
	return &Provider{
		cfg:      cfg,
		logger:   cfg.Logger,
		client:   newClient(tr, cfg.Logger),
		sessions: cfg.Sessions,
		// Thread continuation is inherent to this transport, so the
		// resolver always sees resume support.
		modes: provider.NewModeResolver(cfg.PromptMode, true, cfg.Sessions, cfg.Logger),
	}
}

// Sessions exposes the session store so lifecycle owners can Forget entries.
func (p *Provider) Sessions() *provider.SessionStore { return p.sessions }

// Close shuts the server process down.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Respond performs one tool call for the turn and yields the reply as a
// single fragment. Errors degrade to bracketed synthetic fragments.
func (p *Provider) Respond(ctx context.Context, sessionID string, dialogue provider.Dialogue) *provider.Stream {
	return provider.NewStream(p.cfg.StreamBuffer, func(emit func(string) bool) {
		p.run(ctx, sessionID, dialogue, emit)
	})
}

func (p *Provider) run(ctx context.Context, sessionID string, dialogue provider.Dialogue, emit func(string) bool) {
	mode := p.modes.Effective(sessionID)
	prompt := provider.RenderPrompt(dialogue, mode)
	thread := p.sessions.ResumeHandle(sessionID)

	var (
		name   string
		result *ToolResult
		err    error
	)
	if thread == "" {
		name = ToolStart
		args := p.cfg.Start
		args.Prompt = prompt
		result, err = p.client.CallTool(ctx, name, args)
	} else {
		name = ToolReply
		result, err = p.client.CallTool(ctx, name, ReplyArgs{ThreadID: thread, Prompt: prompt})
	}
	if err != nil {
		p.logger.Error("tool call failed", "tool", name, "error", err)
		emit(fmtToolError(name, err))
		return
	}

	text, newThread := extractResult(result)
	if newThread != "" {
		p.sessions.SetResumeHandle(sessionID, newThread)
	}
	if mode == provider.ModeFullDialogue {
		p.modes.MarkSent(sessionID)
	}

	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		emit(fmt.Sprintf("[codex mcp error: %s]", text))
		return
	}
	if text != "" {
		emit(text)
	}
}

// Thread-id and text key preferences for structured tool results.
var (
	threadIDKeys = []string{"threadId", "thread_id", "session_id", "conversationId"}
	mcpTextKeys  = []string{"content", "message", "text", "output"}
)

// extractResult pulls the reply text and thread id out of a tool result.
// The first string-valued key of structuredContent wins; the content array's
// text blocks, concatenated in order, are the fallback.
func extractResult(res *ToolResult) (text, threadID string) {
	if len(res.StructuredContent) > 0 {
		if v, err := jsontree.Decode(res.StructuredContent); err == nil {
			for _, key := range threadIDKeys {
				if id := v.Field(key).StringOr(""); id != "" {
					threadID = id
					break
				}
			}
			for _, key := range mcpTextKeys {
				if s := v.Field(key).StringOr(""); s != "" {
					text = s
					break
				}
			}
		}
	}
	if text == "" {
		var b strings.Builder
		for _, block := range res.Content {
			b.WriteString(block.Text)
		}
		text = b.String()
	}
	return strings.TrimSpace(text), threadID
}
