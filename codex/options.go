package codex

import (
	"log/slog"
	"time"

	"github.com/voxloop/agentpipe/provider"
)

// DebugTarget selects where reasoning and command debug events go.
type DebugTarget string

const (
	// DebugToLog routes debug events to the structured logger.
	DebugToLog DebugTarget = "log"

	// DebugToStatus emits debug events as status fragments on the stream.
	DebugToStatus DebugTarget = "status"
)

const (
	defaultStreamBuffer       = 64
	defaultCommandOutputChars = 2000
)

// Config holds provider settings. Use the With* options to build one.
type Config struct {
	// Binary is the agent CLI executable. Defaults to "codex".
	Binary string

	// Args are extra arguments placed after the exec subcommand. Control
	// tokens (exec, resume, e, -) are filtered out; --json is always added.
	Args []string

	// PromptMode selects how the dialogue is rendered into a prompt.
	PromptMode provider.Mode

	// PromptViaStdin writes the prompt to the child's stdin when true
	// (the default); otherwise it is appended as a final argument.
	PromptViaStdin bool

	// WorkDir is the child's working directory ("" inherits).
	WorkDir string

	// Env is merged over the inherited environment.
	Env map[string]string

	// ResumeSessions enables exec resume with stored session handles.
	ResumeSessions bool

	// StderrSummary enables summarized stderr status fragments.
	StderrSummary bool

	// StderrMinInterval is the minimum gap between stderr summaries.
	StderrMinInterval time.Duration

	// DebugEvents surfaces reasoning and command events.
	DebugEvents bool

	// DebugTarget selects the debug event destination.
	DebugTarget DebugTarget

	// DebugCommandOutput includes truncated command output in debug events.
	DebugCommandOutput bool

	// DebugCommandOutputMaxChars caps included command output.
	DebugCommandOutputMaxChars int

	Logger    *slog.Logger
	Summarize provider.SummarizeFunc
	Registry  *provider.AbortRegistry
	Sessions  *provider.SessionStore

	// StreamBuffer is the capacity of the outgoing chunk channel.
	StreamBuffer int
}

func defaultConfig() Config {
	return Config{
		Binary:                     defaultBinaryName,
		Args:                       []string{subcmdExec, flagJSON, stdinMarker},
		PromptMode:                 provider.ModeFullDialogue,
		PromptViaStdin:             true,
		StderrSummary:              true,
		DebugTarget:                DebugToLog,
		DebugCommandOutputMaxChars: defaultCommandOutputChars,
		StreamBuffer:               defaultStreamBuffer,
	}
}

// Option configures a Provider.
type Option func(*Config)

// WithBinary sets the agent CLI executable.
func WithBinary(bin string) Option {
	return func(c *Config) { c.Binary = bin }
}

// WithArgs sets the base arguments.
func WithArgs(args ...string) Option {
	return func(c *Config) { c.Args = args }
}

// WithPromptMode sets the prompt rendering mode.
func WithPromptMode(m provider.Mode) Option {
	return func(c *Config) { c.PromptMode = m }
}

// WithPromptViaArgv appends the rendered prompt as a final argument
// instead of writing it to stdin.
func WithPromptViaArgv() Option {
	return func(c *Config) { c.PromptViaStdin = false }
}

// WithWorkDir sets the child's working directory.
func WithWorkDir(dir string) Option {
	return func(c *Config) { c.WorkDir = dir }
}

// WithEnv merges extra environment variables into the child's environment.
func WithEnv(env map[string]string) Option {
	return func(c *Config) { c.Env = env }
}

// WithResumeSessions enables session resumption.
func WithResumeSessions(enabled bool) Option {
	return func(c *Config) { c.ResumeSessions = enabled }
}

// WithStderrSummary toggles summarized stderr status fragments.
func WithStderrSummary(enabled bool) Option {
	return func(c *Config) { c.StderrSummary = enabled }
}

// WithStderrMinInterval sets the stderr summary debounce interval.
func WithStderrMinInterval(d time.Duration) Option {
	return func(c *Config) { c.StderrMinInterval = d }
}

// WithDebugEvents enables reasoning and command debug events.
func WithDebugEvents(target DebugTarget) Option {
	return func(c *Config) {
		c.DebugEvents = true
		if target != "" {
			c.DebugTarget = target
		}
	}
}

// WithDebugCommandOutput includes command output in debug events, truncated
// to maxChars (0 keeps the default cap).
func WithDebugCommandOutput(maxChars int) Option {
	return func(c *Config) {
		c.DebugCommandOutput = true
		if maxChars > 0 {
			c.DebugCommandOutputMaxChars = maxChars
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithSummarizer sets the stderr summarizer.
func WithSummarizer(fn provider.SummarizeFunc) Option {
	return func(c *Config) { c.Summarize = fn }
}

// WithRegistry sets the abort-block registry.
func WithRegistry(r *provider.AbortRegistry) Option {
	return func(c *Config) { c.Registry = r }
}

// WithSessions sets the session store.
func WithSessions(s *provider.SessionStore) Option {
	return func(c *Config) { c.Sessions = s }
}

// WithStreamBuffer sets the outgoing chunk channel capacity.
func WithStreamBuffer(n int) Option {
	return func(c *Config) { c.StreamBuffer = n }
}
