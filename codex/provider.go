// Package codex adapts a codex-style agent CLI into a streaming provider.
// Each turn spawns one child process in JSON event mode, multiplexes its
// stdout and stderr through a single channel, and yields ordered text
// fragments as they arrive. Session resumption, prompt-mode resolution,
// stderr summarization, and abort blocking are layered on top of the
// process loop.
package codex

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/voxloop/agentpipe/internal/procattr"
	"github.com/voxloop/agentpipe/provider"
)

const (
	pollInterval      = 100 * time.Millisecond
	readerJoinTimeout = time.Second

	errCommandNotFound = "[codex error: command not found]"
	errFailedToStart   = "[codex error: failed to start]"
	errExitCodeFormat  = "[codex error: exit code %d]"
)

// Provider runs the agent CLI as a child process per turn.
type Provider struct {
	cfg      Config
	logger   *slog.Logger
	sessions *provider.SessionStore
	registry *provider.AbortRegistry
	modes    *provider.ModeResolver
}

var _ provider.Provider = (*Provider)(nil)

// New builds a Provider from options. Zero-value defaults match the agent
// CLI's stock invocation ("codex exec --json -" with the prompt on stdin).
func New(opts ...Option) *Provider {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = provider.NewSessionStore()
	}
	if cfg.Registry == nil {
		cfg.Registry = provider.DefaultAbortRegistry
	}
	return &Provider{
		cfg:      cfg,
		logger:   cfg.Logger,
		sessions: cfg.Sessions,
		registry: cfg.Registry,
		modes: provider.NewModeResolver(
			cfg.PromptMode, cfg.ResumeSessions, cfg.Sessions, cfg.Logger),
	}
}

// Sessions exposes the session store so lifecycle owners can Forget entries.
func (p *Provider) Sessions() *provider.SessionStore { return p.sessions }

// Respond spawns one child process for the turn and streams its output.
// Errors never surface as stream failures; they degrade to bracketed
// synthetic fragments per the provider contract.
func (p *Provider) Respond(ctx context.Context, sessionID string, dialogue provider.Dialogue) *provider.Stream {
	return provider.NewStream(p.cfg.StreamBuffer, func(emit func(string) bool) {
		p.run(ctx, sessionID, dialogue, emit)
	})
}

// lineEvent is one line read from the child, tagged with its origin stream.
type lineEvent struct {
	text   string
	stderr bool
}

func (p *Provider) run(ctx context.Context, sessionID string, dialogue provider.Dialogue, emit func(string) bool) {
	mode := p.modes.Effective(sessionID)
	prompt := provider.RenderPrompt(dialogue, mode)

	var resumeHandle string
	if p.cfg.ResumeSessions {
		resumeHandle = p.sessions.ResumeHandle(sessionID)
	}

	argv := BuildCommand(p.cfg.Binary, p.cfg.Args, p.cfg.PromptViaStdin, resumeHandle)
	if !p.cfg.PromptViaStdin && prompt != "" {
		argv = append(argv, prompt)
	}

	gate := newDiagGate(p.cfg, p.logger, sessionID)
	defer gate.release()

	cmd := exec.Command(argv[0], argv[1:]...)
	procattr.Set(cmd)
	cmd.Dir = p.cfg.WorkDir
	if len(p.cfg.Env) > 0 {
		env := os.Environ()
		for k, v := range p.cfg.Env {
			env = append(env, k+"="+v)
		}
		cmd.Env = env
	}

	var stdin io.WriteCloser
	if p.cfg.PromptViaStdin {
		var err error
		if stdin, err = cmd.StdinPipe(); err != nil {
			p.logger.Error("stdin pipe failed", "error", err)
			emit(errFailedToStart)
			return
		}
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		p.logger.Error("stdout pipe failed", "error", err)
		emit(errFailedToStart)
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.logger.Error("stderr pipe failed", "error", err)
		emit(errFailedToStart)
		return
	}

	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			p.logger.Error("agent binary not found", "binary", argv[0])
			emit(errCommandNotFound)
			return
		}
		p.logger.Error("agent start failed", "error", err)
		emit(errFailedToStart)
		return
	}
	p.logger.Debug("agent started", "pid", cmd.Process.Pid, "session", sessionID, "mode", string(mode))

	// The full dialogue is considered delivered once the process is up;
	// later turns of a hybrid session send deltas.
	if mode == provider.ModeFullDialogue {
		p.modes.MarkSent(sessionID)
	}

	if stdin != nil {
		go func() {
			if _, err := io.WriteString(stdin, prompt); err != nil {
				p.logger.Warn("prompt write failed", "error", err)
			}
			stdin.Close()
		}()
	}

	lines := make(chan lineEvent, p.cfg.StreamBuffer)
	var readers sync.WaitGroup
	readers.Add(2)
	go readLines(stdout, false, lines, &readers)
	go readLines(stderr, true, lines, &readers)
	go func() {
		readers.Wait()
		close(lines)
	}()

	contentStarted := false

	handleStdout := func(ev Event) bool {
		if p.cfg.DebugEvents {
			if msg, ok := formatDebugEvent(ev, p.cfg.DebugCommandOutput, p.cfg.DebugCommandOutputMaxChars); ok {
				if p.cfg.DebugTarget == DebugToStatus {
					return emit(provider.WrapStatus(msg))
				}
				p.logger.Debug("agent event", "detail", msg)
				return true
			}
		}
		for _, chunk := range ev.TextChunks() {
			if chunk == "" {
				continue
			}
			if !contentStarted {
				contentStarted = true
				gate.release()
			}
			if !emit(chunk) {
				return false
			}
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("context canceled, stopping agent", "session", sessionID)
			p.stop(cmd, lines)
			return

		case ev, ok := <-lines:
			if !ok {
				werr := cmd.Wait()
				var exitErr *exec.ExitError
				if errors.As(werr, &exitErr) && !contentStarted {
					emit(fmt.Sprintf(errExitCodeFormat, exitErr.ExitCode()))
				}
				return
			}
			parsed, ok := ParseEvent(ev.text)
			if !ok {
				continue
			}
			// The session banner can arrive on either stream, so ids are
			// persisted before any routing decides the line's fate.
			if id := parsed.SessionID(); id != "" {
				p.sessions.SetResumeHandle(sessionID, id)
			}
			if ev.stderr {
				if contentStarted {
					continue
				}
				if summary := gate.handleEvent(parsed); summary != "" {
					if !emit(provider.WrapStatus(summary)) {
						p.stop(cmd, lines)
						return
					}
				}
				continue
			}
			if !handleStdout(parsed) {
				p.stop(cmd, lines)
				return
			}

		case <-time.After(pollInterval):
			// Bounded wait so cancellation and close are observed promptly
			// even when the child is silent.
		}
	}
}

// stop tears the child down: SIGTERM to the process group, a bounded drain
// of the reader channel, then SIGKILL if the readers have not finished.
func (p *Provider) stop(cmd *exec.Cmd, lines <-chan lineEvent) {
	if err := procattr.SignalGroup(cmd.Process, syscall.SIGTERM); err != nil {
		p.logger.Debug("terminate failed", "error", err)
	}
	timer := time.NewTimer(readerJoinTimeout)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-lines:
			if !ok {
				cmd.Wait()
				return
			}
		case <-timer.C:
			if err := procattr.KillGroup(cmd.Process); err != nil {
				p.logger.Debug("kill failed", "error", err)
			}
			for range lines {
			}
			cmd.Wait()
			return
		}
	}
}

// readLines pumps one pipe into the shared channel, one event per line.
func readLines(r io.Reader, isStderr bool, out chan<- lineEvent, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		out <- lineEvent{text: scanner.Text(), stderr: isStderr}
	}
}
