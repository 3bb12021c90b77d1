package codexmcp

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/voxloop/agentpipe/internal/procattr"
)

// transport is the wire the client talks over. The real implementation is a
// child process speaking newline-delimited JSON on stdio; tests substitute
// an in-process fake.
type transport interface {
	Start(ctx context.Context) error
	WriteJSON(v interface{}) error
	ReadLine() ([]byte, error)
	Stop() error
}

// processManager runs the agent's MCP server as a child process.
type processManager struct {
	stdin    io.WriteCloser
	stdout   io.ReadCloser
	stderr   io.ReadCloser
	cmd      *exec.Cmd
	reader   *bufio.Reader
	encoder  *json.Encoder
	logger   *slog.Logger
	config   Config
	mu       sync.Mutex
	started  bool
	stopping bool
}

func newProcessManager(config Config, logger *slog.Logger) *processManager {
	return &processManager{config: config, logger: logger}
}

// Start spawns the MCP server process.
func (pm *processManager) Start(ctx context.Context) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.started {
		return ErrAlreadyStarted
	}

	pm.cmd = exec.CommandContext(ctx, pm.config.Binary, pm.config.Args...)
	procattr.Set(pm.cmd)
	pm.cmd.Dir = pm.config.WorkDir

	if len(pm.config.Env) > 0 {
		pm.cmd.Env = os.Environ()
		for k, v := range pm.config.Env {
			pm.cmd.Env = append(pm.cmd.Env, k+"="+v)
		}
	}

	var err error
	pm.stdin, err = pm.cmd.StdinPipe()
	if err != nil {
		return &ProcessError{Message: "failed to get stdin pipe", Cause: err}
	}
	pm.stdout, err = pm.cmd.StdoutPipe()
	if err != nil {
		return &ProcessError{Message: "failed to get stdout pipe", Cause: err}
	}
	pm.stderr, err = pm.cmd.StderrPipe()
	if err != nil {
		return &ProcessError{Message: "failed to get stderr pipe", Cause: err}
	}

	if err := pm.cmd.Start(); err != nil {
		return &ProcessError{Message: "failed to start mcp server", Cause: err}
	}

	pm.reader = bufio.NewReader(pm.stdout)
	pm.encoder = json.NewEncoder(pm.stdin)
	pm.started = true

	pm.startStderrLogger()
	return nil
}

// ReadLine reads one newline-delimited JSON message from stdout.
func (pm *processManager) ReadLine() ([]byte, error) {
	pm.mu.Lock()
	reader := pm.reader
	pm.mu.Unlock()

	if reader == nil {
		return nil, io.EOF
	}

	line, err := reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
	}
	return line, nil
}

// WriteJSON writes one JSON message to stdin.
func (pm *processManager) WriteJSON(v interface{}) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.encoder == nil {
		return ErrNotStarted
	}
	if pm.stopping {
		return ErrStopping
	}
	return pm.encoder.Encode(v)
}

// Stop closes stdin and escalates from SIGINT to SIGKILL if the process
// lingers.
func (pm *processManager) Stop() error {
	pm.mu.Lock()
	if !pm.started || pm.stopping {
		pm.mu.Unlock()
		return nil
	}
	pm.stopping = true
	pm.mu.Unlock()

	if pm.stdin != nil {
		pm.stdin.Close()
	}

	done := make(chan error, 1)
	go func() {
		done <- pm.cmd.Wait()
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		_ = procattr.SignalGroup(pm.cmd.Process, syscall.SIGINT)
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			_ = procattr.KillGroup(pm.cmd.Process)
			select {
			case <-done:
			case <-time.After(200 * time.Millisecond):
			}
		}
	}
	return nil
}

// startStderrLogger drains stderr into the structured log so server
// diagnostics are not lost.
func (pm *processManager) startStderrLogger() {
	stderr := pm.stderr
	if stderr == nil {
		return
	}
	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); line != "" {
				pm.logger.Debug("mcp server stderr", "line", line)
			}
		}
	}()
}
