package codexmcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Client is a lazily-initialized MCP client over a persistent agent server
// process. The first tool call spawns the server and performs the MCP
// initialize handshake; the process then serves every later call until
// Close.
type Client struct {
	tr        transport
	logger    *slog.Logger
	ids       idGenerator
	mu        sync.Mutex
	pendingMu sync.Mutex
	pending   map[int64]chan *JSONRPCResponse
	started   bool
	closed    bool
}

// newClient wraps a transport. The real constructor path is through
// Provider; tests inject fake transports directly.
func newClient(tr transport, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		tr:      tr,
		logger:  logger,
		pending: make(map[int64]chan *JSONRPCResponse),
	}
}

// ensureStarted brings the transport up and runs the initialize handshake
// exactly once. Concurrent callers serialize on the client mutex so the
// server is never double-spawned.
func (c *Client) ensureStarted(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrStopping
	}
	if c.started {
		return nil
	}

	if err := c.tr.Start(ctx); err != nil {
		return err
	}
	go c.readLoop()

	params := initializeParams{
		ProtocolVersion: protocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      clientInfo{Name: "agentpipe", Version: "1"},
	}
	if _, err := c.callLocked(ctx, MethodInitialize, params); err != nil {
		return &ProcessError{Message: "initialize handshake failed", Cause: err}
	}
	note, err := newNotification(MethodInitialized, map[string]any{})
	if err != nil {
		return err
	}
	if err := c.tr.WriteJSON(note); err != nil {
		return &ProcessError{Message: "initialized notification failed", Cause: err}
	}

	c.started = true
	return nil
}

// CallTool invokes one MCP tool and waits for its result.
func (c *Client) CallTool(ctx context.Context, name string, args any) (*ToolResult, error) {
	if err := c.ensureStarted(ctx); err != nil {
		return nil, err
	}
	raw, err := c.call(ctx, MethodToolsCall, callToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	var result ToolResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &ProtocolError{Message: "malformed tool result", Cause: err, Line: string(raw)}
	}
	return &result, nil
}

func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrStopping
	}
	raw, err := c.callLocked(ctx, method, params)
	c.mu.Unlock()
	return raw, err
}

// callLocked sends one request and blocks for its response. The client mutex
// must be held; it stays held for the duration, serializing requests, which
// matches the one-turn-at-a-time provider contract.
func (c *Client) callLocked(ctx context.Context, method string, params any) (json.RawMessage, error) {
	id := c.ids.Next()
	req, err := newRequest(id, method, params)
	if err != nil {
		return nil, err
	}

	ch := make(chan *JSONRPCResponse, 1)
	c.registerPending(id, ch)
	defer c.unregisterPending(id)

	if err := c.tr.WriteJSON(req); err != nil {
		return nil, &ProcessError{Message: "request write failed", Cause: err}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return nil, &ProcessError{Message: "server closed connection"}
		}
		if resp.Error != nil {
			return nil, &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
		}
		return resp.Result, nil
	}
}

// pendingMu guards the pending map separately from the client mutex so the
// read loop never contends with an in-flight call.

func (c *Client) registerPending(id int64, ch chan *JSONRPCResponse) {
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
}

func (c *Client) unregisterPending(id int64) {
	c.pendingMu.Lock()
	delete(c.pending, id)
	c.pendingMu.Unlock()
}

// readLoop pumps responses from the transport to their waiting callers.
// Notifications and unknown ids are logged and dropped.
func (c *Client) readLoop() {
	for {
		line, err := c.tr.ReadLine()
		if err != nil {
			c.failPending()
			return
		}
		if len(line) == 0 {
			continue
		}
		var resp JSONRPCResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			c.logger.Warn("unparseable server message", "error", err)
			continue
		}
		if resp.ID == 0 {
			// Notification; nothing waits on these.
			continue
		}
		c.pendingMu.Lock()
		ch, ok := c.pending[resp.ID]
		c.pendingMu.Unlock()
		if !ok {
			c.logger.Debug("response for unknown request", "id", resp.ID)
			continue
		}
		ch <- &resp
	}
}

// failPending wakes every in-flight call after the transport dies.
func (c *Client) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// Close shuts the server process down. The client cannot be restarted.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	c.mu.Unlock()

	if !started {
		return nil
	}
	return c.tr.Stop()
}

func fmtToolError(name string, err error) string {
	return fmt.Sprintf("[codex mcp error: %s: %v]", name, err)
}
