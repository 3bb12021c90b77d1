package codex

import (
	"log/slog"
	"strings"
	"time"

	"github.com/voxloop/agentpipe/provider"
)

// diagGate turns stderr diagnostics into debounced status summaries and
// tracks the abort block it holds for the current session. One gate lives
// for one child process run.
type diagGate struct {
	summarize   provider.SummarizeFunc
	registry    *provider.AbortRegistry
	logger      *slog.Logger
	session     string
	minInterval time.Duration

	lastSummary string
	lastAt      time.Time
	blocked     bool
	enabled     bool
}

func newDiagGate(cfg Config, logger *slog.Logger, session string) *diagGate {
	return &diagGate{
		summarize:   cfg.Summarize,
		registry:    cfg.Registry,
		logger:      logger,
		session:     session,
		minInterval: cfg.StderrMinInterval,
		enabled:     cfg.StderrSummary && cfg.Summarize != nil,
	}
}

// handleEvent processes one parsed stderr event. It returns a summary to
// surface as a status fragment, or "" when the event is dropped (disabled,
// empty, debounced, or identical to the previous summary). The first surfaced
// summary blocks aborts for the session.
func (g *diagGate) handleEvent(ev Event) string {
	if !g.enabled {
		return ""
	}
	text := ev.Text()
	if text == "" {
		return ""
	}

	now := time.Now()
	if g.minInterval > 0 && !g.lastAt.IsZero() && now.Sub(g.lastAt) < g.minInterval {
		return ""
	}

	summary := strings.TrimSpace(g.runSummarizer(text))
	if summary == "" || summary == g.lastSummary {
		return ""
	}

	if !g.blocked && g.registry != nil {
		g.registry.Block(g.session)
		g.blocked = true
	}
	g.lastSummary = summary
	g.lastAt = now
	return summary
}

// runSummarizer invokes the summarizer, absorbing panics so a broken
// summarizer cannot take down the stream.
func (g *diagGate) runSummarizer(text string) (summary string) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("stderr summarizer panicked", "panic", r)
			summary = ""
		}
	}()
	return g.summarize(text)
}

// release drops the abort block if this gate holds one. Safe to call more
// than once.
func (g *diagGate) release() {
	if g.blocked && g.registry != nil {
		g.registry.Unblock(g.session)
		g.blocked = false
	}
}
