// Package config loads provider configuration from YAML and turns it into
// ready-to-use provider constructors.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/voxloop/agentpipe/codex"
	"github.com/voxloop/agentpipe/codexmcp"
	"github.com/voxloop/agentpipe/provider"
)

// Transport selects how the agent CLI is driven.
const (
	TransportCLI = "cli"
	TransportMCP = "mcp"
)

// Config is the on-disk provider configuration.
type Config struct {
	Transport         string            `yaml:"transport"`
	Command           string            `yaml:"command"`
	Args              []string          `yaml:"args"`
	PromptMode        string            `yaml:"prompt_mode"`
	PromptViaStdin    *bool             `yaml:"prompt_via_stdin"`
	Cwd               string            `yaml:"cwd"`
	Env               map[string]string `yaml:"env"`
	ResumeSession     bool              `yaml:"resume_session"`
	StderrSummary     *bool             `yaml:"stderr_summary"`
	StderrMinInterval string            `yaml:"stderr_min_interval"`
	Debug             DebugConfig       `yaml:"debug"`
	MCP               MCPConfig         `yaml:"mcp"`
}

// DebugConfig controls reasoning/command event surfacing.
type DebugConfig struct {
	Events                bool   `yaml:"events"`
	Target                string `yaml:"target"`
	CommandOutput         bool   `yaml:"command_output"`
	CommandOutputMaxChars int    `yaml:"command_output_max_chars"`
}

// MCPConfig holds the MCP transport's extra settings.
type MCPConfig struct {
	Args  []string       `yaml:"args"`
	Start MCPStartConfig `yaml:"start"`
}

// MCPStartConfig is the thread-start argument template.
type MCPStartConfig struct {
	Model                 string            `yaml:"model"`
	Profile               string            `yaml:"profile"`
	ApprovalPolicy        string            `yaml:"approval_policy"`
	Sandbox               string            `yaml:"sandbox"`
	BaseInstructions      string            `yaml:"base_instructions"`
	DeveloperInstructions string            `yaml:"developer_instructions"`
	Config                map[string]string `yaml:"config"`
}

// Default returns the stock configuration: plain CLI transport with the
// agent's standard JSON exec invocation.
func Default() *Config {
	return &Config{
		Transport:  TransportCLI,
		Command:    "codex",
		PromptMode: string(provider.ModeFullDialogue),
	}
}

// Load reads a YAML config file. A missing file yields the default config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) validate() error {
	switch c.Transport {
	case TransportCLI, TransportMCP:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	switch c.Debug.Target {
	case "", string(codex.DebugToLog), string(codex.DebugToStatus):
	default:
		return fmt.Errorf("unknown debug target %q", c.Debug.Target)
	}
	if _, err := c.stderrMinInterval(); err != nil {
		return err
	}
	return nil
}

func (c *Config) stderrMinInterval() (time.Duration, error) {
	if c.StderrMinInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.StderrMinInterval)
	if err != nil {
		return 0, fmt.Errorf("bad stderr_min_interval: %w", err)
	}
	return d, nil
}

// BuildProvider constructs the configured provider. sessions and summarize
// may be nil; logger nil falls back to slog.Default.
func (c *Config) BuildProvider(logger *slog.Logger, sessions *provider.SessionStore, summarize provider.SummarizeFunc) (provider.Provider, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.Transport == TransportMCP {
		return codexmcp.NewProvider(codexmcp.Config{
			Binary:     c.Command,
			Args:       c.MCP.Args,
			Env:        c.Env,
			WorkDir:    c.Cwd,
			PromptMode: provider.ParseMode(c.PromptMode),
			Start: codexmcp.StartArgs{
				Model:                 c.MCP.Start.Model,
				Profile:               c.MCP.Start.Profile,
				Cwd:                   c.Cwd,
				ApprovalPolicy:        c.MCP.Start.ApprovalPolicy,
				Sandbox:               c.MCP.Start.Sandbox,
				BaseInstructions:      c.MCP.Start.BaseInstructions,
				DeveloperInstructions: c.MCP.Start.DeveloperInstructions,
				Config:                c.MCP.Start.Config,
			},
			Logger:   logger,
			Sessions: sessions,
		}), nil
	}
	return codex.New(c.cliOptions(logger, sessions, summarize)...), nil
}

func (c *Config) cliOptions(logger *slog.Logger, sessions *provider.SessionStore, summarize provider.SummarizeFunc) []codex.Option {
	opts := []codex.Option{
		codex.WithPromptMode(provider.ParseMode(c.PromptMode)),
		codex.WithResumeSessions(c.ResumeSession),
	}
	if c.Command != "" {
		opts = append(opts, codex.WithBinary(c.Command))
	}
	if len(c.Args) > 0 {
		opts = append(opts, codex.WithArgs(c.Args...))
	}
	if c.PromptViaStdin != nil && !*c.PromptViaStdin {
		opts = append(opts, codex.WithPromptViaArgv())
	}
	if c.Cwd != "" {
		opts = append(opts, codex.WithWorkDir(c.Cwd))
	}
	if len(c.Env) > 0 {
		opts = append(opts, codex.WithEnv(c.Env))
	}
	if c.StderrSummary != nil {
		opts = append(opts, codex.WithStderrSummary(*c.StderrSummary))
	}
	if d, err := c.stderrMinInterval(); err == nil && d > 0 {
		opts = append(opts, codex.WithStderrMinInterval(d))
	}
	if c.Debug.Events {
		opts = append(opts, codex.WithDebugEvents(codex.DebugTarget(c.Debug.Target)))
	}
	if c.Debug.CommandOutput {
		opts = append(opts, codex.WithDebugCommandOutput(c.Debug.CommandOutputMaxChars))
	}
	if logger != nil {
		opts = append(opts, codex.WithLogger(logger))
	}
	if sessions != nil {
		opts = append(opts, codex.WithSessions(sessions))
	}
	if summarize != nil {
		opts = append(opts, codex.WithSummarizer(summarize))
	}
	return opts
}
