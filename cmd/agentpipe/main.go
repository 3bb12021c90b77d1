// agentpipe - drive a codex-style agent CLI as a streaming conversation
// provider from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voxloop/agentpipe/codexmcp"
	"github.com/voxloop/agentpipe/config"
	"github.com/voxloop/agentpipe/provider"
)

var (
	configFlag  string
	sessionFlag string
	systemFlag  string
	verboseFlag bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "agentpipe",
	Short: "Stream a codex-style agent CLI into a conversation pipeline",
	Long: `agentpipe runs a codex-style agent CLI as a streaming text provider.

Content fragments go to stdout as they arrive; status fragments
(summarized diagnostics) go to stderr.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "agentpipe.yaml",
		"Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Enable debug logging")

	askCmd.Flags().StringVarP(&sessionFlag, "session", "s", "",
		"Session id for resume handles and abort blocking")
	askCmd.Flags().StringVar(&systemFlag, "system", "",
		"System message prepended to the dialogue")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(schemaCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// truncateSummarizer is the stock stderr summarizer: first line, capped.
func truncateSummarizer(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	if len(line) > 120 {
		line = line[:120]
	}
	return line
}

var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Send one prompt and stream the reply to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Load(configFlag)
		if err != nil {
			return err
		}
		p, err := cfg.BuildProvider(logger, provider.NewSessionStore(), truncateSummarizer)
		if err != nil {
			return err
		}
		if closer, ok := p.(interface{ Close() error }); ok {
			defer closer.Close()
		}

		dialogue := provider.Dialogue{}
		if systemFlag != "" {
			dialogue = append(dialogue, provider.Message{Role: provider.RoleSystem, Content: systemFlag})
		}
		dialogue = append(dialogue, provider.Message{
			Role:    provider.RoleUser,
			Content: strings.Join(args, " "),
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stream := p.Respond(ctx, sessionFlag, dialogue)
		defer stream.Close()
		for stream.Next() {
			if status, ok := provider.ExtractStatus(stream.Text()); ok {
				fmt.Fprintln(os.Stderr, status)
				continue
			}
			fmt.Print(stream.Text())
		}
		fmt.Println()
		return nil
	},
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the MCP tool argument schemas as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := json.MarshalIndent(codexmcp.ToolSchemas(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
