package codexmcp

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Tool names exposed by the agent's MCP server.
const (
	// ToolStart begins a new thread from a prompt.
	ToolStart = "codex"

	// ToolReply continues an existing thread.
	ToolReply = "codex-reply"
)

// StartArgs are the arguments of the thread-starting tool.
type StartArgs struct {
	Prompt                string            `json:"prompt" jsonschema:"required,description=The initial user prompt"`
	Model                 string            `json:"model,omitempty" jsonschema:"description=Model override"`
	Profile               string            `json:"profile,omitempty" jsonschema:"description=Configuration profile name"`
	Cwd                   string            `json:"cwd,omitempty" jsonschema:"description=Working directory for the agent"`
	ApprovalPolicy        string            `json:"approval-policy,omitempty" jsonschema:"description=Tool approval policy"`
	Sandbox               string            `json:"sandbox,omitempty" jsonschema:"description=Sandbox mode"`
	BaseInstructions      string            `json:"base-instructions,omitempty" jsonschema:"description=Replacement base instructions"`
	DeveloperInstructions string            `json:"developer-instructions,omitempty" jsonschema:"description=Additional developer instructions"`
	Config                map[string]string `json:"config,omitempty" jsonschema:"description=Inline config overrides"`
}

// ReplyArgs are the arguments of the thread-continuation tool.
type ReplyArgs struct {
	ThreadID string `json:"threadId" jsonschema:"required,description=Thread to continue"`
	Prompt   string `json:"prompt" jsonschema:"required,description=The next user prompt"`
}

// ToolSchemas returns the JSON schema for each tool's arguments, keyed by
// tool name. Used by the schema subcommand and by integration harnesses that
// validate requests before sending them.
func ToolSchemas() map[string]json.RawMessage {
	return map[string]json.RawMessage{
		ToolStart: generateSchema[StartArgs](),
		ToolReply: generateSchema[ReplyArgs](),
	}
}

// generateSchema creates a JSON schema from a struct's jsonschema tags.
func generateSchema[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}

	var zero T
	schema := reflector.Reflect(zero)

	bytes, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to generate schema for type %T: %v", zero, err))
	}
	return json.RawMessage(bytes)
}
