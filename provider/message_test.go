package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPrompt_LastUser(t *testing.T) {
	t.Parallel()

	dialogue := Dialogue{
		{Role: RoleUser, Content: "a"},
		{Role: RoleAssistant, Content: "b"},
		{Role: RoleUser, Content: "c"},
	}
	assert.Equal(t, "c", RenderPrompt(dialogue, ModeLastUser))
}

func TestRenderPrompt_LastUser_NoUserMessage(t *testing.T) {
	t.Parallel()

	dialogue := Dialogue{
		{Role: RoleSystem, Content: "S"},
		{Role: RoleAssistant, Content: "A"},
	}
	assert.Equal(t, "", RenderPrompt(dialogue, ModeLastUser))
}

func TestRenderPrompt_FullDialogue(t *testing.T) {
	t.Parallel()

	dialogue := Dialogue{
		{Role: RoleSystem, Content: "S"},
		{Role: RoleUser, Content: "U"},
	}
	assert.Equal(t, "System: S\nUser: U", RenderPrompt(dialogue, ModeFullDialogue))
}

func TestRenderPrompt_RoleLabels(t *testing.T) {
	t.Parallel()

	dialogue := Dialogue{
		{Role: RoleAssistant, Content: "a"},
		{Role: RoleTool, Content: "t"},
		{Role: Role("weird"), Content: "w"},
		{Role: RoleUser, Content: ""},
	}
	assert.Equal(t, "Assistant: a\nTool: t\nUser: w\nUser: ", RenderPrompt(dialogue, ModeFullDialogue))
}

func TestParseMode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ModeLastUser, ParseMode("last_user"))
	assert.Equal(t, ModeFirstFullThenLast, ParseMode("first_full_then_last"))
	assert.Equal(t, ModeFullDialogue, ParseMode("full_dialogue"))
	assert.Equal(t, ModeFullDialogue, ParseMode(""))
	assert.Equal(t, ModeFullDialogue, ParseMode("bogus"))
}
