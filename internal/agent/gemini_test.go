package agent

import (
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaidrix/meetingbot/internal/session"
)

func TestSystemPromptContents(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)
	now := time.Date(2025, 3, 1, 17, 30, 0, 0, loc)

	prompt := systemPrompt("Asia/Kolkata", now)

	assert.Contains(t, prompt, "Vaidrix")
	assert.Contains(t, prompt, "Asia/Kolkata")
	assert.Contains(t, prompt, "2025-03-01", "current date snapshot must be present")
	assert.Contains(t, prompt, "Initial Call with Vaidrix Team")
	assert.Contains(t, prompt, "tomorrow")
	assert.Contains(t, prompt, "check_availability")
	assert.Contains(t, prompt, "create_meeting")
}

func TestToGenaiHistoryRoles(t *testing.T) {
	history := []session.Message{
		{Role: session.RoleHuman, Text: "hi"},
		{Role: session.RoleAssistant, Text: "hello"},
	}

	contents := toGenaiHistory(history)
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, genai.Text("hello"), contents[1].Parts[0])
}

func TestFunctionCalls(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("let me check"),
				genai.FunctionCall{Name: "check_availability", Args: map[string]any{"start_iso": "x"}},
			}},
		}},
	}

	calls := functionCalls(resp)
	require.Len(t, calls, 1)
	assert.Equal(t, "check_availability", calls[0].Name)

	assert.Nil(t, functionCalls(nil))
	assert.Nil(t, functionCalls(&genai.GenerateContentResponse{}))
}

func TestFlattenTextConcatenatesParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.Text("Booked!"),
				genai.Text("See you tomorrow."),
			}},
		}},
	}

	assert.Equal(t, "Booked! See you tomorrow.", flattenText(resp))
}

func TestFlattenTextSkipsFunctionCalls(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{
				genai.FunctionCall{Name: "create_meeting"},
				genai.Text("done"),
			}},
		}},
	}

	assert.Equal(t, "done", flattenText(resp))
}

func TestFlattenTextEmpty(t *testing.T) {
	assert.Empty(t, flattenText(nil))
	assert.Empty(t, flattenText(&genai.GenerateContentResponse{}))
}

func TestLastAssistantText(t *testing.T) {
	history := []session.Message{
		{Role: session.RoleHuman, Text: "book a call"},
		{Role: session.RoleAssistant, Text: "first reply"},
		{Role: session.RoleHuman, Text: "thanks"},
		{Role: session.RoleAssistant, Text: "you're welcome"},
	}

	assert.Equal(t, "you're welcome", LastAssistantText(history))
	assert.Empty(t, LastAssistantText(nil))
	assert.Empty(t, LastAssistantText([]session.Message{{Role: session.RoleHuman, Text: "hi"}}))
}

func TestStringArg(t *testing.T) {
	args := map[string]any{"start_iso": "2025-03-02T15:00:00+05:30", "count": 2.0}
	assert.Equal(t, "2025-03-02T15:00:00+05:30", stringArg(args, "start_iso"))
	assert.Empty(t, stringArg(args, "count"))
	assert.Empty(t, stringArg(nil, "anything"))
}

func TestToolDeclarationsStringOnly(t *testing.T) {
	tools := toolDeclarations()
	require.Len(t, tools, 1)
	require.Len(t, tools[0].FunctionDeclarations, 2)

	for _, decl := range tools[0].FunctionDeclarations {
		for name, schema := range decl.Parameters.Properties {
			assert.Equal(t, genai.TypeString, schema.Type,
				"%s.%s must be a string: the loop cannot pass structured values", decl.Name, name)
		}
		assert.True(t, strings.Contains(decl.Description, "ISO 8601") || decl.Name == "create_meeting")
	}
}
