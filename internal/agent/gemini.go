package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vaidrix/meetingbot/internal/logging"
	"github.com/vaidrix/meetingbot/internal/session"
	"github.com/vaidrix/meetingbot/internal/tools/scheduling"
)

// maxToolRounds bounds how many tool-call exchanges one turn may make
// before the model is forced to answer with whatever it has.
const maxToolRounds = 8

// Gemini is the Agent implementation backed by the Gemini API with the
// scheduling tools declared for function calling.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
	tools  *scheduling.Tools
	logger *slog.Logger
}

// NewGemini constructs the Gemini agent. The system prompt snapshots the
// current date/time in the business timezone at construction.
func NewGemini(ctx context.Context, apiKey, modelName string, tools *scheduling.Tools, timezone string, loc *time.Location, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is not set; set GOOGLE_API_KEY or GEMINI_API_KEY")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.Tools = toolDeclarations()
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt(timezone, time.Now().In(loc)))},
	}

	return &Gemini{
		client: client,
		model:  model,
		tools:  tools,
		logger: logger,
	}, nil
}

// Close releases the underlying API client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

// RunTurn sends the newest human message with the prior turns as chat
// history, dispatches any function calls the model makes, and returns the
// history with the assistant's final reply appended.
func (g *Gemini) RunTurn(ctx context.Context, history []session.Message) ([]session.Message, error) {
	if len(history) == 0 || history[len(history)-1].Role != session.RoleHuman {
		return nil, fmt.Errorf("turn history must end with a human message")
	}

	cs := g.model.StartChat()
	cs.History = toGenaiHistory(history[:len(history)-1])

	resp, err := cs.SendMessage(ctx, genai.Text(history[len(history)-1].Text))
	if err != nil {
		return nil, fmt.Errorf("gemini turn failed: %w", err)
	}

	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}

		responses := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			result := g.dispatch(ctx, call)
			responses = append(responses, genai.FunctionResponse{
				Name:     call.Name,
				Response: map[string]any{"result": result},
			})
		}

		resp, err = cs.SendMessage(ctx, responses...)
		if err != nil {
			return nil, fmt.Errorf("gemini tool response failed: %w", err)
		}
	}

	reply := flattenText(resp)
	if reply == "" {
		return nil, fmt.Errorf("gemini returned no assistant text")
	}

	return append(history, session.Message{Role: session.RoleAssistant, Text: reply}), nil
}

// dispatch routes one model function call to the matching tool. Unknown
// tool names come back as an error string the model can read.
func (g *Gemini) dispatch(ctx context.Context, call genai.FunctionCall) string {
	logger := g.logger.With(logging.Tool(call.Name))
	logger.Info("agent tool call", logging.Operation("agent.dispatch"))

	args := call.Args
	switch call.Name {
	case scheduling.ToolCheckAvailability:
		return g.tools.CheckAvailability(ctx,
			stringArg(args, "start_iso"),
			stringArg(args, "end_iso"))
	case scheduling.ToolCreateMeeting:
		return g.tools.CreateMeeting(ctx,
			stringArg(args, "title"),
			stringArg(args, "start_iso"),
			stringArg(args, "end_iso"),
			stringArg(args, "attendees"),
			stringArg(args, "description"),
			stringArg(args, "location"))
	default:
		logger.Warn("unknown tool requested")
		return fmt.Sprintf("Error: unknown tool %q", call.Name)
	}
}

// toolDeclarations describes the scheduling tools to the model. Every
// parameter is a string: the reasoning loop cannot pass structured values.
func toolDeclarations() []*genai.Tool {
	return []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name: scheduling.ToolCheckAvailability,
				Description: "Check existing events between start_iso and end_iso (ISO 8601 strings). " +
					"Returns a JSON list of busy events; infer free slots from the busy ones.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_iso": {Type: genai.TypeString, Description: "Start of the range, ISO 8601"},
						"end_iso":   {Type: genai.TypeString, Description: "End of the range, ISO 8601"},
					},
					Required: []string{"start_iso", "end_iso"},
				},
			},
			{
				Name: scheduling.ToolCreateMeeting,
				Description: "Create a meeting in the shared Google Calendar with a Google Meet link. " +
					"start_iso and end_iso are required ISO 8601 times; attendees is a comma-separated email list.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       {Type: genai.TypeString, Description: "Meeting title; empty uses the default"},
						"start_iso":   {Type: genai.TypeString, Description: "Start time, ISO 8601 with timezone"},
						"end_iso":     {Type: genai.TypeString, Description: "End time, ISO 8601 with timezone"},
						"attendees":   {Type: genai.TypeString, Description: "Comma-separated attendee emails"},
						"description": {Type: genai.TypeString, Description: "Optional event description"},
						"location":    {Type: genai.TypeString, Description: "Optional location or meeting link"},
					},
					Required: []string{"start_iso", "end_iso"},
				},
			},
		},
	}}
}

// toGenaiHistory converts stored turns to the model's content format.
func toGenaiHistory(history []session.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Text)},
		})
	}
	return contents
}

// functionCalls collects the function calls from the first candidate.
func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

// flattenText concatenates the extractable text of the first candidate.
// Non-text, non-call parts fall back to their stringified form so a
// structured reply still yields something readable.
func flattenText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			parts = append(parts, string(p))
		case genai.FunctionCall:
			// Call records carry no user-facing text.
		default:
			parts = append(parts, fmt.Sprintf("%v", p))
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// stringArg reads a string argument from a function call, tolerating
// missing keys and non-string values.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}
