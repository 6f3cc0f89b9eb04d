package scheduling

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// strArg extracts an optional string argument from tool call arguments.
func strArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

// RegisterMCPTools registers the two scheduling actions on an MCP server so
// external AI assistants can drive the calendar over stdio. Tool failures
// come back as text results, never as protocol errors, so the calling
// assistant can read and react to them.
func RegisterMCPTools(s *mcpserver.MCPServer, tools *Tools) {
	checkAvailabilityTool := mcp.NewTool(ToolCheckAvailability,
		mcp.WithDescription("Check existing events between start_iso and end_iso (ISO 8601 strings). "+
			"Returns a JSON list of busy events {title, start, end}; infer free slots from the busy ones."),
		mcp.WithString("start_iso",
			mcp.Required(),
			mcp.Description("Start of the range (ISO 8601, e.g. '2025-03-01T09:00:00+05:30')"),
		),
		mcp.WithString("end_iso",
			mcp.Required(),
			mcp.Description("End of the range (ISO 8601)"),
		),
	)

	s.AddTool(checkAvailabilityTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		result := tools.CheckAvailability(ctx, strArg(args, "start_iso"), strArg(args, "end_iso"))
		return mcp.NewToolResultText(result), nil
	})

	createMeetingTool := mcp.NewTool(ToolCreateMeeting,
		mcp.WithDescription("Create a meeting in the shared business calendar with a Google Meet link. "+
			"Rejects past or imminent start times with an instructive error."),
		mcp.WithString("title",
			mcp.Description("Meeting title; empty uses the default 'Initial Call with Vaidrix Team'"),
		),
		mcp.WithString("start_iso",
			mcp.Required(),
			mcp.Description("Start time (ISO 8601 with timezone)"),
		),
		mcp.WithString("end_iso",
			mcp.Required(),
			mcp.Description("End time (ISO 8601 with timezone)"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendee email addresses"),
		),
		mcp.WithString("description",
			mcp.Description("Optional event description"),
		),
		mcp.WithString("location",
			mcp.Description("Optional location or meeting link"),
		),
	)

	s.AddTool(createMeetingTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		result := tools.CreateMeeting(ctx,
			strArg(args, "title"),
			strArg(args, "start_iso"),
			strArg(args, "end_iso"),
			strArg(args, "attendees"),
			strArg(args, "description"),
			strArg(args, "location"),
		)
		return mcp.NewToolResultText(result), nil
	})
}
