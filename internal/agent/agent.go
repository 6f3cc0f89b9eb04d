package agent

import (
	"context"

	"github.com/vaidrix/meetingbot/internal/session"
)

// Agent runs one reasoning turn. The history's last message is the new
// human message; the returned history appends the assistant's reply. Tool
// invocations happen inside the turn and are not part of the returned
// history.
type Agent interface {
	RunTurn(ctx context.Context, history []session.Message) ([]session.Message, error)
}

// LastAssistantText returns the text of the last assistant-authored
// message, or the empty string when there is none.
func LastAssistantText(history []session.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == session.RoleAssistant {
			return history[i].Text
		}
	}
	return ""
}
