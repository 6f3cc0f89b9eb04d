// Package session stores per-client chat histories.
//
// A session is an append-only, oldest-first sequence of human and assistant
// messages, keyed by the opaque session token the server hands each client.
// Only conversational turns are stored; tool-call records never persist.
package session

import (
	"encoding/json"
	"fmt"
)

// Role identifies the author of a message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Message is one turn in a chat session.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Marshal serializes a message sequence to its storage form.
func Marshal(messages []Message) ([]byte, error) {
	data, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session messages: %w", err)
	}
	return data, nil
}

// Unmarshal restores a message sequence from its storage form. Role and
// text round-trip exactly, in order.
func Unmarshal(data []byte) ([]Message, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, fmt.Errorf("failed to decode session messages: %w", err)
	}
	return messages, nil
}
