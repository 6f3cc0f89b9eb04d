// Package booking holds the meeting-time validation and confirmation
// formatting logic behind the create_meeting tool.
//
// Validation messages are part of the functional contract: the caller is a
// language-model agent, so a rejected time comes back with enough detail
// (signed offset from now, current date) for the agent to recompute relative
// dates like "tomorrow" and retry.
package booking
