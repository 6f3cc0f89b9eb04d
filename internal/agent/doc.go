// Package agent drives one reasoning turn of the meeting assistant.
//
// The reasoning loop is a Gemini model with the two scheduling tools
// declared for function calling. It is modeled behind the Agent interface
// so the backing model is swappable; the rest of the service only sees
// "given a message history, return the updated history".
package agent
