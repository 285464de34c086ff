package ai

import (
	"context"
	"encoding/json"
	"errors"
)

// Conversation roles understood by every provider.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrEmptyResponse is returned when a provider answers without content.
var ErrEmptyResponse = errors.New("empty response from model")

// Message is a single turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Prompt bundles the system instruction and the ordered conversation sent to a model.
type Prompt struct {
	System   string
	Messages []Message
}

// UserPrompt builds a single-turn prompt.
func UserPrompt(system, content string) Prompt {
	return Prompt{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: content}},
	}
}

// Schema names a JSON schema that structured responses must satisfy.
type Schema struct {
	Name       string
	Definition json.RawMessage
}

// Generator is the capability every model provider exposes.
type Generator interface {
	// GenerateStructured returns a raw JSON document that the caller validates against schema.
	GenerateStructured(ctx context.Context, schema Schema, prompt Prompt) (json.RawMessage, error)
	// GenerateText returns a free-form reply to the conversation.
	GenerateText(ctx context.Context, prompt Prompt) (string, error)
	// Name identifies the provider, e.g. "openai".
	Name() string
}
