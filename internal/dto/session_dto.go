package dto

import (
	"time"

	"github.com/noah-isme/coach-api/pkg/ai"
)

// Default editor state for a fresh session.
const (
	DefaultSessionCode     = "// Write your solution here..."
	DefaultSessionLanguage = "javascript"
	DefaultSessionTopic    = "Arrays"
)

// SessionState is the editor and conversation state carried across reloads.
type SessionState struct {
	Code         string          `json:"code"`
	Language     string          `json:"language"`
	Topic        string          `json:"topic"`
	LastResult   *AnalysisResult `json:"last_result,omitempty"`
	Conversation []ai.Message    `json:"conversation"`
	UpdatedAt    time.Time       `json:"updated_at"`
	// Revision increases on every write and guards compare-and-set saves.
	Revision int64 `json:"revision"`
}

// NewSessionState returns the state of a brand new session.
func NewSessionState() SessionState {
	return SessionState{
		Code:         DefaultSessionCode,
		Language:     DefaultSessionLanguage,
		Topic:        DefaultSessionTopic,
		Conversation: []ai.Message{},
	}
}

// SessionUpdateRequest stores editor changes made between analyses.
type SessionUpdateRequest struct {
	Code     *string `json:"code" validate:"omitempty,max=100000"`
	Language *string `json:"language" validate:"omitempty,max=32"`
}

// FollowUpRequest asks a question about the last analysis.
type FollowUpRequest struct {
	Question string `json:"question" validate:"max=4000"`
}

// FollowUpResponse returns the answer and the updated conversation.
type FollowUpResponse struct {
	Answer       string       `json:"answer"`
	Conversation []ai.Message `json:"conversation"`
}
