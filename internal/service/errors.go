package service

import "errors"

var (
	// ErrValidation indicates the caller sent input that cannot be processed, such as blank code.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates an operation that needs an authenticated user was called anonymously.
	ErrUnauthorized = errors.New("authentication required")
	// ErrAnalysisFailed indicates the critique could not be produced.
	ErrAnalysisFailed = errors.New("analysis failed")
	// ErrChatFailed indicates the follow-up answer could not be produced.
	ErrChatFailed = errors.New("chat failed")
	// ErrChatInFlight indicates another question for the same session is still being answered.
	ErrChatInFlight = errors.New("a question is already being answered for this session")
	// ErrSessionConflict indicates the session was rewritten after it was loaded.
	ErrSessionConflict = errors.New("session changed while the request was processed")
	// ErrRoadmapFailed indicates the roadmap could not be generated.
	ErrRoadmapFailed = errors.New("roadmap generation failed")
	// ErrGeneratorUnavailable indicates no model provider is configured.
	ErrGeneratorUnavailable = errors.New("generator unavailable")
	// ErrPersistenceFailed indicates a submission could not be stored.
	ErrPersistenceFailed = errors.New("persistence failed")
)
