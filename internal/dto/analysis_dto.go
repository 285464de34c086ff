package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/coach-api/internal/models"
)

// Save statuses reported alongside an analysis.
const (
	SaveStatusQueued          = "queued"
	SaveStatusUnauthenticated = "unauthenticated"
)

// AnalyzeRequest is the payload for requesting a critique.
type AnalyzeRequest struct {
	Code     string `json:"code" validate:"max=100000"`
	Language string `json:"language" validate:"omitempty,max=32"`
}

// SimilarProblem is a practice suggestion attached to a critique.
type SimilarProblem struct {
	Name       string `json:"name"`
	Link       string `json:"link"`
	Difficulty string `json:"difficulty"`
}

// AnalysisResult is the structured critique returned by a model or the heuristic matcher.
type AnalysisResult struct {
	Rating            int              `json:"rating"`
	CorrectnessStatus string           `json:"correctness_status"`
	Critique          string           `json:"critique"`
	Strengths         []string         `json:"strengths"`
	Weaknesses        []string         `json:"weaknesses"`
	Topic             string           `json:"topic"`
	Difficulty        string           `json:"difficulty"`
	ProblemTitle      string           `json:"problem_title"`
	UserApproach      string           `json:"user_approach"`
	OptimizedApproach string           `json:"optimized_approach"`
	OptimizedCode     string           `json:"optimized_code"`
	Visualization     string           `json:"visualization"`
	SimilarProblems   []SimilarProblem `json:"similar_problems"`
}

// AnalyzeResponse wraps a critique with its provenance.
type AnalyzeResponse struct {
	Result     AnalysisResult `json:"result"`
	Language   string         `json:"language"`
	Source     string         `json:"source"`
	SaveStatus string         `json:"save_status"`
}

// SubmissionSavedEvent is emitted once a submission and its analysis are persisted.
type SubmissionSavedEvent struct {
	SubmissionID uuid.UUID `json:"submission_id"`
	UserID       string    `json:"user_id"`
	Rating       int       `json:"rating"`
	Topic        string    `json:"topic"`
	ProblemTitle string    `json:"problem_title"`
	Difficulty   string    `json:"difficulty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSubmissionSavedEvent builds the event from persisted records.
func NewSubmissionSavedEvent(submission models.Submission, analysis models.Analysis) SubmissionSavedEvent {
	return SubmissionSavedEvent{
		SubmissionID: submission.ID,
		UserID:       submission.UserID,
		Rating:       analysis.Rating,
		Topic:        submission.TopicOrDefault(),
		ProblemTitle: submission.ProblemTitle,
		Difficulty:   submission.Difficulty,
		CreatedAt:    submission.CreatedAt,
	}
}
