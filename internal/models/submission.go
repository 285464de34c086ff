package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Difficulty levels accepted for a submission.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// DefaultTopic labels submissions whose topic could not be determined.
const DefaultTopic = "Other"

// DefaultProblemTitle is used when the critique does not name the problem.
const DefaultProblemTitle = "Custom Problem"

// Submission is a piece of code a user sent for review. It is never updated after creation.
type Submission struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string    `gorm:"size:64;not null;index" json:"user_id"`
	Code         string    `gorm:"type:text;not null" json:"code"`
	Language     string    `gorm:"size:32;not null" json:"language"`
	ProblemTitle string    `gorm:"size:255" json:"problem_title"`
	Topic        string    `gorm:"size:120;index" json:"topic"`
	Difficulty   string    `gorm:"size:16" json:"difficulty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	Analysis     *Analysis `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"analysis,omitempty"`
}

// BeforeCreate assigns the identifier.
func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// TopicOrDefault returns the stored topic, falling back to DefaultTopic.
func (s Submission) TopicOrDefault() string {
	return TopicOrDefault(s.Topic)
}

// NormalizeDifficulty maps free-form difficulty text onto Easy, Medium or Hard.
func NormalizeDifficulty(value string) string {
	switch normalizeKey(value) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}
