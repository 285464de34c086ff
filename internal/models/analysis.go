package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Rating bounds.
const (
	MinRating = 0
	MaxRating = 100
)

// SuccessRating is the rating from which an attempt counts as successful.
const SuccessRating = 70

// Analysis stores the critique produced for exactly one submission.
type Analysis struct {
	ID                uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	SubmissionID      uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"submission_id"`
	Rating            int                         `gorm:"not null;check:chk_analyses_rating,rating >= 0 AND rating <= 100" json:"rating"`
	CorrectnessStatus string                      `gorm:"size:120" json:"correctness_status"`
	Critique          string                      `gorm:"type:text" json:"critique"`
	Strengths         datatypes.JSONSlice[string] `json:"strengths"`
	ImprovementPoints datatypes.JSONSlice[string] `json:"improvement_points"`
	OptimizedCode     string                      `gorm:"type:text" json:"optimized_code"`
	Visualization     string                      `gorm:"type:text" json:"visualization"`
	UserApproach      string                      `gorm:"type:text" json:"user_approach"`
	OptimizedApproach string                      `gorm:"type:text" json:"optimized_approach"`
	Provider          string                      `gorm:"size:32" json:"provider"`
	CreatedAt         time.Time                   `gorm:"index" json:"created_at"`
	Submission        *Submission                 `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"submission,omitempty"`
}

// BeforeCreate assigns the identifier and keeps the rating in range.
func (a *Analysis) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.Rating = ClampRating(a.Rating)
	return nil
}

// IsSuccess reports whether the rating reaches SuccessRating.
func (a Analysis) IsSuccess() bool {
	return a.Rating >= SuccessRating
}

// ClampRating bounds a rating to [MinRating, MaxRating].
func ClampRating(rating int) int {
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}
