package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/coach-api/internal/models"
)

// SubmissionRepository persists reviewed submissions and reads back their analyses.
type SubmissionRepository interface {
	CreateWithAnalysis(ctx context.Context, submission *models.Submission, analysis *models.Analysis) error
	ListRecentAnalyses(ctx context.Context, userID string, limit int) ([]models.Analysis, error)
	ListAnalysesChronological(ctx context.Context, userID string) ([]models.Analysis, error)
	ListTopics(ctx context.Context, userID string) ([]string, error)
	ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

// CreateWithAnalysis writes both records in one transaction so an analysis never outlives a failed submission write and vice versa.
func (r *submissionRepository) CreateWithAnalysis(ctx context.Context, submission *models.Submission, analysis *models.Analysis) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(submission).Error; err != nil {
			return fmt.Errorf("create submission: %w", err)
		}

		analysis.SubmissionID = submission.ID
		if err := tx.Omit(clause.Associations).Create(analysis).Error; err != nil {
			return fmt.Errorf("create analysis: %w", err)
		}
		return nil
	})
}

func (r *submissionRepository) analysesForUser(ctx context.Context, userID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Analysis{}).
		Joins("JOIN submissions ON submissions.id = analyses.submission_id").
		Where("submissions.user_id = ?", userID).
		Preload("Submission")
}

func (r *submissionRepository) ListRecentAnalyses(ctx context.Context, userID string, limit int) ([]models.Analysis, error) {
	query := r.analysesForUser(ctx, userID).Order("analyses.created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var analyses []models.Analysis
	if err := query.Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *submissionRepository) ListAnalysesChronological(ctx context.Context, userID string) ([]models.Analysis, error) {
	var analyses []models.Analysis
	if err := r.analysesForUser(ctx, userID).Order("analyses.created_at ASC").Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}

func (r *submissionRepository) ListTopics(ctx context.Context, userID string) ([]string, error) {
	var topics []string
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Pluck("topic", &topics).Error
	if err != nil {
		return nil, err
	}
	return topics, nil
}

func (r *submissionRepository) ListRecentSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ?", userID).
		Preload("Analysis").
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var submissions []models.Submission
	if err := query.Find(&submissions).Error; err != nil {
		return nil, err
	}
	return submissions, nil
}
