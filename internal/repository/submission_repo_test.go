package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coach-api/internal/models"
)

func setupSubmissionTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.Submission{}, &models.Analysis{}))
	return db
}

func seedReviewed(t *testing.T, repo SubmissionRepository, userID, topic string, rating int, at time.Time) (models.Submission, models.Analysis) {
	t.Helper()
	submission := models.Submission{
		UserID:       userID,
		Code:         "return 1",
		Language:     "go",
		ProblemTitle: topic + " problem",
		Topic:        topic,
		Difficulty:   models.DifficultyEasy,
		CreatedAt:    at,
	}
	analysis := models.Analysis{Rating: rating, CorrectnessStatus: "Correct", CreatedAt: at}
	require.NoError(t, repo.CreateWithAnalysis(context.Background(), &submission, &analysis))
	return submission, analysis
}

func TestSubmissionRepositoryCreateWithAnalysisLinksRecords(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	submission, analysis := seedReviewed(t, repo, "u1", "Arrays", 85, time.Now())
	require.NotEqual(t, uuid.Nil, submission.ID)
	require.Equal(t, submission.ID, analysis.SubmissionID)

	var stored models.Analysis
	require.NoError(t, db.Preload("Submission").First(&stored, "id = ?", analysis.ID).Error)
	require.Equal(t, 85, stored.Rating)
	require.NotNil(t, stored.Submission)
	require.Equal(t, "u1", stored.Submission.UserID)
}

func TestSubmissionRepositoryCreateWithAnalysisRollsBackSubmission(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)

	_, existing := seedReviewed(t, repo, "u1", "Arrays", 80, time.Now())

	submission := models.Submission{UserID: "u1", Code: "x", Language: "go"}
	duplicate := models.Analysis{ID: existing.ID, Rating: 50}
	err := repo.CreateWithAnalysis(context.Background(), &submission, &duplicate)
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.Equal(t, int64(1), count, "submission from the failed transaction must not persist")
}

func TestSubmissionRepositoryReadsAreScopedAndOrdered(t *testing.T) {
	db := setupSubmissionTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	seedReviewed(t, repo, "u1", "Arrays", 60, base)
	seedReviewed(t, repo, "u1", "Graphs", 90, base.Add(time.Hour))
	seedReviewed(t, repo, "u1", "", 70, base.Add(2*time.Hour))
	seedReviewed(t, repo, "u2", "DP", 40, base.Add(3*time.Hour))

	recent, err := repo.ListRecentAnalyses(ctx, "u1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, 70, recent[0].Rating)
	require.Equal(t, 90, recent[1].Rating)
	require.NotNil(t, recent[0].Submission)

	history, err := repo.ListAnalysesChronological(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, 60, history[0].Rating)
	require.Equal(t, "Arrays", history[0].Submission.Topic)

	topics, err := repo.ListTopics(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, []string{"", "Graphs", "Arrays"}, topics)

	submissions, err := repo.ListRecentSubmissions(ctx, "u2", 10)
	require.NoError(t, err)
	require.Len(t, submissions, 1)
	require.NotNil(t, submissions[0].Analysis)
	require.Equal(t, 40, submissions[0].Analysis.Rating)
}
