package service

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/models"
	"github.com/noah-isme/coach-api/internal/observability"
	"github.com/noah-isme/coach-api/internal/repository"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// SubmissionObserver is notified after a submission and its analysis are committed.
type SubmissionObserver interface {
	SubmissionSaved(ctx context.Context, event dto.SubmissionSavedEvent)
}

// SaveSubmissionInput carries everything needed to persist one reviewed submission.
type SaveSubmissionInput struct {
	UserID   string
	Code     string
	Language string
	Topic    string
	Provider string
	Result   dto.AnalysisResult
}

// SubmissionStore persists reviewed submissions and serves the read paths behind the dashboards.
type SubmissionStore interface {
	Save(ctx context.Context, input SaveSubmissionInput) (uuid.UUID, error)
	RecentAnalyses(ctx context.Context, userID string, limit int) ([]models.Analysis, error)
	AllTopics(ctx context.Context, userID string) ([]string, error)
	AnalysisHistory(ctx context.Context, userID string) ([]AnalysisRecord, error)
	RecentSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error)
}

type submissionStore struct {
	repo      repository.SubmissionRepository
	observers []SubmissionObserver
	sanitizer *bluemonday.Policy
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewSubmissionStore constructs the store. Observers run synchronously after each commit.
func NewSubmissionStore(repo repository.SubmissionRepository, logger zerolog.Logger, observers ...SubmissionObserver) SubmissionStore {
	return &submissionStore{
		repo:      repo,
		observers: observers,
		sanitizer: bluemonday.StrictPolicy(),
		tracer:    otel.Tracer("github.com/noah-isme/coach-api/internal/service/submission_store"),
		logger:    logger.With().Str("component", "submission_store").Logger(),
	}
}

func (s *submissionStore) Save(ctx context.Context, input SaveSubmissionInput) (uuid.UUID, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return uuid.Nil, ErrUnauthorized
	}

	ctx, span := s.tracer.Start(ctx, "submission_store.save", trace.WithAttributes(
		attribute.String("user_id", userID),
		attribute.String("language", input.Language),
	))
	defer span.End()

	result := input.Result
	topic := s.clean(input.Topic)
	if topic == "" {
		topic = s.clean(result.Topic)
	}
	title := s.clean(result.ProblemTitle)
	if title == "" {
		title = models.DefaultProblemTitle
	}

	submission := models.Submission{
		UserID:       userID,
		Code:         input.Code,
		Language:     input.Language,
		ProblemTitle: title,
		Topic:        models.TopicOrDefault(topic),
		Difficulty:   models.NormalizeDifficulty(result.Difficulty),
	}
	analysis := models.Analysis{
		Rating:            models.ClampRating(result.Rating),
		CorrectnessStatus: result.CorrectnessStatus,
		Critique:          result.Critique,
		Strengths:         datatypes.JSONSlice[string](nonNilStrings(result.Strengths)),
		ImprovementPoints: datatypes.JSONSlice[string](nonNilStrings(result.Weaknesses)),
		OptimizedCode:     result.OptimizedCode,
		Visualization:     result.Visualization,
		UserApproach:      result.UserApproach,
		OptimizedApproach: result.OptimizedApproach,
		Provider:          input.Provider,
	}

	if err := s.repo.CreateWithAnalysis(ctx, &submission, &analysis); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return uuid.Nil, fmt.Errorf("%w: %v", ErrPersistenceFailed, err)
	}

	observability.SubmissionsSaved().Inc()
	s.logger.Info().
		Str("user_id", userID).
		Str("submission_id", submission.ID.String()).
		Str("topic", submission.Topic).
		Int("rating", analysis.Rating).
		Msg("submission saved")

	event := dto.NewSubmissionSavedEvent(submission, analysis)
	for _, observer := range s.observers {
		observer.SubmissionSaved(ctx, event)
	}

	return submission.ID, nil
}

func (s *submissionStore) RecentAnalyses(ctx context.Context, userID string, limit int) ([]models.Analysis, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthorized
	}
	return s.repo.ListRecentAnalyses(ctx, userID, clampRecentLimit(limit))
}

func (s *submissionStore) AllTopics(ctx context.Context, userID string) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthorized
	}
	topics, err := s.repo.ListTopics(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i, topic := range topics {
		topics[i] = models.TopicOrDefault(topic)
	}
	return topics, nil
}

func (s *submissionStore) AnalysisHistory(ctx context.Context, userID string) ([]AnalysisRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthorized
	}
	analyses, err := s.repo.ListAnalysesChronological(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := make([]AnalysisRecord, 0, len(analyses))
	for _, analysis := range analyses {
		topic := ""
		if analysis.Submission != nil {
			topic = analysis.Submission.Topic
		}
		records = append(records, AnalysisRecord{
			Topic:     models.TopicOrDefault(topic),
			Rating:    analysis.Rating,
			CreatedAt: analysis.CreatedAt,
		})
	}
	return records, nil
}

func (s *submissionStore) RecentSubmissions(ctx context.Context, userID string, limit int) ([]models.Submission, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUnauthorized
	}
	return s.repo.ListRecentSubmissions(ctx, userID, limit)
}

func (s *submissionStore) clean(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func clampRecentLimit(limit int) int {
	if limit <= 0 {
		return defaultRecentLimit
	}
	if limit > maxRecentLimit {
		return maxRecentLimit
	}
	return limit
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
