package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/models"
	"github.com/noah-isme/coach-api/internal/observability"
)

const (
	dashboardCachePrefix  = "dashboard:coach:"
	dashboardRecentLimit  = 5
	dashboardProgressDays = 7
	radarFullMark         = 100
	defaultDashboardTTL   = 5 * time.Minute
)

// DashboardConfig tunes the dashboard aggregation.
type DashboardConfig struct {
	CacheTTL time.Duration
	// Location decides calendar-day boundaries for weekly progress.
	Location *time.Location
	Now      func() time.Time
}

// DashboardService builds the chart data shown on a user's progress dashboard.
type DashboardService interface {
	GetDashboard(ctx context.Context, userID string) (dto.DashboardResponse, error)
	RecentActivity(ctx context.Context, userID string, limit int) ([]dto.ActivityItem, error)
	SubmissionSaved(ctx context.Context, event dto.SubmissionSavedEvent)
}

type dashboardService struct {
	store  SubmissionStore
	cache  *redis.Client
	cfg    DashboardConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewDashboardService constructs the dashboard service. cache may be nil.
func NewDashboardService(store SubmissionStore, cache *redis.Client, cfg DashboardConfig, logger zerolog.Logger) DashboardService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultDashboardTTL
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &dashboardService{
		store:  store,
		cache:  cache,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/coach-api/internal/service/dashboard"),
		logger: logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, userID string) (dto.DashboardResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return dto.DashboardResponse{}, ErrUnauthorized
	}

	if cached, ok := s.fetchCache(ctx, userID); ok {
		cached.CacheHit = true
		observability.DashboardCache().WithLabelValues("hit").Inc()
		return cached, nil
	}
	observability.DashboardCache().WithLabelValues("miss").Inc()

	ctx, span := s.tracer.Start(ctx, "dashboard.aggregate", trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	history, err := s.store.AnalysisHistory(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, err
	}
	topics, err := s.store.AllTopics(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, err
	}
	recent, err := s.RecentActivity(ctx, userID, dashboardRecentLimit)
	if err != nil {
		span.RecordError(err)
		return dto.DashboardResponse{}, err
	}

	averages := AverageRatingByTopic(history)
	radar := make([]dto.TopicScore, 0, len(averages))
	for _, topic := range sortedKeys(averages) {
		radar = append(radar, dto.TopicScore{Subject: topic, Score: averages[topic], FullMark: radarFullMark})
	}

	days := AverageRatingByDay(s.lastDays(history), s.cfg.Location)
	progress := make([]dto.DayScore, 0, len(days))
	for _, day := range days {
		progress = append(progress, dto.DayScore{Name: day.Label, Date: day.Date, Score: day.Average})
	}

	counts := CountByTopic(topics)
	distribution := make([]dto.TopicCount, 0, len(counts))
	for _, topic := range sortedKeys(counts) {
		distribution = append(distribution, dto.TopicCount{Name: topic, Value: counts[topic]})
	}

	response := dto.DashboardResponse{
		SkillRadar:        radar,
		WeeklyProgress:    progress,
		TopicDistribution: distribution,
		RecentActivity:    recent,
	}
	s.writeCache(ctx, userID, response)
	return response, nil
}

func (s *dashboardService) RecentActivity(ctx context.Context, userID string, limit int) ([]dto.ActivityItem, error) {
	analyses, err := s.store.RecentAnalyses(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.ActivityItem, 0, len(analyses))
	for _, analysis := range analyses {
		item := dto.ActivityItem{
			ID:                analysis.ID,
			SubmissionID:      analysis.SubmissionID,
			Rating:            analysis.Rating,
			CorrectnessStatus: analysis.CorrectnessStatus,
			ProblemTitle:      models.DefaultProblemTitle,
			Topic:             models.DefaultTopic,
			Difficulty:        models.DifficultyMedium,
			Success:           analysis.IsSuccess(),
			CreatedAt:         analysis.CreatedAt,
		}
		if sub := analysis.Submission; sub != nil {
			if sub.ProblemTitle != "" {
				item.ProblemTitle = sub.ProblemTitle
			}
			item.Topic = sub.TopicOrDefault()
			if sub.Difficulty != "" {
				item.Difficulty = sub.Difficulty
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// SubmissionSaved drops the cached dashboard of the submitting user.
func (s *dashboardService) SubmissionSaved(ctx context.Context, event dto.SubmissionSavedEvent) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, dashboardCachePrefix+event.UserID).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", event.UserID).Msg("failed to invalidate dashboard cache")
	}
}

// lastDays keeps records from the trailing progress window, counted in calendar days.
func (s *dashboardService) lastDays(records []AnalysisRecord) []AnalysisRecord {
	now := s.cfg.Now().In(s.cfg.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.cfg.Location)
	cutoff := today.AddDate(0, 0, -(dashboardProgressDays - 1))

	out := make([]AnalysisRecord, 0, len(records))
	for _, record := range records {
		if !record.CreatedAt.Before(cutoff) {
			out = append(out, record)
		}
	}
	return out
}

func (s *dashboardService) fetchCache(ctx context.Context, userID string) (dto.DashboardResponse, bool) {
	if s.cache == nil {
		return dto.DashboardResponse{}, false
	}
	payload, err := s.cache.Get(ctx, dashboardCachePrefix+userID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("dashboard cache read failed")
		}
		return dto.DashboardResponse{}, false
	}

	var response dto.DashboardResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode dashboard cache")
		return dto.DashboardResponse{}, false
	}
	return response, true
}

func (s *dashboardService) writeCache(ctx context.Context, userID string, response dto.DashboardResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode dashboard cache")
		return
	}
	if err := s.cache.Set(ctx, dashboardCachePrefix+userID, payload, s.cfg.CacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store dashboard cache")
	}
}
