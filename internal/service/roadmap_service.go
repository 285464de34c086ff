package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/models"
	"github.com/noah-isme/coach-api/internal/observability"
	"github.com/noah-isme/coach-api/pkg/ai"
)

const (
	roadmapCachePrefix    = "roadmap:coach:"
	roadmapHistoryLimit   = 10
	defaultRoadmapTTL     = 30 * time.Minute
	defaultRoadmapTimeout = 60 * time.Second
)

// RoadmapService produces a personalised learning roadmap from recent submissions.
type RoadmapService interface {
	Generate(ctx context.Context, userID string) (dto.RoadmapResponse, error)
	SubmissionSaved(ctx context.Context, event dto.SubmissionSavedEvent)
}

type roadmapService struct {
	store     SubmissionStore
	generator ai.Generator
	cache     *redis.Client
	ttl       time.Duration
	timeout   time.Duration
	logger    zerolog.Logger
}

// NewRoadmapService constructs the roadmap service. generator and cache may be nil.
func NewRoadmapService(store SubmissionStore, generator ai.Generator, cache *redis.Client, ttl, timeout time.Duration, logger zerolog.Logger) RoadmapService {
	if ttl <= 0 {
		ttl = defaultRoadmapTTL
	}
	if timeout <= 0 {
		timeout = defaultRoadmapTimeout
	}
	return &roadmapService{
		store:     store,
		generator: generator,
		cache:     cache,
		ttl:       ttl,
		timeout:   timeout,
		logger:    logger.With().Str("component", "roadmap_service").Logger(),
	}
}

func (s *roadmapService) Generate(ctx context.Context, userID string) (dto.RoadmapResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return dto.RoadmapResponse{}, ErrUnauthorized
	}

	start := time.Now()
	defer func() {
		observability.RoadmapLatency().Observe(time.Since(start).Seconds())
	}()

	if cached, ok := s.fetchCache(ctx, userID); ok {
		cached.CacheHit = true
		observability.RoadmapRequests().WithLabelValues("hit").Inc()
		return cached, nil
	}

	submissions, err := s.store.RecentSubmissions(ctx, userID, roadmapHistoryLimit)
	if err != nil {
		observability.RoadmapRequests().WithLabelValues("error").Inc()
		return dto.RoadmapResponse{}, err
	}

	if len(submissions) == 0 {
		observability.RoadmapRequests().WithLabelValues("default").Inc()
		return dto.DefaultRoadmap(), nil
	}

	if s.generator == nil {
		observability.RoadmapRequests().WithLabelValues("error").Inc()
		return dto.RoadmapResponse{}, fmt.Errorf("%w: %w", ErrRoadmapFailed, ErrGeneratorUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := ai.UserPrompt(roadmapSystemPrompt, fmt.Sprintf("Student History:\n%s\n\nGenerate a roadmap to mastery.", RoadmapHistory(submissions)))
	var roadmap dto.RoadmapResponse
	if err := ai.GenerateInto(callCtx, s.generator, RoadmapSchema, prompt, &roadmap); err != nil {
		observability.RoadmapRequests().WithLabelValues("error").Inc()
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("roadmap generation failed")
		return dto.RoadmapResponse{}, fmt.Errorf("%w: %w", ErrRoadmapFailed, err)
	}

	roadmap.Generated = true
	roadmap.CacheHit = false
	if roadmap.Steps == nil {
		roadmap.Steps = []dto.RoadmapStep{}
	}

	s.writeCache(ctx, userID, roadmap)
	observability.RoadmapRequests().WithLabelValues("miss").Inc()
	return roadmap, nil
}

// RoadmapHistory renders one line per submission, newest first.
func RoadmapHistory(submissions []models.Submission) string {
	lines := make([]string, 0, len(submissions))
	for _, submission := range submissions {
		rating := 0
		if submission.Analysis != nil {
			rating = submission.Analysis.Rating
		}
		lines = append(lines, fmt.Sprintf("Problem: %s, Topic: %s, Score: %d", submission.ProblemTitle, submission.TopicOrDefault(), rating))
	}
	return strings.Join(lines, "\n")
}

func (s *roadmapService) SubmissionSaved(ctx context.Context, event dto.SubmissionSavedEvent) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, roadmapCachePrefix+event.UserID).Err(); err != nil {
		s.logger.Warn().Err(err).Str("user_id", event.UserID).Msg("failed to invalidate roadmap cache")
	}
}

func (s *roadmapService) fetchCache(ctx context.Context, userID string) (dto.RoadmapResponse, bool) {
	if s.cache == nil {
		return dto.RoadmapResponse{}, false
	}
	payload, err := s.cache.Get(ctx, roadmapCachePrefix+userID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("roadmap cache read failed")
		}
		return dto.RoadmapResponse{}, false
	}

	var roadmap dto.RoadmapResponse
	if err := json.Unmarshal(payload, &roadmap); err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode roadmap cache")
		return dto.RoadmapResponse{}, false
	}
	return roadmap, true
}

func (s *roadmapService) writeCache(ctx context.Context, userID string, roadmap dto.RoadmapResponse) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(roadmap)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode roadmap cache")
		return
	}
	if err := s.cache.Set(ctx, roadmapCachePrefix+userID, payload, s.ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store roadmap cache")
	}
}
