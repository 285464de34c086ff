package service

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/models"
	"github.com/noah-isme/coach-api/internal/observability"
	"github.com/noah-isme/coach-api/pkg/ai"
)

// SourceHeuristic marks analyses produced by the local pattern matcher.
const SourceHeuristic = "heuristic"

const (
	defaultAnalysisTimeout    = 60 * time.Second
	defaultPersistenceTimeout = 10 * time.Second
)

var fencePattern = regexp.MustCompile("```(?:mermaid)?")

// AnalysisConfig tunes the analysis workflow.
type AnalysisConfig struct {
	// Heuristic answers analyses with the local pattern matcher instead of a model.
	Heuristic          bool
	Timeout            time.Duration
	PersistenceTimeout time.Duration
	// Dispatch runs background saves; defaults to a new goroutine.
	Dispatch func(func())
}

// AnalysisService runs code critiques and answers follow-up questions about them.
type AnalysisService interface {
	RunAnalysis(ctx context.Context, session *dto.SessionState, userID string, req dto.AnalyzeRequest) (dto.AnalyzeResponse, error)
	AskFollowUp(ctx context.Context, session *dto.SessionState, sessionKey string, req dto.FollowUpRequest) (dto.FollowUpResponse, error)
}

type analysisService struct {
	generator ai.Generator
	matcher   *ai.PatternMatcher
	store     SubmissionStore
	locker    SessionLocker
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	cfg       AnalysisConfig
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewAnalysisService wires the orchestrator. generator may be nil when no provider is configured.
func NewAnalysisService(generator ai.Generator, matcher *ai.PatternMatcher, store SubmissionStore, locker SessionLocker, validate *validator.Validate, cfg AnalysisConfig, logger zerolog.Logger) AnalysisService {
	if matcher == nil {
		matcher = ai.NewPatternMatcher()
	}
	if locker == nil {
		locker = NewSessionLocker(nil, "", 0)
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAnalysisTimeout
	}
	if cfg.PersistenceTimeout <= 0 {
		cfg.PersistenceTimeout = defaultPersistenceTimeout
	}
	if cfg.Dispatch == nil {
		cfg.Dispatch = func(fn func()) { go fn() }
	}

	return &analysisService{
		generator: generator,
		matcher:   matcher,
		store:     store,
		locker:    locker,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		cfg:       cfg,
		tracer:    otel.Tracer("github.com/noah-isme/coach-api/internal/service/analysis"),
		logger:    logger.With().Str("component", "analysis_service").Logger(),
	}
}

func (s *analysisService) RunAnalysis(ctx context.Context, session *dto.SessionState, userID string, req dto.AnalyzeRequest) (dto.AnalyzeResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AnalyzeResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if strings.TrimSpace(req.Code) == "" {
		return dto.AnalyzeResponse{}, fmt.Errorf("%w: code must not be empty", ErrValidation)
	}

	language := NormalizeLanguage(req.Language)
	source := s.sourceName()

	ctx, span := s.tracer.Start(ctx, "analysis.run", trace.WithAttributes(
		attribute.String("language", language),
		attribute.String("source", source),
		attribute.Bool("authenticated", userID != ""),
	))
	defer span.End()

	start := time.Now()
	result, err := s.critique(ctx, req.Code, language)
	observability.AnalysisLatency().WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.Analyses().WithLabelValues(source, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn().Err(err).Str("source", source).Msg("analysis failed")
		return dto.AnalyzeResponse{}, err
	}
	observability.Analyses().WithLabelValues(source, "success").Inc()

	result = normalizeResult(result)

	if session != nil {
		session.Code = req.Code
		session.Language = language
		session.Topic = result.Topic
		last := result
		session.LastResult = &last
		session.Conversation = []ai.Message{}
		session.UpdatedAt = time.Now().UTC()
	}

	response := dto.AnalyzeResponse{
		Result:     result,
		Language:   language,
		Source:     source,
		SaveStatus: dto.SaveStatusUnauthenticated,
	}

	userID = strings.TrimSpace(userID)
	if userID != "" && s.store != nil {
		response.SaveStatus = dto.SaveStatusQueued
		s.persist(ctx, SaveSubmissionInput{
			UserID:   userID,
			Code:     req.Code,
			Language: language,
			Topic:    result.Topic,
			Provider: source,
			Result:   result,
		})
	}

	return response, nil
}

func (s *analysisService) critique(ctx context.Context, code, language string) (dto.AnalysisResult, error) {
	if s.cfg.Heuristic {
		return heuristicCritique(s.matcher.Analyze(code, language)), nil
	}
	if s.generator == nil {
		return dto.AnalysisResult{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, ErrGeneratorUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	prompt := ai.UserPrompt(coachSystemPrompt, fmt.Sprintf("Language: %s\n\nCode:\n%s", language, code))
	var payload critiquePayload
	if err := ai.GenerateInto(callCtx, s.generator, CritiqueSchema, prompt, &payload); err != nil {
		return dto.AnalysisResult{}, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	return payload.toResult(), nil
}

// persist saves in the background. Failures are logged and counted, never returned.
func (s *analysisService) persist(ctx context.Context, input SaveSubmissionInput) {
	detached := context.WithoutCancel(ctx)
	s.cfg.Dispatch(func() {
		saveCtx, cancel := context.WithTimeout(detached, s.cfg.PersistenceTimeout)
		defer cancel()

		if _, err := s.store.Save(saveCtx, input); err != nil {
			observability.PersistenceFailures().Inc()
			s.logger.Error().
				Err(err).
				Str("user_id", input.UserID).
				Str("correlation_id", middleware.CorrelationIDFromContext(detached)).
				Msg("failed to persist submission")
		}
	})
}

func (s *analysisService) AskFollowUp(ctx context.Context, session *dto.SessionState, sessionKey string, req dto.FollowUpRequest) (dto.FollowUpResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FollowUpResponse{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	question := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(req.Question)))
	if question == "" {
		return dto.FollowUpResponse{}, fmt.Errorf("%w: question must not be empty", ErrValidation)
	}
	if session == nil || session.LastResult == nil {
		return dto.FollowUpResponse{}, fmt.Errorf("%w: analyze code first", ErrValidation)
	}
	if s.generator == nil {
		observability.ChatQuestions().WithLabelValues("unavailable").Inc()
		return dto.FollowUpResponse{}, fmt.Errorf("%w: %w", ErrChatFailed, ErrGeneratorUnavailable)
	}

	release, ok, err := s.locker.TryLock(ctx, sessionKey)
	if err != nil {
		s.logger.Warn().Err(err).Msg("session lock unavailable")
		return dto.FollowUpResponse{}, fmt.Errorf("%w: %v", ErrChatFailed, err)
	}
	if !ok {
		observability.ChatQuestions().WithLabelValues("in_flight").Inc()
		return dto.FollowUpResponse{}, ErrChatInFlight
	}
	defer release()

	ctx, span := s.tracer.Start(ctx, "analysis.follow_up", trace.WithAttributes(
		attribute.Int("history", len(session.Conversation)),
	))
	defer span.End()

	analysisJSON, err := json.Marshal(session.LastResult)
	if err != nil {
		return dto.FollowUpResponse{}, fmt.Errorf("%w: %v", ErrChatFailed, err)
	}

	userMessage := ai.Message{Role: ai.RoleUser, Content: question}
	messages := make([]ai.Message, 0, len(session.Conversation)+1)
	messages = append(messages, session.Conversation...)
	messages = append(messages, userMessage)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	answer, err := s.generator.GenerateText(callCtx, ai.Prompt{
		System:   fmt.Sprintf(chatSystemPromptTemplate, session.Code, analysisJSON),
		Messages: messages,
	})
	if err != nil {
		observability.ChatQuestions().WithLabelValues("error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.FollowUpResponse{}, fmt.Errorf("%w: %w", ErrChatFailed, err)
	}

	session.Conversation = append(messages, ai.Message{Role: ai.RoleAssistant, Content: strings.TrimSpace(answer)})
	session.UpdatedAt = time.Now().UTC()
	observability.ChatQuestions().WithLabelValues("success").Inc()

	conversation := make([]ai.Message, len(session.Conversation))
	copy(conversation, session.Conversation)
	return dto.FollowUpResponse{Answer: strings.TrimSpace(answer), Conversation: conversation}, nil
}

func (s *analysisService) sourceName() string {
	if s.cfg.Heuristic {
		return SourceHeuristic
	}
	if s.generator == nil {
		return "none"
	}
	return s.generator.Name()
}

// NormalizeDiagram strips markdown fence markers around a diagram definition and trims whitespace.
func NormalizeDiagram(value string) string {
	return strings.TrimSpace(fencePattern.ReplaceAllString(value, ""))
}

// NormalizeLanguage lower-cases the language name, defaulting to javascript.
func NormalizeLanguage(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		return dto.DefaultSessionLanguage
	}
	return language
}

func normalizeResult(result dto.AnalysisResult) dto.AnalysisResult {
	result.Rating = models.ClampRating(result.Rating)
	result.Difficulty = models.NormalizeDifficulty(result.Difficulty)
	result.Topic = models.TopicOrDefault(result.Topic)
	result.ProblemTitle = strings.TrimSpace(result.ProblemTitle)
	if result.ProblemTitle == "" {
		result.ProblemTitle = models.DefaultProblemTitle
	}
	result.CorrectnessStatus = strings.TrimSpace(result.CorrectnessStatus)
	result.Critique = strings.TrimSpace(result.Critique)
	result.Visualization = NormalizeDiagram(result.Visualization)
	result.Strengths = trimList(result.Strengths)
	result.Weaknesses = trimList(result.Weaknesses)
	if result.SimilarProblems == nil {
		result.SimilarProblems = []dto.SimilarProblem{}
	}
	return result
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// critiquePayload mirrors the critique schema; rating may arrive as a fractional number.
type critiquePayload struct {
	Rating            float64              `json:"rating"`
	CorrectnessStatus string               `json:"correctness_status"`
	Critique          string               `json:"critique"`
	Strengths         []string             `json:"strengths"`
	Weaknesses        []string             `json:"weaknesses"`
	Topic             string               `json:"topic"`
	Difficulty        string               `json:"difficulty"`
	ProblemTitle      string               `json:"problem_title"`
	UserApproach      string               `json:"user_approach"`
	OptimizedApproach string               `json:"optimized_approach"`
	OptimizedCode     string               `json:"optimized_code"`
	Visualization     string               `json:"visualization"`
	SimilarProblems   []dto.SimilarProblem `json:"similar_problems"`
}

func (p critiquePayload) toResult() dto.AnalysisResult {
	return dto.AnalysisResult{
		Rating:            int(math.Round(p.Rating)),
		CorrectnessStatus: p.CorrectnessStatus,
		Critique:          p.Critique,
		Strengths:         p.Strengths,
		Weaknesses:        p.Weaknesses,
		Topic:             p.Topic,
		Difficulty:        p.Difficulty,
		ProblemTitle:      p.ProblemTitle,
		UserApproach:      p.UserApproach,
		OptimizedApproach: p.OptimizedApproach,
		OptimizedCode:     p.OptimizedCode,
		Visualization:     p.Visualization,
		SimilarProblems:   p.SimilarProblems,
	}
}

func heuristicCritique(result ai.HeuristicResult) dto.AnalysisResult {
	status := "Looks Correct"
	if len(result.Weaknesses) > 0 {
		status = "Needs Review"
	}

	approach := "No standard pattern detected"
	if len(result.DetectedPatterns) > 0 {
		approach = "Uses " + strings.Join(result.DetectedPatterns, ", ")
	}

	return dto.AnalysisResult{
		Rating:            result.Score,
		CorrectnessStatus: status,
		Critique: fmt.Sprintf("Heuristic review. Estimated complexity: time %s, space %s. %s.",
			result.Complexity.Time, result.Complexity.Space, strings.Join(result.Recommendations, ". ")),
		Strengths:         result.Strengths,
		Weaknesses:        result.Weaknesses,
		Topic:             result.Topic,
		Difficulty:        models.DifficultyMedium,
		ProblemTitle:      models.DefaultProblemTitle,
		UserApproach:      approach,
		OptimizedApproach: strings.Join(result.Recommendations, "; "),
		SimilarProblems:   []dto.SimilarProblem{},
	}
}
