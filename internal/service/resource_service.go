package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/models"
)

// KnowledgeGapThreshold is the average rating below which a topic counts as a gap.
const KnowledgeGapThreshold = 70

const gettingStartedSection = "Getting Started"

var problemCatalogue = []dto.Problem{
	{ID: "1", Title: "Two Sum", Difficulty: models.DifficultyEasy, Category: "Arrays", Patterns: []string{"hash map"}},
	{ID: "15", Title: "3Sum", Difficulty: models.DifficultyMedium, Category: "Arrays", Patterns: []string{"two pointers"}},
	{ID: "200", Title: "Number of Islands", Difficulty: models.DifficultyMedium, Category: "Graphs", Patterns: []string{"dfs", "bfs"}},
	{ID: "70", Title: "Climbing Stairs", Difficulty: models.DifficultyEasy, Category: "DP", Patterns: []string{"memoization"}},
	{ID: "3", Title: "Longest Substring Without Repeating Characters", Difficulty: models.DifficultyMedium, Category: "Strings", Patterns: []string{"sliding window"}},
}

// ResourceService curates learning material from a user's practice history.
type ResourceService interface {
	Curate(ctx context.Context, userID string) ([]dto.TopicResources, error)
	Recommend(ctx context.Context, userID string) (dto.RecommendationResponse, error)
}

type resourceService struct {
	store  SubmissionStore
	logger zerolog.Logger
}

// NewResourceService constructs the resource service.
func NewResourceService(store SubmissionStore, logger zerolog.Logger) ResourceService {
	return &resourceService{
		store:  store,
		logger: logger.With().Str("component", "resource_service").Logger(),
	}
}

func (s *resourceService) Curate(ctx context.Context, userID string) ([]dto.TopicResources, error) {
	topics, err := s.store.AllTopics(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(topics) == 0 {
		return []dto.TopicResources{gettingStarted()}, nil
	}

	seen := make(map[string]struct{}, len(topics))
	sections := make([]dto.TopicResources, 0)
	for _, topic := range topics {
		topic = models.TopicOrDefault(topic)
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		sections = append(sections, dto.TopicResources{Topic: topic, Resources: TopicResources(topic)})
	}
	return sections, nil
}

func (s *resourceService) Recommend(ctx context.Context, userID string) (dto.RecommendationResponse, error) {
	history, err := s.store.AnalysisHistory(ctx, userID)
	if err != nil {
		return dto.RecommendationResponse{}, err
	}

	gaps := KnowledgeGaps(AverageRatingByTopic(history))
	s.logger.Debug().Str("user_id", userID).Strs("gaps", gaps).Msg("knowledge gaps computed")

	return dto.RecommendationResponse{
		KnowledgeGaps: gaps,
		Problems:      RecommendProblems(gaps),
	}, nil
}

// TopicResources returns the video, cheatsheet and practice list for a topic.
func TopicResources(topic string) []dto.Resource {
	query := url.QueryEscape(topic)
	tag := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(topic)), " ", "-")

	return []dto.Resource{
		{
			Title:       fmt.Sprintf("Mastering %s for Interviews", topic),
			URL:         "https://www.youtube.com/results?search_query=" + query + "+interview+questions",
			Type:        dto.ResourceTypeVideo,
			Description: fmt.Sprintf("Deep dive into %s patterns and common interview questions.", topic),
		},
		{
			Title:       fmt.Sprintf("%s Cheatsheet", topic),
			URL:         "https://google.com/search?q=" + query + "+cheatsheet",
			Type:        dto.ResourceTypeArticle,
			Description: "Quick reference for syntax and common algorithms.",
		},
		{
			Title:       fmt.Sprintf("Top 50 %s Problems", topic),
			URL:         "https://leetcode.com/tag/" + url.PathEscape(tag) + "/",
			Type:        dto.ResourceTypeArticle,
			Description: "Curated list of problems to practice.",
		},
	}
}

func gettingStarted() dto.TopicResources {
	return dto.TopicResources{
		Topic: gettingStartedSection,
		Resources: []dto.Resource{
			{
				Title:       "Data Structures & Algorithms for Beginners",
				URL:         "https://www.youtube.com/results?search_query=data+structures+and+algorithms+for+beginners",
				Type:        dto.ResourceTypeVideo,
				Description: "Fundamental concepts for every software engineer.",
			},
			{
				Title:       "Big O Notation Guide",
				URL:         "https://www.youtube.com/results?search_query=big+o+notation+explained",
				Type:        dto.ResourceTypeVideo,
				Description: "Learn how to analyze time and space complexity.",
			},
		},
	}
}

// KnowledgeGaps lists topics whose average rating is below KnowledgeGapThreshold, sorted by name.
func KnowledgeGaps(averages map[string]int) []string {
	gaps := make([]string, 0)
	for topic, average := range averages {
		if average < KnowledgeGapThreshold {
			gaps = append(gaps, topic)
		}
	}
	sort.Strings(gaps)
	return gaps
}

// RecommendProblems picks catalogue problems in the gap categories, or the first three when none match.
func RecommendProblems(gaps []string) []dto.Problem {
	wanted := make(map[string]struct{}, len(gaps))
	for _, gap := range gaps {
		wanted[strings.ToLower(gap)] = struct{}{}
	}

	matches := make([]dto.Problem, 0)
	for _, problem := range problemCatalogue {
		if _, ok := wanted[strings.ToLower(problem.Category)]; ok {
			matches = append(matches, problem)
		}
	}
	if len(matches) == 0 {
		matches = append(matches, problemCatalogue[:3]...)
	}
	return matches
}
