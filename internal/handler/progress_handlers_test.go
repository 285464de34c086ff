package handler_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/handler"
	"github.com/noah-isme/coach-api/internal/router"
	"github.com/noah-isme/coach-api/internal/service"
)

type stubDashboardService struct {
	dashboard dto.DashboardResponse
	activity  []dto.ActivityItem
	err       error
	lastUser  string
	lastLimit int
}

func (s *stubDashboardService) GetDashboard(_ context.Context, userID string) (dto.DashboardResponse, error) {
	s.lastUser = userID
	return s.dashboard, s.err
}

func (s *stubDashboardService) RecentActivity(_ context.Context, userID string, limit int) ([]dto.ActivityItem, error) {
	s.lastUser = userID
	s.lastLimit = limit
	return s.activity, s.err
}

func (s *stubDashboardService) SubmissionSaved(context.Context, dto.SubmissionSavedEvent) {}

type stubRoadmapService struct {
	roadmap dto.RoadmapResponse
	err     error
}

func (s stubRoadmapService) Generate(context.Context, string) (dto.RoadmapResponse, error) {
	return s.roadmap, s.err
}

func (s stubRoadmapService) SubmissionSaved(context.Context, dto.SubmissionSavedEvent) {}

type stubResourceService struct {
	sections []dto.TopicResources
	gaps     dto.RecommendationResponse
}

func (s stubResourceService) Curate(context.Context, string) ([]dto.TopicResources, error) {
	return s.sections, nil
}

func (s stubResourceService) Recommend(context.Context, string) (dto.RecommendationResponse, error) {
	return s.gaps, nil
}

func newProgressApp(dashboard service.DashboardService, roadmap service.RoadmapService, resources service.ResourceService) *fiber.App {
	return newTestApp(router.Dependencies{
		DashboardHandler: handler.NewDashboardHandler(dashboard, zerolog.Nop()),
		RoadmapHandler:   handler.NewRoadmapHandler(roadmap, zerolog.Nop()),
		ResourceHandler:  handler.NewResourceHandler(resources, zerolog.Nop()),
	})
}

func TestProgressRoutesRequireToken(t *testing.T) {
	app := newProgressApp(&stubDashboardService{}, stubRoadmapService{}, stubResourceService{})

	for _, path := range []string{
		"/api/v2/progress/dashboard",
		"/api/v2/progress/activity",
		"/api/v2/progress/roadmap",
		"/api/v2/progress/resources",
		"/api/v2/progress/recommendations",
	} {
		status, payload := send(t, app, jsonRequest(t, http.MethodGet, path, nil, nil))
		require.Equal(t, fiber.StatusUnauthorized, status, path)
		require.False(t, payload.Success)
	}
}

func TestDashboardHandler(t *testing.T) {
	dashboard := &stubDashboardService{
		dashboard: dto.DashboardResponse{
			SkillRadar: []dto.TopicScore{{Subject: "Arrays", Score: 80, FullMark: 100}},
		},
		activity: []dto.ActivityItem{{ProblemTitle: "Two Sum", Rating: 90}},
	}
	app := newProgressApp(dashboard, stubRoadmapService{}, stubResourceService{})
	headers := map[string]string{"Authorization": bearer(t, "user-9")}

	status, payload := send(t, app, jsonRequest(t, http.MethodGet, "/api/v2/progress/dashboard", nil, headers))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, "user-9", dashboard.lastUser)
	var response dto.DashboardResponse
	decodeData(t, payload, &response)
	require.Len(t, response.SkillRadar, 1)
	require.Equal(t, 100, response.SkillRadar[0].FullMark)

	status, payload = send(t, app, jsonRequest(t, http.MethodGet, "/api/v2/progress/activity?limit=3", nil, headers))
	require.Equal(t, fiber.StatusOK, status)
	require.Equal(t, 3, dashboard.lastLimit)
	var items []dto.ActivityItem
	decodeData(t, payload, &items)
	require.Equal(t, "Two Sum", items[0].ProblemTitle)

	status, _ = send(t, app, jsonRequest(t, http.MethodGet, "/api/v2/progress/activity?limit=abc", nil, headers))
	require.Equal(t, fiber.StatusBadRequest, status)
}

func TestRoadmapHandler(t *testing.T) {
	roadmap := stubRoadmapService{roadmap: dto.DefaultRoadmap()}
	app := newProgressApp(&stubDashboardService{}, roadmap, stubResourceService{})
	headers := map[string]string{"Authorization": bearer(t, "user-1")}

	status, payload := send(t, app, jsonRequest(t, http.MethodGet, "/api/v2/progress/roadmap", nil, headers))
	require.Equal(t, fiber.StatusOK, status)
	var response dto.RoadmapResponse
	decodeData(t, payload, &response)
	require.NotEmpty(t, response.Steps)

	failing := newProgressApp(&stubDashboardService{}, stubRoadmapService{err: fmt.Errorf("%w: timeout", service.ErrRoadmapFailed)}, stubResourceService{})
	status, _ = send(t, failing, jsonRequest(t, http.MethodGet, "/api/v2/progress/roadmap", nil, headers))
	require.Equal(t, fiber.StatusBadGateway, status)
}

func TestResourceHandler(t *testing.T) {
	resources := stubResourceService{
		sections: []dto.TopicResources{{Topic: "Graphs", Resources: service.TopicResources("Graphs")}},
		gaps:     dto.RecommendationResponse{KnowledgeGaps: []string{"Graphs"}},
	}
	app := newProgressApp(&stubDashboardService{}, stubRoadmapService{}, resources)
	headers := map[string]string{"Authorization": bearer(t, "user-1")}

	status, payload := send(t, app, jsonRequest(t, http.MethodGet, "/api/v2/progress/resources", nil, headers))
	require.Equal(t, fiber.StatusOK, status)
	var sections []dto.TopicResources
	decodeData(t, payload, &sections)
	require.Equal(t, "Graphs", sections[0].Topic)

	status, payload = send(t, app, jsonRequest(t, http.MethodGet, "/api/v2/progress/recommendations", nil, headers))
	require.Equal(t, fiber.StatusOK, status)
	var recommendations dto.RecommendationResponse
	decodeData(t, payload, &recommendations)
	require.Equal(t, []string{"Graphs"}, recommendations.KnowledgeGaps)
}
