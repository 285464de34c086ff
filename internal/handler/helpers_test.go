package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/coach-api/internal/config"
	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/handler"
	"github.com/noah-isme/coach-api/internal/middleware"
	"github.com/noah-isme/coach-api/internal/router"
	"github.com/noah-isme/coach-api/internal/service"
	"github.com/noah-isme/coach-api/pkg/ai"
)

const testSecret = "handler-secret"

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func bearer(t *testing.T, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func newTestApp(deps router.Dependencies) *fiber.App {
	app := fiber.New()
	app.Use(middleware.CorrelationID())
	deps.OptionalAuth = middleware.JWTOptional(testSecret)
	deps.RequiredAuth = middleware.JWTProtected(testSecret)
	router.Register(app, config.Config{AppName: "Coach API"}, deps)
	return app
}

func newCoachApp(analysis service.AnalysisService, sessions service.SessionService) *fiber.App {
	return newTestApp(router.Dependencies{
		AnalysisHandler: handler.NewAnalysisHandler(analysis, sessions, validator.New(), zerolog.Nop()),
	})
}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, apiEnvelope) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var payload apiEnvelope
	require.NoError(t, json.Unmarshal(raw, &payload), string(raw))
	return resp.StatusCode, payload
}

func jsonRequest(t *testing.T, method, path string, body interface{}, headers map[string]string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return req
}

func decodeData(t *testing.T, payload apiEnvelope, target interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(payload.Data, target))
}

type stubAnalysisService struct {
	response dto.AnalyzeResponse
	followUp dto.FollowUpResponse
	err      error

	lastRequest dto.AnalyzeRequest
	lastUser    string
	lastKey     string
}

func (s *stubAnalysisService) RunAnalysis(_ context.Context, session *dto.SessionState, userID string, req dto.AnalyzeRequest) (dto.AnalyzeResponse, error) {
	s.lastRequest = req
	s.lastUser = userID
	if s.err != nil {
		return dto.AnalyzeResponse{}, s.err
	}
	result := s.response.Result
	session.Code = req.Code
	session.Language = service.NormalizeLanguage(req.Language)
	session.LastResult = &result
	return s.response, nil
}

func (s *stubAnalysisService) AskFollowUp(_ context.Context, session *dto.SessionState, sessionKey string, req dto.FollowUpRequest) (dto.FollowUpResponse, error) {
	s.lastKey = sessionKey
	if s.err != nil {
		return dto.FollowUpResponse{}, s.err
	}
	session.Conversation = append(session.Conversation,
		ai.Message{Role: ai.RoleUser, Content: req.Question},
		ai.Message{Role: ai.RoleAssistant, Content: s.followUp.Answer},
	)
	response := s.followUp
	response.Conversation = session.Conversation
	return response, nil
}
