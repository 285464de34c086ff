package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/coach-api/internal/dto"
	"github.com/noah-isme/coach-api/internal/models"
	"github.com/noah-isme/coach-api/pkg/ai"
)

func setupCoachTestDB(t *testing.T) *gorm.DB {
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

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

type stubGenerator struct {
	mu              sync.Mutex
	structured      json.RawMessage
	text            string
	err             error
	structuredCalls int
	textCalls       int
	lastPrompt      ai.Prompt
}

func (g *stubGenerator) GenerateStructured(_ context.Context, _ ai.Schema, prompt ai.Prompt) (json.RawMessage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.structuredCalls++
	g.lastPrompt = prompt
	if g.err != nil {
		return nil, g.err
	}
	return g.structured, nil
}

func (g *stubGenerator) GenerateText(_ context.Context, prompt ai.Prompt) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.textCalls++
	g.lastPrompt = prompt
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *stubGenerator) Name() string { return "stub" }

func (g *stubGenerator) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.structuredCalls, g.textCalls
}

type recordingObserver struct {
	mu     sync.Mutex
	events []dto.SubmissionSavedEvent
}

func (o *recordingObserver) SubmissionSaved(_ context.Context, event dto.SubmissionSavedEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.events)
}

const validCritique = `{
  "rating": 84.6,
  "correctness_status": "Correct",
  "critique": "  Solid solution.  ",
  "strengths": ["Clear naming", " "],
  "weaknesses": ["Missing empty input check"],
  "topic": "Arrays",
  "difficulty": "Easy",
  "problem_title": "Two Sum",
  "user_approach": "Nested loops",
  "optimized_approach": "Hash map lookup",
  "optimized_code": "function twoSum() {}",
  "visualization": "` + "```mermaid\\ngraph TD\\nA[\\\"Start\\\"] --> B[\\\"End\\\"]\\n```" + `",
  "similar_problems": [{"name": "3Sum", "link": "https://leetcode.com/problems/3sum/", "difficulty": "Medium"}]
}`
