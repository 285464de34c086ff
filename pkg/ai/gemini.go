package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const providerGemini = "gemini"

// GeminiConfig defines configuration options for the Gemini generator.
type GeminiConfig struct {
	APIKey string
	Model  string
	Logger zerolog.Logger
}

// GeminiGenerator implements Generator against Google's Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiGenerator creates a Gemini-backed generator.
func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  cfg.Model,
		tracer: otel.Tracer("github.com/noah-isme/coach-api/pkg/ai/gemini"),
		logger: cfg.Logger.With().Str("component", "gemini_generator").Logger(),
	}, nil
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string {
	return providerGemini
}

// GenerateStructured requests a JSON response; the schema is embedded in the system instruction.
func (g *GeminiGenerator) GenerateStructured(parent context.Context, schema Schema, prompt Prompt) (json.RawMessage, error) {
	ctx, span := g.tracer.Start(parent, "gemini.generate_structured", trace.WithAttributes(
		attribute.String("model", g.model),
		attribute.String("schema", schema.Name),
	))
	defer span.End()

	system := strings.TrimSpace(prompt.System + "\n\nRespond with a single JSON object that validates against this JSON schema:\n" + string(schema.Definition))
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	}

	text, err := g.generate(ctx, span, "structured", prompt.Messages, config)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}

// GenerateText requests a free-form reply.
func (g *GeminiGenerator) GenerateText(parent context.Context, prompt Prompt) (string, error) {
	ctx, span := g.tracer.Start(parent, "gemini.generate_text", trace.WithAttributes(
		attribute.String("model", g.model),
		attribute.Int("messages", len(prompt.Messages)),
	))
	defer span.End()

	config := &genai.GenerateContentConfig{}
	if prompt.System != "" {
		config.SystemInstruction = genai.NewContentFromText(prompt.System, genai.RoleUser)
	}
	return g.generate(ctx, span, "text", prompt.Messages, config)
}

func (g *GeminiGenerator) generate(ctx context.Context, span trace.Span, operation string, messages []Message, config *genai.GenerateContentConfig) (string, error) {
	contents := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		role := genai.Role(genai.RoleUser)
		if message.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(message.Content, role))
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	observe(providerGemini, operation, start)
	if err != nil {
		return "", fail(span, providerGemini, operation, fmt.Errorf("gemini %s: %w", operation, err))
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fail(span, providerGemini, operation, ErrEmptyResponse)
	}

	g.logger.Debug().Str("operation", operation).Int("messages", len(messages)).Msg("gemini request completed")
	return text, nil
}
