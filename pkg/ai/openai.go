package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const providerOpenAI = "openai"

// OpenAIConfig defines configuration options for the OpenAI generator.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGenerator implements Generator against the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGenerator builds a new generator using the provided configuration.
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}

	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(config),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/coach-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_generator").Logger(),
	}, nil
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string {
	return providerOpenAI
}

// GenerateStructured requests a JSON document constrained by the schema.
func (g *OpenAIGenerator) GenerateStructured(parent context.Context, schema Schema, prompt Prompt) (json.RawMessage, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate_structured", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.String("schema", schema.Name),
	))
	defer span.End()

	request := g.request(prompt)
	request.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schema.Name,
			Schema: schema.Definition,
		},
	}

	content, err := g.complete(ctx, span, "structured", request)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(content), nil
}

// GenerateText requests a free-form reply.
func (g *OpenAIGenerator) GenerateText(parent context.Context, prompt Prompt) (string, error) {
	ctx, span := g.tracer.Start(parent, "openai.generate_text", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
		attribute.Int("messages", len(prompt.Messages)),
	))
	defer span.End()

	return g.complete(ctx, span, "text", g.request(prompt))
}

func (g *OpenAIGenerator) request(prompt Prompt) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(prompt.Messages)+1)
	if prompt.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: prompt.System,
		})
	}
	for _, message := range prompt.Messages {
		role := openai.ChatMessageRoleUser
		if message.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: message.Content})
	}

	return openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages:    messages,
	}
}

func (g *OpenAIGenerator) complete(ctx context.Context, span trace.Span, operation string, request openai.ChatCompletionRequest) (string, error) {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, request)
	observe(providerOpenAI, operation, start)
	if err != nil {
		return "", fail(span, providerOpenAI, operation, fmt.Errorf("openai %s: %w", operation, err))
	}

	if len(resp.Choices) == 0 {
		return "", fail(span, providerOpenAI, operation, ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fail(span, providerOpenAI, operation, ErrEmptyResponse)
	}

	g.logger.Debug().
		Str("operation", operation).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("openai request completed")

	return content, nil
}
