package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var testSchema = Schema{
	Name: "test_payload",
	Definition: json.RawMessage(`{
		"type": "object",
		"required": ["rating", "status"],
		"properties": {
			"rating": {"type": "integer", "minimum": 0, "maximum": 100},
			"status": {"type": "string", "enum": ["ok", "bad"]}
		}
	}`),
}

type stubGenerator struct {
	payload string
	err     error
	calls   int
}

func (s *stubGenerator) GenerateStructured(context.Context, Schema, Prompt) (json.RawMessage, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.payload), nil
}

func (s *stubGenerator) GenerateText(context.Context, Prompt) (string, error) {
	s.calls++
	return s.payload, s.err
}

func (s *stubGenerator) Name() string { return "stub" }

func TestValidateAcceptsConformingPayload(t *testing.T) {
	require.NoError(t, Validate(testSchema, []byte(`{"rating": 80, "status": "ok"}`)))
}

func TestValidateRejectsMissingFields(t *testing.T) {
	err := Validate(testSchema, []byte(`{"rating": 80}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	err := Validate(testSchema, []byte(`{"rating": 180, "status": "ok"}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestValidateRejectsNonJSON(t *testing.T) {
	err := Validate(testSchema, []byte(`Sure! Here is your analysis`))
	require.ErrorIs(t, err, ErrInvalidPayload)
}

func TestGenerateIntoDecodes(t *testing.T) {
	generator := &stubGenerator{payload: ` {"rating": 42, "status": "bad"} `}

	var out struct {
		Rating int    `json:"rating"`
		Status string `json:"status"`
	}
	require.NoError(t, GenerateInto(context.Background(), generator, testSchema, UserPrompt("sys", "hi"), &out))
	require.Equal(t, 42, out.Rating)
	require.Equal(t, "bad", out.Status)
	require.Equal(t, 1, generator.calls)
}

func TestGenerateIntoPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	var out map[string]interface{}

	err := GenerateInto(context.Background(), &stubGenerator{err: boom}, testSchema, Prompt{}, &out)
	require.ErrorIs(t, err, boom)

	err = GenerateInto(context.Background(), &stubGenerator{payload: "  "}, testSchema, Prompt{}, &out)
	require.ErrorIs(t, err, ErrEmptyResponse)

	err = GenerateInto(context.Background(), &stubGenerator{payload: `{"status": "ok"}`}, testSchema, Prompt{}, &out)
	require.ErrorIs(t, err, ErrInvalidPayload)
}
