package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidPayload indicates the model produced output that is not valid JSON or violates the schema.
var ErrInvalidPayload = errors.New("model response failed schema validation")

var (
	compiledMu      sync.Mutex
	compiledSchemas = map[string]*jsonschema.Schema{}
)

func compile(schema Schema) (*jsonschema.Schema, error) {
	compiledMu.Lock()
	defer compiledMu.Unlock()

	key := schema.Name + "\x00" + string(schema.Definition)
	if compiled, ok := compiledSchemas[key]; ok {
		return compiled, nil
	}

	url := "mem://schemas/" + schema.Name + ".json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(schema.Definition)); err != nil {
		return nil, fmt.Errorf("load schema %s: %w", schema.Name, err)
	}
	compiled, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", schema.Name, err)
	}

	compiledSchemas[key] = compiled
	return compiled, nil
}

// Validate checks a raw JSON payload against the schema.
func Validate(schema Schema, payload []byte) error {
	compiled, err := compile(schema)
	if err != nil {
		return err
	}

	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.UseNumber()
	var document interface{}
	if err := decoder.Decode(&document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if err := compiled.Validate(document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// GenerateInto asks the generator for a structured response, validates it and decodes it into out.
func GenerateInto(ctx context.Context, generator Generator, schema Schema, prompt Prompt, out interface{}) error {
	payload, err := generator.GenerateStructured(ctx, schema, prompt)
	if err != nil {
		return err
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return ErrEmptyResponse
	}

	if err := Validate(schema, payload); err != nil {
		return err
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
