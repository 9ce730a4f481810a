// Package genai hides the text-generation backend behind a single Generate call.
package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travel-planner/internal/common/config"
	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/logger"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is one generation call. Schema, when set, asks the backend for a JSON object of that shape.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	Schema      map[string]interface{}
}

// Prompt builds a single-turn request.
func Prompt(system, text string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: text}},
	}
}

// Generator produces text for a prompt. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when the backend answered with no text.
var ErrEmptyResponse = errors.New("empty response from text generation backend")

// New returns the backend selected by cfg.Provider.
func New(cfg config.GenAIConfig, log logger.Logger) (Generator, error) {
	switch cfg.Provider {
	case config.GenAIProviderAnthropic:
		return NewAnthropicGenerator(cfg, log), nil
	case config.GenAIProviderHTTP:
		return NewHTTPGenerator(cfg, nil, log), nil
	default:
		return nil, fmt.Errorf("unsupported genai provider %q", cfg.Provider)
	}
}

// classify wraps a backend failure in the shared error codes.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return apperrors.NewLLMTimeoutError(err)
	}
	return apperrors.NewLLMSynthesisFailedError(err)
}

// schemaInstruction is appended to the system prompt of backends without native structured output.
func schemaInstruction(schema map[string]interface{}) string {
	if len(schema) == 0 {
		return ""
	}
	return "Respond with a single JSON object that validates against this JSON schema. " +
		"Do not wrap it in markdown code blocks.\n" + mustJSON(schema)
}

func joinSystem(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}
