// internal/genai/http.go
package genai

import (
	"context"
	"strings"
	"time"

	"travel-planner/internal/common/config"
	commonhttp "travel-planner/internal/common/http"
	"travel-planner/internal/common/logger"
)

const generatePath = "/api/ai/generate"

type generateRequest struct {
	Prompt         string                 `json:"prompt"`
	Context        generateContext        `json:"context"`
	MaxTokens      int                    `json:"max_tokens"`
	Temperature    float64                `json:"temperature"`
	ResponseSchema map[string]interface{} `json:"response_schema,omitempty"`
}

type generateContext struct {
	System  string    `json:"system,omitempty"`
	History []Message `json:"history,omitempty"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// HTTPGenerator talks to a self-hosted generation service exposing POST /api/ai/generate.
type HTTPGenerator struct {
	baseURL     string
	apiKey      string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	client      *commonhttp.Client
	logger      logger.Logger
}

func NewHTTPGenerator(cfg config.GenAIConfig, client *commonhttp.Client, log logger.Logger) *HTTPGenerator {
	if client == nil {
		// the per-call context carries the deadline
		client = commonhttp.NewClient(0)
	}
	return &HTTPGenerator{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		timeout:     time.Duration(cfg.Timeout) * time.Millisecond,
		client:      client,
		logger: log.With(map[string]interface{}{
			"component": "genai-http",
		}),
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	body := generateRequest{
		MaxTokens:      g.maxTokens,
		Temperature:    g.temperature,
		ResponseSchema: req.Schema,
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		body.Temperature = req.Temperature
	}

	// the last message is the prompt; everything before it is history
	if n := len(req.Messages); n > 0 {
		body.Prompt = req.Messages[n-1].Content
		body.Context = generateContext{
			System:  req.System,
			History: req.Messages[:n-1],
		}
	} else {
		body.Context = generateContext{System: req.System}
	}

	headers := map[string]string{}
	if g.apiKey != "" {
		headers["Authorization"] = "Bearer " + g.apiKey
	}

	var resp generateResponse
	if err := g.client.PostJSON(ctx, g.baseURL+generatePath, headers, body, &resp); err != nil {
		g.logger.Error("generate request failed", map[string]interface{}{
			"error": err.Error(),
		})
		return "", classify(ctx, err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return "", classify(ctx, ErrEmptyResponse)
	}
	return resp.Text, nil
}
