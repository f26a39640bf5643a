package execution

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIEngine queries an OpenAI-compatible chat completion endpoint. Any
// service speaking the same protocol works by setting a base URL.
type OpenAIEngine struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIOption customizes an OpenAIEngine.
type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	apiKey      string
	baseURL     string
	temperature float32
}

// WithBaseURL points the engine at an alternative OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIOption {
	return func(c *openAIConfig) { c.baseURL = url }
}

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(key string) OpenAIOption {
	return func(c *openAIConfig) { c.apiKey = key }
}

// WithTemperature sets the sampling temperature. Judgment sampling wants some
// variance, so the default is 0.9 rather than deterministic output.
func WithTemperature(t float32) OpenAIOption {
	return func(c *openAIConfig) { c.temperature = t }
}

// NewOpenAIEngine creates an engine for the given model identity.
func NewOpenAIEngine(model string, opts ...OpenAIOption) (*OpenAIEngine, error) {
	cfg := openAIConfig{
		apiKey:      os.Getenv("OPENAI_API_KEY"),
		temperature: 0.9,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	clientCfg := openai.DefaultConfig(cfg.apiKey)
	if cfg.baseURL != "" {
		clientCfg.BaseURL = cfg.baseURL
	}

	return &OpenAIEngine{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: cfg.temperature,
	}, nil
}

func (e *OpenAIEngine) Initialize(ctx context.Context) error { return nil }

func (e *OpenAIEngine) Shutdown(ctx context.Context) error { return nil }

func (e *OpenAIEngine) ModelID() string { return e.model }

// Ask sends one prompt and returns the raw answer. Transport errors come back
// inside the response rather than as an error, so one failed iteration never
// aborts a whole run.
func (e *OpenAIEngine) Ask(ctx context.Context, req *QueryRequest) (*QueryResponse, error) {
	start := time.Now()

	if req.TimeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSec)*time.Second)
		defer cancel()
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	resp, err := e.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Debug("chat completion failed", "model", e.model, "question", req.QuestionID, "error", err)
		return &QueryResponse{
			ModelID:    e.model,
			DurationMs: time.Since(start).Milliseconds(),
			ErrorMsg:   err.Error(),
		}, nil
	}
	if len(resp.Choices) == 0 {
		return &QueryResponse{
			ModelID:    e.model,
			DurationMs: time.Since(start).Milliseconds(),
			ErrorMsg:   "model returned no choices",
		}, nil
	}

	return &QueryResponse{
		RawAnswer:  resp.Choices[0].Message.Content,
		ModelID:    e.model,
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
	}, nil
}
