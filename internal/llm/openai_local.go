package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultLocalBaseURL points at a llama.cpp-style server on this machine.
const DefaultLocalBaseURL = "http://localhost:8080/v1"

// DefaultLocalModel is a small code completion model.
const DefaultLocalModel = "codegen-350M-mono"

// OpenAILoader loads a completion model served by an OpenAI-compatible server
// running locally (llama.cpp, LM Studio, vLLM, ...).
type OpenAILoader struct {
	baseURL string
	apiKey  string
	model   string
	logger  *zap.Logger
}

// NewOpenAILoader creates a new loader for the given server and model.
func NewOpenAILoader(baseURL, apiKey, model string, logger *zap.Logger) *OpenAILoader {
	if baseURL == "" {
		baseURL = DefaultLocalBaseURL
	}
	if model == "" {
		model = DefaultLocalModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAILoader{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		logger:  logger,
	}
}

// Load checks that the server knows the model and returns a generator bound
// to it.
func (l *OpenAILoader) Load(ctx context.Context) (TextGenerator, error) {
	cfg := openai.DefaultConfig(l.apiKey)
	cfg.BaseURL = l.baseURL
	client := openai.NewClientWithConfig(cfg)

	start := time.Now()
	model, err := client.GetModel(ctx, l.model)
	if err != nil {
		return nil, fmt.Errorf("get model %q from %s: %w", l.model, l.baseURL, err)
	}
	l.logger.Info("local model available",
		zap.String("model", model.ID),
		zap.String("owned_by", model.OwnedBy),
		zap.Duration("elapsed", time.Since(start)))

	return &openAIGenerator{client: client, model: l.model}, nil
}

// openAIGenerator continues prompts through the completions endpoint.
type openAIGenerator struct {
	client *openai.Client
	model  string
}

func (g *openAIGenerator) Generate(ctx context.Context, prompt string, opts SamplingOptions) (string, error) {
	req := openai.CompletionRequest{
		Model:     g.model,
		Prompt:    prompt,
		MaxTokens: opts.MaxNewTokens,
		TopP:      float32(opts.TopP),
	}
	// Temperature is left to the server default when sampling is off.
	if opts.DoSample {
		req.Temperature = float32(opts.Temperature)
	}

	resp, err := g.client.CreateCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("create completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return resp.Choices[0].Text, nil
}
