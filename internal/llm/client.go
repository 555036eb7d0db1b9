package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"

	"github.com/draftdesk/research-orchestrator/internal/circuitbreaker"
	"github.com/draftdesk/research-orchestrator/internal/metrics"
)

// CompletionRequest is a single completion call. The caller owns prompt
// construction and reply parsing; the client only moves text.
type CompletionRequest struct {
	Model       string
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Completer is the completion capability consumed by the pipeline stages.
// Implementations fail with plain errors for every transient condition
// (timeout, non-2xx, empty reply); callers never receive partial output.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// Config holds client settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// Client is the OpenAI-backed Completer. One Client is shared by all
// stages; the circuit breaker trips when the provider is persistently down
// so a dead backend costs milliseconds per call instead of a timeout each.
type Client struct {
	api     openai.Client
	breaker *circuitbreaker.Breaker
	logger  *zap.Logger
}

// NewClient builds a Client. The API key must be present; main validates
// credentials before construction.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		api:     openai.NewClient(opts...),
		breaker: circuitbreaker.New("llm", circuitbreaker.DefaultConfig(), logger),
		logger:  logger,
	}
}

// Complete performs one chat completion and returns the raw reply text.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	start := time.Now()
	var reply string
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		params := openai.ChatCompletionNewParams{
			Model: req.Model,
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.SystemMessage(req.System),
				openai.UserMessage(req.User),
			},
			Temperature: openai.Float(req.Temperature),
			MaxTokens:   openai.Int(int64(req.MaxTokens)),
		}
		resp, err := c.api.Chat.Completions.New(ctx, params)
		if err != nil {
			return fmt.Errorf("chat completion: %w", err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("chat completion returned no choices")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		metrics.LLMCalls.WithLabelValues(req.Model, "error").Inc()
		c.logger.Warn("LLM call failed",
			zap.String("model", req.Model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", err
	}
	metrics.LLMCalls.WithLabelValues(req.Model, "ok").Inc()
	metrics.LLMCallDuration.WithLabelValues(req.Model).Observe(time.Since(start).Seconds())
	return reply, nil
}
