package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kirillkom/research-assistant/internal/core/ports"
	"github.com/kirillkom/research-assistant/internal/infrastructure/resilience"
)

type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	CallTimeout time.Duration
}

// Metrics receives per-call observations. A nil recorder disables them.
type Metrics interface {
	ObserveModelCall(model, status string, duration time.Duration)
	AddTokenUsage(model string, promptTokens, completionTokens int)
}

// Client implements ports.ModelClient over an OpenAI-compatible
// chat-completions API. Every call runs under a hard timeout, bounded
// retry and a circuit breaker.
type Client struct {
	api     *openai.Client
	model   string
	timeout time.Duration
	exec    *resilience.Executor
	metrics Metrics
	logger  *slog.Logger
}

func New(cfg Config, exec *resilience.Executor, metrics Metrics, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	apiConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiConfig.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:     openai.NewClientWithConfig(apiConfig),
		model:   cfg.Model,
		timeout: cfg.CallTimeout,
		exec:    exec,
		metrics: metrics,
		logger:  logger,
	}, nil
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ports.CompleteOptions) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: opts.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := c.exec.Do(ctx, "chat_completion", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		start := time.Now()
		resp, err := c.api.CreateChatCompletion(callCtx, req)
		c.observe(err, time.Since(start))
		if err != nil {
			return c.normalizeCallError(ctx, err)
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no choices in completion response")
		}

		c.addTokens(resp.Usage)
		content = resp.Choices[0].Message.Content
		return nil
	}, classifyModelError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("chat completion", err)
	}
	return content, nil
}

func (c *Client) observe(err error, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.metrics.ObserveModelCall(c.model, status, duration)
}

func (c *Client) addTokens(usage openai.Usage) {
	if c.metrics == nil {
		return
	}
	c.metrics.AddTokenUsage(c.model, usage.PromptTokens, usage.CompletionTokens)
}
