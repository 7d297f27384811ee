package analyst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/circuitbreaker"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/retry"
)

const claudeMaxTokens = 1024

// Claude implements the Analyst interface using Anthropic's Claude API.
type Claude struct {
	client         anthropic.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewClaude creates a Claude analyst. The model can be overridden with
// CLAUDE_MODEL.
func NewClaude(apiKey string) *Claude {
	model := string(anthropic.ModelClaudeSonnet4_5_20250929)
	if env := os.Getenv("CLAUDE_MODEL"); env != "" {
		model = env
	}

	slog.Info("Initialized Claude analyst",
		slog.String("model", model))

	return &Claude{
		client:         anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.AnalystAPIConfig("claude-api")),
		retryConfig:    retry.AIAPIConfig(),
	}
}

// Name identifies the backend.
func (c *Claude) Name() string { return "claude" }

// Analyze sends the prompt through retry and circuit breaker wrapping and
// returns the raw response text.
func (c *Claude) Analyze(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, analystTimeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doAnalyze(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("claude api circuit breaker open, request rejected",
					slog.String("state", c.circuitBreaker.State().String()))
				return fmt.Errorf("claude api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", fmt.Errorf("claude analyze failed after retries: %w", retryErr)
	}
	return result, nil
}

func (c *Claude) doAnalyze(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(claudeMaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewTextBlock(prompt),
			),
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Claude analysis failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("claude api error: %w", err)
	}

	if len(message.Content) == 0 {
		return "", fmt.Errorf("claude api returned empty response")
	}

	block, ok := message.Content[0].AsAny().(anthropic.TextBlock)
	if !ok {
		return "", fmt.Errorf("claude api returned unexpected content type")
	}

	slog.InfoContext(ctx, "Claude analysis completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("response_length", len(block.Text)))
	return block.Text, nil
}
