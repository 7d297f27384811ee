package analyst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/circuitbreaker"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/retry"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAI implements the Analyst interface using the OpenAI API.
type OpenAI struct {
	client         *openai.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewOpenAI creates an OpenAI analyst. The model can be overridden with
// OPENAI_MODEL.
func NewOpenAI(apiKey string) *OpenAI {
	model := defaultOpenAIModel
	if env := os.Getenv("OPENAI_MODEL"); env != "" {
		model = env
	}

	slog.Info("Initialized OpenAI analyst",
		slog.String("model", model))

	return &OpenAI{
		client:         openai.NewClient(apiKey),
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.AnalystAPIConfig("openai-api")),
		retryConfig:    retry.AIAPIConfig(),
	}
}

// Name identifies the backend.
func (o *OpenAI) Name() string { return "openai" }

// Analyze sends the prompt through retry and circuit breaker wrapping and
// returns the raw response text.
func (o *OpenAI) Analyze(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, analystTimeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, o.retryConfig, func() error {
		cbResult, err := o.circuitBreaker.Execute(func() (interface{}, error) {
			return o.doAnalyze(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("openai api circuit breaker open, request rejected",
					slog.String("state", o.circuitBreaker.State().String()))
				return fmt.Errorf("openai api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", fmt.Errorf("openai analyze failed after retries: %w", retryErr)
	}
	return result, nil
}

func (o *OpenAI) doAnalyze(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "OpenAI analysis failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai api returned empty response")
	}

	text := resp.Choices[0].Message.Content
	slog.InfoContext(ctx, "OpenAI analysis completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("response_length", len(text)))
	return text, nil
}
