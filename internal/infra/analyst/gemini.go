// Package analyst provides the AI backend adapters behind the assessment
// engine. Gemini is the default backend; OpenAI and Claude are selectable
// via ANALYST_BACKEND. All adapters share the same reliability wrapping:
// retry with backoff around a per-backend circuit breaker.
package analyst

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/circuitbreaker"
	"github.com/wang2-lat/my-personal-bloomberg/internal/resilience/retry"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	analystTimeout     = 60 * time.Second
)

// Gemini implements the Analyst interface using Google's Gemini API.
type Gemini struct {
	client         *genai.Client
	model          string
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

// NewGemini creates a Gemini analyst. The model defaults to
// gemini-2.0-flash and can be overridden with GEMINI_MODEL.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := defaultGeminiModel
	if env := os.Getenv("GEMINI_MODEL"); env != "" {
		model = env
	}

	slog.Info("Initialized Gemini analyst",
		slog.String("model", model))

	return &Gemini{
		client:         client,
		model:          model,
		circuitBreaker: circuitbreaker.New(circuitbreaker.AnalystAPIConfig("gemini-api")),
		retryConfig:    retry.AIAPIConfig(),
	}, nil
}

// Name identifies the backend.
func (g *Gemini) Name() string { return "gemini" }

// Analyze sends the prompt through retry and circuit breaker wrapping and
// returns the raw response text.
func (g *Gemini) Analyze(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, analystTimeout)
	defer cancel()

	var result string
	retryErr := retry.WithBackoff(ctx, g.retryConfig, func() error {
		cbResult, err := g.circuitBreaker.Execute(func() (interface{}, error) {
			return g.doAnalyze(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("gemini api circuit breaker open, request rejected",
					slog.String("state", g.circuitBreaker.State().String()))
				return fmt.Errorf("gemini api unavailable: circuit breaker open")
			}
			return err
		}
		result = cbResult.(string)
		return nil
	})

	if retryErr != nil {
		return "", fmt.Errorf("gemini analyze failed after retries: %w", retryErr)
	}
	return result, nil
}

func (g *Gemini) doAnalyze(ctx context.Context, prompt string) (string, error) {
	requestID := uuid.New().String()
	start := time.Now()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{genai.NewPartFromText(prompt)},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	duration := time.Since(start)

	if err != nil {
		slog.ErrorContext(ctx, "Gemini analysis failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", duration),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini api returned empty response")
	}

	slog.InfoContext(ctx, "Gemini analysis completed",
		slog.String("request_id", requestID),
		slog.Duration("duration", duration),
		slog.Int("response_length", len(text)))
	return text, nil
}
