package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
	"github.com/wang2-lat/my-personal-bloomberg/internal/utils/text"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"
	telegramTimeout        = 10 * time.Second

	// maxChunkRunes stays under Telegram's 4096-character message limit
	// with headroom for markup the API counts differently.
	maxChunkRunes = 3800
)

// TelegramConfig contains configuration for the Telegram channel.
type TelegramConfig struct {
	// Enabled indicates whether Telegram delivery is enabled.
	Enabled bool

	// BotToken authenticates the bot.
	BotToken string

	// ChatID is the destination chat.
	ChatID string

	// BaseURL overrides the API host (used in tests).
	BaseURL string

	// Timeout is the HTTP request timeout for Telegram API calls.
	Timeout time.Duration
}

// TelegramChannel delivers notifications as Markdown messages. Long
// messages are split on line boundaries; a chunk rejected for bad markup
// is retried once as plain text so content still arrives.
type TelegramChannel struct {
	config      TelegramConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
}

// NewTelegramChannel creates a Telegram channel.
func NewTelegramChannel(config TelegramConfig) *TelegramChannel {
	if config.BaseURL == "" {
		config.BaseURL = defaultTelegramBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = telegramTimeout
	}
	return &TelegramChannel{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(1.0, 3),
	}
}

// Name identifies the channel.
func (t *TelegramChannel) Name() string { return "telegram" }

// IsEnabled reports whether the channel has complete credentials.
func (t *TelegramChannel) IsEnabled() bool {
	return t.config.Enabled && t.config.BotToken != "" && t.config.ChatID != ""
}

// Send renders the notification to Markdown and delivers it chunk by
// chunk. Chunks are sent in order and independently: a chunk that is
// given up on is skipped and the remaining chunks still go out.
func (t *TelegramChannel) Send(ctx context.Context, notification *entity.Notification) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	message := renderMessage(notification)
	chunks := splitChunks(message, maxChunkRunes)

	var errs []error
	for i, chunk := range chunks {
		if err := t.rateLimiter.Allow(ctx); err != nil {
			return fmt.Errorf("telegram rate limiter: %w", err)
		}
		if err := t.sendChunk(ctx, requestID, chunk); err != nil {
			slog.WarnContext(ctx, "Telegram chunk failed, continuing with the rest",
				slog.String("request_id", requestID),
				slog.Int("chunk", i+1),
				slog.Int("chunks", len(chunks)),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("telegram send: %w", errors.Join(errs...))
	}

	slog.InfoContext(ctx, "Telegram message sent",
		slog.String("request_id", requestID),
		slog.Int("chunks", len(chunks)))
	return nil
}

// sendChunk delivers one chunk as Markdown, falling back to one plain-text
// attempt when the API rejects the markup.
func (t *TelegramChannel) sendChunk(ctx context.Context, requestID, chunk string) error {
	err := sendWithRetry(ctx, t.Name(), func() error {
		return t.postMessage(ctx, chunk, "Markdown")
	})
	if err == nil {
		return nil
	}

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		return err
	}

	// Markup rejection comes back as a 400; resend without parse_mode so
	// the content still gets through, just unstyled.
	slog.WarnContext(ctx, "Telegram rejected markdown, retrying as plain text",
		slog.String("request_id", requestID),
		slog.String("error", clientErr.Message))
	return t.postMessage(ctx, chunk, "")
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

func (t *TelegramChannel) postMessage(ctx context.Context, body, parseMode string) error {
	payload := map[string]string{
		"chat_id": t.config.ChatID,
		"text":    body,
	}
	if parseMode != "" {
		payload["parse_mode"] = parseMode
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message payload: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.config.BaseURL, t.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("create message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute message request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read message response: %w", err)
	}

	var tgResp telegramResponse
	if err := json.Unmarshal(respBody, &tgResp); err != nil {
		return fmt.Errorf("decode message response: %w", err)
	}
	if tgResp.OK {
		return nil
	}

	if tgResp.ErrorCode == http.StatusTooManyRequests {
		retryAfter := 5 * time.Second
		if tgResp.Parameters != nil && tgResp.Parameters.RetryAfter > 0 {
			retryAfter = time.Duration(tgResp.Parameters.RetryAfter) * time.Second
		}
		return &RateLimitError{Message: "telegram rate limit exceeded", RetryAfter: retryAfter}
	}
	if tgResp.ErrorCode >= 500 {
		return &ServerError{StatusCode: tgResp.ErrorCode, Message: fmt.Sprintf("telegram server error: %s", tgResp.Description)}
	}
	return &ClientError{StatusCode: tgResp.ErrorCode, Message: fmt.Sprintf("telegram error %d: %s", tgResp.ErrorCode, tgResp.Description)}
}

// splitChunks splits a message into chunks of at most maxRunes runes,
// breaking on line boundaries. A single line longer than the budget is
// hard-truncated rather than split mid-line.
func splitChunks(message string, maxRunes int) []string {
	if text.CountRunes(message) <= maxRunes {
		return []string{message}
	}

	var chunks []string
	var current strings.Builder
	currentRunes := 0

	for _, line := range strings.Split(message, "\n") {
		lineRunes := text.CountRunes(line)
		if lineRunes > maxRunes {
			line = text.TruncateRunes(line, maxRunes-1, "…")
			lineRunes = text.CountRunes(line)
		}

		// +1 for the joining newline.
		if currentRunes > 0 && currentRunes+lineRunes+1 > maxRunes {
			chunks = append(chunks, current.String())
			current.Reset()
			currentRunes = 0
		}

		if currentRunes > 0 {
			current.WriteString("\n")
			currentRunes++
		}
		current.WriteString(line)
		currentRunes += lineRunes
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}

// renderMessage serializes the notification to Telegram Markdown.
func renderMessage(n *entity.Notification) string {
	if n.Kind == entity.KindOverview {
		return renderOverviewMessage(n)
	}
	return renderNewsMessage(n)
}

func renderOverviewMessage(n *entity.Notification) string {
	overview := n.Overview

	var b strings.Builder
	fmt.Fprintf(&b, "🏛 *%s*\n", n.Title)
	fmt.Fprintf(&b, "📅 %s EST\n", overview.GeneratedAt.Format("2006-01-02 15:04"))

	if len(overview.Indices) > 0 {
		b.WriteString("\n")
		for _, idx := range overview.Indices {
			fmt.Fprintf(&b, "%s *%s* %+.2f%%\n", signString(idx.ChangePct), idx.Name, idx.ChangePct)
		}
	}

	if v := overview.Volatility; v != nil {
		fmt.Fprintf(&b, "\n%s *VIX*: %.1f (%s)\n", vixEmoji(v.Value), v.Value, volatilityLabel(v.Level))
	}
	if overview.MacroNote != "" {
		fmt.Fprintf(&b, "🏭 %s\n", overview.MacroNote)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderNewsMessage(n *entity.Notification) string {
	assessment := n.Assessment
	snap := n.Snapshot
	emoji, signal := scoreSignal(assessment.Score)

	var b strings.Builder
	fmt.Fprintf(&b, "%s *%s*\n\n", emoji, n.Title)

	if q := snap.Quote; q != nil {
		fmt.Fprintf(&b, "*%s* | $%.2f (%+.2f%%)\n", n.Match.Symbol, q.Price, q.ChangePct)
	} else {
		fmt.Fprintf(&b, "*%s*\n", n.Match.Symbol)
	}

	if f := snap.Fundamentals; f != nil && f.TrailingPE != nil {
		fmt.Fprintf(&b, "P/E: %.1f", *f.TrailingPE)
		if n.Derived.RangePositionPct != nil {
			fmt.Fprintf(&b, " | 52周: %.0f%%", *n.Derived.RangePositionPct)
		}
		b.WriteString("\n")
	}
	if c := snap.Consensus; c != nil && c.Label != entity.ConsensusNone {
		fmt.Fprintf(&b, "📊 分析师: %s (%d/%d/%d)\n", consensusLabel(c.Label), c.Buy, c.Hold, c.Sell)
	}
	if n.Derived.TargetUpsidePct != nil {
		fmt.Fprintf(&b, "🎯 目标价空间: %+.1f%%\n", *n.Derived.TargetUpsidePct)
	}

	fmt.Fprintf(&b, "\n🎯 核心判断\n%s\n", assessment.Judgment)
	fmt.Fprintf(&b, "\n🔗 因果链\n%s\n", assessment.CausalChain)
	fmt.Fprintf(&b, "\n💰 估值视角\n%s\n", assessment.Valuation)
	fmt.Fprintf(&b, "\n⚠️ 风险: %s\n", assessment.Risk)
	fmt.Fprintf(&b, "💡 建议: %s\n", assessment.Recommendation)
	fmt.Fprintf(&b, "\n评分 %d/10 | %s | %s", assessment.Score, signal, sourceName(n))
	return b.String()
}
