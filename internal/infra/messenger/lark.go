package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wang2-lat/my-personal-bloomberg/internal/domain/entity"
)

const (
	defaultLarkBaseURL = "https://open.feishu.cn"
	larkTimeout        = 10 * time.Second

	// tokenExpiryMargin is subtracted from the reported token lifetime so
	// a token is never used in its final seconds.
	tokenExpiryMargin = 60 * time.Second
)

// Lark API codes for an unusable tenant access token.
const (
	larkCodeTokenInvalid = 99991663
	larkCodeTokenExpired = 99991668
)

// Lark card header templates by theme.
const (
	larkTemplateGreen = "green"
	larkTemplateRed   = "red"
	larkTemplateBlue  = "blue"
)

// LarkConfig contains configuration for the Lark (Feishu) channel.
type LarkConfig struct {
	// Enabled indicates whether Lark delivery is enabled.
	Enabled bool

	// AppID and AppSecret identify the Lark custom app.
	AppID     string
	AppSecret string

	// ChatID is the destination group chat.
	ChatID string

	// BaseURL overrides the API host (used in tests).
	BaseURL string

	// Timeout is the HTTP request timeout for Lark API calls.
	Timeout time.Duration
}

// LarkChannel delivers notifications as interactive cards to a Lark chat.
// It caches the tenant access token across sends within a run.
type LarkChannel struct {
	config      LarkConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewLarkChannel creates a Lark channel.
func NewLarkChannel(config LarkConfig) *LarkChannel {
	if config.BaseURL == "" {
		config.BaseURL = defaultLarkBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = larkTimeout
	}
	return &LarkChannel{
		config:      config,
		httpClient:  &http.Client{Timeout: config.Timeout},
		rateLimiter: NewRateLimiter(2.0, 5),
	}
}

// Name identifies the channel.
func (l *LarkChannel) Name() string { return "lark" }

// IsEnabled reports whether the channel has complete credentials.
func (l *LarkChannel) IsEnabled() bool {
	return l.config.Enabled && l.config.AppID != "" && l.config.AppSecret != "" && l.config.ChatID != ""
}

// Send serializes the notification into an interactive card and posts it
// to the configured chat.
func (l *LarkChannel) Send(ctx context.Context, notification *entity.Notification) error {
	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	if err := l.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("lark rate limiter: %w", err)
	}

	card := l.buildCard(notification)
	return sendWithRetry(ctx, l.Name(), func() error {
		return l.sendCard(ctx, requestID, card)
	})
}

// larkTokenResponse is the tenant access token endpoint response.
type larkTokenResponse struct {
	Code              int    `json:"code"`
	Msg               string `json:"msg"`
	TenantAccessToken string `json:"tenant_access_token"`
	Expire            int    `json:"expire"`
}

// accessToken returns a cached token when it has comfortable lifetime
// left, otherwise fetches a fresh one.
func (l *LarkChannel) accessToken(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token != "" && time.Now().Before(l.tokenExpiry.Add(-tokenExpiryMargin)) {
		return l.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"app_id":     l.config.AppID,
		"app_secret": l.config.AppSecret,
	})
	if err != nil {
		return "", fmt.Errorf("marshal token request: %w", err)
	}

	endpoint := l.config.BaseURL + "/open-apis/auth/v3/tenant_access_token/internal"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute token request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}

	var tokenResp larkTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tokenResp.Code != 0 {
		return "", &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("lark token error %d: %s", tokenResp.Code, tokenResp.Msg),
		}
	}

	l.token = tokenResp.TenantAccessToken
	l.tokenExpiry = time.Now().Add(time.Duration(tokenResp.Expire) * time.Second)
	return l.token, nil
}

// larkMessageResponse is the message send endpoint response.
type larkMessageResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (l *LarkChannel) sendCard(ctx context.Context, requestID string, card *larkCard) error {
	token, err := l.accessToken(ctx)
	if err != nil {
		return fmt.Errorf("lark access token: %w", err)
	}

	cardJSON, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"receive_id": l.config.ChatID,
		"msg_type":   "interactive",
		"content":    string(cardJSON),
	})
	if err != nil {
		return fmt.Errorf("marshal message payload: %w", err)
	}

	endpoint := l.config.BaseURL + "/open-apis/im/v1/messages?receive_id_type=chat_id"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute message request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read message response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Message: "lark rate limit exceeded", RetryAfter: 5 * time.Second}
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("lark server error: %s", string(body))}
	}

	var msgResp larkMessageResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return fmt.Errorf("decode message response: %w", err)
	}
	if msgResp.Code != 0 {
		if msgResp.Code == larkCodeTokenInvalid || msgResp.Code == larkCodeTokenExpired {
			// Drop the cache so the retry fetches a fresh token.
			l.mu.Lock()
			l.token = ""
			l.mu.Unlock()
			return fmt.Errorf("lark access token rejected (code %d): %s", msgResp.Code, msgResp.Msg)
		}
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("lark message error %d: %s", msgResp.Code, msgResp.Msg),
		}
	}

	slog.InfoContext(ctx, "Lark card sent",
		slog.String("request_id", requestID),
		slog.String("chat_id", l.config.ChatID))
	return nil
}

// Lark interactive card schema.

type larkCard struct {
	Config   larkCardConfig `json:"config"`
	Header   larkCardHeader `json:"header"`
	Elements []larkElement  `json:"elements"`
}

type larkCardConfig struct {
	WideScreenMode bool `json:"wide_screen_mode"`
}

type larkCardHeader struct {
	Title    larkText `json:"title"`
	Template string   `json:"template"`
}

type larkText struct {
	Tag     string `json:"tag"`
	Content string `json:"content"`
}

type larkElement struct {
	Tag      string      `json:"tag"`
	Text     *larkText   `json:"text,omitempty"`
	Fields   []larkField `json:"fields,omitempty"`
	Elements []larkText  `json:"elements,omitempty"`
}

type larkField struct {
	IsShort bool     `json:"is_short"`
	Text    larkText `json:"text"`
}

func larkMarkdown(content string) larkElement {
	return larkElement{
		Tag:  "div",
		Text: &larkText{Tag: "lark_md", Content: content},
	}
}

func larkNote(content string) larkElement {
	return larkElement{
		Tag:      "note",
		Elements: []larkText{{Tag: "plain_text", Content: content}},
	}
}

func larkTemplate(theme entity.Theme) string {
	switch theme {
	case entity.ThemePositive:
		return larkTemplateGreen
	case entity.ThemeNegative:
		return larkTemplateRed
	default:
		return larkTemplateBlue
	}
}

func (l *LarkChannel) buildCard(n *entity.Notification) *larkCard {
	if n.Kind == entity.KindOverview {
		return buildOverviewCard(n)
	}
	return buildNewsCard(n)
}

func buildOverviewCard(n *entity.Notification) *larkCard {
	overview := n.Overview

	elements := []larkElement{
		larkMarkdown(fmt.Sprintf("📅 **%s EST**", overview.GeneratedAt.Format("2006-01-02 15:04"))),
		{Tag: "hr"},
	}

	if len(overview.Indices) > 0 {
		lines := make([]string, 0, len(overview.Indices))
		for _, idx := range overview.Indices {
			lines = append(lines, fmt.Sprintf("%s **%s** %+.2f%%", signString(idx.ChangePct), idx.Name, idx.ChangePct))
		}
		elements = append(elements, larkMarkdown("📈 "+strings.Join(lines, " | ")))
	}

	var macroParts []string
	if v := overview.Volatility; v != nil {
		macroParts = append(macroParts, fmt.Sprintf("%s **VIX**: %.1f (%s)", vixEmoji(v.Value), v.Value, volatilityLabel(v.Level)))
	}
	if overview.MacroNote != "" {
		macroParts = append(macroParts, overview.MacroNote)
	}
	if len(macroParts) > 0 {
		elements = append(elements, larkMarkdown("🌡️ "+strings.Join(macroParts, " | ")))
	}

	elements = append(elements, larkNote("Market Pulse | AI Engine"))

	return &larkCard{
		Config: larkCardConfig{WideScreenMode: true},
		Header: larkCardHeader{
			Title:    larkText{Tag: "plain_text", Content: "🏛 " + n.Title},
			Template: larkTemplateBlue,
		},
		Elements: elements,
	}
}

func buildNewsCard(n *entity.Notification) *larkCard {
	assessment := n.Assessment
	snap := n.Snapshot

	emoji, signal := scoreSignal(assessment.Score)

	priceStr, changeStr := "--", "--"
	if q := snap.Quote; q != nil {
		priceStr = fmt.Sprintf("$%.2f", q.Price)
		changeStr = fmt.Sprintf("%+.2f%%", q.ChangePct)
	}

	peStr := "--"
	if f := snap.Fundamentals; f != nil && f.TrailingPE != nil {
		peStr = fmt.Sprintf("%.1f", *f.TrailingPE)
	}

	analystStr := "--"
	if c := snap.Consensus; c != nil && c.Label != entity.ConsensusNone {
		analystStr = fmt.Sprintf("%s (%d/%d/%d)", consensusLabel(c.Label), c.Buy, c.Hold, c.Sell)
	}

	targetStr := "--"
	if n.Derived.TargetUpsidePct != nil {
		targetStr = fmt.Sprintf("%+.1f%%", *n.Derived.TargetUpsidePct)
	}

	rangeStr := "--"
	if n.Derived.RangePositionPct != nil {
		rangeStr = fmt.Sprintf("%.0f%%", *n.Derived.RangePositionPct)
	}

	elements := []larkElement{
		{
			Tag: "div",
			Fields: []larkField{
				{IsShort: true, Text: larkText{Tag: "lark_md", Content: fmt.Sprintf("**%s** | %s (%s)", n.Match.Symbol, priceStr, changeStr)}},
				{IsShort: true, Text: larkText{Tag: "lark_md", Content: fmt.Sprintf("P/E: %s | 52周: %s", peStr, rangeStr)}},
			},
		},
		{
			Tag: "div",
			Fields: []larkField{
				{IsShort: true, Text: larkText{Tag: "lark_md", Content: fmt.Sprintf("📊 **分析师**: %s", analystStr)}},
				{IsShort: true, Text: larkText{Tag: "lark_md", Content: fmt.Sprintf("🎯 **目标价空间**: %s", targetStr)}},
			},
		},
		{Tag: "hr"},
		larkMarkdown(fmt.Sprintf("**🎯 核心判断**\n%s", assessment.Judgment)),
		larkMarkdown(fmt.Sprintf("**🔗 因果链**\n%s", assessment.CausalChain)),
		larkMarkdown(fmt.Sprintf("**💰 估值视角**\n%s", assessment.Valuation)),
		{Tag: "hr"},
		{
			Tag: "div",
			Fields: []larkField{
				{IsShort: true, Text: larkText{Tag: "lark_md", Content: fmt.Sprintf("**⚠️ 风险**\n%s", assessment.Risk)}},
				{IsShort: true, Text: larkText{Tag: "lark_md", Content: fmt.Sprintf("**💡 建议**\n%s", assessment.Recommendation)}},
			},
		},
		larkNote(fmt.Sprintf("评分 %d/10 | %s | %s | AI Engine", assessment.Score, signal, sourceName(n))),
	}

	return &larkCard{
		Config: larkCardConfig{WideScreenMode: true},
		Header: larkCardHeader{
			Title:    larkText{Tag: "plain_text", Content: fmt.Sprintf("%s %s", emoji, n.Title)},
			Template: larkTemplate(n.Theme),
		},
		Elements: elements,
	}
}

func scoreSignal(score int) (emoji, signal string) {
	switch entity.ThemeForScore(score) {
	case entity.ThemePositive:
		return "🟢", "利好"
	case entity.ThemeNegative:
		return "🔴", "利空"
	default:
		return "⚪", "中性"
	}
}

func consensusLabel(label entity.ConsensusLabel) string {
	switch label {
	case entity.ConsensusBuy:
		return "买入"
	case entity.ConsensusSell:
		return "卖出"
	case entity.ConsensusHold:
		return "持有"
	default:
		return "--"
	}
}

func volatilityLabel(level entity.VolatilityLevel) string {
	switch level {
	case entity.VolatilityCalm:
		return "低恐慌"
	case entity.VolatilityNormal:
		return "正常"
	case entity.VolatilityElevated:
		return "警惕"
	default:
		return "高恐慌"
	}
}

func vixEmoji(value float64) string {
	switch {
	case value < 20:
		return "🟢"
	case value < 30:
		return "🟡"
	default:
		return "🔴"
	}
}

func sourceName(n *entity.Notification) string {
	if n.Item != nil && n.Item.Source != "" {
		return n.Item.Source
	}
	return "News"
}
