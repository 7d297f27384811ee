// Package config loads the process credentials. Unlike the operational
// worker settings, credentials are fail-closed: a missing required key
// aborts startup before any external call is made.
package config

import (
	"fmt"
	"os"
	"strings"
)

// Analyst backend names accepted in ANALYST_BACKEND.
const (
	AnalystBackendGemini = "gemini"
	AnalystBackendOpenAI = "openai"
	AnalystBackendClaude = "claude"
)

// analystKeyEnv maps each backend to its credential variable.
var analystKeyEnv = map[string]string{
	AnalystBackendGemini: "GEMINI_KEY",
	AnalystBackendOpenAI: "OPENAI_API_KEY",
	AnalystBackendClaude: "ANTHROPIC_API_KEY",
}

// LarkCredentials holds the Lark (Feishu) app credentials.
type LarkCredentials struct {
	AppID     string
	AppSecret string
	ChatID    string
}

// Complete reports whether all three values are present.
func (c LarkCredentials) Complete() bool {
	return c.AppID != "" && c.AppSecret != "" && c.ChatID != ""
}

// empty reports whether none of the values are present.
func (c LarkCredentials) empty() bool {
	return c.AppID == "" && c.AppSecret == "" && c.ChatID == ""
}

// TelegramCredentials holds the Telegram bot credentials.
type TelegramCredentials struct {
	BotToken string
	ChatID   string
}

// Complete reports whether both values are present.
func (c TelegramCredentials) Complete() bool {
	return c.BotToken != "" && c.ChatID != ""
}

func (c TelegramCredentials) empty() bool {
	return c.BotToken == "" && c.ChatID == ""
}

// Credentials is the full set of secrets and provider keys for one run.
type Credentials struct {
	// FinnhubKey authenticates the primary quote provider. Required.
	FinnhubKey string

	// AnalystBackend selects the AI backend (gemini, openai, claude).
	AnalystBackend string

	// AnalystKey is the API key for the selected backend. Required.
	AnalystKey string

	// FREDKey enables the optional macro indicator. May be empty.
	FREDKey string

	// Lark and Telegram are the delivery channel credentials. At least
	// one channel must be complete.
	Lark     LarkCredentials
	Telegram TelegramCredentials
}

// Load reads credentials from the environment and validates them.
//
// Required:
//   - FINNHUB_KEY
//   - the key for the selected analyst backend (GEMINI_KEY,
//     OPENAI_API_KEY, or ANTHROPIC_API_KEY)
//   - one complete delivery channel: LARK_APP_ID + LARK_APP_SECRET +
//     LARK_CHAT_ID, or TELEGRAM_BOT_TOKEN + TELEGRAM_CHAT_ID
//
// Optional:
//   - FRED_KEY
//
// A partially configured channel is treated as a misconfiguration, not
// as a disabled channel.
func Load() (*Credentials, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("ANALYST_BACKEND")))
	if backend == "" {
		backend = AnalystBackendGemini
	}
	keyEnv, ok := analystKeyEnv[backend]
	if !ok {
		return nil, fmt.Errorf("ANALYST_BACKEND must be one of gemini, openai, claude; got %q", backend)
	}

	creds := &Credentials{
		FinnhubKey:     os.Getenv("FINNHUB_KEY"),
		AnalystBackend: backend,
		AnalystKey:     os.Getenv(keyEnv),
		FREDKey:        os.Getenv("FRED_KEY"),
		Lark: LarkCredentials{
			AppID:     os.Getenv("LARK_APP_ID"),
			AppSecret: os.Getenv("LARK_APP_SECRET"),
			ChatID:    os.Getenv("LARK_CHAT_ID"),
		},
		Telegram: TelegramCredentials{
			BotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		},
	}

	var missing []string
	if creds.FinnhubKey == "" {
		missing = append(missing, "FINNHUB_KEY")
	}
	if creds.AnalystKey == "" {
		missing = append(missing, keyEnv)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if !creds.Lark.empty() && !creds.Lark.Complete() {
		return nil, fmt.Errorf("incomplete Lark credentials: LARK_APP_ID, LARK_APP_SECRET and LARK_CHAT_ID must all be set")
	}
	if !creds.Telegram.empty() && !creds.Telegram.Complete() {
		return nil, fmt.Errorf("incomplete Telegram credentials: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must both be set")
	}
	if !creds.Lark.Complete() && !creds.Telegram.Complete() {
		return nil, fmt.Errorf("no delivery channel configured: set Lark or Telegram credentials")
	}

	return creds, nil
}
