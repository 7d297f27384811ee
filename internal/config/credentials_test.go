package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("FINNHUB_KEY", "fh-key")
	t.Setenv("GEMINI_KEY", "gm-key")
	t.Setenv("LARK_APP_ID", "cli_app")
	t.Setenv("LARK_APP_SECRET", "secret")
	t.Setenv("LARK_CHAT_ID", "oc_chat")
	t.Setenv("ANALYST_BACKEND", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")
	t.Setenv("FRED_KEY", "")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	creds, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "fh-key", creds.FinnhubKey)
	assert.Equal(t, AnalystBackendGemini, creds.AnalystBackend)
	assert.Equal(t, "gm-key", creds.AnalystKey)
	assert.True(t, creds.Lark.Complete())
	assert.False(t, creds.Telegram.Complete())
}

func TestLoadBackendSelection(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ANALYST_BACKEND", "claude")
	t.Setenv("ANTHROPIC_API_KEY", "cl-key")

	creds, err := Load()

	require.NoError(t, err)
	assert.Equal(t, AnalystBackendClaude, creds.AnalystBackend)
	assert.Equal(t, "cl-key", creds.AnalystKey)
}

func TestLoadUnknownBackend(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ANALYST_BACKEND", "bard")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ANALYST_BACKEND")
}

func TestLoadMissingRequiredKeys(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("FINNHUB_KEY", "")
	t.Setenv("GEMINI_KEY", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "FINNHUB_KEY")
	assert.Contains(t, err.Error(), "GEMINI_KEY")
}

func TestLoadBackendKeyRequiredForSelectedBackendOnly(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ANALYST_BACKEND", "openai")
	t.Setenv("GEMINI_KEY", "")
	t.Setenv("OPENAI_API_KEY", "oa-key")

	creds, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "oa-key", creds.AnalystKey)
}

func TestLoadPartialChannelIsError(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LARK_CHAT_ID", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete Lark credentials")
}

func TestLoadNoChannelIsError(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LARK_APP_ID", "")
	t.Setenv("LARK_APP_SECRET", "")
	t.Setenv("LARK_CHAT_ID", "")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no delivery channel")
}

func TestLoadTelegramOnly(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("LARK_APP_ID", "")
	t.Setenv("LARK_APP_SECRET", "")
	t.Setenv("LARK_CHAT_ID", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")

	creds, err := Load()

	require.NoError(t, err)
	assert.True(t, creds.Telegram.Complete())
	assert.False(t, creds.Lark.Complete())
}
