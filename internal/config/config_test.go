package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg, err := New()
	assert.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "https://api.deepseek.com", cfg.OpenAIBaseURL)
	assert.Equal(t, "deepseek-chat", cfg.OpenAIModel)
	assert.Equal(t, 15, cfg.MaxFreeMessages)
	assert.Equal(t, 10, cfg.HistoryWindow)
	assert.Equal(t, BackendMemory, cfg.StorageBackend)
}

func TestNewRequiresAPIKeyForProvider(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New()
	assert.Error(t, err, "missing completion credentials must abort startup")
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("STORAGE_BACKEND", "cassandra")

	_, err := New()
	assert.Error(t, err)
}

func TestValidateRejectsNonPositiveLimits(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("MAX_FREE_MESSAGES", "0")

	_, err := New()
	assert.Error(t, err)
}
