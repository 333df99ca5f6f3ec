package llm

import (
	"testing"
	"time"

	"mila-bot/internal/config"
)

func TestNewClientOpenAI(t *testing.T) {
	cfg := &config.Config{
		LLMProvider:   config.ProviderOpenAI,
		OpenAIAPIKey:  "test-key",
		OpenAIBaseURL: "https://api.deepseek.com",
		OpenAIModel:   "deepseek-chat",
		LLMTimeout:    30 * time.Second,
	}
	client, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	if _, ok := client.(*OpenAIClient); !ok {
		t.Fatalf("unexpected client type %T", client)
	}
}

func TestNewClientUnknownProvider(t *testing.T) {
	if _, err := NewClient(&config.Config{LLMProvider: "mistral"}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
