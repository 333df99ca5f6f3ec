package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"mila-bot/internal/config"
	"mila-bot/internal/conversation"
	"mila-bot/internal/llm"
	"mila-bot/internal/observability"
	"mila-bot/internal/quota"
	"mila-bot/internal/relay"
	"mila-bot/internal/scheduler"
	"mila-bot/internal/store"
	"mila-bot/internal/telegram"
)

func main() {
	log := observability.Logger()

	if err := godotenv.Load(".env"); err != nil {
		log.Warn(".env file not found", "error", err)
	}

	cfg, err := config.New()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	backend, err := newBackend(cfg)
	if err != nil {
		log.Error("failed to init storage backend", "backend", string(cfg.StorageBackend), "error", err)
		os.Exit(1)
	}
	defer backend.Close()

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		log.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}

	systemPrompt := readSystemPrompt(cfg.SystemPromptPath)

	gate := quota.New(backend, cfg.MaxFreeMessages, cfg.AdminUserID)
	conv := conversation.New(backend, log)
	orch := relay.New(gate, conv, llmClient, systemPrompt, log)

	bot, err := telegram.New(cfg.TelegramBotToken, orch, gate, log)
	if err != nil {
		log.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	if cfg.DailyReport && cfg.AdminUserID != 0 {
		sched := scheduler.New(log)
		sched.SetReportFunction(usageReport(backend, bot, cfg.AdminUserID))
		if err := sched.Start(); err != nil {
			log.Error("failed to start scheduler", "error", err)
			os.Exit(1)
		}
		defer sched.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("bot starting",
		"backend", string(cfg.StorageBackend),
		"provider", string(cfg.LLMProvider),
		"max_free_messages", cfg.MaxFreeMessages,
		"history_window", cfg.HistoryWindow,
	)
	bot.Start(ctx)
}

func newBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return store.NewMemory(cfg.HistoryWindow), nil
	case config.BackendSQLite:
		return store.NewSQLite(cfg.SQLitePath, cfg.HistoryWindow)
	case config.BackendRedis:
		return store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.HistoryWindow)
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}

func readSystemPrompt(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		observability.Logger().Warn("system prompt file not readable", "path", path, "error", err)
		return ""
	}
	return string(data)
}

// usageReport builds the daily summary pushed to the admin chat.
func usageReport(backend store.Backend, bot *telegram.Bot, adminID int64) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ids, err := backend.Users(ctx)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		total := 0
		for _, id := range ids {
			count, err := backend.UsageCount(ctx, id)
			if err != nil {
				return fmt.Errorf("usage of user %d: %w", id, err)
			}
			total += count
		}
		bot.SendToChat(adminID, fmt.Sprintf("За весь час: %d користувачів, %d повідомлень", len(ids), total))
		return nil
	}
}
