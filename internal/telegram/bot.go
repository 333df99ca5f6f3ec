package telegram

import (
	"context"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mila-bot/internal/quota"
	"mila-bot/internal/relay"
)

type Bot struct {
	api  *tgbotapi.BotAPI
	s    sender
	orch *relay.Orchestrator
	gate *quota.Gate
	log  *slog.Logger
}

func New(botToken string, orch *relay.Orchestrator, gate *quota.Gate, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, err
	}
	return &Bot{
		api:  api,
		s:    botAPISender{api: api},
		orch: orch,
		gate: gate,
		log:  log,
	}, nil
}

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				// One goroutine per message: a slow completion for one user
				// must not delay anyone else's turn.
				go b.handleIncomingMessage(ctx, update.Message)
				continue
			}
			if update.InlineQuery != nil {
				go b.handleInlineQuery(update.InlineQuery)
				continue
			}
		}
	}
}

// SendToChat lets collaborators outside the update loop (the daily report)
// push a message to a chat.
func (b *Bot) SendToChat(chatID int64, text string) {
	b.sendMessage(chatID, text)
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.s.Send(msg); err != nil {
		b.log.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}
