package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

const (
	greetingReply = "Привіт! Рада тебе бачити 😊"
	startChatting = "Просто напиши мені щось — і поговоримо 😉"

	menuStartChat = "Почати спілкування"
	menuMyStats   = "Моя статистика"
)

var menuKeyboard = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuStartChat)),
	tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(menuMyStats)),
)

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	userID := msg.From.ID

	b.log.Info("incoming message", "user_id", userID, "username", msg.From.UserName)

	switch {
	case strings.HasPrefix(msg.Text, "/start"):
		b.sendGreeting(msg.Chat.ID)
	case strings.HasPrefix(msg.Text, "/stats"), msg.Text == menuMyStats:
		b.sendStats(ctx, msg.Chat.ID, userID)
	case msg.Text == menuStartChat:
		b.sendMessage(msg.Chat.ID, startChatting)
	default:
		reply := b.orch.HandleMessage(ctx, userID, msg.Text)
		b.sendMessage(msg.Chat.ID, reply)
	}
}

func (b *Bot) sendGreeting(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, greetingReply)
	msg.ReplyMarkup = menuKeyboard
	if _, err := b.s.Send(msg); err != nil {
		b.log.Error("failed to send greeting", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendStats(ctx context.Context, chatID, userID int64) {
	if b.gate.IsAdmin(userID) {
		b.sendMessage(chatID, "У тебе безліміт 😏")
		return
	}
	count, max, err := b.gate.Usage(ctx, userID)
	if err != nil {
		b.log.Error("failed to read usage", "user_id", userID, "error", err)
		b.sendMessage(chatID, "Не можу зараз порахувати 🙈 Спробуй трохи пізніше.")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("Ти використав %d з %d безкоштовних повідомлень 😊", count, max))
}

func (b *Bot) handleInlineQuery(q *tgbotapi.InlineQuery) {
	text := q.Query
	if text == "" {
		text = "..."
	}
	article := tgbotapi.NewInlineQueryResultArticle(
		uuid.NewString(),
		"Відповідь від Mila",
		fmt.Sprintf("Mila відповідає: %s", text),
	)
	resp := tgbotapi.InlineConfig{
		InlineQueryID: q.ID,
		Results:       []interface{}{article},
		CacheTime:     1,
	}
	if _, err := b.s.Request(resp); err != nil {
		b.log.Error("failed to answer inline query", "error", err)
	}
}
