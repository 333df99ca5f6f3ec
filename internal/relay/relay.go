package relay

import (
	"context"
	"log/slog"

	"mila-bot/internal/conversation"
	"mila-bot/internal/llm"
	"mila-bot/internal/quota"
	"mila-bot/internal/store"
)

// Fixed user-facing replies. Quota exhaustion and completion failures are
// expected outcomes of a turn, so they resolve to friendly strings instead
// of propagating as faults to the transport.
const (
	DeclineReply = "Хочу ще поговорити 😏, але мої безкоштовні повідомлення майже закінчилися. Можемо продовжити з преміум?"

	FallbackReply = "Ой, щось пішло не так 😔 Спробуй написати мені ще раз трохи пізніше."

	UnavailableReply = "Я зараз трошки зайнята 🙈 Спробуй за хвилинку, добре?"
)

// Orchestrator runs one turn: admission, history load, completion call and
// best-effort persistence of the exchange.
type Orchestrator struct {
	gate         *quota.Gate
	conversation *conversation.Store
	llmClient    llm.Client
	systemPrompt string
	log          *slog.Logger
}

func New(gate *quota.Gate, conv *conversation.Store, llmClient llm.Client, systemPrompt string, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		gate:         gate,
		conversation: conv,
		llmClient:    llmClient,
		systemPrompt: systemPrompt,
		log:          log,
	}
}

// HandleMessage processes one inbound message and always returns something
// fit to show the user.
func (o *Orchestrator) HandleMessage(ctx context.Context, userID int64, text string) string {
	admitted, err := o.gate.Admit(ctx, userID)
	if err != nil {
		// Backend outage, not an exhausted quota. Fail the turn closed
		// rather than waiving the limit.
		o.log.Error("quota gate unavailable, declining turn", "user_id", userID, "error", err)
		return UnavailableReply
	}
	if !admitted {
		return DeclineReply
	}

	history := o.conversation.History(ctx, userID)

	messages := make([]llm.Message, 0, len(history)+2)
	if o.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: "system", Content: o.systemPrompt})
	}
	for _, e := range history {
		messages = append(messages, llm.Message{Role: e.Role, Content: e.Content})
	}
	messages = append(messages, llm.Message{Role: store.RoleUser, Content: text})

	resp, err := o.llmClient.Generate(ctx, messages)
	if err != nil {
		// The admission already happened and stays charged; the history is
		// left untouched so a half turn is never recorded.
		o.log.Error("completion failed", "user_id", userID, "error", err)
		return FallbackReply
	}

	o.log.Info("completion succeeded",
		"user_id", userID,
		"model", resp.Model,
		"prompt_tokens", resp.PromptTokens,
		"completion_tokens", resp.CompletionTokens,
		"total_tokens", resp.TotalTokens,
	)

	o.conversation.AppendTurn(ctx, userID, text, resp.Content)
	return resp.Content
}
