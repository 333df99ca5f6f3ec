package conversation

import (
	"context"
	"log/slog"

	"mila-bot/internal/store"
)

// Store gives the orchestrator a forgiving view over the history backend:
// loads degrade to an empty history and appends are best-effort, because the
// reply path must not fail just because persistence did.
type Store struct {
	backend store.Backend
	log     *slog.Logger
}

func New(backend store.Backend, log *slog.Logger) *Store {
	return &Store{backend: backend, log: log}
}

// History returns the user's retained entries, oldest first. On backend
// failure it logs and returns an empty history; the turn continues without
// context.
func (s *Store) History(ctx context.Context, userID int64) []store.Entry {
	entries, err := s.backend.LoadHistory(ctx, userID)
	if err != nil {
		s.log.Warn("history load failed, continuing without context",
			"user_id", userID, "error", err)
		return nil
	}
	return entries
}

// AppendTurn stores the user message and the assistant reply as one backend
// write, so a turn is either fully recorded or not at all. Failures are
// logged and swallowed.
func (s *Store) AppendTurn(ctx context.Context, userID int64, userText, assistantText string) {
	err := s.backend.AppendHistory(ctx, userID,
		store.Entry{Role: store.RoleUser, Content: userText},
		store.Entry{Role: store.RoleAssistant, Content: assistantText},
	)
	if err != nil {
		s.log.Error("history append failed", "user_id", userID, "error", err)
	}
}
