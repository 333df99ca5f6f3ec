package conversation

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"mila-bot/internal/observability"
	"mila-bot/internal/store"
)

type brokenBackend struct {
	store.Backend
	appendCalls int
}

func (b *brokenBackend) LoadHistory(context.Context, int64) ([]store.Entry, error) {
	return nil, fmt.Errorf("%w: disk gone", store.ErrUnavailable)
}

func (b *brokenBackend) AppendHistory(context.Context, int64, ...store.Entry) error {
	b.appendCalls++
	return fmt.Errorf("%w: disk gone", store.ErrUnavailable)
}

func TestHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory(10), observability.Logger())

	s.AppendTurn(ctx, 42, "hi", "hello there")

	entries := s.History(ctx, 42)
	assert.Len(t, entries, 2)
	assert.Equal(t, store.RoleUser, entries[0].Role)
	assert.Equal(t, "hi", entries[0].Content)
	assert.Equal(t, store.RoleAssistant, entries[1].Role)
	assert.Equal(t, "hello there", entries[1].Content)
}

func TestHistoryUnknownUserEmpty(t *testing.T) {
	s := New(store.NewMemory(10), observability.Logger())
	assert.Empty(t, s.History(context.Background(), 404))
}

func TestHistoryDegradesToEmptyOnBackendFailure(t *testing.T) {
	s := New(&brokenBackend{}, observability.Logger())
	assert.Empty(t, s.History(context.Background(), 42), "load failure must degrade, not fail the turn")
}

func TestAppendTurnSwallowsBackendFailure(t *testing.T) {
	backend := &brokenBackend{}
	s := New(backend, observability.Logger())

	assert.NotPanics(t, func() {
		s.AppendTurn(context.Background(), 42, "hi", "reply")
	})
	assert.Equal(t, 1, backend.appendCalls)
}
