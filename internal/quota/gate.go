package quota

import (
	"context"
	"fmt"

	"mila-bot/internal/store"
)

// Gate decides whether a user may spend another free-tier message. One
// configured admin identity bypasses the limit and is never charged.
type Gate struct {
	backend store.Backend
	max     int
	adminID int64
}

func New(backend store.Backend, maxFreeMessages int, adminID int64) *Gate {
	return &Gate{backend: backend, max: maxFreeMessages, adminID: adminID}
}

// Admit charges one message against the user's quota and reports whether the
// turn may proceed. A denied turn is not charged. A backend failure is
// returned as an error so callers never mistake an outage for an exhausted
// quota; the gate fails closed.
func (g *Gate) Admit(ctx context.Context, userID int64) (bool, error) {
	if g.adminID != 0 && userID == g.adminID {
		return true, nil
	}

	_, ok, err := g.backend.IncrementUsage(ctx, userID, g.max)
	if err != nil {
		return false, fmt.Errorf("quota charge for user %d: %w", userID, err)
	}
	return ok, nil
}

// Usage reports the user's charged count and the configured limit without
// mutating anything.
func (g *Gate) Usage(ctx context.Context, userID int64) (count, max int, err error) {
	count, err = g.backend.UsageCount(ctx, userID)
	if err != nil {
		return 0, g.max, fmt.Errorf("usage read for user %d: %w", userID, err)
	}
	return count, g.max, nil
}

// IsAdmin reports whether the user is the quota-exempt identity.
func (g *Gate) IsAdmin(userID int64) bool {
	return g.adminID != 0 && userID == g.adminID
}
