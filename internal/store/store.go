package store

import (
	"context"
	"errors"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ErrUnavailable marks backend I/O failures so callers can tell a broken
// backend apart from an exhausted quota or an empty history.
var ErrUnavailable = errors.New("storage backend unavailable")

// Entry is one message of a user's conversation. Seq is assigned by the
// backend at write time and is strictly increasing per user, so two entries
// never compare equal.
type Entry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Seq     int64  `json:"seq"`
}

// Backend abstracts persistence for conversation history and usage counters.
// Implementations must serialize mutations per user: concurrent appends or
// increments for the same user may not lose updates, and operations for
// different users may not block on each other beyond map-level access.
type Backend interface {
	// LoadHistory returns at most the newest `window` entries for the user,
	// oldest first. An unknown user yields an empty slice, not an error.
	LoadHistory(ctx context.Context, userID int64) ([]Entry, error)

	// AppendHistory appends the entries in order, assigns their Seq values
	// and evicts everything older than the retention window, atomically with
	// respect to other appends for the same user.
	AppendHistory(ctx context.Context, userID int64, entries ...Entry) error

	// UsageCount returns the user's charged message count, zero if unseen.
	UsageCount(ctx context.Context, userID int64) (int, error)

	// IncrementUsage atomically charges one message if the user's count is
	// below limit. It returns the resulting count and whether the charge was
	// applied; a denied attempt leaves the count untouched.
	IncrementUsage(ctx context.Context, userID int64, limit int) (int, bool, error)

	// Users returns the IDs of all users with a usage counter.
	Users(ctx context.Context) ([]int64, error)

	Close() error
}
