package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS quota (
	user_id INTEGER PRIMARY KEY,
	count   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS history (
	user_id INTEGER NOT NULL,
	seq     INTEGER NOT NULL,
	role    TEXT    NOT NULL,
	content TEXT    NOT NULL,
	PRIMARY KEY (user_id, seq)
);
`

// SQLite persists quota counters and conversation history in a local
// database file. Append and trim happen inside one transaction so a crash or
// a concurrent writer can never leave a user with more than `window` entries.
type SQLite struct {
	db     *sql.DB
	window int
}

func NewSQLite(path string, window int) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory %s: %w", dir, err)
		}
	}

	// _txlock=immediate makes write transactions take the database lock at
	// BEGIN, so two concurrent appends serialize instead of racing the
	// MAX(seq) read and colliding on the primary key.
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open db at %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping db at %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return &SQLite{db: db, window: window}, nil
}

func (s *SQLite) LoadHistory(ctx context.Context, userID int64) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, role, content FROM (
			SELECT seq, role, content FROM history
			WHERE user_id = ? ORDER BY seq DESC LIMIT ?
		) ORDER BY seq ASC`, userID, s.window)
	if err != nil {
		return nil, fmt.Errorf("%w: load history: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Seq, &e.Role, &e.Content); err != nil {
			return nil, fmt.Errorf("%w: scan history: %v", ErrUnavailable, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read history: %v", ErrUnavailable, err)
	}
	return entries, nil
}

func (s *SQLite) AppendHistory(ctx context.Context, userID int64, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin append: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM history WHERE user_id = ?`, userID,
	).Scan(&seq); err != nil {
		return fmt.Errorf("%w: read seq: %v", ErrUnavailable, err)
	}
	for _, e := range entries {
		seq++
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (user_id, seq, role, content) VALUES (?, ?, ?, ?)`,
			userID, seq, e.Role, e.Content,
		); err != nil {
			return fmt.Errorf("%w: insert entry: %v", ErrUnavailable, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM history WHERE user_id = ? AND seq <= ? - ?`,
		userID, seq, s.window,
	); err != nil {
		return fmt.Errorf("%w: trim history: %v", ErrUnavailable, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit append: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLite) UsageCount(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count FROM quota WHERE user_id = ?`, userID,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: read usage: %v", ErrUnavailable, err)
	}
	return count, nil
}

func (s *SQLite) IncrementUsage(ctx context.Context, userID int64, limit int) (int, bool, error) {
	// Check and charge in one statement so two concurrent turns at the edge
	// of the limit cannot both pass.
	var count int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO quota (user_id, count) VALUES (?, 1)
		ON CONFLICT(user_id) DO UPDATE SET count = count + 1
		WHERE quota.count < ?
		RETURNING count`, userID, limit,
	).Scan(&count)
	if err == sql.ErrNoRows {
		count, err := s.UsageCount(ctx, userID)
		return count, false, err
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: increment usage: %v", ErrUnavailable, err)
	}
	return count, true, nil
}

func (s *SQLite) Users(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id FROM quota WHERE count > 0`)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", ErrUnavailable, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrUnavailable, err)
	}
	return ids, nil
}

func (s *SQLite) Close() error { return s.db.Close() }
