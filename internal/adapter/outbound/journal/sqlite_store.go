package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chatcleaner/chat-cleaner/internal/domain/journal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS suppressions (
	id         TEXT PRIMARY KEY,
	ts         INTEGER NOT NULL,
	channel    TEXT NOT NULL,
	name       TEXT NOT NULL,
	matched    TEXT NOT NULL,
	excerpt    TEXT NOT NULL,
	generation INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_suppressions_ts ON suppressions(ts);
`

// SQLiteStore keeps journal records in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time checks.
var (
	_ journal.Store        = (*SQLiteStore)(nil)
	_ journal.RecentReader = (*SQLiteStore)(nil)
)

// NewSQLiteStore opens (creating if needed) the database at path.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts records in one transaction. Duplicate IDs are ignored.
func (s *SQLiteStore) Append(ctx context.Context, records ...journal.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin journal tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO suppressions (id, ts, channel, name, matched, excerpt, generation)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare journal insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ID, r.Timestamp.UnixNano(), r.Channel, r.Name, r.Matched, r.Excerpt, int64(r.Generation),
		); err != nil {
			return fmt.Errorf("insert journal record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Flush is a no-op; every Append commits.
func (s *SQLiteStore) Flush(context.Context) error { return nil }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Recent returns up to n records, newest first. Query errors yield nil.
func (s *SQLiteStore) Recent(n int) []journal.Record {
	if n <= 0 {
		n = defaultRecentCap
	}
	rows, err := s.db.Query(`
		SELECT id, ts, channel, name, matched, excerpt, generation
		FROM suppressions ORDER BY ts DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []journal.Record
	for rows.Next() {
		var (
			r   journal.Record
			ts  int64
			gen int64
		)
		if err := rows.Scan(&r.ID, &ts, &r.Channel, &r.Name, &r.Matched, &r.Excerpt, &gen); err != nil {
			return out
		}
		r.Timestamp = time.Unix(0, ts).UTC()
		r.Generation = uint64(gen)
		out = append(out, r)
	}
	return out
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM suppressions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal records: %w", err)
	}
	return n, nil
}
