// Package audit exports a session's event log when the session is deleted.
// The live log is in-memory only; the export is the sole durable artifact.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/campfire-games/lobby-backend/internal/game"
)

type Exporter interface {
	Export(ctx context.Context, sessionID, title string, entries []game.LogEntry) error
}

// Nop drops exports; used when no audit path is configured.
type Nop struct{}

func (Nop) Export(ctx context.Context, sessionID, title string, entries []game.LogEntry) error {
	return nil
}

// Store writes exports to a local sqlite file.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS session_log (
    session_id TEXT NOT NULL,
    title TEXT NOT NULL,
    seq INTEGER NOT NULL,
    type TEXT NOT NULL,
    at TIMESTAMP NOT NULL,
    context TEXT,
    PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_session_log_type ON session_log(session_id, type);
`

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Export writes the full log as a flat record sequence, one row per entry.
func (s *Store) Export(ctx context.Context, sessionID, title string, entries []game.LogEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback()

	for seq, e := range entries {
		var context []byte
		if e.Context != nil {
			context, err = json.Marshal(e.Context)
			if err != nil {
				return fmt.Errorf("marshal log context: %w", err)
			}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO session_log (session_id, title, seq, type, at, context)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, sessionID, title, seq, string(e.Type), e.At, string(context))
		if err != nil {
			return fmt.Errorf("insert log entry %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}
