package messages

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/zhouzirui/peoplemap/backend/internal/model/chat"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id          TEXT PRIMARY KEY,
    sender_id   TEXT NOT NULL,
    receiver_id TEXT NOT NULL,
    message     TEXT NOT NULL,
    timestamp   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_pair_idx ON chat_messages (sender_id, receiver_id, timestamp);`

// SQLiteStore persists messages in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens path and creates the table.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create chat_messages table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Insert stores msg as one row.
func (s *SQLiteStore) Insert(ctx context.Context, msg chat.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (id, sender_id, receiver_id, message, timestamp) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.SenderID, msg.ReceiverID, msg.Message, msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Between returns both directions of the pair, oldest first.
func (s *SQLiteStore) Between(ctx context.Context, a, b string) ([]chat.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender_id, receiver_id, message, timestamp FROM chat_messages
		WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
		ORDER BY timestamp ASC, rowid ASC`, a, b, b, a)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []chat.Message
	for rows.Next() {
		var msg chat.Message
		if err := rows.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.Message, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Close closes the database handle.
func (s *SQLiteStore) Close(context.Context) error {
	return s.db.Close()
}
