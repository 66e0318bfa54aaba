package messages

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhouzirui/peoplemap/backend/internal/model/chat"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id          TEXT PRIMARY KEY,
    sender_id   TEXT NOT NULL,
    receiver_id TEXT NOT NULL,
    message     TEXT NOT NULL,
    timestamp   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS chat_messages_pair_idx ON chat_messages (sender_id, receiver_id, timestamp);`

const (
	insertMessageSQL = `INSERT INTO chat_messages (id, sender_id, receiver_id, message, timestamp) VALUES ($1, $2, $3, $4, $5)`
	pairMessagesSQL  = `SELECT id, sender_id, receiver_id, message, timestamp FROM chat_messages
WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
ORDER BY timestamp ASC`
)

// PostgresStore persists messages in a PostgreSQL table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore opens a pool for databaseURL and creates the table.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create chat_messages table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Insert stores msg as one row.
func (s *PostgresStore) Insert(ctx context.Context, msg chat.Message) error {
	_, err := s.pool.Exec(ctx, insertMessageSQL, msg.ID, msg.SenderID, msg.ReceiverID, msg.Message, msg.Timestamp)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// Between returns both directions of the pair, oldest first.
func (s *PostgresStore) Between(ctx context.Context, a, b string) ([]chat.Message, error) {
	rows, err := s.pool.Query(ctx, pairMessagesSQL, a, b)
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return out, nil
}

// Close releases the pool.
func (s *PostgresStore) Close(context.Context) error {
	s.pool.Close()
	return nil
}
