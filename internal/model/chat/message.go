package chat

import (
	"context"
	"time"
)

// TimestampLayout is the fixed-width UTC ISO-8601 layout used for server
// generated timestamps; lexical order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Message is one persisted direct message between two participants.
type Message struct {
	ID         string `json:"id,omitempty" bson:"_id,omitempty"`
	SenderID   string `json:"sender_id" bson:"sender_id"`
	ReceiverID string `json:"receiver_id" bson:"receiver_id"`
	Message    string `json:"message" bson:"message"`
	Timestamp  string `json:"timestamp" bson:"timestamp"`
}

// Now formats t in TimestampLayout.
func Now(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Store persists messages and answers pair-history queries.
type Store interface {
	Insert(ctx context.Context, msg Message) error
	// Between returns every message exchanged by a and b, in either direction.
	Between(ctx context.Context, a, b string) ([]Message, error)
}
