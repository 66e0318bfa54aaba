package messages

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/zhouzirui/peoplemap/backend/internal/config"
	"github.com/zhouzirui/peoplemap/backend/internal/model/chat"
)

func sampleMessages() []chat.Message {
	return []chat.Message{
		{ID: "1", SenderID: "a", ReceiverID: "b", Message: "hi", Timestamp: "2024-01-01T00:00:02.000000Z"},
		{ID: "2", SenderID: "b", ReceiverID: "a", Message: "hey", Timestamp: "2024-01-01T00:00:01.000000Z"},
		{ID: "3", SenderID: "a", ReceiverID: "c", Message: "other", Timestamp: "2024-01-01T00:00:00.000000Z"},
	}
}

func exerciseStore(t *testing.T, store chat.Store) []chat.Message {
	t.Helper()
	ctx := context.Background()
	for _, msg := range sampleMessages() {
		if err := store.Insert(ctx, msg); err != nil {
			t.Fatalf("Insert err: %v", err)
		}
	}
	got, err := store.Between(ctx, "b", "a")
	if err != nil {
		t.Fatalf("Between err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 messages for pair, got %+v", got)
	}
	for _, msg := range got {
		if msg.ReceiverID == "c" || msg.SenderID == "c" {
			t.Fatalf("unexpected message from another pair: %+v", msg)
		}
	}
	return got
}

func TestMemoryStoreBetween(t *testing.T) {
	got := exerciseStore(t, NewMemoryStore())
	if got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("expected insertion order, got %+v", got)
	}
}

func TestSQLiteStoreBetween(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore err: %v", err)
	}
	defer store.Close(context.Background())

	got := exerciseStore(t, store)
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Fatalf("expected timestamp order, got %+v", got)
	}
}

func TestOpenMemoryAndUnknown(t *testing.T) {
	store, err := Open(context.Background(), config.StoreConfig{Driver: config.StoreMemory})
	if err != nil {
		t.Fatalf("Open err: %v", err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	if _, err := Open(context.Background(), config.StoreConfig{Driver: "redis"}); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPairFilterCoversBothDirections(t *testing.T) {
	want := bson.M{"$or": bson.A{
		bson.M{"sender_id": "x", "receiver_id": "y"},
		bson.M{"sender_id": "y", "receiver_id": "x"},
	}}
	if got := pairFilter("x", "y"); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected filter: %v", got)
	}
}
