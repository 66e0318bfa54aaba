package chat

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/peoplemap/backend/internal/model/chat"
	"github.com/zhouzirui/peoplemap/backend/pkg/apperr"
)

// Service relays direct messages between two participants: it persists each
// message and fans it out to the pair's room.
type Service struct {
	store  chat.Store
	hub    *Hub
	now    func() time.Time
	logger *zap.Logger
}

// NewService bootstraps the relay on top of a message store and room hub.
func NewService(store chat.Store, hub *Hub, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = NewHub(logger)
	}
	return &Service{
		store:  store,
		hub:    hub,
		now:    time.Now,
		logger: logger,
	}
}

// Hub exposes the room registry.
func (s *Service) Hub() *Hub {
	return s.hub
}

// Join subscribes sub to the room shared by user1 and user2.
func (s *Service) Join(sub Subscriber, user1, user2 string) (string, error) {
	if err := requirePair(user1, user2); err != nil {
		return "", err
	}

	roomID := chat.RoomID(user1, user2)
	s.hub.Join(roomID, sub)
	s.logger.Debug("relay joined room", zap.String("room", roomID), zap.String("subscriber", sub.ID()))
	return roomID, nil
}

// Leave unsubscribes sub from the room shared by user1 and user2.
func (s *Service) Leave(sub Subscriber, user1, user2 string) (string, error) {
	if err := requirePair(user1, user2); err != nil {
		return "", err
	}

	roomID := chat.RoomID(user1, user2)
	s.hub.Leave(roomID, sub)
	return roomID, nil
}

// Disconnect removes sub from every room.
func (s *Service) Disconnect(sub Subscriber) {
	s.hub.LeaveAll(sub)
}

// Send persists msg and broadcasts it to the pair's room. The timestamp
// defaults to the current UTC time. Nothing is broadcast if persistence fails.
func (s *Service) Send(ctx context.Context, msg chat.Message) (chat.Message, error) {
	switch {
	case msg.SenderID == "":
		return chat.Message{}, apperr.Required("sender_id")
	case msg.ReceiverID == "":
		return chat.Message{}, apperr.Required("receiver_id")
	case msg.Message == "":
		return chat.Message{}, apperr.Required("message")
	}

	if strings.TrimSpace(msg.Timestamp) == "" {
		msg.Timestamp = chat.Now(s.now())
	}
	msg.ID = uuid.NewString()

	if err := s.store.Insert(ctx, msg); err != nil {
		s.logger.Error("persist chat message failed",
			zap.String("sender_id", msg.SenderID),
			zap.String("receiver_id", msg.ReceiverID),
			zap.Error(err),
		)
		return msg, apperr.Upstream("persist message", err)
	}

	roomID := chat.RoomID(msg.SenderID, msg.ReceiverID)
	delivered := s.hub.Broadcast(roomID, Event{Name: EventReceiveMessage, Data: msg})
	s.logger.Debug("relay message broadcast", zap.String("room", roomID), zap.Int("delivered", delivered))
	return msg, nil
}

// History returns every message between user1 and user2 ordered by timestamp.
func (s *Service) History(ctx context.Context, user1, user2 string) ([]chat.Message, error) {
	if err := requirePair(user1, user2); err != nil {
		return nil, err
	}

	messages, err := s.store.Between(ctx, user1, user2)
	if err != nil {
		return nil, apperr.Upstream("load chat history", err)
	}

	SortByTimestamp(messages)
	if messages == nil {
		messages = []chat.Message{}
	}
	return messages, nil
}

// SortByTimestamp orders messages by timestamp string, keeping insertion
// order for equal timestamps.
func SortByTimestamp(messages []chat.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp < messages[j].Timestamp
	})
}

func requirePair(user1, user2 string) error {
	if user1 == "" || user2 == "" {
		return apperr.Input("user1", "user1 and user2 are required")
	}
	return nil
}
