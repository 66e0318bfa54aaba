package chat

import (
	"sync"

	"go.uber.org/zap"
)

// Event names on the relay channel.
const (
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventJoinedRoom     = "joined_room"
	EventLeftRoom       = "left_room"
	EventReceiveMessage = "receive_message"
	EventMessageError   = "message_error"
	EventError          = "error"
)

// Event is one frame pushed to a subscriber.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// Subscriber is a connection attached to rooms. Deliver must not block; it
// returns false when the event could not be queued.
type Subscriber interface {
	ID() string
	Deliver(evt Event) bool
}

type room struct {
	mu      sync.Mutex
	members map[string]Subscriber
}

// Hub tracks room membership. Broadcasts to one room are serialized so every
// member observes the same event order.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]*room
	logger *zap.Logger
}

// NewHub creates an empty room registry.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[string]*room),
		logger: logger,
	}
}

// Join attaches sub to roomID, creating the room on first use.
func (h *Hub) Join(roomID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomID]
	if !ok {
		r = &room{members: make(map[string]Subscriber)}
		h.rooms[roomID] = r
	}

	r.mu.Lock()
	r.members[sub.ID()] = sub
	r.mu.Unlock()
}

// Leave detaches sub from roomID and drops the room once empty.
func (h *Hub) Leave(roomID string, sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(roomID, sub.ID())
}

// LeaveAll detaches sub from every room it joined.
func (h *Hub) LeaveAll(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for roomID := range h.rooms {
		h.leaveLocked(roomID, sub.ID())
	}
}

func (h *Hub) leaveLocked(roomID, subID string) {
	r, ok := h.rooms[roomID]
	if !ok {
		return
	}

	r.mu.Lock()
	delete(r.members, subID)
	empty := len(r.members) == 0
	r.mu.Unlock()

	if empty {
		delete(h.rooms, roomID)
	}
}

// Broadcast delivers evt to every member of roomID and returns how many
// members accepted it.
func (h *Hub) Broadcast(roomID string, evt Event) int {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delivered := 0
	for id, sub := range r.members {
		if sub.Deliver(evt) {
			delivered++
			continue
		}
		h.logger.Warn("relay subscriber dropped event",
			zap.String("room", roomID),
			zap.String("subscriber", id),
			zap.String("event", evt.Name),
		)
	}
	return delivered
}

// Members returns the number of subscribers in roomID.
func (h *Hub) Members(roomID string) int {
	h.mu.RLock()
	r, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

// Rooms returns the number of live rooms.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
