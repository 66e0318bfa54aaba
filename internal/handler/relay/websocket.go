package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zhouzirui/peoplemap/backend/internal/config"
	"github.com/zhouzirui/peoplemap/backend/internal/model/chat"
	chatservice "github.com/zhouzirui/peoplemap/backend/internal/service/chat"
	"github.com/zhouzirui/peoplemap/backend/pkg/apperr"
)

const writeWait = 10 * time.Second

// WebSocketHandler 实时聊天中继的WebSocket处理器
type WebSocketHandler struct {
	chatSvc  *chatservice.Service
	cfg      config.RelayConfig
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(chatSvc *chatservice.Service, cfg config.RelayConfig, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 32
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 60 * time.Second
	}
	if cfg.PingInterval <= 0 || cfg.PingInterval >= cfg.ReadTimeout {
		cfg.PingInterval = cfg.ReadTimeout * 9 / 10
	}

	return &WebSocketHandler{
		chatSvc: chatSvc,
		cfg:     cfg,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// RoomPayload 加入/离开房间的参数
type RoomPayload struct {
	User1 string `json:"user1"`
	User2 string `json:"user2"`
}

// SendPayload 发送消息的参数
type SendPayload struct {
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Message    string `json:"message"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// client 是单个WebSocket连接；所有写操作都经由 writePump 串行完成
type client struct {
	id     string
	conn   *websocket.Conn
	send   chan chatservice.Event
	done   chan struct{}
	closed sync.Once
}

func (c *client) ID() string { return c.id }

func (c *client) Deliver(evt chatservice.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- evt:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.closed.Do(func() { close(c.done) })
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan chatservice.Event, h.cfg.SendBuffer),
		done: make(chan struct{}),
	}
	h.logger.Info("relay connection opened", zap.String("conn", c.id), zap.String("remote", r.RemoteAddr))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(c)
	}()

	defer func() {
		h.chatSvc.Disconnect(c)
		c.close()
		wg.Wait()
		conn.Close()
		h.logger.Info("relay connection closed", zap.String("conn", c.id))
	}()

	conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		return nil
	})

	ctx := r.Context()
	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.Warn("relay read error", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}

		conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		h.handleMessage(ctx, c, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, c *client, msg *inboundMessage) {
	switch msg.Event {
	case chatservice.EventJoinRoom:
		h.handleJoin(c, msg.Data)
	case chatservice.EventLeaveRoom:
		h.handleLeave(c, msg.Data)
	case chatservice.EventSendMessage:
		h.handleSend(ctx, c, msg.Data)
	default:
		h.sendError(c, "unsupported event: "+msg.Event)
	}
}

func (h *WebSocketHandler) handleJoin(c *client, raw json.RawMessage) {
	var payload RoomPayload
	if err := decodePayload(raw, &payload); err != nil {
		h.sendError(c, "invalid join_room payload")
		return
	}

	roomID, err := h.chatSvc.Join(c, payload.User1, payload.User2)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	h.logger.Info("relay joined room", zap.String("conn", c.id), zap.String("room", roomID))
	c.Deliver(chatservice.Event{Name: chatservice.EventJoinedRoom, Data: map[string]string{"room": roomID}})
}

func (h *WebSocketHandler) handleLeave(c *client, raw json.RawMessage) {
	var payload RoomPayload
	if err := decodePayload(raw, &payload); err != nil {
		h.sendError(c, "invalid leave_room payload")
		return
	}

	roomID, err := h.chatSvc.Leave(c, payload.User1, payload.User2)
	if err != nil {
		h.sendError(c, err.Error())
		return
	}
	c.Deliver(chatservice.Event{Name: chatservice.EventLeftRoom, Data: map[string]string{"room": roomID}})
}

func (h *WebSocketHandler) handleSend(ctx context.Context, c *client, raw json.RawMessage) {
	var payload SendPayload
	if err := decodePayload(raw, &payload); err != nil {
		h.sendError(c, "invalid send_message payload")
		return
	}

	msg, err := h.chatSvc.Send(ctx, chat.Message{
		SenderID:   payload.SenderID,
		ReceiverID: payload.ReceiverID,
		Message:    payload.Message,
		Timestamp:  payload.Timestamp,
	})
	switch {
	case err == nil:
	case apperr.IsInput(err):
		h.sendError(c, err.Error())
	default:
		c.Deliver(chatservice.Event{Name: chatservice.EventMessageError, Data: map[string]string{
			"error":       "message could not be delivered",
			"sender_id":   msg.SenderID,
			"receiver_id": msg.ReceiverID,
			"message":     msg.Message,
			"timestamp":   msg.Timestamp,
		}})
	}
}

func (h *WebSocketHandler) sendError(c *client, message string) {
	c.Deliver(chatservice.Event{Name: chatservice.EventError, Data: map[string]string{"error": message}})
}

// writePump 串行写出事件并定期发送 ping
func (h *WebSocketHandler) writePump(c *client) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case evt := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(evt); err != nil {
				h.logger.Warn("relay write failed", zap.String("conn", c.id), zap.Error(err))
				c.close()
				c.conn.Close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				c.conn.Close()
				return
			}
		}
	}
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}
