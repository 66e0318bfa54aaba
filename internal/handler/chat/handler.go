package chat

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	chatService "github.com/zhouzirui/peoplemap/backend/internal/service/chat"
	"github.com/zhouzirui/peoplemap/backend/pkg/utils"
)

const streamHeartbeat = 15 * time.Second

// Handler 聊天历史与房间事件流的HTTP处理器
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/chat_history", h.handleHistory)
	r.Get("/chat_stream", h.handleStream)
}

// handleHistory 返回两位用户之间的全部消息
func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	messages, err := h.chatSvc.History(r.Context(), query.Get("user1"), query.Get("user2"))
	if err != nil {
		utils.RespondAppError(w, h.logger, err, "failed to load chat history")
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

// streamSubscriber 将房间事件转交给 SSE 连接
type streamSubscriber struct {
	id     string
	events chan chatService.Event
}

func (s *streamSubscriber) ID() string { return s.id }

func (s *streamSubscriber) Deliver(evt chatService.Event) bool {
	select {
	case s.events <- evt:
		return true
	default:
		return false
	}
}

// handleStream 以 SSE 方式推送房间内的新消息（只读）
func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	query := r.URL.Query()
	user1, user2 := query.Get("user1"), query.Get("user2")

	sub := &streamSubscriber{id: "sse-" + uuid.NewString(), events: make(chan chatService.Event, 32)}
	roomID, err := h.chatSvc.Join(sub, user1, user2)
	if err != nil {
		utils.RespondAppError(w, h.logger, err, "failed to join room")
		return
	}
	defer h.chatSvc.Disconnect(sub)

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	if err := utils.SendSSEEvent(w, flusher, chatService.EventJoinedRoom, map[string]string{"room": roomID}); err != nil {
		return
	}

	h.logger.Info("chat stream opened", zap.String("room", roomID), zap.String("subscriber", sub.id))

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("chat stream closed", zap.String("room", roomID), zap.String("subscriber", sub.id))
			return
		case evt := <-sub.events:
			if err := utils.SendSSEEvent(w, flusher, evt.Name, evt.Data); err != nil {
				h.logger.Warn("chat stream write failed", zap.String("room", roomID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
