package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/zhouzirui/peoplemap/backend/internal/config"
	"github.com/zhouzirui/peoplemap/backend/internal/handler/chat"
	"github.com/zhouzirui/peoplemap/backend/internal/handler/directory"
	"github.com/zhouzirui/peoplemap/backend/internal/handler/relay"
	middlewarePkg "github.com/zhouzirui/peoplemap/backend/internal/middleware"
	chatService "github.com/zhouzirui/peoplemap/backend/internal/service/chat"
	directoryService "github.com/zhouzirui/peoplemap/backend/internal/service/directory"
	"github.com/zhouzirui/peoplemap/backend/pkg/utils"
)

const serviceName = "peoplemap-backend"

// Deps 聚合路由需要的服务与配置
type Deps struct {
	Directory *directoryService.Service
	Chat      *chatService.Service
	Relay     config.RelayConfig
	CORS      config.CORSConfig
	Logger    *zap.Logger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(deps.CORS.AllowedOrigins))

	directoryHandler := directory.New(deps.Directory, logger.Named("directory"))
	chatHandler := chat.New(deps.Chat, logger.Named("chat"))
	relayHandler := relay.NewWebSocketHandler(deps.Chat, deps.Relay, logger.Named("relay"))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"service": serviceName,
			"status":  "running",
		})
	})

	// Realtime relay
	relayHandler.RegisterWebSocketRoutes(r)

	r.Route("/api", func(api chi.Router) {
		api.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		directoryHandler.RegisterRoutes(api)
		chatHandler.RegisterRoutes(api)
	})

	return r
}
