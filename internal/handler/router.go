package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/internal/handler/chat"
	"github.com/zhouzirui/petal-journal/backend/internal/handler/page"
	"github.com/zhouzirui/petal-journal/backend/internal/handler/stream"
	middlewarePkg "github.com/zhouzirui/petal-journal/backend/internal/middleware"
	"github.com/zhouzirui/petal-journal/backend/internal/service/companion"
	"github.com/zhouzirui/petal-journal/backend/internal/service/conversation"
	journalService "github.com/zhouzirui/petal-journal/backend/internal/service/journal"
	"github.com/zhouzirui/petal-journal/backend/internal/service/session"
	"github.com/zhouzirui/petal-journal/backend/pkg/utils"
)

// Dependencies collects the services the router exposes. Companion may be nil
// when no completion service is configured.
type Dependencies struct {
	Sessions      *session.Store
	Journal       *journalService.Service
	Conversations conversation.Store
	Companion     *companion.Service
	Logger        logrus.FieldLogger
}

// NewRouter wires HTTP routes to core services.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	pageHandler := page.New(deps.Sessions, deps.Journal, deps.Conversations, logger)
	chatHandler := chat.New(deps.Sessions, deps.Companion, deps.Conversations, logger)
	streamHandler := stream.New(deps.Sessions, deps.Companion, logger)

	pageHandler.RegisterRoutes(r)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"ai":     deps.Companion != nil,
		})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		chat.NewWebSocketHandler(chatHandler).RegisterWebSocketRoutes(api)
	})

	return r
}
