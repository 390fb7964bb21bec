package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/pkg/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 25 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// WebSocketHandler serves chat turns over a long-lived websocket.
type WebSocketHandler struct {
	*Handler
	upgrader    websocket.Upgrader
	readTimeout time.Duration
}

// NewWebSocketHandler wraps h with a websocket transport.
func NewWebSocketHandler(h *Handler) *WebSocketHandler {
	return &WebSocketHandler{
		Handler: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout: wsReadTimeout,
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/chat/ws", h.handleWebSocket)
}

type wsError struct {
	Error string `json:"error"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	name, _ := h.sessions.Name(r)
	if name == "" {
		utils.RespondError(w, http.StatusBadRequest, msgNameRequired)
		return
	}
	if h.companion == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, msgAIUnavailable)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := h.log.WithFields(logrus.Fields{
		"connection": uuid.NewString(),
		"username":   name,
	})
	log.Info("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	})

	go h.pingLoop(ctx, conn)

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("websocket read error")
			}
			return
		}

		var reply any
		var payload chatRequest
		if err := json.Unmarshal(frame, &payload); err != nil {
			log.WithError(err).Debug("invalid websocket frame")
			reply = wsError{Error: msgInvalidRequest}
		} else {
			reply = h.reply(ctx, name, payload)
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			log.WithError(err).Warn("websocket write error")
			return
		}
		// Pongs go unread while a reply is generated.
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}
}

func (h *WebSocketHandler) reply(ctx context.Context, name string, payload chatRequest) any {
	result, err := h.companion.Chat(ctx, name, payload.conversationID(), payload.Message)
	if err != nil {
		_, message := h.errorStatus(err)
		return wsError{Error: message}
	}
	return chatResponse{
		Response:       result.Response,
		ConversationID: result.ConversationID,
		Title:          result.Title,
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		}
	}
}
