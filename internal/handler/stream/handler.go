package stream

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/internal/handler/chat"
	"github.com/zhouzirui/petal-journal/backend/internal/service/companion"
	"github.com/zhouzirui/petal-journal/backend/pkg/utils"
)

// Sessions resolves the display name bound to a request.
type Sessions interface {
	Name(r *http.Request) (string, bool)
}

// Handler streams companion replies via Server-Sent Events.
type Handler struct {
	sessions  Sessions
	companion *companion.Service
	log       logrus.FieldLogger
}

// New creates a new stream handler
func New(sessions Sessions, companionSvc *companion.Service, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		sessions:  sessions,
		companion: companionSvc,
		log:       logger.WithField("component", "stream"),
	}
}

// RegisterRoutes mounts the streaming chat endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/stream", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	Event          string `json:"event"`
	Content        string `json:"content,omitempty"`
	ConversationID int64  `json:"conversation_id,omitempty"`
	Title          string `json:"title,omitempty"`
	Finished       bool   `json:"finished,omitempty"`
	Error          string `json:"error,omitempty"`
}

type streamRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	var payload streamRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, _ := h.sessions.Name(r)
	if name == "" {
		utils.RespondError(w, http.StatusBadRequest, "Please set your name first")
		return
	}
	if h.companion == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "companion unavailable")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	var conversationID int64
	if payload.ConversationID != nil {
		conversationID = *payload.ConversationID
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	utils.SendSSEChunk(w, flusher, StreamResponse{Event: "start"})

	result, err := h.companion.StreamChat(r.Context(), name, conversationID, payload.Message, func(chunk string) {
		utils.SendSSEChunk(w, flusher, StreamResponse{Event: "delta", Content: chunk})
	})
	if err != nil {
		_, message := chat.ErrorStatus(h.log, err)
		utils.SendSSEChunk(w, flusher, StreamResponse{
			Event:          "error",
			ConversationID: result.ConversationID,
			Error:          message,
		})
		return
	}

	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:          "message",
		Content:        result.Response,
		ConversationID: result.ConversationID,
		Title:          result.Title,
	})
	utils.SendSSEChunk(w, flusher, StreamResponse{
		Event:          "end",
		ConversationID: result.ConversationID,
		Finished:       true,
	})

	h.log.WithFields(logrus.Fields{
		"conversation": result.ConversationID,
		"username":     name,
	}).Debug("completed streamed reply")
}
