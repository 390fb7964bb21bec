package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/internal/service/companion"
	"github.com/zhouzirui/petal-journal/backend/internal/service/conversation"
	"github.com/zhouzirui/petal-journal/backend/pkg/utils"
)

const (
	msgNameRequired   = "Please set your name first"
	msgNotFound       = "Conversation not found"
	msgAIUnavailable  = "companion unavailable"
	msgInvalidRequest = "invalid request body"
)

// Sessions resolves the display name bound to a request.
type Sessions interface {
	Name(r *http.Request) (string, bool)
}

// Handler 聊天接口的HTTP处理器
type Handler struct {
	sessions      Sessions
	companion     *companion.Service
	conversations conversation.Store
	log           logrus.FieldLogger
}

// New creates the chat handler. A nil companion disables the chat endpoints.
func New(sessions Sessions, companionSvc *companion.Service, conversations conversation.Store, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		sessions:      sessions,
		companion:     companionSvc,
		conversations: conversations,
		log:           logger.WithField("component", "chat"),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Get("/conversation/{id}", h.handleGetConversation)
}

type chatRequest struct {
	Message        string `json:"message"`
	ConversationID *int64 `json:"conversation_id"`
}

func (req chatRequest) conversationID() int64 {
	if req.ConversationID == nil {
		return 0
	}
	return *req.ConversationID
}

type chatResponse struct {
	Response       string `json:"response"`
	ConversationID int64  `json:"conversation_id"`
	Title          string `json:"title,omitempty"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload chatRequest
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	name, _ := h.sessions.Name(r)
	if name == "" {
		utils.RespondError(w, http.StatusBadRequest, msgNameRequired)
		return
	}

	if h.companion == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, msgAIUnavailable)
		return
	}

	result, err := h.companion.Chat(r.Context(), name, payload.conversationID(), payload.Message)
	if err != nil {
		status, message := h.errorStatus(err)
		utils.RespondError(w, status, message)
		return
	}

	utils.RespondJSON(w, http.StatusOK, chatResponse{
		Response:       result.Response,
		ConversationID: result.ConversationID,
		Title:          result.Title,
	})
}

func (h *Handler) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, msgNotFound)
		return
	}

	name, _ := h.sessions.Name(r)
	conv, err := h.conversations.Get(r.Context(), id, name)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, msgNotFound)
			return
		}
		h.log.WithError(err).WithField("conversation", id).Error("failed to load conversation")
		utils.RespondError(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	utils.RespondJSON(w, http.StatusOK, conv)
}

// errorStatus maps orchestrator errors to an HTTP status and client message.
func (h *Handler) errorStatus(err error) (int, string) {
	return ErrorStatus(h.log, err)
}

// ErrorStatus maps an orchestrator error to an HTTP status and a message safe
// to show the client. Unexpected errors are logged and replaced by a generic message.
func ErrorStatus(log logrus.FieldLogger, err error) (int, string) {
	var serviceErr *companion.ServiceError
	switch {
	case errors.Is(err, companion.ErrNameRequired):
		return http.StatusBadRequest, msgNameRequired
	case errors.Is(err, companion.ErrMessageRequired):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &serviceErr):
		return http.StatusInternalServerError, serviceErr.Error()
	default:
		log.WithError(err).Error("chat turn failed")
		return http.StatusInternalServerError, "chat failed"
	}
}
