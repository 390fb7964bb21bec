package companion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/internal/model/journal"
	"github.com/zhouzirui/petal-journal/backend/internal/service/conversation"
)

var (
	ErrNameRequired    = errors.New("name required")
	ErrMessageRequired = errors.New("message is required")
)

// ServiceError reports a failed completion request. The user's message is already stored.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return "completion service error: " + e.Err.Error()
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// Generator produces companion replies and conversation titles.
type Generator interface {
	Reply(ctx context.Context, username string, history []journal.Message) (string, error)
	StreamReply(ctx context.Context, username string, history []journal.Message, onDelta func(string)) (string, error)
	Title(ctx context.Context, firstMessage string) (string, error)
}

// Result is what a chat turn hands back to the transport.
type Result struct {
	Response       string
	ConversationID int64
	Title          string
}

// Service runs a chat turn: store the user text, ask for a reply, store it, name the thread.
type Service struct {
	store conversation.Store
	gen   Generator
	log   logrus.FieldLogger
}

// NewService wires the orchestrator to its store and generator.
func NewService(store conversation.Store, gen Generator, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store: store,
		gen:   gen,
		log:   logger.WithField("component", "companion"),
	}
}

// Chat handles one user message and returns the companion's reply.
// A conversationID of zero, or one that does not exist, starts a new conversation.
func (s *Service) Chat(ctx context.Context, username string, conversationID int64, text string) (Result, error) {
	return s.run(ctx, username, conversationID, text, func(history []journal.Message) (string, error) {
		return s.gen.Reply(ctx, username, history)
	})
}

// StreamChat is Chat with reply chunks delivered to onDelta while they arrive.
func (s *Service) StreamChat(ctx context.Context, username string, conversationID int64, text string, onDelta func(string)) (Result, error) {
	return s.run(ctx, username, conversationID, text, func(history []journal.Message) (string, error) {
		return s.gen.StreamReply(ctx, username, history, onDelta)
	})
}

func (s *Service) run(ctx context.Context, username string, conversationID int64, text string, generate func([]journal.Message) (string, error)) (Result, error) {
	if username == "" {
		return Result{}, ErrNameRequired
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrMessageRequired
	}

	conv, err := s.store.FindOrCreate(ctx, conversationID, username)
	if err != nil {
		return Result{}, fmt.Errorf("resolve conversation: %w", err)
	}

	conv, err = s.store.Append(ctx, conv.ID, journal.RoleUser, text)
	if err != nil {
		return Result{}, fmt.Errorf("store user message: %w", err)
	}

	reply, err := generate(conv.Messages)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"conversation": conv.ID,
			"username":     username,
		}).WithError(err).Warn("completion failed")
		return Result{ConversationID: conv.ID}, &ServiceError{Err: err}
	}

	conv, err = s.store.Append(ctx, conv.ID, journal.RoleAssistant, reply)
	if err != nil {
		return Result{}, fmt.Errorf("store assistant message: %w", err)
	}

	return Result{
		Response:       reply,
		ConversationID: conv.ID,
		Title:          s.nameConversation(ctx, conv),
	}, nil
}

// nameConversation derives a title after the first exchange. Failures never leave this method.
func (s *Service) nameConversation(ctx context.Context, conv journal.Conversation) string {
	if !conv.HasDefaultTitle() || len(conv.Messages) != 2 {
		return conv.Title
	}

	first := conv.Messages[0].Content
	title, err := s.gen.Title(ctx, first)
	if err != nil {
		s.log.WithField("conversation", conv.ID).WithError(err).Debug("title generation failed, using fallback")
		title = FallbackTitle(first)
	}

	applied, err := s.store.Retitle(ctx, conv.ID, title)
	if err != nil {
		s.log.WithField("conversation", conv.ID).WithError(err).Warn("failed to store title")
		return conv.Title
	}
	if !applied {
		// Another request named it first; report whatever won.
		if current, err := s.store.Get(ctx, conv.ID, conv.Username); err == nil {
			return current.Title
		}
		return conv.Title
	}
	return title
}

// FallbackTitle keeps the first three words of message, adding "..." when words were dropped.
func FallbackTitle(message string) string {
	words := strings.Fields(message)
	if len(words) <= 3 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:3], " ") + "..."
}
