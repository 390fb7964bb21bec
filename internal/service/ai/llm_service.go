package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/petal-journal/backend/internal/config"
	"github.com/zhouzirui/petal-journal/backend/internal/model/journal"
)

var ErrEmptyTitle = errors.New("title generation returned no text")

// Service turns stored conversations into completion requests.
type Service struct {
	chatModel  model.ChatModel
	cfg        config.AIConfig
	replyChain compose.Runnable[map[string]any, *schema.Message]
	titleChain compose.Runnable[map[string]any, *schema.Message]
	log        logrus.FieldLogger
}

// NewService creates the Ark chat model described by cfg and wraps it.
func NewService(ctx context.Context, cfg config.AIConfig, logger logrus.FieldLogger) (*Service, error) {
	chatModel, err := cfg.NewChatModel(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewServiceWithModel(ctx, chatModel, cfg, logger)
}

// NewServiceWithModel compiles the reply and title chains around an existing model.
func NewServiceWithModel(ctx context.Context, chatModel model.ChatModel, cfg config.AIConfig, logger logrus.FieldLogger) (*Service, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg = withGenerationDefaults(cfg)

	replyChain := compose.NewChain[map[string]any, *schema.Message]()
	replyChain.AppendChatTemplate(replyTemplate())
	replyChain.AppendChatModel(chatModel)

	replyRunnable, err := replyChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile reply chain: %w", err)
	}

	titleChain := compose.NewChain[map[string]any, *schema.Message]()
	titleChain.AppendChatTemplate(titleTemplate())
	titleChain.AppendChatModel(chatModel)

	titleRunnable, err := titleChain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile title chain: %w", err)
	}

	return &Service{
		chatModel:  chatModel,
		cfg:        cfg,
		replyChain: replyRunnable,
		titleChain: titleRunnable,
		log:        logger.WithField("component", "ai"),
	}, nil
}

// Reply asks the model for the companion's next turn.
func (s *Service) Reply(ctx context.Context, username string, history []journal.Message) (string, error) {
	response, err := s.replyChain.Invoke(ctx, s.replyInput(username, history), s.replyOptions())
	if err != nil {
		return "", fmt.Errorf("failed to run reply chain: %w", err)
	}
	if response == nil {
		return "", errors.New("reply chain returned no message")
	}

	s.log.WithFields(logrus.Fields{
		"username": username,
		"turns":    len(history),
		"length":   len(response.Content),
	}).Debug("generated reply")
	return response.Content, nil
}

// StreamReply behaves like Reply but hands each non-empty chunk to onDelta as it arrives.
func (s *Service) StreamReply(ctx context.Context, username string, history []journal.Message, onDelta func(string)) (string, error) {
	stream, err := s.replyChain.Stream(ctx, s.replyInput(username, history), s.replyOptions())
	if err != nil {
		return "", fmt.Errorf("failed to stream reply chain: %w", err)
	}
	defer stream.Close()

	chunks := make([]*schema.Message, 0, 8)
	for {
		chunk, recvErr := stream.Recv()
		if errors.Is(recvErr, io.EOF) {
			break
		}
		if recvErr != nil {
			return "", fmt.Errorf("failed to receive reply chunk: %w", recvErr)
		}
		if chunk == nil {
			continue
		}

		chunks = append(chunks, chunk)
		if chunk.Content != "" && onDelta != nil {
			onDelta(chunk.Content)
		}
	}

	if len(chunks) == 0 {
		return "", errors.New("reply stream returned no message")
	}

	response, err := schema.ConcatMessages(chunks)
	if err != nil {
		return "", fmt.Errorf("failed to concat reply chunks: %w", err)
	}
	return response.Content, nil
}

// Title asks for a short thematic label for a conversation's opening message.
func (s *Service) Title(ctx context.Context, firstMessage string) (string, error) {
	response, err := s.titleChain.Invoke(ctx, map[string]any{"message": firstMessage},
		compose.WithChatModelOption(
			model.WithMaxTokens(s.cfg.TitleMaxTokens),
			model.WithTemperature(s.cfg.TitleTemperature),
		),
	)
	if err != nil {
		return "", fmt.Errorf("failed to run title chain: %w", err)
	}
	if response == nil {
		return "", ErrEmptyTitle
	}

	title := CleanTitle(response.Content)
	if title == "" {
		return "", ErrEmptyTitle
	}
	return title, nil
}

// CleanTitle trims whitespace and any surrounding quote characters.
func CleanTitle(raw string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), "\"'`“”‘’"))
}

func (s *Service) replyInput(username string, history []journal.Message) map[string]any {
	return map[string]any{
		"username": username,
		"history":  buildHistoryMessages(history),
	}
}

func (s *Service) replyOptions() compose.Option {
	return compose.WithChatModelOption(
		model.WithMaxTokens(s.cfg.ReplyMaxTokens),
		model.WithTemperature(s.cfg.ReplyTemperature),
	)
}

// withGenerationDefaults fills zero generation parameters with the companion's stock values.
func withGenerationDefaults(cfg config.AIConfig) config.AIConfig {
	if cfg.ReplyMaxTokens <= 0 {
		cfg.ReplyMaxTokens = 300
	}
	if cfg.ReplyTemperature == 0 {
		cfg.ReplyTemperature = 0.7
	}
	if cfg.TitleMaxTokens <= 0 {
		cfg.TitleMaxTokens = 20
	}
	if cfg.TitleTemperature == 0 {
		cfg.TitleTemperature = 0.3
	}
	return cfg
}

// buildHistoryMessages keeps every stored turn in order.
func buildHistoryMessages(messages []journal.Message) []*schema.Message {
	history := make([]*schema.Message, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case journal.RoleUser:
			history = append(history, schema.UserMessage(msg.Content))
		case journal.RoleAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
