// Package llmfake provides a scripted eino chat model for tests.
package llmfake

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// Call records one request made to the model.
type Call struct {
	Input   []*schema.Message
	Options *model.Options
}

// Script decides what the model answers to companion replies and title requests.
type Script struct {
	Reply    string
	ReplyErr error
	Title    string
	TitleErr error
	// Delay holds every answer back, unless the context ends first.
	Delay time.Duration
}

// ChatModel answers from a Script and records every call.
type ChatModel struct {
	mu     sync.Mutex
	script Script
	calls  []Call
}

// New returns a ChatModel driven by script.
func New(script Script) *ChatModel {
	return &ChatModel{script: script}
}

func (m *ChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	content, err := m.answer(ctx, input, opts)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, nil), nil
}

// Stream splits the scripted answer into word-sized chunks.
func (m *ChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	content, err := m.answer(ctx, input, opts)
	if err != nil {
		return nil, err
	}

	words := strings.SplitAfter(content, " ")
	chunks := make([]*schema.Message, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		chunks = append(chunks, &schema.Message{Role: schema.Assistant, Content: word})
	}
	return schema.StreamReaderFromArray(chunks), nil
}

func (m *ChatModel) BindTools(_ []*schema.ToolInfo) error {
	return nil
}

// Calls returns the recorded requests in order.
func (m *ChatModel) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// TitleCalls counts requests that asked for a conversation title.
func (m *ChatModel) TitleCalls() int {
	n := 0
	for _, call := range m.Calls() {
		if IsTitleRequest(call.Input) {
			n++
		}
	}
	return n
}

// IsTitleRequest reports whether input is a title request rather than a companion turn.
func IsTitleRequest(input []*schema.Message) bool {
	if len(input) == 0 || input[0].Role != schema.System {
		return false
	}
	return !strings.Contains(input[0].Content, "journal companion")
}

func (m *ChatModel) answer(ctx context.Context, input []*schema.Message, opts []model.Option) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Input: input, Options: model.GetCommonOptions(&model.Options{}, opts...)})
	script := m.script
	m.mu.Unlock()

	if script.Delay > 0 {
		select {
		case <-time.After(script.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if IsTitleRequest(input) {
		return script.Title, script.TitleErr
	}
	return script.Reply, script.ReplyErr
}
