package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/petal-journal/backend/internal/config"
	"github.com/zhouzirui/petal-journal/backend/internal/model/journal"
	"github.com/zhouzirui/petal-journal/backend/internal/testkit/llmfake"
)

func newTestService(t *testing.T, script llmfake.Script) (*Service, *llmfake.ChatModel) {
	t.Helper()
	fake := llmfake.New(script)
	svc, err := NewServiceWithModel(context.Background(), fake, config.AIConfig{}, nil)
	if err != nil {
		t.Fatalf("NewServiceWithModel err: %v", err)
	}
	return svc, fake
}

func history(turns ...string) []journal.Message {
	out := make([]journal.Message, 0, len(turns))
	for i, content := range turns {
		role := journal.RoleUser
		if i%2 == 1 {
			role = journal.RoleAssistant
		}
		out = append(out, journal.Message{Role: role, Content: content, Timestamp: time.Now()})
	}
	return out
}

func TestReplySendsPersonaAndFullHistory(t *testing.T) {
	svc, fake := newTestService(t, llmfake.Script{Reply: "That sounds heavy."})

	reply, err := svc.Reply(context.Background(), "Sam", history("Today was hard", "I'm here.", "Work again"))
	if err != nil {
		t.Fatalf("Reply err: %v", err)
	}
	if reply != "That sounds heavy." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(calls))
	}
	input := calls[0].Input
	if len(input) != 4 {
		t.Fatalf("expected system + 3 history messages, got %d", len(input))
	}
	if input[0].Role != schema.System || !strings.Contains(input[0].Content, "talking to Sam.") {
		t.Fatalf("unexpected system prompt: %q", input[0].Content)
	}
	wantRoles := []schema.RoleType{schema.User, schema.Assistant, schema.User}
	for i, role := range wantRoles {
		if input[i+1].Role != role {
			t.Fatalf("message %d: got role %s want %s", i, input[i+1].Role, role)
		}
	}
	if input[3].Content != "Work again" {
		t.Fatalf("unexpected last message: %q", input[3].Content)
	}

	opts := calls[0].Options
	if opts.MaxTokens == nil || *opts.MaxTokens != 300 {
		t.Fatalf("expected max tokens 300, got %v", opts.MaxTokens)
	}
	if opts.Temperature == nil || *opts.Temperature != 0.7 {
		t.Fatalf("expected temperature 0.7, got %v", opts.Temperature)
	}
}

func TestReplyPropagatesUpstreamError(t *testing.T) {
	upstream := errors.New("quota exceeded")
	svc, _ := newTestService(t, llmfake.Script{ReplyErr: upstream})

	_, err := svc.Reply(context.Background(), "Sam", history("hello"))
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestStreamReplyForwardsChunks(t *testing.T) {
	svc, _ := newTestService(t, llmfake.Script{Reply: "one two three"})

	var deltas []string
	reply, err := svc.StreamReply(context.Background(), "Sam", history("hello"), func(chunk string) {
		deltas = append(deltas, chunk)
	})
	if err != nil {
		t.Fatalf("StreamReply err: %v", err)
	}
	if reply != "one two three" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(deltas) != 3 || strings.Join(deltas, "") != "one two three" {
		t.Fatalf("unexpected deltas: %q", deltas)
	}
}

func TestTitleUsesSmallBudgetAndStripsQuotes(t *testing.T) {
	svc, fake := newTestService(t, llmfake.Script{Title: "  \"Heavy Workday\"\n"})

	title, err := svc.Title(context.Background(), "I feel overwhelmed by work today")
	if err != nil {
		t.Fatalf("Title err: %v", err)
	}
	if title != "Heavy Workday" {
		t.Fatalf("unexpected title: %q", title)
	}

	calls := fake.Calls()
	if len(calls) != 1 || !llmfake.IsTitleRequest(calls[0].Input) {
		t.Fatalf("expected one title request, got %+v", calls)
	}
	if last := calls[0].Input[len(calls[0].Input)-1]; last.Content != "I feel overwhelmed by work today" {
		t.Fatalf("expected original message as user turn, got %q", last.Content)
	}
	opts := calls[0].Options
	if opts.MaxTokens == nil || *opts.MaxTokens != 20 {
		t.Fatalf("expected max tokens 20, got %v", opts.MaxTokens)
	}
	if opts.Temperature == nil || *opts.Temperature != 0.3 {
		t.Fatalf("expected temperature 0.3, got %v", opts.Temperature)
	}
}

func TestTitleRejectsEmptyResult(t *testing.T) {
	svc, _ := newTestService(t, llmfake.Script{Title: "\"\""})

	if _, err := svc.Title(context.Background(), "hello"); !errors.Is(err, ErrEmptyTitle) {
		t.Fatalf("expected ErrEmptyTitle, got %v", err)
	}
}

func TestCleanTitle(t *testing.T) {
	cases := map[string]string{
		`"Quiet Morning"`:   "Quiet Morning",
		`'Quiet Morning'`:   "Quiet Morning",
		"“Quiet Morning”":   "Quiet Morning",
		" Quiet Morning \n": "Quiet Morning",
		"Sam's Day":         "Sam's Day",
	}
	for in, want := range cases {
		if got := CleanTitle(in); got != want {
			t.Fatalf("CleanTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewServiceWithModelRequiresModel(t *testing.T) {
	if _, err := NewServiceWithModel(context.Background(), nil, config.AIConfig{}, nil); err == nil {
		t.Fatal("expected error without chat model")
	}
}
