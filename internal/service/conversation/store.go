package conversation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zhouzirui/petal-journal/backend/internal/model/journal"
)

var ErrNotFound = errors.New("conversation not found")

// Store owns every conversation for the life of the process.
type Store interface {
	// FindOrCreate returns conversation id when it exists, whoever owns it.
	// Any other id, including zero, allocates a fresh conversation for username.
	FindOrCreate(ctx context.Context, id int64, username string) (journal.Conversation, error)
	Append(ctx context.Context, id int64, role journal.Role, content string) (journal.Conversation, error)
	Get(ctx context.Context, id int64, username string) (journal.Conversation, error)
	List(ctx context.Context, username string) ([]journal.Conversation, error)
	// Retitle replaces the title only while it still holds journal.DefaultTitle.
	Retitle(ctx context.Context, id int64, title string) (bool, error)
}

// MemoryStore implements Store with an ordered slice and a mutex-guarded id counter.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []*journal.Conversation
	byID   map[int64]*journal.Conversation
	nextID int64
	now    func() time.Time
}

// Option customises a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the time source used for created_at and message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore returns an empty store whose first conversation gets id 1.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		items: make([]*journal.Conversation, 0, 16),
		byID:  make(map[int64]*journal.Conversation),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) FindOrCreate(_ context.Context, id int64, username string) (journal.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id > 0 {
		if conv, ok := s.byID[id]; ok {
			return conv.Clone(), nil
		}
	}

	s.nextID++
	conv := &journal.Conversation{
		ID:        s.nextID,
		Username:  username,
		CreatedAt: s.now().Format(journal.DateLayout),
		Title:     journal.DefaultTitle,
		Messages:  make([]journal.Message, 0, 4),
	}
	s.items = append(s.items, conv)
	s.byID[conv.ID] = conv

	return conv.Clone(), nil
}

func (s *MemoryStore) Append(_ context.Context, id int64, role journal.Role, content string) (journal.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return journal.Conversation{}, ErrNotFound
	}

	conv.Messages = append(conv.Messages, journal.Message{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
	return conv.Clone(), nil
}

func (s *MemoryStore) Get(_ context.Context, id int64, username string) (journal.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, conv := range s.items {
		if conv.ID == id && conv.Username == username {
			return conv.Clone(), nil
		}
	}
	return journal.Conversation{}, ErrNotFound
}

func (s *MemoryStore) List(_ context.Context, username string) ([]journal.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]journal.Conversation, 0)
	for _, conv := range s.items {
		if conv.Username == username {
			out = append(out, conv.Clone())
		}
	}
	return out, nil
}

func (s *MemoryStore) Retitle(_ context.Context, id int64, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if !conv.HasDefaultTitle() {
		return false, nil
	}
	conv.Title = title
	return true, nil
}
