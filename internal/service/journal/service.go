package journal

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/zhouzirui/petal-journal/backend/internal/analysis/mood"
	"github.com/zhouzirui/petal-journal/backend/internal/model/journal"
)

// Mode selects whether entries form one shared journal or one journal per name.
type Mode string

const (
	Shared   Mode = "shared"
	Personal Mode = "personal"
)

// Service keeps journal entries in process memory, oldest first.
type Service struct {
	mu      sync.RWMutex
	entries []journal.Entry
	mode    Mode
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used to date entries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService returns an empty journal in the given mode.
func NewService(mode Mode, opts ...Option) *Service {
	if mode != Shared {
		mode = Personal
	}
	s := &Service{
		entries: make([]journal.Entry, 0, 16),
		mode:    mode,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mode reports the configured scoping mode.
func (s *Service) Mode() Mode {
	return s.mode
}

// Add appends a dated entry. Blank text is ignored and reported as false.
func (s *Service) Add(_ context.Context, username, text string) (journal.Entry, bool) {
	if strings.TrimSpace(text) == "" {
		return journal.Entry{}, false
	}

	entry := journal.Entry{
		Date: s.now().Format(journal.DateLayout),
		Text: text,
		Mood: string(mood.Analyze(text).Mood),
	}
	if s.mode == Personal {
		entry.Username = username
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	return entry, true
}

// List returns entries in insertion order. Shared journals ignore username.
func (s *Service) List(_ context.Context, username string) []journal.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.mode == Shared {
		return append([]journal.Entry(nil), s.entries...)
	}

	out := make([]journal.Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		if entry.Username == username {
			out = append(out, entry)
		}
	}
	return out
}
