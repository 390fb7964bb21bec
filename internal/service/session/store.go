package session

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Config controls the visitor cookie.
type Config struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

type record struct {
	name      string
	expiresAt time.Time
}

func (r record) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && now.After(r.expiresAt)
}

// Store binds an opaque cookie to the display name a visitor submits.
// A zero TTL keeps sessions for the process lifetime behind a browser-session cookie.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]record
	cfg      Config
	now      func() time.Time
}

// Option customises a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty in-memory session store.
func NewStore(cfg Config, opts ...Option) *Store {
	if cfg.CookieName == "" {
		cfg.CookieName = "journal_session"
	}
	s := &Store{
		sessions: make(map[string]record),
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetName stores name in the caller's session, creating one when needed.
// The name is kept as submitted, including the empty string. Cookie values the
// store did not issue, or whose session has expired, get a fresh id.
func (s *Store) SetName(w http.ResponseWriter, r *http.Request, name string) {
	now := s.now()
	rec := record{name: name}
	if s.cfg.TTL > 0 {
		rec.expiresAt = now.Add(s.cfg.TTL)
	}

	id := s.cookieValue(r)

	s.mu.Lock()
	if current, ok := s.sessions[id]; !ok || current.expired(now) {
		delete(s.sessions, id)
		id = uuid.NewString()
	}
	s.sessions[id] = rec
	s.mu.Unlock()

	cookie := &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.cfg.TTL > 0 {
		cookie.MaxAge = int(s.cfg.TTL / time.Second)
		cookie.Expires = rec.expiresAt
	}
	http.SetCookie(w, cookie)
}

// Name returns the display name bound to the request, if any.
func (s *Store) Name(r *http.Request) (string, bool) {
	id := s.cookieValue(r)
	if id == "" {
		return "", false
	}

	s.mu.RLock()
	rec, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}

	if rec.expired(s.now()) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return "", false
	}

	if rec.name == "" {
		return "", false
	}
	return rec.name, true
}

func (s *Store) cookieValue(r *http.Request) string {
	cookie, err := r.Cookie(s.cfg.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
