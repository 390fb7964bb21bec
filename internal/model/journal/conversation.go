package journal

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultTitle marks a conversation whose title has not been derived yet.
const DefaultTitle = "New conversation"

// DateLayout renders the short "Mon DD" dates shown on entries and conversations.
const DateLayout = "Jan 02"

// Message is a single immutable turn in a conversation.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an ordered thread of messages owned by one display name.
type Conversation struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt string    `json:"created_at"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
}

// Clone returns a copy that shares no message storage with c.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// HasDefaultTitle reports whether the title still holds the placeholder.
func (c Conversation) HasDefaultTitle() bool {
	return c.Title == DefaultTitle
}
