package model

import (
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TitleMaxRunes is how much of the first user message becomes the session title.
const TitleMaxRunes = 50

// ChatMessage represents one message within a chat session. Messages are immutable once appended.
type ChatMessage struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChatMessage(role Role, content string, at time.Time) ChatMessage {
	return ChatMessage{Role: role, Content: content, Timestamp: at}
}

// Grouping is how a session is organised: by an explicit project, or by subject/topic tags.
// Both parts are optional; which one is used depends on the configured grouping strategy.
type Grouping struct {
	ProjectID ID
	Subject   string
	Topic     string
}

// ChatSession is the aggregate root for one conversation. UserID and Title never change
// after creation; Messages only grow.
type ChatSession struct {
	ID        ID
	UserID    ID
	Grouping  Grouping
	Title     string
	Messages  []ChatMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionSummary is the list view of a session: no message bodies, only the count.
type SessionSummary struct {
	ID           ID
	Grouping     Grouping
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewChatSession(userID ID, firstMessage string, g Grouping, at time.Time) *ChatSession {
	return &ChatSession{
		ID:        NewID(),
		UserID:    userID,
		Grouping:  g,
		Title:     DeriveTitle(firstMessage),
		Messages:  make([]ChatMessage, 0, 2),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// DeriveTitle keeps the first TitleMaxRunes characters and marks truncation with "...".
func DeriveTitle(msg string) string {
	r := []rune(msg)
	if len(r) <= TitleMaxRunes {
		return msg
	}
	return string(r[:TitleMaxRunes]) + "..."
}

func (s *ChatSession) OwnedBy(userID ID) bool { return s != nil && s.UserID == userID }

func (s *ChatSession) AddMessages(msgs ...ChatMessage) {
	if len(msgs) == 0 {
		return
	}
	s.Messages = append(s.Messages, msgs...)
	s.UpdatedAt = msgs[len(msgs)-1].Timestamp
}

func (s *ChatSession) Summary() SessionSummary {
	return SessionSummary{
		ID:           s.ID,
		Grouping:     s.Grouping,
		Title:        s.Title,
		MessageCount: len(s.Messages),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

// Clone returns a copy whose message slice does not alias s.
func (s *ChatSession) Clone() *ChatSession {
	cp := *s
	cp.Messages = append([]ChatMessage(nil), s.Messages...)
	return &cp
}
