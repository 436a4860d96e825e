package repository

import (
	"context"
	"time"

	"edu-tutor/internal/domain/model"
)

// -----------------------------
// Chat Sessions
// -----------------------------

type SessionFilterMode int

const (
	// FilterAll lists every session of the owner.
	FilterAll SessionFilterMode = iota
	// FilterProject lists sessions of one project.
	FilterProject
	// FilterUngrouped lists sessions without a project.
	FilterUngrouped
)

type SessionFilter struct {
	Mode      SessionFilterMode
	ProjectID model.ID
}

// ChatSessionRepository stores sessions as single documents: the ordered message list
// lives with the session. Owner-scoped methods report domain.ErrNotFound when the session
// is absent or belongs to someone else.
type ChatSessionRepository interface {
	Create(ctx context.Context, tx Tx, s *model.ChatSession) error
	FindByID(ctx context.Context, tx Tx, id model.ID) (*model.ChatSession, error)
	// AppendMessages appends atomically; concurrent appends never overwrite each other.
	AppendMessages(ctx context.Context, tx Tx, id, ownerID model.ID, msgs []model.ChatMessage, at time.Time) error
	// ListByUser returns summaries, most recently updated first.
	ListByUser(ctx context.Context, tx Tx, ownerID model.ID, f SessionFilter) ([]model.SessionSummary, error)
	SetProject(ctx context.Context, tx Tx, id, ownerID, projectID model.ID, at time.Time) error
	Delete(ctx context.Context, tx Tx, id, ownerID model.ID) error
	// DeleteByProject removes every session of the project and returns the removed ids.
	DeleteByProject(ctx context.Context, tx Tx, projectID model.ID) ([]model.ID, error)
}

// SessionCache is a best-effort read cache in front of ChatSessionRepository.FindByID.
// Get returns (nil, nil) on a miss.
//
// Fill only writes when the key holds nothing, and Invalidate leaves a short-lived marker
// that blocks fills. A reader that loaded a session before a concurrent write therefore
// cannot put its stale copy back after the writer invalidated.
type SessionCache interface {
	Get(ctx context.Context, id model.ID) (*model.ChatSession, error)
	Fill(ctx context.Context, s *model.ChatSession) error
	Invalidate(ctx context.Context, id model.ID) error
}

// InvalidationHold is how long an invalidated key refuses fills.
const InvalidationHold = 5 * time.Second
