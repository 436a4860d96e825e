package memory

import (
	"context"
	"sort"
	"time"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

var _ repository.ChatSessionRepository = (*ChatSessionRepo)(nil)

type ChatSessionRepo struct{ s *Store }

func NewChatSessionRepo(s *Store) *ChatSessionRepo { return &ChatSessionRepo{s: s} }

func (r *ChatSessionRepo) Create(ctx context.Context, _ repository.Tx, cs *model.ChatSession) error {
	if cs == nil || cs.ID.IsZero() || cs.UserID.IsZero() {
		return domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[cs.ID]; ok {
		return domain.ErrAlreadyExists
	}
	r.s.sessions[cs.ID] = cs.Clone()
	return nil
}

func (r *ChatSessionRepo) FindByID(ctx context.Context, _ repository.Tx, id model.ID) (*model.ChatSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cs, ok := r.s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cs.Clone(), nil
}

// owned must be called with the write lock held.
func (r *ChatSessionRepo) owned(id, ownerID model.ID) (*model.ChatSession, error) {
	cs, ok := r.s.sessions[id]
	if !ok || !cs.OwnedBy(ownerID) {
		return nil, domain.ErrNotFound
	}
	return cs, nil
}

func (r *ChatSessionRepo) AppendMessages(ctx context.Context, _ repository.Tx, id, ownerID model.ID, msgs []model.ChatMessage, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cs, err := r.owned(id, ownerID)
	if err != nil {
		return err
	}
	cs.Messages = append(cs.Messages, msgs...)
	cs.UpdatedAt = at
	return nil
}

func (r *ChatSessionRepo) ListByUser(ctx context.Context, _ repository.Tx, ownerID model.ID, f repository.SessionFilter) ([]model.SessionSummary, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.SessionSummary, 0)
	for _, cs := range r.s.sessions {
		if !cs.OwnedBy(ownerID) {
			continue
		}
		switch f.Mode {
		case repository.FilterProject:
			if cs.Grouping.ProjectID != f.ProjectID {
				continue
			}
		case repository.FilterUngrouped:
			if !cs.Grouping.ProjectID.IsZero() {
				continue
			}
		}
		out = append(out, cs.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *ChatSessionRepo) SetProject(ctx context.Context, _ repository.Tx, id, ownerID, projectID model.ID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cs, err := r.owned(id, ownerID)
	if err != nil {
		return err
	}
	cs.Grouping.ProjectID = projectID
	cs.UpdatedAt = at
	return nil
}

func (r *ChatSessionRepo) Delete(ctx context.Context, _ repository.Tx, id, ownerID model.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, err := r.owned(id, ownerID); err != nil {
		return err
	}
	delete(r.s.sessions, id)
	return nil
}

func (r *ChatSessionRepo) DeleteByProject(ctx context.Context, _ repository.Tx, projectID model.ID) ([]model.ID, error) {
	if projectID.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []model.ID
	for id, cs := range r.s.sessions {
		if cs.Grouping.ProjectID == projectID {
			ids = append(ids, id)
			delete(r.s.sessions, id)
		}
	}
	return ids, nil
}
