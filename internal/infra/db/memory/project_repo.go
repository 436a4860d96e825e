package memory

import (
	"context"
	"sort"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

var _ repository.ProjectRepository = (*ProjectRepo)(nil)

type ProjectRepo struct{ s *Store }

func NewProjectRepo(s *Store) *ProjectRepo { return &ProjectRepo{s: s} }

func (r *ProjectRepo) Create(ctx context.Context, _ repository.Tx, p *model.Project) error {
	if p == nil || p.ID.IsZero() {
		return domain.ErrInvalidArgument
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *p
	r.s.projects[p.ID] = &cp
	return nil
}

func (r *ProjectRepo) FindByID(ctx context.Context, _ repository.Tx, id model.ID) (*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *ProjectRepo) ListByUser(ctx context.Context, _ repository.Tx, userID model.ID) ([]*model.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Project, 0)
	for _, p := range r.s.projects {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (r *ProjectRepo) Update(ctx context.Context, _ repository.Tx, p *model.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	r.s.projects[p.ID] = &cp
	return nil
}

func (r *ProjectRepo) Delete(ctx context.Context, _ repository.Tx, id model.ID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.projects, id)
	return nil
}
