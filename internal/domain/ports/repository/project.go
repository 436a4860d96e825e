package repository

import (
	"context"

	"edu-tutor/internal/domain/model"
)

// -----------------------------
// Projects
// -----------------------------

type ProjectRepository interface {
	Create(ctx context.Context, tx Tx, p *model.Project) error
	FindByID(ctx context.Context, tx Tx, id model.ID) (*model.Project, error)
	// ListByUser returns the user's projects, most recently updated first.
	ListByUser(ctx context.Context, tx Tx, userID model.ID) ([]*model.Project, error)
	Update(ctx context.Context, tx Tx, p *model.Project) error
	Delete(ctx context.Context, tx Tx, id model.ID) error
}
