// File: internal/usecase/project_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/logging"
)

// Compile-time check
var _ ProjectUseCase = (*projectUC)(nil)

const projectNotFound = "Project not found"

type ProjectInput struct {
	Name        string `validate:"required,max=200"`
	Description string `validate:"max=2000"`
}

type ProjectUseCase interface {
	Create(ctx context.Context, ownerID model.ID, in ProjectInput) (*model.Project, error)
	List(ctx context.Context, ownerID model.ID) ([]*model.Project, error)
	Update(ctx context.Context, ownerID, projectID model.ID, in ProjectInput) (*model.Project, error)
	// Delete removes the project together with all of its sessions and returns how many went.
	Delete(ctx context.Context, ownerID, projectID model.ID) (int, error)
	// MoveSession regroups a session; a zero projectID ungroups it.
	MoveSession(ctx context.Context, ownerID, sessionID, projectID model.ID) error
	// Reference checks that ownerID may file sessions under projectID.
	Reference(ctx context.Context, ownerID, projectID model.ID) (*model.Project, error)
}

type projectUC struct {
	projects repository.ProjectRepository
	sessions repository.ChatSessionRepository
	cache    repository.SessionCache // optional
	tm       repository.TransactionManager
	log      *zerolog.Logger
	now      func() time.Time
}

func NewProjectUseCase(projects repository.ProjectRepository, sessions repository.ChatSessionRepository, cache repository.SessionCache, tm repository.TransactionManager, logger *zerolog.Logger) *projectUC {
	return &projectUC{
		projects: projects,
		sessions: sessions,
		cache:    cache,
		tm:       tm,
		log:      logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (p *projectUC) Create(ctx context.Context, ownerID model.ID, in ProjectInput) (*model.Project, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	proj, err := model.NewProject(ownerID, in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	if err := p.projects.Create(ctx, nil, proj); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return proj, nil
}

func (p *projectUC) List(ctx context.Context, ownerID model.ID) ([]*model.Project, error) {
	out, err := p.projects.ListByUser(ctx, nil, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

// owned loads a project addressed by the caller; someone else's project looks absent.
func (p *projectUC) owned(ctx context.Context, tx repository.Tx, ownerID, projectID model.ID) (*model.Project, error) {
	proj, err := p.projects.FindByID(ctx, tx, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, projectNotFound)
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if !proj.OwnedBy(ownerID) {
		return nil, domain.NewError(domain.ErrNotFound, projectNotFound)
	}
	return proj, nil
}

func (p *projectUC) Update(ctx context.Context, ownerID, projectID model.ID, in ProjectInput) (*model.Project, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	proj, err := p.owned(ctx, nil, ownerID, projectID)
	if err != nil {
		return nil, err
	}
	if err := proj.Rename(in.Name, in.Description, p.now()); err != nil {
		return nil, err
	}
	if err := p.projects.Update(ctx, nil, proj); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return proj, nil
}

func (p *projectUC) Delete(ctx context.Context, ownerID, projectID model.ID) (int, error) {
	defer logging.TraceDuration(p.log, "ProjectUC.Delete")()

	var removed []model.ID
	err := p.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := p.owned(ctx, tx, ownerID, projectID); err != nil {
			return err
		}
		ids, err := p.sessions.DeleteByProject(ctx, tx, projectID)
		if err != nil {
			return fmt.Errorf("delete project sessions: %w", err)
		}
		if err := p.projects.Delete(ctx, tx, projectID); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		removed = ids
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, id := range removed {
		p.invalidate(ctx, id)
	}
	p.log.Info().Str("project_id", projectID.String()).Int("sessions", len(removed)).Msg("project deleted")
	return len(removed), nil
}

func (p *projectUC) Reference(ctx context.Context, ownerID, projectID model.ID) (*model.Project, error) {
	proj, err := p.projects.FindByID(ctx, nil, projectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.ErrNotFound, projectNotFound)
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if !proj.OwnedBy(ownerID) {
		return nil, domain.NewError(domain.ErrForbidden, "Project belongs to another user")
	}
	return proj, nil
}

func (p *projectUC) MoveSession(ctx context.Context, ownerID, sessionID, projectID model.ID) error {
	if !projectID.IsZero() {
		if _, err := p.Reference(ctx, ownerID, projectID); err != nil {
			return err
		}
	}
	err := p.sessions.SetProject(ctx, nil, sessionID, ownerID, projectID, p.now())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewError(domain.ErrNotFound, chatNotFound)
		}
		return fmt.Errorf("move session: %w", err)
	}
	p.invalidate(ctx, sessionID)
	return nil
}

func (p *projectUC) invalidate(ctx context.Context, id model.ID) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Invalidate(ctx, id); err != nil {
		p.log.Warn().Err(err).Str("session_id", id.String()).Msg("session cache invalidate failed")
	}
}
