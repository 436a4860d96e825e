package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

var _ repository.ProjectRepository = (*PostgresProjectRepo)(nil)

type PostgresProjectRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresProjectRepo(pool *pgxpool.Pool) *PostgresProjectRepo {
	return &PostgresProjectRepo{pool: pool}
}

func (r *PostgresProjectRepo) Create(ctx context.Context, tx repository.Tx, p *model.Project) error {
	const q = `
INSERT INTO projects (id, user_id, name, description, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6);`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, p.ID.String(), p.UserID.String(), p.Name, p.Description, p.CreatedAt, p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

const projectColumns = `id, user_id, name, description, created_at, updated_at`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row scanner) (*model.Project, error) {
	var (
		p           model.Project
		id, ownerID string
	)
	if err := row.Scan(&id, &ownerID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.ID, p.UserID = model.ID(id), model.ID(ownerID)
	return &p, nil
}

func (r *PostgresProjectRepo) FindByID(ctx context.Context, tx repository.Tx, id model.ID) (*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE id=$1;`
	p, err := scanProject(pickRow(ctx, r.pool, tx, q, id.String()))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	return p, nil
}

func (r *PostgresProjectRepo) ListByUser(ctx context.Context, tx repository.Tx, userID model.ID) ([]*model.Project, error) {
	q := `SELECT ` + projectColumns + ` FROM projects WHERE user_id=$1 ORDER BY updated_at DESC, id DESC;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, userID.String())
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()
	out := make([]*model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresProjectRepo) Update(ctx context.Context, tx repository.Tx, p *model.Project) error {
	const q = `UPDATE projects SET name=$2, description=$3, updated_at=$4 WHERE id=$1;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, p.ID.String(), p.Name, p.Description, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostgresProjectRepo) Delete(ctx context.Context, tx repository.Tx, id model.ID) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM projects WHERE id=$1;`, id.String())
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
