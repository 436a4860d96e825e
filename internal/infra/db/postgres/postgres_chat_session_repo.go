// File: internal/infra/db/postgres/postgres_chat_session_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

// ChatSessionRepo keeps each session in one row; the ordered messages are a JSONB array.
var _ repository.ChatSessionRepository = (*ChatSessionRepo)(nil)

type ChatSessionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresChatSessionRepo(pool *pgxpool.Pool) *ChatSessionRepo {
	return &ChatSessionRepo{pool: pool}
}

func encodeMessages(msgs []model.ChatMessage) (string, error) {
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return "", fmt.Errorf("encode messages: %w", err)
	}
	return string(b), nil
}

func (r *ChatSessionRepo) Create(ctx context.Context, tx repository.Tx, s *model.ChatSession) error {
	const q = `
INSERT INTO chat_sessions (id, user_id, project_id, subject, topic, title, messages, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7::jsonb,$8,$9);`
	msgs, err := encodeMessages(s.Messages)
	if err != nil {
		return err
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	_, err = ex.Exec(ctx, q, s.ID.String(), s.UserID.String(), s.Grouping.ProjectID.Ptr(),
		s.Grouping.Subject, s.Grouping.Topic, s.Title, msgs, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *ChatSessionRepo) FindByID(ctx context.Context, tx repository.Tx, id model.ID) (*model.ChatSession, error) {
	const q = `
SELECT id, user_id, project_id, subject, topic, title, messages, created_at, updated_at
  FROM chat_sessions WHERE id=$1;`
	var (
		s           model.ChatSession
		sid, userID string
		projectID   *string
		raw         []byte
	)
	row := pickRow(ctx, r.pool, tx, q, id.String())
	if err := row.Scan(&sid, &userID, &projectID, &s.Grouping.Subject, &s.Grouping.Topic, &s.Title, &raw, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}
	s.ID, s.UserID = model.ID(sid), model.ID(userID)
	if projectID != nil {
		s.Grouping.ProjectID = model.ID(*projectID)
	}
	if err := json.Unmarshal(raw, &s.Messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return &s, nil
}

// AppendMessages concatenates in SQL so two writers on the same row never lose each other's turns.
func (r *ChatSessionRepo) AppendMessages(ctx context.Context, tx repository.Tx, id, ownerID model.ID, msgs []model.ChatMessage, at time.Time) error {
	const q = `
UPDATE chat_sessions
   SET messages = messages || $3::jsonb,
       updated_at = $4
 WHERE id=$1 AND user_id=$2;`
	payload, err := encodeMessages(msgs)
	if err != nil {
		return err
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id.String(), ownerID.String(), payload, at)
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChatSessionRepo) ListByUser(ctx context.Context, tx repository.Tx, ownerID model.ID, f repository.SessionFilter) ([]model.SessionSummary, error) {
	q := `
SELECT id, project_id, subject, topic, title, jsonb_array_length(messages), created_at, updated_at
  FROM chat_sessions WHERE user_id=$1`
	args := []interface{}{ownerID.String()}
	switch f.Mode {
	case repository.FilterProject:
		q += ` AND project_id=$2`
		args = append(args, f.ProjectID.String())
	case repository.FilterUngrouped:
		q += ` AND project_id IS NULL`
	}
	q += ` ORDER BY updated_at DESC, id DESC;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]model.SessionSummary, 0)
	for rows.Next() {
		var (
			sum       model.SessionSummary
			id        string
			projectID *string
		)
		if err := rows.Scan(&id, &projectID, &sum.Grouping.Subject, &sum.Grouping.Topic, &sum.Title, &sum.MessageCount, &sum.CreatedAt, &sum.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		sum.ID = model.ID(id)
		if projectID != nil {
			sum.Grouping.ProjectID = model.ID(*projectID)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (r *ChatSessionRepo) SetProject(ctx context.Context, tx repository.Tx, id, ownerID, projectID model.ID, at time.Time) error {
	const q = `UPDATE chat_sessions SET project_id=$3, updated_at=$4 WHERE id=$1 AND user_id=$2;`
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, q, id.String(), ownerID.String(), projectID.Ptr(), at)
	if err != nil {
		return fmt.Errorf("set project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChatSessionRepo) Delete(ctx context.Context, tx repository.Tx, id, ownerID model.ID) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	tag, err := ex.Exec(ctx, `DELETE FROM chat_sessions WHERE id=$1 AND user_id=$2;`, id.String(), ownerID.String())
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChatSessionRepo) DeleteByProject(ctx context.Context, tx repository.Tx, projectID model.ID) ([]model.ID, error) {
	if projectID.IsZero() {
		return nil, domain.ErrInvalidArgument
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, `DELETE FROM chat_sessions WHERE project_id=$1 RETURNING id;`, projectID.String())
	if err != nil {
		return nil, fmt.Errorf("delete project sessions: %w", err)
	}
	defer rows.Close()
	var ids []model.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, model.ID(id))
	}
	return ids, rows.Err()
}
