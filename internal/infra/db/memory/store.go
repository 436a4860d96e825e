// Package memory keeps users, projects and sessions in process memory. It backs dev runs
// without Postgres and the use case tests.
package memory

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v4"

	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/repository"
)

type Store struct {
	mu       sync.RWMutex
	users    map[model.ID]*model.User
	projects map[model.ID]*model.Project
	sessions map[model.ID]*model.ChatSession

	txMu sync.Mutex
}

func NewStore() *Store {
	return &Store{
		users:    make(map[model.ID]*model.User),
		projects: make(map[model.ID]*model.Project),
		sessions: make(map[model.ID]*model.ChatSession),
	}
}

var _ repository.TransactionManager = (*TxManager)(nil)

// TxManager serialises transactional blocks. There is no rollback: a failing block keeps the
// writes it already made, which the callers in this module never rely on.
type TxManager struct{ s *Store }

func NewTxManager(s *Store) *TxManager { return &TxManager{s: s} }

func (m *TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.s.txMu.Lock()
	defer m.s.txMu.Unlock()
	return fn(ctx, nil)
}
