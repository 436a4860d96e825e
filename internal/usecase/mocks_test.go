// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"edu-tutor/internal/config"
	"edu-tutor/internal/domain"
	"edu-tutor/internal/domain/model"
	"edu-tutor/internal/domain/ports/adapter"
	"edu-tutor/internal/domain/ports/repository"
	"edu-tutor/internal/infra/db/memory"
	"edu-tutor/internal/infra/security"
)

// ---- Fakes ----

type fakeAI struct {
	mu     sync.Mutex
	reply  string
	err    error
	tokens int
	calls  [][]adapter.Message
}

func (f *fakeAI) Provider() string { return "fake" }

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (f *fakeAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return f.tokens, nil
}

func (f *fakeAI) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	text, _, err := f.ChatWithUsage(ctx, model, messages)
	return text, err
}

func (f *fakeAI) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]adapter.Message(nil), messages...)
	f.calls = append(f.calls, cp)
	if f.err != nil {
		return "", adapter.Usage{}, f.err
	}
	if f.reply != "" {
		return f.reply, adapter.Usage{}, nil
	}
	return "answer", adapter.Usage{}, nil
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeClassifier struct {
	result model.Classification
	err    error
	calls  int
}

func (f *fakeClassifier) Classify(ctx context.Context, question string) (model.Classification, error) {
	f.calls++
	return f.result, f.err
}

// memCache is a map-backed SessionCache that counts hits. Invalidated keys refuse fills
// until expire is called.
type memCache struct {
	mu          sync.Mutex
	m           map[model.ID]*model.ChatSession
	invalidated map[model.ID]bool
	hits        int
}

func newMemCache() *memCache {
	return &memCache{m: map[model.ID]*model.ChatSession{}, invalidated: map[model.ID]bool{}}
}

func (c *memCache) Get(ctx context.Context, id model.ID) (*model.ChatSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.m[id]
	if !ok {
		return nil, nil
	}
	c.hits++
	return s.Clone(), nil
}

func (c *memCache) Fill(ctx context.Context, s *model.ChatSession) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[s.ID]; ok || c.invalidated[s.ID] {
		return nil
	}
	c.m[s.ID] = s.Clone()
	return nil
}

func (c *memCache) Invalidate(ctx context.Context, id model.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
	c.invalidated[id] = true
	return nil
}

// expire drops invalidation markers, as the hold running out would.
func (c *memCache) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = map[model.ID]bool{}
}

// hookRepo runs afterFind once, right after the next FindByID returns.
type hookRepo struct {
	repository.ChatSessionRepository
	afterFind func()
}

func (h *hookRepo) FindByID(ctx context.Context, tx repository.Tx, id model.ID) (*model.ChatSession, error) {
	s, err := h.ChatSessionRepository.FindByID(ctx, tx, id)
	if hook := h.afterFind; hook != nil {
		h.afterFind = nil
		hook()
	}
	return s, err
}

type fakeLocker struct {
	mu     sync.Mutex
	held   map[string]bool
	busy   bool
	locked int
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy || l.held[key] {
		return "", domain.ErrLockBusy
	}
	if l.held == nil {
		l.held = map[string]bool{}
	}
	l.held[key] = true
	l.locked++
	return "tok", nil
}

func (l *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (f *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return f.allow, f.err
}

var errBoom = errors.New("boom")

// ---- Fixture ----

type env struct {
	store    *memory.Store
	auth     *authUC
	conv     *conversationUC
	projects *projectUC
	chat     *chatUC
	ai       *fakeAI
	cls      *fakeClassifier
	cache    *memCache
	locker   *fakeLocker
	tokens   *security.TokenService
}

type envOpt func(*config.Config)

func newEnv(opts ...envOpt) *env {
	cfg := config.Default()
	cfg.AI.DefaultModel = "fake-model"
	for _, o := range opts {
		o(&cfg)
	}
	logger := zerolog.Nop()

	store := memory.NewStore()
	users := memory.NewUserRepo(store)
	sessions := memory.NewChatSessionRepo(store)
	projectsRepo := memory.NewProjectRepo(store)
	cache := newMemCache()

	e := &env{
		store:  store,
		ai:     &fakeAI{},
		cls:    &fakeClassifier{result: model.Classification{Subject: "Mathematics", Topic: "Algebra", IsEducational: true}},
		cache:  cache,
		locker: &fakeLocker{},
		tokens: security.NewTokenService("test-secret", cfg.Auth.TokenTTL),
	}
	e.auth = NewAuthUseCase(users, security.NewBcryptHasher(bcrypt.MinCost), e.tokens, &logger, true)
	e.conv = NewConversationUseCase(sessions, cache, &logger)
	e.projects = NewProjectUseCase(projectsRepo, sessions, cache, memory.NewTxManager(store), &logger)

	var grouping GroupingStrategy = NewProjectGrouping(e.projects)
	if cfg.Grouping.Mode == config.GroupingClassification {
		grouping = NewClassificationGrouping(e.cls, cfg.Classification, &logger)
	}
	e.chat = NewChatUseCase(e.conv, grouping, e.ai, ChatDeps{Locker: e.locker}, cfg.Chat, cfg.AI, &logger)
	return e
}

func classificationMode(c *config.Config) { c.Grouping.Mode = config.GroupingClassification }

func (e *env) register(ctx context.Context, name string) *model.User {
	res, err := e.auth.Register(ctx, RegisterInput{Username: name, Password: "pw123456", Grade: "8"})
	if err != nil {
		panic(err)
	}
	return res.User
}
