package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"edu-tutor/internal/config"
	"edu-tutor/internal/domain/ports/adapter"
	"edu-tutor/internal/domain/ports/repository"
	aiAdapters "edu-tutor/internal/infra/adapters/ai"
	"edu-tutor/internal/infra/api"
	"edu-tutor/internal/infra/db/memory"
	pg "edu-tutor/internal/infra/db/postgres"
	"edu-tutor/internal/infra/localcache"
	"edu-tutor/internal/infra/logging"
	"edu-tutor/internal/infra/metrics"
	red "edu-tutor/internal/infra/redis"
	"edu-tutor/internal/infra/security"
	"edu-tutor/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(cfgPath, devMode)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

type stores struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	sessions repository.ChatSessionRepository
	tx       repository.TransactionManager
	cache    repository.SessionCache
	locker   adapter.Locker
	limiter  adapter.RateLimiter
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	if cfg.Metrics.Enabled {
		metrics.MustRegister()
	}
	metrics.SetBuildInfo(version, cfg.Grouping.Mode, cfg.AI.Provider)

	g, ctx := errgroup.WithContext(ctx)
	st, cleanup, err := openStores(ctx, g, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	ai, err := newAI(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// ---- Use cases ----
	authUC := usecase.NewAuthUseCase(st.users,
		security.NewBcryptHasher(cfg.Auth.BcryptCost),
		security.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		logger, cfg.Runtime.Dev)
	convUC := usecase.NewConversationUseCase(st.sessions, st.cache, logger)
	projectUC := usecase.NewProjectUseCase(st.projects, st.sessions, st.cache, st.tx, logger)

	var (
		grouping usecase.GroupingStrategy
		projects usecase.ProjectUseCase
	)
	switch cfg.Grouping.Mode {
	case config.GroupingClassification:
		grouping = usecase.NewClassificationGrouping(aiAdapters.NewLLMClassifier(ai, cfg.AI.DefaultModel, cfg.AI.Timeout), cfg.Classification, logger)
	default:
		projects = projectUC
		grouping = usecase.NewProjectGrouping(projectUC)
	}

	deps := usecase.ChatDeps{Limiter: st.limiter}
	if cfg.Chat.SerializeSessions {
		deps.Locker = st.locker
	}
	chatUC := usecase.NewChatUseCase(convUC, grouping, ai, deps, cfg.Chat, cfg.AI, logger)

	apiDeps := api.Deps{
		Auth:          authUC,
		Chat:          chatUC,
		Conversations: convUC,
		Projects:      projects,
		Grouping:      grouping,
	}
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewServer(apiDeps, cfg.Server, cfg.Metrics, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Str("grouping", grouping.Mode()).Str("provider", ai.Provider()).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutdown requested")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStores picks Postgres when a database url is set and the in-memory store otherwise (dev only),
// then Redis for cache, locks and rate limits when configured, else the in-process versions.
func openStores(ctx context.Context, g *errgroup.Group, cfg *config.Config, logger *zerolog.Logger) (*stores, func(), error) {
	st := &stores{}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var redisClient *red.Client
	if cfg.Redis.URL != "" {
		c, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, cleanup, fmt.Errorf("redis: %w", err)
		}
		redisClient = c
		closers = append(closers, func() { _ = c.Close() })
		st.cache = red.NewChatCache(c, cfg.Redis.TTL)
		st.locker = red.NewLocker(c)
		st.limiter = red.NewRateLimiter(c)
	} else {
		st.cache = localcache.NewSessionCache(cfg.Redis.TTL)
		st.locker = localcache.NewLocker()
		st.limiter = localcache.NewRateLimiter()
	}

	if cfg.Database.URL == "" {
		logger.Warn().Msg("no database configured; using the in-memory store, data is lost on exit")
		mem := memory.NewStore()
		st.users = memory.NewUserRepo(mem)
		st.projects = memory.NewProjectRepo(mem)
		st.sessions = memory.NewChatSessionRepo(mem)
		st.tx = memory.NewTxManager(mem)
		return st, cleanup, nil
	}

	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("postgres: %w", err)
	}
	closers = append(closers, pool.Close)
	if err := pg.Migrate(ctx, pool); err != nil {
		cleanup()
		return nil, func() {}, fmt.Errorf("migrate: %w", err)
	}
	g.Go(func() error {
		pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)
		return nil
	})

	if redisClient == nil {
		// process-local invalidation cannot reach other replicas sharing the database
		st.cache = nil
	}
	st.users = pg.NewPostgresUserRepo(pool)
	if redisClient != nil {
		st.users = pg.NewUserRepoCacheDecorator(st.users, redisClient, cfg.Redis.TTL, logger)
	}
	st.projects = pg.NewPostgresProjectRepo(pool)
	st.sessions = pg.NewPostgresChatSessionRepo(pool)
	st.tx = pg.NewTxManager(pool)
	return st, cleanup, nil
}

// newAI builds the provider adapter and wraps it: concurrency cap, retries, then instrumentation.
func newAI(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (adapter.AIServiceAdapter, error) {
	var (
		base adapter.AIServiceAdapter
		err  error
	)
	switch cfg.AI.Provider {
	case "gemini":
		base, err = aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
	case "openai":
		base, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.OpenAIBaseURL, cfg.AI.DefaultModel, cfg.AI.MaxOutputTokens)
	case "noop":
		base = aiAdapters.NewNoopAIAdapter(100 * time.Millisecond)
	default:
		err = fmt.Errorf("unknown ai provider %q", cfg.AI.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%s adapter: %w", cfg.AI.Provider, err)
	}
	ai := aiAdapters.NewLimitedAI(base, cfg.AI.ConcurrentLimit)
	ai = aiAdapters.NewRetryingAI(ai, cfg.AI.MaxRetries, cfg.AI.RetryBackoff)
	return aiAdapters.NewInstrumentedAI(ai, logger), nil
}
