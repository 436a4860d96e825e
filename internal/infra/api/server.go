package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"edu-tutor/internal/config"
	"edu-tutor/internal/usecase"
)

// Deps are the use cases behind the HTTP surface. Projects may be nil in classification mode.
type Deps struct {
	Auth          usecase.AuthUseCase
	Chat          usecase.ChatUseCase
	Conversations usecase.ConversationUseCase
	Projects      usecase.ProjectUseCase
	Grouping      usecase.GroupingStrategy
}

type Server struct {
	auth     usecase.AuthUseCase
	chats    usecase.ChatUseCase
	conv     usecase.ConversationUseCase
	projects usecase.ProjectUseCase
	grouping usecase.GroupingStrategy

	cfg     config.ServerConfig
	metrics config.MetricsConfig
	log     *zerolog.Logger
}

func NewServer(deps Deps, cfg config.ServerConfig, metricsCfg config.MetricsConfig, logger *zerolog.Logger) *Server {
	return &Server{
		auth:     deps.Auth,
		chats:    deps.Chat,
		conv:     deps.Conversations,
		projects: deps.Projects,
		grouping: deps.Grouping,
		cfg:      cfg,
		metrics:  metricsCfg,
		log:      logger,
	}
}

// Router builds the full handler tree. Project and move routes exist only in project mode.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Metrics(),
	)
	if len(s.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	if s.metrics.Enabled {
		r.Handle(s.metrics.Path, promhttp.Handler())
	}

	base := s.cfg.BasePath
	if base == "" {
		base = "/"
	}
	r.Route(base, func(api chi.Router) {
		api.Use(Timeout(s.cfg.RequestTimeout))
		api.Get("/", s.root)
		api.Get("/health", s.health)
		api.Post("/auth/register", s.register)
		api.Post("/auth/login", s.login)

		api.Group(func(priv chi.Router) {
			priv.Use(Auth(s.auth, s.log))
			priv.Get("/auth/me", s.me)
			priv.Get("/models", s.models)

			priv.Post("/chat", s.chat)
			priv.Get("/chats", s.listSessions)
			priv.Get("/chat/history", s.listSessions)
			priv.Get("/chats/{id}", s.getSession)
			priv.Get("/chat/session/{id}", s.getSession)
			priv.Delete("/chats/{id}", s.deleteSession)
			priv.Delete("/chat/session/{id}", s.deleteSession)

			if s.projects != nil && s.grouping.Mode() == config.GroupingProject {
				priv.Put("/chats/{id}/move", s.moveSession)
				priv.Route("/projects", func(p chi.Router) {
					p.Post("/", s.createProject)
					p.Get("/", s.listProjects)
					p.Put("/{id}", s.updateProject)
					p.Delete("/{id}", s.deleteProject)
				})
			}
		})
	})
	return r
}
