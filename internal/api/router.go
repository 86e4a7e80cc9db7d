package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ledgerport/internal/core"
	"ledgerport/internal/delivery"
	"ledgerport/internal/store"
	"ledgerport/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Server holds the HTTP management API state.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	store      *store.Store
	orch       *core.Orchestrator
	worker     *core.Worker
	channels   *delivery.Factory
	logger     *slog.Logger
	location   *time.Location
	authToken  string
}

// NewServer constructs the HTTP API server.
func NewServer(addr, authToken string, st *store.Store, orch *core.Orchestrator, worker *core.Worker, channels *delivery.Factory, logger *slog.Logger, location *time.Location) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		store:     st,
		orch:      orch,
		worker:    worker,
		channels:  channels,
		logger:    logger,
		location:  location,
		authToken: authToken,
	}
	if s.location == nil {
		s.location = time.UTC
	}
	s.registerRoutes()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", telemetry.Handler())

	s.router.Route("/v1", func(r chi.Router) {
		if s.authToken != "" {
			r.Use(AuthMiddleware(s.authToken))
		}

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", s.handleListReports)
			r.Post("/", s.handleCreateReport)

			r.Route("/{reportID}", func(r chi.Router) {
				r.Get("/", s.handleGetReport)
				r.Delete("/", s.handleDeleteReport)
				r.Get("/file", s.handleDownloadReport)
				r.Post("/retry", s.handleRetryReport)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", s.handleListTasks)
			r.Post("/", s.handleCreateTask)

			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", s.handleGetTask)
				r.Patch("/", s.handleUpdateTask)
				r.Delete("/", s.handleDeleteTask)
				r.Post("/pause", s.handlePauseTask)
				r.Post("/resume", s.handleResumeTask)
				r.Get("/executions", s.handleListExecutions)
			})
		})

		r.Get("/regimes", s.handleListRegimes)
		r.Post("/delivery/test", s.handleDeliveryTest)
		r.Post("/worker/poll", s.handleWorkerPoll)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
