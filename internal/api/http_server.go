package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the HTTP API dispatches to.
type Deps struct {
	Users    domain.UserService
	Items    domain.ItemService
	Bookings domain.BookingService
	Comments domain.CommentService
	Requests domain.RequestService

	Storage  Pinger
	Throttle domain.ThrottleRepository
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// HTTPServer exposes the shareit REST API.
type HTTPServer struct {
	cfg    config.APIConfig
	deps   Deps
	server *http.Server
	logger zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	if cfg.Pagination.DefaultSize <= 0 {
		cfg.Pagination.DefaultSize = 10
	}
	if cfg.Pagination.MaxSize < cfg.Pagination.DefaultSize {
		cfg.Pagination.MaxSize = 100
	}

	srv := &HTTPServer{cfg: cfg, deps: deps, logger: zerolog.Nop()}
	if logger != nil {
		srv.logger = logger.With().Str("component", "http").Logger()
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

func (s *HTTPServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		chimw.Recoverer,
		requestLogger(s.logger),
		NewHTTPAuth(s.cfg).Wrap,
		userThrottle(s.cfg.UserRateLimit, s.deps.Throttle, s.logger),
	)

	r.Get("/healthz", s.handleHealth)
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.Route("/users", func(r chi.Router) {
		r.Post("/", s.handleAddUser)
		r.Get("/", s.handleListUsers)
		r.Get("/{id}", s.handleGetUser)
		r.Patch("/{id}", s.handleUpdateUser)
		r.Delete("/{id}", s.handleDeleteUser)
	})

	r.Route("/items", func(r chi.Router) {
		r.Post("/", s.handleAddItem)
		r.Get("/", s.handleListItems)
		r.Get("/search", s.handleSearchItems)
		r.Get("/{id}", s.handleGetItem)
		r.Patch("/{id}", s.handleUpdateItem)
		r.Post("/{id}/comment", s.handleAddComment)
	})

	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", s.handleAddBooking)
		r.Get("/", s.handleUserBookings)
		r.Get("/owner", s.handleOwnerBookings)
		r.Get("/{id}", s.handleGetBooking)
		r.Patch("/{id}", s.handlePatchBooking)
	})

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", s.handleAddRequest)
		r.Get("/", s.handleOwnRequests)
		r.Get("/all", s.handleOtherRequests)
		r.Get("/{id}", s.handleGetRequest)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// Handler returns the routed handler, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
