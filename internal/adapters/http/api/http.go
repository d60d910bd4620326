// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/pkg/logger"
)

const defaultMaxBodyBytes = 4 << 10

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Matches returns the account's recent competitive matches, newest first.
	Matches(ctx context.Context, creds model.Credentials, clientAddr string) ([]model.MatchRecord, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	helloHandler   *HelloHandler
	matchesHandler *MatchesHandler
	healthHandler  *HealthHandler
	limiter        *ClientRateLimiter
	maxBodyBytes   int64
	logger         logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithRateLimiter sets the per-client limiter guarding the public routes.
func WithRateLimiter(l *ClientRateLimiter) Option {
	return func(s *Server) {
		if l != nil {
			s.limiter = l
		}
	}
}

// WithMaxBodyBytes caps request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewClientRateLimiter(DefaultWindows)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.helloHandler = NewHelloHandler()
	s.matchesHandler = NewMatchesHandler(deps, s.maxBodyBytes, s.logger)
	s.healthHandler = NewHealthHandler()
	return s
}

// Router returns a chi router with the common middleware stack and all API
// routes registered.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	s.Register(r)
	return r
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/", MetricsMiddleware(RateLimit(s.limiter, "root", s.helloHandler.HandleHello), "root"))
	r.Post("/matches", MetricsMiddleware(RateLimit(s.limiter, "matches", s.matchesHandler.HandlePostMatches), "matches"))
}

// envelope is the body shape shared by every business response.
type envelope struct {
	Success bool `json:"success"`
	Message any  `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Message: message})
}
