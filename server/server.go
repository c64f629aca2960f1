// Package server provides the HTTP server that exposes sequitur grammar
// sessions over a REST API.
//
// server:
//   - POST   /api/v1/login                    - exchange operator credentials for a bearer token
//   - POST   /api/v1/sessions                 - create a new grammar session (auth not required)
//   - GET    /api/v1/sessions/{id}             - get a session's metadata (auth not required)
//   - POST   /api/v1/sessions/{id}/terminals   - feed terminal symbols into a session's grammar
//   - GET    /api/v1/sessions/{id}/grammar     - export a session's current grammar
//   - DELETE /api/v1/sessions/{id}             - close a session (auth required)
//   - GET    /api/v1/audit                     - list the audit trail (auth required)
//   - GET    /api/v1/info                      - get version info on the server and engine
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/dekarrin/sequitur/server/api"
	"github.com/dekarrin/sequitur/server/middle"
	"github.com/dekarrin/sequitur/server/svc"
	"github.com/go-chi/chi/v5"
)

// Server is a fully-assembled sequitur HTTP server. Create one with New and
// then call ListenAndServe to begin serving requests.
type Server struct {
	router http.Handler
	http   *http.Server
	db     interface{ Close() error }
}

// New constructs a Server from cfg. cfg should already have had
// FillDefaults and Validate called on it.
func New(cfg Config) (*Server, error) {
	db, err := cfg.DB.Connect()
	if err != nil {
		return nil, err
	}

	backend := svc.New(db, cfg.OperatorUsername, cfg.OperatorPasswordHash, cfg.Limits)

	a := api.API{
		Backend:     backend,
		UnauthDelay: cfg.UnauthDelay(),
		Secret:      cfg.TokenSecret,
	}

	optionalAuth := middle.OptionalAuth(cfg.TokenSecret, cfg.UnauthDelay())
	requireAuth := middle.RequireAuth(cfg.TokenSecret, cfg.UnauthDelay())

	r := chi.NewRouter()
	r.Use(middle.DontPanic())

	r.Route(api.PathPrefix, func(r chi.Router) {
		r.With(optionalAuth).Post("/login", a.HTTPCreateLogin())
		r.With(optionalAuth).Get("/info", a.HTTPGetInfo())

		r.With(optionalAuth).Post("/sessions", a.HTTPCreateSession())
		r.With(optionalAuth).Get("/sessions/{id}", a.HTTPGetSession())
		r.With(optionalAuth).Post("/sessions/{id}/terminals", a.HTTPAppendTerminals())
		r.With(optionalAuth).Get("/sessions/{id}/grammar", a.HTTPGetGrammar())
		r.With(requireAuth).Delete("/sessions/{id}", a.HTTPDeleteSession())

		r.With(requireAuth).Get("/audit", a.HTTPGetAudit())
	})

	return &Server{
		router: r,
		http:   &http.Server{Handler: r},
		db:     db,
	}, nil
}

// ListenAndServe begins serving HTTP requests on addr. It blocks until the
// server stops, returning the error that caused it to stop (never nil,
// matching the contract of http.Server.ListenAndServe).
func (s *Server) ListenAndServe(addr string) error {
	s.http.Addr = addr
	return s.http.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting up to the given timeout for
// in-flight requests to complete, then closes the persistence layer.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		return err
	}
	return s.db.Close()
}
