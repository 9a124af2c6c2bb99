/*
server.go - HTTP server setup and routing

PURPOSE:
  Wires the chi router: middleware, CORS, and every API route. The server
  itself is a thin wrapper around http.Server with graceful shutdown.

ROUTES:
  /api/users                          POST, GET
  /api/policies                       POST, GET
  /api/policies/{id}                  GET, DELETE
  /api/grants                         POST
  /api/grants/{id}                    DELETE
  /api/usages                         POST
  /api/usages/{id}                    DELETE
  /api/requests                       POST
  /api/requests/{id}                  GET
  /api/requests/{id}/cancel           POST
  /api/approvals/{id}/approve         POST
  /api/approvals/{id}/reject          POST
  /api/users/{id}/balance             GET
  /api/users/{id}/grants              GET
  /api/users/{id}/usages              GET
  /api/users/{id}/requests            GET
  /api/users/{id}/pending-approvals   GET
  /api/enrollments                    POST, GET
  /api/admin/issue-grants             POST

SEE ALSO:
  - handlers.go: Handler implementations
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Server hosts the HTTP API.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds the router and returns a server bound to the given port.
func NewServer(handler *Handler, port int, corsOrigins []string, logger *zap.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"ok"}`)
	})

	r.Route("/api", func(r chi.Router) {
		Register(r, handler)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		logger: logger,
	}
}

// Register mounts every API route on the given router. Split out so tests
// can mount the routes on a bare router without the server wrapper.
func Register(r chi.Router, h *Handler) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Get("/", h.ListUsers)
		r.Get("/{id}/balance", h.GetUserBalance)
		r.Get("/{id}/grants", h.ListUserGrants)
		r.Get("/{id}/usages", h.ListUserUsages)
		r.Get("/{id}/requests", h.ListUserRequests)
		r.Get("/{id}/pending-approvals", h.PendingApprovals)
	})

	r.Route("/policies", func(r chi.Router) {
		r.Post("/", h.CreatePolicy)
		r.Get("/", h.ListPolicies)
		r.Get("/{id}", h.GetPolicy)
		r.Delete("/{id}", h.DeletePolicy)
	})

	r.Route("/grants", func(r chi.Router) {
		r.Post("/", h.CreateGrant)
		r.Delete("/{id}", h.RevokeGrant)
	})

	r.Route("/usages", func(r chi.Router) {
		r.Post("/", h.CreateUsage)
		r.Delete("/{id}", h.CancelUsage)
	})

	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.SubmitRequest)
		r.Get("/{id}", h.GetRequest)
		r.Post("/{id}/cancel", h.CancelRequest)
	})

	r.Route("/approvals", func(r chi.Router) {
		r.Post("/{id}/approve", h.ApproveRequest)
		r.Post("/{id}/reject", h.RejectRequest)
	})

	r.Route("/enrollments", func(r chi.Router) {
		r.Post("/", h.CreateEnrollment)
		r.Get("/", h.ListEnrollments)
	})

	r.Post("/admin/issue-grants", h.IssueGrants)
}

// Start begins serving. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("http server shutting down")
	return s.httpServer.Shutdown(ctx)
}
