// Package api exposes the users service over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/asaidimu/go-roster/users"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Server routes HTTP requests to the users service.
type Server struct {
	users  *users.Service
	logger *zap.Logger
	prefix string
	mux    *http.ServeMux
}

// NewServer creates a server mounting its routes under prefix, e.g. "/api".
func NewServer(service *users.Service, prefix string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		users:  service,
		logger: logger,
		prefix: prefix,
		mux:    http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET "+s.prefix+"/users", s.handleUsersList)
	s.mux.HandleFunc("POST "+s.prefix+"/users", s.handleUsersCreate)
	s.mux.HandleFunc("GET "+s.prefix+"/users/{id}", s.handleUsersGet)
	s.mux.HandleFunc("PATCH "+s.prefix+"/users/{id}", s.handleUsersUpdate)
	s.mux.HandleFunc("DELETE "+s.prefix+"/users/{id}", s.handleUsersDelete)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RequestIDMiddleware tags every request with an X-Request-ID, reusing the
// caller's when present.
func (s *Server) RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("Handled request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// Handler is the server wrapped in its middleware.
func (s *Server) Handler() http.Handler {
	return s.RequestIDMiddleware(s)
}

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting API server", zap.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_ID", "User id must be a positive integer", "")
		return 0, false
	}
	return id, true
}

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	page, opts, err := ParseListQuery(r.URL.Query())
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_QUERY", "Invalid query", err.Error())
		return
	}
	result, err := s.users.FindAll(r.Context(), page, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, result)
}

func (s *Server) handleUsersCreate(w http.ResponseWriter, r *http.Request) {
	var dto users.CreateUserDto
	if err := s.parseJSONBody(r, &dto); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", err.Error())
		return
	}
	user, err := s.users.Create(r.Context(), dto)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccessResponse(w, http.StatusCreated, user)
}

func (s *Server) handleUsersGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	user, err := s.users.FindOne(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, user)
}

func (s *Server) handleUsersUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	var dto users.UpdateUserDto
	if err := s.parseJSONBody(r, &dto); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON in request body", err.Error())
		return
	}
	user, err := s.users.Update(r.Context(), id, dto)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, user)
}

func (s *Server) handleUsersDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}
	if err := s.users.Remove(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeSuccessResponse(w, http.StatusOK, map[string]any{"id": id, "deleted": true})
}
