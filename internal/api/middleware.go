package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/internal/metrics"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs every routed request and records its metrics under the route
// template, so ids in paths do not explode label cardinality
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tmpl, err := current.GetPathTemplate(); err == nil {
				route = tmpl
			}
		}
		duration := time.Since(start)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(duration.Seconds())

		s.logger.Info("Request processed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", duration,
			"remoteAddr", r.RemoteAddr,
		)
	})
}

// recoverMiddleware turns a handler panic into a 500
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("Handler panicked", "panic", p, "method", r.Method, "path", r.URL.Path)
				s.respondWithJSON(w, http.StatusInternalServerError, ApiResponse{
					Success: false,
					Error:   "internal server error",
					Code:    apperrors.CodeInternal,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the session token from the Authorization header
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// authMiddleware resolves the session token into the request identity
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.svc.Auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			s.respondWithError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(authz.WithIdentity(r.Context(), id)))
	})
}
