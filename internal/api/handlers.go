package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/vaidashi/pool-dealer-portal/internal/authz"
	"github.com/vaidashi/pool-dealer-portal/pkg/circuitbreaker"
	apperrors "github.com/vaidashi/pool-dealer-portal/pkg/errors"
)

const (
	maxJSONBody   = 1 << 20
	maxUploadBody = 25 << 20
)

type ApiResponse struct {
	Success bool                   `json:"success"`
	Data    interface{}            `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Health represents the health check response
type Health struct {
	Status      string                   `json:"status"`
	Database    string                   `json:"database"`
	MailBreaker *circuitbreaker.Snapshot `json:"mail_breaker,omitempty"`
	Timestamp   string                   `json:"timestamp"`
}

// healthCheckHandler pings the database. The mail breaker is informational only.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := Health{
		Status:    "ok",
		Database:  "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	code := http.StatusOK

	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("Health check database ping failed", "error", err)
		health.Status = "unavailable"
		health.Database = "unreachable"
		code = http.StatusServiceUnavailable
	}
	if s.opts.MailBreaker != nil {
		snap := s.opts.MailBreaker.Snapshot()
		health.MailBreaker = &snap
	}

	s.respondWithJSON(w, code, ApiResponse{Success: code == http.StatusOK, Data: health})
}

// identity returns the caller set by authMiddleware
func identity(r *http.Request) *authz.Identity {
	return authz.FromContext(r.Context())
}

func pathID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

// decodeJSON reads a bounded JSON body into dst
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.NewValidationError("request body is empty")
		}
		return apperrors.NewValidationError("invalid request payload")
	}
	return nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError("invalid " + key)
	}
	return n, nil
}

// queryBool parses an optional boolean query parameter; nil means absent
func queryBool(r *http.Request, key string) (*bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid " + key)
	}
	return &b, nil
}

// page reads limit and offset
func page(r *http.Request) (int, int, error) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		return 0, 0, err
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// respond writes data with code, or the error when err is set
func (s *Server) respond(w http.ResponseWriter, r *http.Request, code int, data interface{}, err error) {
	if err != nil {
		s.respondWithError(w, r, err)
		return
	}
	s.respondWithJSON(w, code, ApiResponse{Success: true, Data: data})
}

// respondWithError maps err onto its status code. Errors that are not AppErrors, and
// internal AppErrors, are logged and reported generically.
func (s *Server) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.StatusCode >= http.StatusInternalServerError && appErr.Code == apperrors.CodeInternal {
		s.logger.Error("Request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
		s.respondWithJSON(w, http.StatusInternalServerError, ApiResponse{
			Success: false,
			Error:   "internal server error",
			Code:    apperrors.CodeInternal,
		})
		return
	}

	resp := ApiResponse{
		Success: false,
		Error:   appErr.Message,
		Code:    appErr.Code,
	}
	if len(appErr.Context) > 0 {
		resp.Details = appErr.Context
	}
	s.respondWithJSON(w, appErr.StatusCode, resp)
}

// rejectRateLimited answers throttled login attempts
func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	err := apperrors.NewRateLimitedError("too many login attempts, try again later").
		WithContext("retry_after_seconds", int(retryAfter.Seconds())+1)
	s.respondWithError(w, r, err)
}

// respondWithJSON sends a JSON response
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error("Failed to marshal response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}
