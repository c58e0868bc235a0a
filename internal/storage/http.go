package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/vaidashi/pool-dealer-portal/pkg/errors"
	"github.com/vaidashi/pool-dealer-portal/pkg/logger"
	"github.com/vaidashi/pool-dealer-portal/pkg/retry"
)

// HTTPStore uploads blobs to a remote object service with PUT {endpoint}/{key}. The
// service answers with {"url": "..."}; without a body the object URL is the request URL.
type HTTPStore struct {
	endpoint    string
	httpClient  *http.Client
	logger      logger.Logger
	retryConfig retry.Config
}

type putResponse struct {
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`
}

// NewHTTPStore creates a new HTTPStore
func NewHTTPStore(endpoint string, logger logger.Logger) *HTTPStore {
	return &HTTPStore{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
		retryConfig: retry.Config{
			MaxAttempts: 3,
			Backoff: &retry.ExponentialBackoff{
				InitialInterval: 300 * time.Millisecond,
				MaxInterval:     3 * time.Second,
				Multiplier:      2,
				JitterFactor:    0.2,
			},
			Logger:    logger,
			Retryable: errors.IsRetryable,
			Operation: "storage.put",
		},
	}
}

// Put uploads body. The body is buffered so that it can be resent on retry.
func (s *HTTPStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	url := s.endpoint + "/" + key
	var objectURL string

	err = retry.Do(ctx, s.retryConfig, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
		if err != nil {
			return errors.NewInternalError(fmt.Sprintf("failed to create request: %v", err))
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return errors.NewTimeoutError("storage upload timed out")
			}
			return errors.NewTemporaryError(fmt.Sprintf("failed to send upload: %v", err))
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return errors.NewTemporaryError(fmt.Sprintf("failed to read response body: %v", err))
		}

		switch {
		case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
			return errors.NewTimeoutError("storage upload timed out")
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return errors.NewTemporaryError(fmt.Sprintf("storage service error: %d", resp.StatusCode))
		case resp.StatusCode >= 400:
			return errors.NewAppError(errors.ErrInternal, errors.CodeInternal,
				fmt.Sprintf("storage service rejected upload: %d", resp.StatusCode), http.StatusBadGateway, false)
		}

		objectURL = url
		if len(bytes.TrimSpace(respBody)) == 0 {
			return nil
		}

		var parsed putResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil
		}
		if parsed.Error != "" {
			if parsed.Code == "TIMEOUT" {
				return errors.NewTimeoutError(parsed.Error)
			}
			return errors.NewTemporaryError(parsed.Error)
		}
		if parsed.URL != "" {
			objectURL = parsed.URL
		}
		return nil
	})

	if err != nil {
		s.logger.Error("Failed to upload blob after retries", "error", err, "key", key)
		return "", err
	}

	return objectURL, nil
}
