package connectors

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Caller — единственный способ поговорить с бэкендом. Реализуют HTTPTransport и обертки над ним.
type Caller interface {
	Call(ctx context.Context, method, path string, payload []byte) ([]byte, error)
}

const maxBodyBytes = 4 << 20

// HTTPTransport выполняет JSON-запросы к бэкенду мониторинга.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
	traceID func(context.Context) string
	logger  *zap.Logger
}

type TransportOption func(*HTTPTransport)

// WithTraceID задает источник X-Trace-ID. Без него каждый запрос получает новый id.
func WithTraceID(fn func(context.Context) string) TransportOption {
	return func(t *HTTPTransport) { t.traceID = fn }
}

func WithHTTPClient(c *http.Client) TransportOption {
	return func(t *HTTPTransport) { t.client = c }
}

func NewHTTPTransport(baseURL string, timeout time.Duration, logger *zap.Logger, opts ...TransportOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		traceID: func(context.Context) string { return "" },
		logger:  logger.Named("backend"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	traceID := t.traceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
	}
	req.Header.Set("X-Trace-ID", traceID)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       path,
			Body:       snippet(data),
		}
		t.logger.Debug("backend returned error status",
			zap.String("trace_id", traceID),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))

		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, &ThrottleError{RetryAfter: retryAfter(resp.Header.Get("Retry-After")), Cause: httpErr}
		}
		return nil, httpErr
	}
	return data, nil
}

// snippet укорачивает тело ответа до строки, пригодной для баннера.
func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func retryAfter(h string) time.Duration {
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return time.Second
}
