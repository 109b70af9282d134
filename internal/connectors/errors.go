package connectors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ThrottleError — бэкенд попросил подождать (429 с Retry-After).
type ThrottleError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *ThrottleError) Error() string {
	return fmt.Sprintf("throttled: retry after %v (cause: %v)", e.RetryAfter, e.Cause)
}

func (e *ThrottleError) Unwrap() error { return e.Cause }

// HTTPError — ответ бэкенда с кодом вне 2xx. Текст ошибки всегда содержит код,
// он же уходит в баннер ошибки ресурса.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("backend %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// StatusOf возвращает код ответа бэкенда или 0, если ошибка не HTTP.
func StatusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsClientError — 4xx кроме 429: запрос некорректен, бэкенд здоров.
func IsClientError(err error) bool {
	code := StatusOf(err)
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}
