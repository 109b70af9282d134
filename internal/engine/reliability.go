package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xela07ax/workshop-oversight-console/internal/connectors"
)

// ReliabilityConfig — настройки обертки вызовов бэкенда.
type ReliabilityConfig struct {
	Attempts    uint
	CallTimeout time.Duration

	RateLimit float64
	RateBurst int

	CBMaxRequests         uint32
	CBInterval            time.Duration
	CBTimeout             time.Duration
	CBConsecutiveFailures uint32
}

// ReliabilityWrapper: rate limiter -> circuit breaker -> retry -> transport.
// Повторяются только GET: отправка решения или команды не должна дублироваться.
type ReliabilityWrapper struct {
	next        connectors.Caller
	cb          *gobreaker.CircuitBreaker
	limiter     *rate.Limiter
	attempts    uint
	callTimeout time.Duration
	metrics     *Metrics
	logger      *zap.Logger
}

func NewReliabilityWrapper(next connectors.Caller, cfg ReliabilityConfig, metrics *Metrics, logger *zap.Logger) *ReliabilityWrapper {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	if cfg.CBConsecutiveFailures == 0 {
		cfg.CBConsecutiveFailures = 5
	}
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}
	w := &ReliabilityWrapper{
		next:        next,
		limiter:     rate.NewLimiter(limit, cfg.RateBurst),
		attempts:    cfg.Attempts,
		callTimeout: cfg.CallTimeout,
		metrics:     metrics,
		logger:      logger.Named("reliability"),
	}

	// Настройка предохранителя
	w.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "monitoring-backend",
		MaxRequests: cfg.CBMaxRequests,
		Interval:    cfg.CBInterval,
		Timeout:     cfg.CBTimeout, // Время, через которое CB попробует "закрыться"
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CBConsecutiveFailures
		},
		// 4xx и отмена контекста не говорят о том, что бэкенд лежит
		IsSuccessful: func(err error) bool {
			return err == nil || connectors.IsClientError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			w.logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
			w.metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerGauge(to))
		},
	})
	w.metrics.CircuitBreakerState.WithLabelValues("monitoring-backend").Set(0)

	return w
}

func (w *ReliabilityWrapper) Call(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	// 1. Rate Limiter
	if err := w.limiter.Wait(ctx); err != nil {
		w.metrics.ErrorTotal.WithLabelValues("rate_limit").Inc()
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	attempts := w.attempts
	if method != http.MethodGet {
		attempts = 1
	}

	// 2. Circuit Breaker
	result, err := w.cb.Execute(func() (interface{}, error) {
		var data []byte
		r := retry.New(
			retry.Context(ctx),
			retry.Attempts(attempts),
			retry.LastErrorOnly(true),
			retry.DelayType(func(n uint, err error, config retry.DelayContext) time.Duration {
				// Бэкенд сам сказал, сколько ждать
				var tErr *connectors.ThrottleError
				if errors.As(err, &tErr) {
					return tErr.RetryAfter
				}
				return retry.BackOffDelay(n, err, config)
			}),
		)

		retryErr := r.Do(func() error {
			tCtx, cancel := context.WithTimeout(ctx, w.callTimeout)
			defer cancel()

			var callErr error
			data, callErr = w.next.Call(tCtx, method, path, payload)
			if callErr != nil && connectors.IsClientError(callErr) {
				return retry.Unrecoverable(callErr)
			}
			return callErr
		})
		return data, retryErr
	})
	if err != nil {
		w.countError(err)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("backend unavailable (circuit open): %w", err)
		}
		return nil, err
	}

	return result.([]byte), nil
}

func (w *ReliabilityWrapper) countError(err error) {
	var t string
	switch code := connectors.StatusOf(err); {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		t = "circuit_open"
	case code >= 500 || code == http.StatusTooManyRequests:
		t = "server"
	case code >= 400:
		t = "client"
	default:
		t = "transport"
	}
	w.metrics.ErrorTotal.WithLabelValues(t).Inc()
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	}
	return 0
}
