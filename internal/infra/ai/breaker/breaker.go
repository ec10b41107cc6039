// Package breaker wraps the analysis providers with circuit breakers so a
// dead provider fails fast and the pipeline degrades immediately.
package breaker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/bryanwahyu/pitchlens/internal/domain/ai"
	"github.com/bryanwahyu/pitchlens/internal/metrics"
)

// Settings for one breaker.
type Settings struct {
	// MaxRequests allowed in half-open state.
	MaxRequests uint32
	// Interval resets counts in closed state.
	Interval time.Duration
	// Timeout before an open breaker goes half-open.
	Timeout time.Duration
	// MinRequests and FailureRatio decide when to open.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultSettings: opens at >= 60% failures over at least 5 requests, retries after 1 minute.
func DefaultSettings() Settings {
	return Settings{MaxRequests: 2, Interval: time.Minute, Timeout: time.Minute, MinRequests: 5, FailureRatio: 0.6}
}

func newBreaker[T any](name string, s Settings, log zerolog.Logger) *gobreaker.CircuitBreaker[T] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(0) // 0 = closed

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return ratio >= s.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		IsSuccessful: isSuccessful,
	})
}

// isSuccessful: a well-formed "no" from a reachable provider is not an outage,
// and neither is our own cancellation (shutdown).
func isSuccessful(err error) bool {
	return err == nil || errors.Is(err, ai.ErrMalformedResponse) || errors.Is(err, context.Canceled)
}

// rejected converts breaker refusals into provider errors; other errors pass through.
func rejected(provider string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ai.NewProviderError(provider, ai.KindError, "circuit open", err)
	}
	return err
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
