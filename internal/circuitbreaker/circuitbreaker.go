// Package circuitbreaker wraps github.com/sony/gobreaker/v2 behind a small
// generic helper, matching the usage pattern the teacher wired onto
// Ethereum RPC calls and reused here for Gateway REST dispatch.
package circuitbreaker

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// Config mirrors the gobreaker settings this codebase cares about.
type Config struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	FailureRatio  float64
	MinRequests   uint32
	OnStateChange func(name string, from, to gobreaker.State)
}

// DefaultConfig returns settings suited to a venue REST endpoint: trip
// once at least 10 requests in the current 30s counting interval have
// failed at a ratio of 60% or more, stay open for 15s before probing again.
func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  1,
		Interval:     30 * time.Second,
		Timeout:      15 * time.Second,
		FailureRatio: 0.6,
		MinRequests:  10,
	}
}

// CircuitBreaker[T] wraps gobreaker.CircuitBreaker[T].
type CircuitBreaker[T any] struct {
	cb *gobreaker.CircuitBreaker[T]
}

// New constructs a CircuitBreaker[T] from cfg.
func New[T any](cfg Config) *CircuitBreaker[T] {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= cfg.MinRequests &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = cfg.OnStateChange
	}
	return &CircuitBreaker[T]{cb: gobreaker.NewCircuitBreaker[T](settings)}
}

// Execute runs fn through the breaker, short-circuiting with
// gobreaker.ErrOpenState while the breaker is open.
func (c *CircuitBreaker[T]) Execute(fn func() (T, error)) (T, error) {
	return c.cb.Execute(fn)
}

// State returns the current breaker state.
func (c *CircuitBreaker[T]) State() gobreaker.State {
	return c.cb.State()
}
