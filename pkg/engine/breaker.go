package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"graphchat/pkg/config"
)

// CircuitBreakerEngine wraps an Engine with circuit breaking logic. An open
// breaker fails fast without touching the engine; it never retries, so the
// one-call-per-dispatch contract is preserved.
type CircuitBreakerEngine struct {
	engine Engine
	cb     *gobreaker.CircuitBreaker
	log    *slog.Logger
}

// NewCircuitBreakerEngine creates a circuit breaker around the given engine.
func NewCircuitBreakerEngine(inner Engine, cfg config.CircuitBreakerConfig, log *slog.Logger) *CircuitBreakerEngine {
	if log == nil {
		log = slog.Default()
	}

	st := gobreaker.Settings{
		Name:        "retrieval-engine",
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &CircuitBreakerEngine{
		engine: inner,
		cb:     gobreaker.NewCircuitBreaker(st),
		log:    log,
	}
}

// GlobalSearch implements Engine.
func (e *CircuitBreakerEngine) GlobalSearch(ctx context.Context, query string) (*Result, error) {
	return e.execute(func() (*Result, error) { return e.engine.GlobalSearch(ctx, query) })
}

// LocalSearch implements Engine.
func (e *CircuitBreakerEngine) LocalSearch(ctx context.Context, query string) (*Result, error) {
	return e.execute(func() (*Result, error) { return e.engine.LocalSearch(ctx, query) })
}

// BasicSearch implements Engine.
func (e *CircuitBreakerEngine) BasicSearch(ctx context.Context, query string) (*Result, error) {
	return e.execute(func() (*Result, error) { return e.engine.BasicSearch(ctx, query) })
}

func (e *CircuitBreakerEngine) execute(call func() (*Result, error)) (*Result, error) {
	resp, err := e.cb.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return nil, err
	}
	return resp.(*Result), nil
}
