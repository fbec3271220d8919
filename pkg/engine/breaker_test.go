package engine

import (
	"context"
	"errors"
	"testing"

	"graphchat/pkg/config"
)

// flakyEngine fails every call and counts invocations.
type flakyEngine struct {
	calls int
	err   error
}

func (f *flakyEngine) search(_ context.Context, _ string) (*Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Result{Answer: "ok"}, nil
}

func (f *flakyEngine) GlobalSearch(ctx context.Context, q string) (*Result, error) {
	return f.search(ctx, q)
}
func (f *flakyEngine) LocalSearch(ctx context.Context, q string) (*Result, error) {
	return f.search(ctx, q)
}
func (f *flakyEngine) BasicSearch(ctx context.Context, q string) (*Result, error) {
	return f.search(ctx, q)
}

func breakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         60,
		Timeout:          60,
		ReadyToTripRatio: 0.6,
	}
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	inner := &flakyEngine{}
	cb := NewCircuitBreakerEngine(inner, breakerConfig(), nil)

	res, err := cb.GlobalSearch(context.Background(), "q")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Answer != "ok" {
		t.Errorf("unexpected answer %q", res.Answer)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	inner := &flakyEngine{err: errors.New("boom")}
	cb := NewCircuitBreakerEngine(inner, breakerConfig(), nil)

	for i := 0; i < 5; i++ {
		_, _ = cb.BasicSearch(context.Background(), "q")
	}

	callsBefore := inner.calls
	_, err := cb.BasicSearch(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error from open breaker")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from open breaker, got %v", err)
	}
	if inner.calls != callsBefore {
		t.Errorf("open breaker must not call the engine, calls went %d -> %d", callsBefore, inner.calls)
	}
}
