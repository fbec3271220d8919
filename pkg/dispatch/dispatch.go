// Package dispatch turns a validated question into exactly one external
// engine call and normalizes whatever comes back into a single response
// envelope. It is the only place where engine failures are classified and
// converted to user-safe messages.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"graphchat/pkg/engine"
	"graphchat/pkg/modes"
)

// FailureKind classifies a failed dispatch.
type FailureKind string

const (
	// FailureNone marks a successful response.
	FailureNone FailureKind = ""
	// FailureValidation marks a request rejected before any engine call.
	FailureValidation FailureKind = "validation"
	// FailureEngine marks an error raised by the external engine.
	FailureEngine FailureKind = "engine"
	// FailureTimeout marks a caller-imposed deadline expiring mid-call.
	FailureTimeout FailureKind = "timeout"
)

// Request is one user-submitted question with its selected mode.
type Request struct {
	Question string
	Mode     modes.Mode
}

// Response is the single envelope produced for every Request. Exactly one
// of (Answer, Succeeded=true) or (ErrorMessage, Succeeded=false) holds.
// Context is nil whenever the engine produced nothing worth showing.
type Response struct {
	Mode         modes.Mode
	Answer       string
	Context      *string
	Succeeded    bool
	FailureKind  FailureKind
	ErrorMessage string
}

// Config holds dispatcher settings.
type Config struct {
	// Timeout bounds each engine call. Zero disables the deadline.
	Timeout time.Duration
}

// Dispatcher validates requests and performs engine calls. It holds no
// per-request state and is safe for concurrent use.
type Dispatcher struct {
	engine  engine.Engine
	timeout time.Duration
	log     *slog.Logger
}

// New creates a Dispatcher over the given engine.
func New(e engine.Engine, cfg Config, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		engine:  e,
		timeout: cfg.Timeout,
		log:     log,
	}
}

// Dispatch validates the request, performs one engine call, and returns the
// normalized response. It never returns an error: every failure path is a
// normal Response with Succeeded=false.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{
			Mode:         req.Mode,
			FailureKind:  FailureValidation,
			ErrorMessage: "Query cannot be empty",
		}
	}

	spec, err := modes.Lookup(req.Mode)
	if err != nil {
		return Response{
			Mode:         req.Mode,
			FailureKind:  FailureValidation,
			ErrorMessage: "Invalid search type. Must be: global, local, or basic",
		}
	}

	callCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	d.log.Info("Query dispatched", "mode", req.Mode, "question_len", len(question))
	start := time.Now()

	result, callErr := spec.Call(callCtx, d.engine, question)
	duration := time.Since(start)

	if callErr != nil {
		return d.failure(req.Mode, callErr, duration)
	}
	if result == nil || strings.TrimSpace(result.Answer) == "" {
		return d.failure(req.Mode, engine.ErrEmptyAnswer, duration)
	}

	d.log.Info("Search completed", "mode", req.Mode, "duration", duration.Round(time.Millisecond))

	return Response{
		Mode:      req.Mode,
		Answer:    result.Answer,
		Context:   normalizeContext(result.Context),
		Succeeded: true,
	}
}

func (d *Dispatcher) failure(mode modes.Mode, err error, duration time.Duration) Response {
	kind := FailureEngine
	if errors.Is(err, context.DeadlineExceeded) {
		kind = FailureTimeout
	}

	// Raw detail goes to logs only; users get the classified summary.
	d.log.Error("Search failed",
		"mode", mode, "kind", string(kind),
		"duration", duration.Round(time.Millisecond), "error", err)

	return Response{
		Mode:         mode,
		FailureKind:  kind,
		ErrorMessage: safeMessage(kind, err, d.timeout),
	}
}

// safeMessage derives a user-readable message from an engine error without
// leaking raw technical detail.
func safeMessage(kind FailureKind, err error, timeout time.Duration) string {
	if kind == FailureTimeout {
		if timeout > 0 {
			return fmt.Sprintf("Search timed out after %d seconds. Please try a more specific query.", int(timeout.Seconds()))
		}
		return "Search timed out. Please try a more specific query."
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, engine.ErrUnavailable):
		return "The retrieval engine is currently unreachable. Please try again later."
	case errors.Is(err, engine.ErrEmptyAnswer):
		return "The search returned no answer. Try rephrasing your question."
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401"):
		return "The language model provider rejected the request. Check the configured API key."
	case strings.Contains(msg, "parquet") || strings.Contains(msg, "no such file") || strings.Contains(msg, "settings.yaml"):
		return "The knowledge base data files are missing or unreadable."
	default:
		return "Search failed. Please try again or contact support if the issue persists."
	}
}

// noContextSentinels are engine values that mean "no context returned".
// The Python engine stringifies absent context into these shapes.
var noContextSentinels = map[string]bool{
	"":     true,
	"{}":   true,
	"[]":   true,
	"none": true,
	"no context data available": true,
}

// normalizeContext collapses absent, empty, and sentinel context values to
// nil so downstream renderers have one unambiguous "nothing to show".
func normalizeContext(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if noContextSentinels[strings.ToLower(trimmed)] {
		return nil
	}
	return &trimmed
}
