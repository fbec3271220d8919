// Package engine defines the boundary to the external knowledge-graph
// retrieval engine. The engine is opaque: it owns indexing, graph storage,
// and answer generation. graphchat only invokes its query entry points and
// carries back the raw answer plus optional supporting context.
package engine

import (
	"context"
	"errors"
)

// Result is the raw outcome of one engine query. Context may be empty;
// callers must not interpret an empty string as meaningful context.
type Result struct {
	Answer  string
	Context string
}

// Engine exposes the three retrieval strategies of the external engine.
// Implementations must be safe for concurrent use and must honor
// context cancellation.
type Engine interface {
	// GlobalSearch analyzes the whole knowledge base for broad insights.
	GlobalSearch(ctx context.Context, query string) (*Result, error)
	// LocalSearch finds detailed information in specific documents.
	LocalSearch(ctx context.Context, query string) (*Result, error)
	// BasicSearch performs direct text matching over text units.
	BasicSearch(ctx context.Context, query string) (*Result, error)
}

var (
	// ErrEmptyAnswer is returned when the engine replied without any answer text.
	ErrEmptyAnswer = errors.New("engine returned an empty answer")
	// ErrUnavailable is returned when the engine cannot be reached at all.
	ErrUnavailable = errors.New("engine unavailable")
)
