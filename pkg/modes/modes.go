// Package modes defines the fixed registry of supported search modes and
// their bindings to the external engine's entry points.
package modes

import (
	"context"
	"fmt"
	"strings"

	"graphchat/pkg/engine"
)

// Mode identifies one of the three supported retrieval strategies.
type Mode string

const (
	// Global analyzes the entire knowledge base for broad insights.
	Global Mode = "global"
	// Local searches specific documents and passages for detail.
	Local Mode = "local"
	// Basic performs direct text matching in documents.
	Basic Mode = "basic"
)

// ErrUnknownMode is returned when a mode identifier is not one of the three
// recognized values.
var ErrUnknownMode = fmt.Errorf("unknown search mode")

// CallFunc invokes one engine entry point for a question.
type CallFunc func(ctx context.Context, e engine.Engine, question string) (*engine.Result, error)

// Spec describes one registered mode: its display metadata and the engine
// call it binds to.
type Spec struct {
	Mode        Mode
	Label       string
	Description string
	Call        CallFunc
}

// registry is the fixed lookup table. It is never mutated after init.
var registry = map[Mode]Spec{
	Global: {
		Mode:        Global,
		Label:       "Global Search",
		Description: "Analyzes the entire knowledge base to provide broader insights and connections across multiple topics. Best for complex questions requiring synthesis of information.",
		Call: func(ctx context.Context, e engine.Engine, question string) (*engine.Result, error) {
			return e.GlobalSearch(ctx, question)
		},
	},
	Local: {
		Mode:        Local,
		Label:       "Local Search",
		Description: "Searches through specific documents and passages to find detailed information. Best for questions about particular sections or specific details.",
		Call: func(ctx context.Context, e engine.Engine, question string) (*engine.Result, error) {
			return e.LocalSearch(ctx, question)
		},
	},
	Basic: {
		Mode:        Basic,
		Label:       "Basic Search",
		Description: "Performs direct text matching in documents. Best for factual queries and finding exact text matches.",
		Call: func(ctx context.Context, e engine.Engine, question string) (*engine.Result, error) {
			return e.BasicSearch(ctx, question)
		},
	},
}

// order fixes the display order of modes.
var order = []Mode{Global, Local, Basic}

// Parse resolves a wire identifier ("global", "Local", "BASIC") to a Mode.
func Parse(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := registry[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return m, nil
}

// Lookup returns the spec for a mode.
func Lookup(m Mode) (Spec, error) {
	spec, ok := registry[m]
	if !ok {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownMode, string(m))
	}
	return spec, nil
}

// All returns specs for every registered mode in display order.
func All() []Spec {
	specs := make([]Spec, 0, len(order))
	for _, m := range order {
		specs = append(specs, registry[m])
	}
	return specs
}

// String implements fmt.Stringer.
func (m Mode) String() string { return string(m) }

// Label returns the human-readable label, or the raw value for an
// unregistered mode.
func (m Mode) Label() string {
	if spec, ok := registry[m]; ok {
		return spec.Label
	}
	return string(m)
}
