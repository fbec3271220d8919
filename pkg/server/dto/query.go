// Package dto defines the wire types of the chat API.
package dto

import (
	"errors"
	"strings"
)

// MaxQueryLength bounds a single question. Longer input is rejected
// before it reaches the engine.
const MaxQueryLength = 4000

var (
	ErrEmptyQuery   = errors.New("query field is required and cannot be empty")
	ErrQueryTooLong = errors.New("query is too long")
)

// QueryRequest is the body of POST /api/v1/query.
type QueryRequest struct {
	Query      string `json:"query"`
	SearchType string `json:"search_type"`
}

// Validate performs validation on QueryRequest. Search-type validation is
// left to the dispatcher, which owns the mode registry.
func (r *QueryRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return ErrEmptyQuery
	}
	if len(r.Query) > MaxQueryLength {
		return ErrQueryTooLong
	}
	return nil
}

// QueryResponse is the envelope returned for every query, success or not.
// Exactly one of Response and Error is populated.
type QueryResponse struct {
	Success    bool    `json:"success"`
	Response   string  `json:"response,omitempty"`
	Context    *string `json:"context,omitempty"`
	SearchType string  `json:"search_type"`
	Query      string  `json:"query"`
	Error      string  `json:"error,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string           `json:"status"`
	Message   string           `json:"message"`
	RowCounts map[string]int64 `json:"row_counts,omitempty"`
	Timestamp string           `json:"timestamp"`
}

// TranscriptEntry is one transcript turn as returned by the API.
type TranscriptEntry struct {
	ID        string  `json:"id"`
	Role      string  `json:"role"`
	Mode      string  `json:"mode,omitempty"`
	Text      string  `json:"text"`
	Context   *string `json:"context,omitempty"`
	Failed    bool    `json:"failed,omitempty"`
	CreatedAt string  `json:"created_at"`
}

// TranscriptResponse is the body of GET /api/v1/transcript.
type TranscriptResponse struct {
	SessionID string            `json:"session_id"`
	Entries   []TranscriptEntry `json:"entries"`
}

// SearchTypeInfo describes one registered search mode for the meta endpoint.
type SearchTypeInfo struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// MetaResponse is the body of GET /api/v1/meta: static UI content plus the
// registered search modes.
type MetaResponse struct {
	Title          string           `json:"title"`
	Subtitle       string           `json:"subtitle"`
	SearchTypes    []SearchTypeInfo `json:"search_types"`
	ExampleQueries []string         `json:"example_queries"`
	DataSources    []string         `json:"data_sources"`
}

// Result is a generic API result for simple endpoints.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
