package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"graphchat/pkg/config"
)

// HTTPEngine queries a remote GraphRAG query service over JSON. The remote
// service wraps the retrieval library behind a single query endpoint:
//
//	POST {base}/api/query
//	{"query": ..., "method": "global"|"local"|"basic",
//	 "community_level": N, "response_type": ...}
//	-> {"response": ..., "context": ...} | {"error": ...}
type HTTPEngine struct {
	baseURL        string
	apiKey         string
	communityLevel int
	responseType   string
	client         *http.Client
}

// NewHTTPEngine creates an HTTP-backed engine from config.
func NewHTTPEngine(cfg config.EngineConfig) *HTTPEngine {
	responseType := cfg.ResponseType
	if responseType == "" {
		responseType = "Multiple Paragraphs"
	}
	return &HTTPEngine{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		communityLevel: cfg.CommunityLevel,
		responseType:   responseType,
		// No client timeout: the dispatcher owns the deadline via ctx.
		client: &http.Client{},
	}
}

type queryPayload struct {
	Query          string `json:"query"`
	Method         string `json:"method"`
	CommunityLevel int    `json:"community_level,omitempty"`
	ResponseType   string `json:"response_type"`
}

type queryReply struct {
	Response string `json:"response"`
	Context  string `json:"context"`
	Error    string `json:"error"`
}

// GlobalSearch implements Engine.
func (e *HTTPEngine) GlobalSearch(ctx context.Context, query string) (*Result, error) {
	return e.post(ctx, "global", query)
}

// LocalSearch implements Engine.
func (e *HTTPEngine) LocalSearch(ctx context.Context, query string) (*Result, error) {
	return e.post(ctx, "local", query)
}

// BasicSearch implements Engine.
func (e *HTTPEngine) BasicSearch(ctx context.Context, query string) (*Result, error) {
	return e.post(ctx, "basic", query)
}

func (e *HTTPEngine) post(ctx context.Context, method, query string) (*Result, error) {
	payload := queryPayload{
		Query:        query,
		Method:       method,
		ResponseType: e.responseType,
	}
	if method != "basic" {
		payload.CommunityLevel = e.communityLevel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s search request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/query", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s search request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s search response: %w", method, err)
	}

	var reply queryReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("malformed %s search response: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := reply.Error
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, fmt.Errorf("%s search failed with status %d: %s", method, resp.StatusCode, msg)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%s search failed: %s", method, reply.Error)
	}
	if strings.TrimSpace(reply.Response) == "" {
		return nil, ErrEmptyAnswer
	}

	return &Result{Answer: reply.Response, Context: reply.Context}, nil
}

// WithClient replaces the underlying HTTP client, mainly for tests and for
// callers that need custom transport settings.
func (e *HTTPEngine) WithClient(c *http.Client) *HTTPEngine {
	if c != nil {
		e.client = c
	}
	return e
}
