package engine

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"graphchat/pkg/config"
)

// CLIEngine shells out to the graphrag query CLI against a local project
// directory. This mirrors running the retrieval library in-process over a
// pre-built knowledge base: the CLI reads the project's parquet outputs and
// prints the answer to stdout.
type CLIEngine struct {
	binary         string
	projectDir     string
	communityLevel int
	responseType   string
}

// NewCLIEngine creates a CLI-backed engine from config.
func NewCLIEngine(cfg config.EngineConfig) *CLIEngine {
	binary := cfg.Binary
	if binary == "" {
		binary = "graphrag"
	}
	responseType := cfg.ResponseType
	if responseType == "" {
		responseType = "Multiple Paragraphs"
	}
	return &CLIEngine{
		binary:         binary,
		projectDir:     cfg.ProjectDir,
		communityLevel: cfg.CommunityLevel,
		responseType:   responseType,
	}
}

// GlobalSearch implements Engine.
func (e *CLIEngine) GlobalSearch(ctx context.Context, query string) (*Result, error) {
	return e.run(ctx, "global", query)
}

// LocalSearch implements Engine.
func (e *CLIEngine) LocalSearch(ctx context.Context, query string) (*Result, error) {
	return e.run(ctx, "local", query)
}

// BasicSearch implements Engine.
func (e *CLIEngine) BasicSearch(ctx context.Context, query string) (*Result, error) {
	return e.run(ctx, "basic", query)
}

func (e *CLIEngine) run(ctx context.Context, method, query string) (*Result, error) {
	args := []string{
		"query",
		"--root", e.projectDir,
		"--method", method,
		"--response-type", e.responseType,
		"--query", query,
	}
	if method != "basic" {
		args = append(args, "--community-level", strconv.Itoa(e.communityLevel))
	}

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(stdout.String())
		}
		if detail != "" {
			return nil, fmt.Errorf("%s %s search: %w: %s", e.binary, method, err, detail)
		}
		return nil, fmt.Errorf("%s %s search: %w", e.binary, method, err)
	}

	answer := parseCLIAnswer(stdout.String())
	if answer == "" {
		return nil, ErrEmptyAnswer
	}
	// The CLI does not expose the retrieval context on stdout.
	return &Result{Answer: answer}, nil
}

// answerMarker precedes the answer text in graphrag CLI output, e.g.
// "SUCCESS: Global Search Response:".
const answerMarker = "Search Response:"

// parseCLIAnswer extracts the answer from CLI stdout. The CLI prints
// progress lines before the answer; everything after the response marker is
// the answer. Output without a marker is taken verbatim.
func parseCLIAnswer(out string) string {
	if idx := strings.Index(out, answerMarker); idx >= 0 {
		return strings.TrimSpace(out[idx+len(answerMarker):])
	}
	return strings.TrimSpace(out)
}
