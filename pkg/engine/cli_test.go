package engine

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"graphchat/pkg/config"
)

func TestParseCLIAnswer(t *testing.T) {
	t.Parallel()

	t.Run("strips progress lines before marker", func(t *testing.T) {
		out := "creating llm client\n" +
			"SUCCESS: Global Search Response:\n" +
			"Ireland offers several housing schemes.\n"
		got := parseCLIAnswer(out)
		if got != "Ireland offers several housing schemes." {
			t.Errorf("unexpected answer: %q", got)
		}
	})

	t.Run("falls back to whole output without marker", func(t *testing.T) {
		got := parseCLIAnswer("  plain answer text \n")
		if got != "plain answer text" {
			t.Errorf("unexpected answer: %q", got)
		}
	})

	t.Run("empty output", func(t *testing.T) {
		if got := parseCLIAnswer("   \n"); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})
}

// writeStubBinary writes an executable shell script that stands in for the
// graphrag CLI.
func writeStubBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub binary test requires a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "graphrag")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCLIEngineSuccess(t *testing.T) {
	binary := writeStubBinary(t, `echo "SUCCESS: Basic Search Response:"
echo "The First Home Scheme is a shared equity scheme."`)

	e := NewCLIEngine(config.EngineConfig{
		Binary:         binary,
		ProjectDir:     "/tmp/project",
		CommunityLevel: 2,
	})

	res, err := e.BasicSearch(context.Background(), "What is the First Home Scheme?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Answer, "shared equity scheme") {
		t.Errorf("unexpected answer: %q", res.Answer)
	}
	if res.Context != "" {
		t.Errorf("CLI engine should not produce context, got %q", res.Context)
	}
}

func TestCLIEngineFailureCarriesStderr(t *testing.T) {
	binary := writeStubBinary(t, `echo "FileNotFoundError: entities.parquet" >&2
exit 1`)

	e := NewCLIEngine(config.EngineConfig{Binary: binary, ProjectDir: "/tmp/project"})

	_, err := e.GlobalSearch(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "entities.parquet") {
		t.Errorf("expected stderr detail in error, got %v", err)
	}
}

func TestCLIEngineEmptyAnswer(t *testing.T) {
	binary := writeStubBinary(t, `echo ""`)

	e := NewCLIEngine(config.EngineConfig{Binary: binary, ProjectDir: "/tmp/project"})

	_, err := e.LocalSearch(context.Background(), "anything")
	if err != ErrEmptyAnswer {
		t.Fatalf("expected ErrEmptyAnswer, got %v", err)
	}
}

func TestCLIEngineHonorsContextCancellation(t *testing.T) {
	binary := writeStubBinary(t, `sleep 10`)

	e := NewCLIEngine(config.EngineConfig{Binary: binary, ProjectDir: "/tmp/project"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.GlobalSearch(ctx, "anything")
	if err != context.DeadlineExceeded {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Error("cancellation did not interrupt the subprocess")
	}
}
