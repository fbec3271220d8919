package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/parquet-go/parquet-go"

	"graphchat/pkg/config"
	"graphchat/pkg/health"
)

type healthRow struct {
	ID string `parquet:"id"`
}

func newHealthRouter(t *testing.T, ready bool) *gin.Engine {
	t.Helper()

	dir := t.TempDir()
	if ready {
		if err := os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
		outputDir := filepath.Join(dir, "output")
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"entities.parquet", "communities.parquet", "community_reports.parquet", "text_units.parquet", "relationships.parquet"} {
			if err := parquet.WriteFile(filepath.Join(outputDir, name), []healthRow{{ID: "1"}}); err != nil {
				t.Fatal(err)
			}
		}
	}

	probe := health.New(config.EngineConfig{
		Kind:       config.EngineCLI,
		ProjectDir: dir,
		APIKey:     "key",
	}, quietLogger())
	h := NewHealthHandler(probe)

	router := gin.New()
	router.GET("/health", h.HealthCheck)
	router.GET("/live", h.LivenessCheck)
	return router
}

func TestHealthCheckReady(t *testing.T) {
	router := newHealthRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", body["status"])
	}
	if body["message"] != "GraphRAG is ready" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestHealthCheckNotReady(t *testing.T) {
	router := newHealthRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("expected status unhealthy, got %v", body["status"])
	}
	if body["message"] == "" || body["message"] == nil {
		t.Error("expected a reason in the message field")
	}
}

func TestLivenessCheck(t *testing.T) {
	router := newHealthRouter(t, false)

	req := httptest.NewRequest(http.MethodGet, "/live", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "alive" {
		t.Errorf("expected status alive, got %v", body["status"])
	}
	if body["service"] != "graphchat" {
		t.Errorf("expected service graphchat, got %v", body["service"])
	}
}
