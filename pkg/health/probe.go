// Package health reports whether the retrieval engine's backing project is
// usable. The probe is best-effort and total: it never panics, and every
// failure it finds is reported as data, not raised.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"graphchat/pkg/config"
)

// requiredArtifacts are the index outputs a query run cannot work without.
var requiredArtifacts = []string{
	"entities.parquet",
	"communities.parquet",
	"community_reports.parquet",
	"text_units.parquet",
	"relationships.parquet",
}

// Status is the outcome of one probe run.
type Status struct {
	Healthy bool
	// Message is a short human-readable summary suitable for the API.
	Message string
	// Problems lists every check that failed, in check order.
	Problems []string
	// RowCounts maps artifact name to row count for readable files.
	RowCounts map[string]int64
}

// Probe inspects the engine project on demand.
type Probe struct {
	cfg config.EngineConfig
	log *slog.Logger
}

// New creates a probe for the configured engine project.
func New(cfg config.EngineConfig, log *slog.Logger) *Probe {
	if log == nil {
		log = slog.Default()
	}
	return &Probe{cfg: cfg, log: log}
}

// Check runs all probe checks and returns the aggregate status. It always
// returns a usable Status, regardless of what it finds on disk.
func (p *Probe) Check(ctx context.Context) Status {
	status := Status{RowCounts: make(map[string]int64)}

	if p.cfg.Kind == config.EngineHTTP {
		// A remote engine owns its own data files. Reachability is the
		// dispatcher's concern, so configuration is all we can verify.
		if p.cfg.BaseURL == "" {
			status.Problems = append(status.Problems, "engine base URL is not configured")
		}
	} else {
		p.checkProject(&status)
	}

	if p.cfg.APIKey == "" && os.Getenv("GRAPHRAG_API_KEY") == "" {
		status.Problems = append(status.Problems, "GRAPHRAG_API_KEY is not set")
	}

	if ctx.Err() != nil {
		status.Problems = append(status.Problems, "health check interrupted")
	}

	status.Healthy = len(status.Problems) == 0
	if status.Healthy {
		status.Message = "GraphRAG is ready"
	} else {
		status.Message = strings.Join(status.Problems, "; ")
		p.log.Warn("Health probe found problems", "count", len(status.Problems))
	}
	return status
}

// checkProject verifies the local project layout: settings file, output
// directory, and each required parquet artifact.
func (p *Probe) checkProject(status *Status) {
	settings := p.cfg.SettingsFile()
	if _, err := os.Stat(settings); err != nil {
		status.Problems = append(status.Problems, fmt.Sprintf("settings file missing: %s", settings))
	}

	outputDir := p.cfg.OutputDir()
	if info, err := os.Stat(outputDir); err != nil || !info.IsDir() {
		status.Problems = append(status.Problems, fmt.Sprintf("output directory missing: %s", outputDir))
		return
	}

	for _, name := range requiredArtifacts {
		path := filepath.Join(outputDir, name)
		rows, err := parquetRowCount(path)
		if err != nil {
			status.Problems = append(status.Problems, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		status.RowCounts[name] = rows
		if rows == 0 {
			status.Problems = append(status.Problems, fmt.Sprintf("%s is empty", name))
		}
	}
}

// parquetRowCount opens the file as parquet and returns its row count. A
// file that exists but is not valid parquet counts as a failure.
func parquetRowCount(path string) (rows int64, err error) {
	// The parquet reader can panic on truncated footers. The probe must
	// survive any file contents.
	defer func() {
		if r := recover(); r != nil {
			rows, err = 0, fmt.Errorf("unreadable parquet file")
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("file missing")
		}
		return 0, fmt.Errorf("cannot open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("cannot stat: %w", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return 0, fmt.Errorf("not a readable parquet file")
	}
	return pf.NumRows(), nil
}
