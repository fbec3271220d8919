package telemetry

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (*slog.Logger, *ParquetHandler, string) {
	t.Helper()
	dir := t.TempDir()
	next := slog.NewTextHandler(bytes.NewBuffer(nil), nil)
	h, err := NewParquetHandler(next, dir)
	require.NoError(t, err)
	return slog.New(h), h, dir
}

func readRecords(t *testing.T, dir string) []Record {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	var records []Record
	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".parquet") {
			continue
		}
		rows, err := parquet.ReadFile[Record](filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		records = append(records, rows...)
	}
	return records
}

func TestHandlerCapturesErrors(t *testing.T) {
	log, h, dir := newTestLogger(t)

	log.Error("Search failed", "session", "s1", "mode", "global", "detail", "engine down")
	log.Warn("Transcript append failed", "session", "s2")
	require.NoError(t, h.Flush())

	records := readRecords(t, dir)
	require.Len(t, records, 2)

	assert.Equal(t, "Search failed", records[0].Message)
	assert.Equal(t, "ERROR", records[0].Level)
	assert.Equal(t, "s1", records[0].Session)
	assert.Equal(t, "global", records[0].Mode)
	assert.Contains(t, records[0].Attributes, "engine down")
	assert.NotEmpty(t, records[0].ID)

	assert.Equal(t, "WARN", records[1].Level)
	assert.Equal(t, "s2", records[1].Session)
}

func TestHandlerIgnoresInfo(t *testing.T) {
	log, h, dir := newTestLogger(t)

	log.Info("Search completed", "mode", "local")
	require.NoError(t, h.Flush())

	assert.Empty(t, readRecords(t, dir))
}

func TestFlushEmptyBufferNoFile(t *testing.T) {
	_, h, dir := newTestLogger(t)

	require.NoError(t, h.Flush())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
