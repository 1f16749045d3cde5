package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
)

func sampleResult() *RunResult {
	reg := metrics.NewRegistry()
	reg.Record(metrics.EndpointLatest, metrics.Sample{Status: 200, Total: 12 * time.Millisecond})
	reg.Record(metrics.EndpointLatest, metrics.Sample{Status: 500, Total: 30 * time.Millisecond})

	start := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	return &RunResult{
		Scenario:  "true-user",
		RunTag:    "run-abc",
		Users:     50,
		StartTime: start,
		EndTime:   start.Add(5 * time.Minute),
		Summary:   reg.Snapshot(),
	}
}

func TestSave_WritesJSONAndTextReport(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir)
	result := sampleResult()

	jsonPath, textPath, err := writer.Save(result, "rendered summary table\n")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "true-user_20260830_100500.json"), jsonPath)

	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var decoded RunResult
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "run-abc", decoded.RunTag)
	assert.Equal(t, int64(2), decoded.Summary.Endpoints["latest"].Requests)
	assert.Equal(t, int64(1), decoded.Summary.Endpoints["latest"].Failures)

	text, err := os.ReadFile(textPath)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Scenario: true-user")
	assert.Contains(t, string(text), "Run tag:  run-abc")
	assert.Contains(t, string(text), "rendered summary table")
}

func TestSave_CreatesOutputDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "results")
	writer := NewWriter(dir)

	_, _, err := writer.Save(sampleResult(), "")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "loadgen:summary:run-abc", SummaryKey("run-abc"))
}

func TestNewRedisSink_BadURL(t *testing.T) {
	_, err := NewRedisSink("not-a-redis-url")
	assert.Error(t, err)
}
