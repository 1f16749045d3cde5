// Package report persists end-of-run results: a machine-readable JSON file,
// a human-readable text report, and an optional Redis publication so
// dashboards can pick up the latest numbers for a run tag.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dscott-devops/chunky-loadgen/internal/metrics"
)

// RunResult is the full outcome of one load run.
type RunResult struct {
	Scenario  string           `json:"scenario"`
	RunTag    string           `json:"run_tag"`
	Users     int              `json:"users"`
	StartTime time.Time        `json:"start_time"`
	EndTime   time.Time        `json:"end_time"`
	Summary   metrics.Snapshot `json:"summary"`
}

// Writer saves run results under an output directory, one JSON file and one
// text report per run, timestamped so repeat runs never clobber each other.
type Writer struct {
	outputDir string
}

func NewWriter(outputDir string) *Writer {
	return &Writer{outputDir: outputDir}
}

// Save writes both report files and returns their paths.
func (w *Writer) Save(result *RunResult, rendered string) (jsonPath, textPath string, err error) {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := result.EndTime.Format("20060102_150405")
	jsonPath = filepath.Join(w.outputDir, fmt.Sprintf("%s_%s.json", result.Scenario, timestamp))
	textPath = filepath.Join(w.outputDir, fmt.Sprintf("%s_%s_report.txt", result.Scenario, timestamp))

	if err := w.saveJSON(jsonPath, result); err != nil {
		return "", "", err
	}
	if err := w.saveText(textPath, result, rendered); err != nil {
		return "", "", err
	}

	logrus.WithFields(logrus.Fields{
		"scenario":    result.Scenario,
		"json_file":   jsonPath,
		"report_file": textPath,
	}).Info("Run results saved")

	return jsonPath, textPath, nil
}

func (w *Writer) saveJSON(path string, result *RunResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func (w *Writer) saveText(path string, result *RunResult, rendered string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	fmt.Fprintf(file, "Load run report\n")
	fmt.Fprintf(file, "===============\n\n")
	fmt.Fprintf(file, "Scenario: %s\n", result.Scenario)
	fmt.Fprintf(file, "Run tag:  %s\n", result.RunTag)
	fmt.Fprintf(file, "Users:    %d\n", result.Users)
	fmt.Fprintf(file, "Window:   %s - %s (%s)\n\n",
		result.StartTime.Format(time.RFC3339),
		result.EndTime.Format(time.RFC3339),
		result.EndTime.Sub(result.StartTime).Round(time.Second))
	fmt.Fprint(file, rendered)
	return nil
}
