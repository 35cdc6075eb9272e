package eval

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
)

// WriteReport writes the report as indented JSON under dir and returns the
// file path. The filename carries the run timestamp so successive runs never
// overwrite each other.
func WriteReport(dir string, report *Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("eval_%s.json", report.Timestamp.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Summary prints a colorized run summary to w.
func Summary(w io.Writer, report *Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	cyan := color.New(color.FgCyan)

	bold.Fprintf(w, "\nEvaluación: %d consultas en %.1fs\n",
		report.NumQueries, report.TotalDurationSeconds)

	ok := report.NumQueries - report.Failed
	green.Fprintf(w, "  ✓ %d respondidas\n", ok)
	if report.Failed > 0 {
		red.Fprintf(w, "  ✗ %d fallidas\n", report.Failed)
	}

	if ok > 0 {
		s := report.Latency
		cyan.Fprintf(w, "  latencia: media %.0fms · mediana %.0fms · p95 %.0fms · máx %.0fms\n",
			s.MeanMS, s.MedianMS, s.P95MS, s.MaxMS)
	}
}
