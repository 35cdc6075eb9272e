package eval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/kineticguard/kinetic/internal/log"
)

// fakeAnswerer answers from a canned map and tracks how many queries were
// in flight at once.
type fakeAnswerer struct {
	mu       sync.Mutex
	inFlight int
	maxSeen  int

	delay   time.Duration
	answers map[string]Answer
	errs    map[string]error
}

func (f *fakeAnswerer) Answer(ctx context.Context, query string) (Answer, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxSeen {
		f.maxSeen = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Answer{}, ctx.Err()
		}
	}
	if err, ok := f.errs[query]; ok {
		return Answer{}, err
	}
	if a, ok := f.answers[query]; ok {
		return a, nil
	}
	return Answer{Text: "respuesta: " + query}, nil
}

func TestNewRunner_Validation(t *testing.T) {
	if _, err := NewRunner(nil, 1, log.NewNop()); err == nil {
		t.Error("expected error for nil answerer")
	}
	if _, err := NewRunner(&fakeAnswerer{}, 1, nil); err == nil {
		t.Error("expected error for nil logger")
	}

	r, err := NewRunner(&fakeAnswerer{}, 0, log.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if r.parallelism != 1 {
		t.Errorf("parallelism = %d, want clamp to 1", r.parallelism)
	}
}

func TestRunner_Run_PreservesOrder(t *testing.T) {
	answerer := &fakeAnswerer{
		answers: map[string]Answer{
			"q1": {Text: "a1", Contexts: []string{"c1"}},
			"q2": {Text: "a2"},
			"q3": {Text: "a3", Contexts: []string{"c3a", "c3b"}},
		},
		delay: time.Millisecond,
	}
	r, err := NewRunner(answerer, 4, log.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	report, err := r.Run(context.Background(), []string{"q1", "q2", "q3"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.NumQueries != 3 {
		t.Errorf("NumQueries = %d, want 3", report.NumQueries)
	}
	if report.Failed != 0 {
		t.Errorf("Failed = %d, want 0", report.Failed)
	}
	for i, wantQuery := range []string{"q1", "q2", "q3"} {
		rec := report.Records[i]
		if rec.Index != i || rec.Query != wantQuery {
			t.Errorf("record %d = {index %d, query %q}, want {index %d, query %q}",
				i, rec.Index, rec.Query, i, wantQuery)
		}
	}
	if report.Records[2].Answer != "a3" || len(report.Records[2].Contexts) != 2 {
		t.Errorf("record 2 = %+v, want answer a3 with 2 contexts", report.Records[2])
	}
}

func TestRunner_Run_FailureIsRecordedNotFatal(t *testing.T) {
	answerer := &fakeAnswerer{
		errs: map[string]error{"q2": errors.New("model unavailable")},
	}
	r, err := NewRunner(answerer, 1, log.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	report, err := r.Run(context.Background(), []string{"q1", "q2", "q3"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Failed != 1 {
		t.Errorf("Failed = %d, want 1", report.Failed)
	}
	if report.Records[1].Error != "model unavailable" {
		t.Errorf("record 1 error = %q, want model unavailable", report.Records[1].Error)
	}
	if report.Records[0].Error != "" || report.Records[2].Error != "" {
		t.Error("neighboring records should have succeeded")
	}
}

func TestRunner_Run_BoundedParallelism(t *testing.T) {
	answerer := &fakeAnswerer{delay: 10 * time.Millisecond}
	r, err := NewRunner(answerer, 2, log.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	queries := make([]string, 8)
	for i := range queries {
		queries[i] = fmt.Sprintf("q%d", i)
	}
	if _, err := r.Run(context.Background(), queries); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if answerer.maxSeen > 2 {
		t.Errorf("max in-flight = %d, want <= 2", answerer.maxSeen)
	}
}

func TestRunner_Run_EmptyQueries(t *testing.T) {
	r, err := NewRunner(&fakeAnswerer{}, 1, log.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if _, err := r.Run(context.Background(), nil); !errors.Is(err, ErrNoQueries) {
		t.Errorf("err = %v, want ErrNoQueries", err)
	}
}

func TestRunner_Run_ContextCancel(t *testing.T) {
	answerer := &fakeAnswerer{delay: time.Second}
	r, err := NewRunner(answerer, 1, log.NewNop())
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := r.Run(ctx, []string{"q1", "q2"}); err == nil {
		t.Error("expected error after context cancellation")
	}
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name      string
		latencies []float64
		want      LatencyStats
	}{
		{
			name: "empty",
		},
		{
			name:      "single",
			latencies: []float64{40},
			want:      LatencyStats{MeanMS: 40, MedianMS: 40, MinMS: 40, MaxMS: 40, P95MS: 40},
		},
		{
			name:      "unsorted input",
			latencies: []float64{30, 10, 20, 40, 50},
			want:      LatencyStats{MeanMS: 30, MedianMS: 30, MinMS: 10, MaxMS: 50, P95MS: 50},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := computeStats(tt.latencies)
			if got != tt.want {
				t.Errorf("computeStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestLoadQueries(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	t.Run("wrapper object", func(t *testing.T) {
		path := write("wrapper.json", `{"queries": ["pregunta uno", {"query": "pregunta dos"}]}`)
		got, err := LoadQueries(path)
		if err != nil {
			t.Fatalf("LoadQueries: %v", err)
		}
		if len(got) != 2 || got[0] != "pregunta uno" || got[1] != "pregunta dos" {
			t.Errorf("queries = %v", got)
		}
	})

	t.Run("bare array", func(t *testing.T) {
		path := write("bare.json", `["una", "otra"]`)
		got, err := LoadQueries(path)
		if err != nil {
			t.Fatalf("LoadQueries: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d queries, want 2", len(got))
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadQueries(filepath.Join(dir, "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := write("bad.json", `{"queries": [`)
		if _, err := LoadQueries(path); err == nil {
			t.Error("expected error for malformed file")
		}
	})

	t.Run("empty set", func(t *testing.T) {
		path := write("empty.json", `{"queries": []}`)
		if _, err := LoadQueries(path); !errors.Is(err, ErrNoQueries) {
			t.Errorf("err = %v, want ErrNoQueries", err)
		}
	})

	t.Run("blank entry", func(t *testing.T) {
		path := write("blank.json", `["valida", "  "]`)
		if _, err := LoadQueries(path); err == nil {
			t.Error("expected error for blank query")
		}
	})
}

func TestWriteReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	report := &Report{
		Timestamp:  time.Date(2026, 8, 30, 10, 30, 0, 0, time.UTC),
		NumQueries: 2,
		Records: []Record{
			{Index: 0, Query: "q1", Answer: "a1", LatencyMS: 120},
			{Index: 1, Query: "q2", Error: "boom", LatencyMS: 80},
		},
	}

	path, err := WriteReport(dir, report)
	if err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if filepath.Base(path) != "eval_20260830_103000.json" {
		t.Errorf("report filename = %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var got Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}
	if got.NumQueries != 2 || len(got.Records) != 2 || got.Records[1].Error != "boom" {
		t.Errorf("round-tripped report = %+v", got)
	}
}

func TestSummary(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	report := &Report{
		NumQueries:           3,
		Failed:               1,
		TotalDurationSeconds: 1.5,
		Latency:              LatencyStats{MeanMS: 120, MedianMS: 110, P95MS: 200, MaxMS: 210},
	}

	var buf bytes.Buffer
	Summary(&buf, report)

	out := buf.String()
	for _, want := range []string{"3 consultas", "2 respondidas", "1 fallidas", "p95 200ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
