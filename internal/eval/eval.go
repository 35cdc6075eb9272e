// Package eval replays a set of coach queries through the assistant pipeline
// and produces a JSON report with per-query records and latency statistics.
// The harness is offline tooling: it never runs as part of a chat session.
package eval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kineticguard/kinetic/internal/log"
)

var tracer = otel.Tracer("github.com/kineticguard/kinetic/internal/eval")

// ErrNoQueries is returned when a run is requested with an empty query set.
var ErrNoQueries = errors.New("eval: no queries to run")

// Answer is what the pipeline produced for one query.
type Answer struct {
	Text     string
	Contexts []string
}

// Answerer runs one query through the full pipeline. The chat assistant
// satisfies this through a small adapter in cmd.
type Answerer interface {
	Answer(ctx context.Context, query string) (Answer, error)
}

// Record is the per-query entry in the report. Records keep the position of
// their query in the input file regardless of completion order.
type Record struct {
	Index     int      `json:"index"`
	Query     string   `json:"query"`
	Answer    string   `json:"answer"`
	Contexts  []string `json:"contexts"`
	LatencyMS int64    `json:"latency_ms"`
	Error     string   `json:"error,omitempty"`
}

// LatencyStats summarizes answer latencies across the successful records.
type LatencyStats struct {
	MeanMS   float64 `json:"mean_ms"`
	MedianMS float64 `json:"median_ms"`
	MinMS    float64 `json:"min_ms"`
	MaxMS    float64 `json:"max_ms"`
	P95MS    float64 `json:"p95_ms"`
}

// Report is the complete output of one evaluation run.
type Report struct {
	RunID                uuid.UUID    `json:"run_id"`
	Timestamp            time.Time    `json:"timestamp"`
	NumQueries           int          `json:"num_queries"`
	Failed               int          `json:"failed"`
	TotalDurationSeconds float64      `json:"total_duration_seconds"`
	Latency              LatencyStats `json:"latency"`
	Records              []Record     `json:"records"`
}

// Runner replays queries with bounded parallelism.
type Runner struct {
	answerer    Answerer
	parallelism int
	logger      log.Logger
}

// NewRunner creates a runner. Parallelism below 1 falls back to sequential.
func NewRunner(answerer Answerer, parallelism int, logger log.Logger) (*Runner, error) {
	if answerer == nil {
		return nil, errors.New("eval: answerer is required")
	}
	if logger == nil {
		return nil, errors.New("eval: logger is required")
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{answerer: answerer, parallelism: parallelism, logger: logger}, nil
}

// Run replays every query and collects the records in input order. A query
// that fails is recorded with its error and does not abort the run; only
// context cancellation stops it early.
func (r *Runner) Run(ctx context.Context, queries []string) (*Report, error) {
	if len(queries) == 0 {
		return nil, ErrNoQueries
	}

	start := time.Now()
	records := make([]Record, len(queries))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)

	for i, query := range queries {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			qCtx, span := tracer.Start(gCtx, "eval.query",
				trace.WithAttributes(attribute.Int("query.index", i)))

			queryStart := time.Now()
			answer, err := r.answerer.Answer(qCtx, query)
			latency := time.Since(queryStart)

			if err != nil {
				span.RecordError(err)
			}
			span.End()

			rec := Record{
				Index:     i,
				Query:     query,
				LatencyMS: latency.Milliseconds(),
			}
			if err != nil {
				if gCtx.Err() != nil {
					return gCtx.Err()
				}
				rec.Error = err.Error()
				r.logger.Warn("eval query failed", "index", i, "error", err)
			} else {
				rec.Answer = answer.Text
				rec.Contexts = answer.Contexts
			}
			records[i] = rec

			r.logger.Debug("eval query done",
				"index", i,
				"latency_ms", latency.Milliseconds(),
				"contexts", len(rec.Contexts))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("eval run aborted: %w", err)
	}

	report := &Report{
		RunID:                uuid.New(),
		Timestamp:            start,
		NumQueries:           len(queries),
		TotalDurationSeconds: time.Since(start).Seconds(),
		Records:              records,
	}

	var latencies []float64
	for _, rec := range records {
		if rec.Error != "" {
			report.Failed++
			continue
		}
		latencies = append(latencies, float64(rec.LatencyMS))
	}
	report.Latency = computeStats(latencies)

	return report, nil
}

// computeStats returns latency statistics over the successful queries.
// An empty input yields the zero value.
func computeStats(latencies []float64) LatencyStats {
	n := len(latencies)
	if n == 0 {
		return LatencyStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, latencies)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}

	return LatencyStats{
		MeanMS:   sum / float64(n),
		MedianMS: percentile(sorted, 0.50),
		MinMS:    sorted[0],
		MaxMS:    sorted[n-1],
		P95MS:    percentile(sorted, 0.95),
	}
}

// percentile uses the nearest-rank method over an ascending slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}
