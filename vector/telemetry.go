package vector

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Recorder receives the outcome of each vector service call.
type Recorder interface {
	Observe(latency time.Duration, err error)
	Report() TelemetryReport
}

// TelemetryReport is a snapshot of recorded calls.
type TelemetryReport struct {
	Calls        int           `json:"calls"`
	Errors       int           `json:"errors"`
	TotalLatency time.Duration `json:"total_latency"`
	MinLatency   time.Duration `json:"min_latency"`
	MaxLatency   time.Duration `json:"max_latency"`
	AvgLatency   time.Duration `json:"avg_latency"`
}

// Telemetry is the default Recorder. It is safe for concurrent use.
type Telemetry struct {
	mu     sync.Mutex
	report TelemetryReport
}

var _ Recorder = (*Telemetry)(nil)

// NewTelemetry creates an empty recorder.
func NewTelemetry() *Telemetry {
	return &Telemetry{}
}

// Observe records one call.
func (t *Telemetry) Observe(latency time.Duration, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r := &t.report
	r.Calls++
	if err != nil {
		r.Errors++
	}
	r.TotalLatency += latency
	if r.Calls == 1 || latency < r.MinLatency {
		r.MinLatency = latency
	}
	if latency > r.MaxLatency {
		r.MaxLatency = latency
	}
	r.AvgLatency = r.TotalLatency / time.Duration(r.Calls)
}

// Report returns the current totals.
func (t *Telemetry) Report() TelemetryReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.report
}

// Benchmark modes.
const (
	ModeFull  = "full"
	ModeBasic = "basic"
)

// BenchmarkQueries is the fixed battery issued by Benchmark.
var BenchmarkQueries = []string{
	"income limits",
	"minimum set-aside",
	"qualified basis calculation",
	"compliance monitoring",
	"tie breaker scoring",
	"extended use agreement",
}

// BenchmarkReport summarizes a benchmark run.
// Telemetry is set only in full mode.
type BenchmarkReport struct {
	RunID      string           `json:"run_id"`
	Mode       string           `json:"mode"`
	Iterations int              `json:"iterations"`
	Queries    int              `json:"queries"`
	MinLatency time.Duration    `json:"min_latency"`
	AvgLatency time.Duration    `json:"avg_latency"`
	MaxLatency time.Duration    `json:"max_latency"`
	Elapsed    time.Duration    `json:"elapsed"`
	Throughput float64          `json:"throughput_qps"`
	Telemetry  *TelemetryReport `json:"telemetry,omitempty"`
}

// Benchmark issues every query in BenchmarkQueries iterations times and
// times each search. The run stops early when ctx is done.
func Benchmark(ctx context.Context, searcher *StateSearcher, iterations int) BenchmarkReport {
	if iterations < 1 {
		iterations = 1
	}
	report := BenchmarkReport{
		RunID:      uuid.NewString(),
		Mode:       ModeBasic,
		Iterations: iterations,
	}

	start := time.Now()
run:
	for i := 0; i < iterations; i++ {
		for _, query := range BenchmarkQueries {
			if ctx.Err() != nil {
				break run
			}
			qStart := time.Now()
			searcher.SearchStateSources(ctx, query, nil, 5)
			latency := time.Since(qStart)

			if report.Queries == 0 || latency < report.MinLatency {
				report.MinLatency = latency
			}
			if latency > report.MaxLatency {
				report.MaxLatency = latency
			}
			report.Queries++
		}
	}
	report.Elapsed = time.Since(start)

	if report.Queries > 0 {
		report.AvgLatency = report.Elapsed / time.Duration(report.Queries)
		if secs := report.Elapsed.Seconds(); secs > 0 {
			report.Throughput = float64(report.Queries) / secs
		}
	}
	if t := searcher.Telemetry(); t != nil {
		snapshot := t.Report()
		report.Mode = ModeFull
		report.Telemetry = &snapshot
	}
	return report
}
