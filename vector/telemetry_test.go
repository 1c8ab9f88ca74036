package vector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelemetry_Observe(t *testing.T) {
	tel := NewTelemetry()
	tel.Observe(30*time.Millisecond, nil)
	tel.Observe(10*time.Millisecond, errors.New("boom"))
	tel.Observe(20*time.Millisecond, nil)

	r := tel.Report()
	assert.Equal(t, 3, r.Calls)
	assert.Equal(t, 1, r.Errors)
	assert.Equal(t, 60*time.Millisecond, r.TotalLatency)
	assert.Equal(t, 10*time.Millisecond, r.MinLatency)
	assert.Equal(t, 30*time.Millisecond, r.MaxLatency)
	assert.Equal(t, 20*time.Millisecond, r.AvgLatency)
}

func TestTelemetry_Concurrent(t *testing.T) {
	tel := NewTelemetry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tel.Observe(time.Millisecond, nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, tel.Report().Calls)
}

func TestBenchmark(t *testing.T) {
	svc := serviceFunc(func(context.Context, QueryRequest) ([]Hit, error) {
		return sampleHits(), nil
	})

	t.Run("basic without telemetry", func(t *testing.T) {
		s, err := NewStateSearcher(svc)
		require.NoError(t, err)

		report := Benchmark(context.Background(), s, 2)
		assert.Equal(t, ModeBasic, report.Mode)
		assert.Nil(t, report.Telemetry)
		assert.Equal(t, 2*len(BenchmarkQueries), report.Queries)
		assert.NotEmpty(t, report.RunID)
		assert.LessOrEqual(t, report.MinLatency, report.MaxLatency)
	})

	t.Run("full with telemetry", func(t *testing.T) {
		tel := NewTelemetry()
		s, err := NewStateSearcher(svc, WithTelemetry(tel))
		require.NoError(t, err)

		report := Benchmark(context.Background(), s, 0)
		assert.Equal(t, ModeFull, report.Mode)
		assert.Equal(t, 1, report.Iterations)
		require.NotNil(t, report.Telemetry)
		assert.Equal(t, len(BenchmarkQueries), report.Telemetry.Calls)
	})

	t.Run("cancelled context stops early", func(t *testing.T) {
		s, err := NewStateSearcher(svc)
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report := Benchmark(ctx, s, 3)
		assert.Equal(t, 0, report.Queries)
		assert.Zero(t, report.Throughput)
	})
}
