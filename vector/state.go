// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/lihtcrag/core"
)

// DefaultTimeout bounds every call to the vector service.
const DefaultTimeout = 10 * time.Second

// StateSearcher runs state QAP queries against a vector search Service.
type StateSearcher struct {
	service   Service
	timeout   time.Duration
	telemetry Recorder
	logger    *slog.Logger
}

// Option configures a StateSearcher.
type Option func(*StateSearcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *StateSearcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithTimeout bounds each service call.
// Default is DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *StateSearcher) error {
		if timeout <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, timeout)
		}
		s.timeout = timeout
		return nil
	}
}

// WithTelemetry records the latency of every service call.
func WithTelemetry(telemetry Recorder) Option {
	return func(s *StateSearcher) error {
		s.telemetry = telemetry
		return nil
	}
}

// NewStateSearcher creates a StateSearcher. A nil service is allowed and
// makes every search return no results.
func NewStateSearcher(service Service, opts ...Option) (*StateSearcher, error) {
	s := &StateSearcher{
		service: service,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "vector")
	return s, nil
}

// Available reports whether a service is configured.
func (s *StateSearcher) Available() bool {
	return s.service != nil
}

// Telemetry returns the attached recorder, or nil.
func (s *StateSearcher) Telemetry() Recorder {
	return s.telemetry
}

type queryOutcome struct {
	hits []Hit
	err  error
}

// SearchStateSources returns up to limit state QAP results for query,
// optionally restricted to states. No similarity floor is applied.
// An absent service, a service error or panic, and a timeout all return no
// results. Hits without a state code are dropped.
func (s *StateSearcher) SearchStateSources(ctx context.Context, query string, states []string, limit int) []*core.Result {
	results := []*core.Result{}
	if s.service == nil {
		s.logger.Warn("vector service not configured; skipping state search")
		return results
	}
	if strings.TrimSpace(query) == "" {
		return results
	}

	req := QueryRequest{
		Query:               query,
		Limit:               limit,
		States:              core.NormalizeStateCodes(states),
		SimilarityThreshold: 0.0,
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan queryOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- queryOutcome{err: fmt.Errorf("%w: %v", ErrServicePanic, r)}
			}
		}()
		hits, err := s.service.Query(callCtx, req)
		done <- queryOutcome{hits: hits, err: err}
	}()

	var outcome queryOutcome
	select {
	case outcome = <-done:
	case <-callCtx.Done():
		outcome.err = callCtx.Err()
	}
	s.observe(time.Since(start), outcome.err)

	if outcome.err != nil {
		if errors.Is(outcome.err, context.DeadlineExceeded) {
			s.logger.Warn("vector service timed out", "timeout", s.timeout, "query", query)
		} else {
			s.logger.Warn("vector service query failed", "query", query, "err", outcome.err)
		}
		return results
	}

	for _, hit := range outcome.hits {
		if strings.TrimSpace(hit.Metadata.StateCode) == "" {
			s.logger.Warn("dropping vector hit without state code", "chunk_id", hit.ChunkID)
			continue
		}
		results = append(results, hitToResult(hit))
	}
	return results
}

// observe reports a call to telemetry. A failing recorder never affects the search.
func (s *StateSearcher) observe(latency time.Duration, err error) {
	if s.telemetry == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("telemetry recorder panicked", "panic", r)
		}
	}()
	s.telemetry.Observe(latency, err)
}

func hitToResult(hit Hit) *core.Result {
	stateCode := strings.ToUpper(hit.Metadata.StateCode)
	chunk := core.Chunk{
		ID:               hit.ChunkID,
		Content:          hit.Content,
		Source:           stateCode,
		SourceType:       core.SourceTypeQAP,
		AuthorityLevel:   core.AuthorityStateQAP,
		SectionReference: hit.Metadata.SectionReference,
		EffectiveDate:    core.ParseEffectiveDate(hit.Metadata.EffectiveDate),
		DocumentTitle:    hit.Metadata.DocumentTitle,
		Metadata: core.StateMetadata{
			StateCode:    stateCode,
			SectionTitle: hit.Metadata.SectionTitle,
			PageNumber:   hit.Metadata.PageNumber,
		},
	}
	if chunk.SectionReference == "" {
		chunk.SectionReference = hit.Metadata.SectionTitle
	}
	return core.NewResult(chunk, float64(hit.Score))
}
