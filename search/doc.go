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


// Package search answers LIHTC research queries across federal and state sources.
//
// The Searcher type is the single entry point. A query runs through a fixed
// pipeline:
//   - Candidate gathering from the federal indexes (authority buckets) and,
//     when configured, the state QAP vector search
//   - Relevance scoring with a term-frequency measure
//   - Authority ranking on the fixed statutory > regulatory > guidance >
//     interpretive > state QAP hierarchy
//   - Conflict detection and resolution between state and federal sources
//     on the same section
//   - Final ordering by the requested ranking strategy and truncation
//
// Query paths never fail: missing indexes, an unavailable vector service and
// unknown parameters all degrade to smaller or empty results and a logged
// warning. Availability reports which data sources are actually present.
package search
