// Package vector adapts a vector search service to the state QAP search
// used by unified queries.
//
// StateSearcher wraps any Service with a hard timeout and maps its hits to
// state_qap results. An absent, failing or slow service yields no results
// rather than an error. LocalService is a Service backed by the Badger state
// chunk store and an embedder. Telemetry and Benchmark measure search latency.
package vector
