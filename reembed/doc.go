// Package reembed regenerates the embeddings of stored state QAP chunks,
// typically after switching to a new embedding model.
//
// Chunks are read from the state chunk store in batches, embedded with
// retry and exponential backoff, normalized to unit length and written
// back. Progress is reported while the run is in flight.
package reembed
