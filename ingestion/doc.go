// Package ingestion imports state QAP chunks into the local vector store.
//
// The Importer reads chunk records, validates them, and groups them into
// batches that are processed concurrently on a worker pool. Chunks that
// arrive without a vector are embedded first; embedding calls are retried
// with exponential backoff. A batch that still fails is reported in the
// summary and does not stop the remaining batches.
package ingestion
