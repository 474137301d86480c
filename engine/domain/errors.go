package domain

import "errors"

// Sentinel errors for the indexing and retrieval paths.
var (
	// ErrSourceNotFound means the corpus file is absent.
	ErrSourceNotFound = errors.New("knowledge source not found")
	// ErrSourceSchema means the corpus header lacks a required column.
	ErrSourceSchema = errors.New("knowledge source schema invalid")
	// ErrInvalidRecord marks a single malformed row. Rows failing
	// validation are skipped during load, never fatal to the batch.
	ErrInvalidRecord = errors.New("invalid knowledge record")
	// ErrEmptyCorpus means a rebuild found no valid records to index.
	ErrEmptyCorpus = errors.New("knowledge corpus is empty")
	// ErrEmbeddingUnavailable means the embedding model cannot be
	// reached. Fatal to whichever operation needed the vector.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")
	// ErrIndexWrite means an upsert into the vector store failed.
	// Partial batch failure is treated as whole-batch failure.
	ErrIndexWrite = errors.New("vector index write failed")
	// ErrIndexQuery means a similarity search failed.
	ErrIndexQuery = errors.New("vector index query failed")
	// ErrDeliveryFailed means the reply could not be sent into the
	// conversation. Logged, not retried.
	ErrDeliveryFailed = errors.New("reply delivery failed")
)
