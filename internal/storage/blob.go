// Package storage provides the blob persistence backends consumed by the job
// store and the generation pipeline: a filesystem store for development and
// test environments, and a Google Cloud Storage store for production.
package storage

import "context"

// BlobStore is the contract the orchestration engine consumes. Keys follow a
// deterministic per-job scheme: job records under jobs/<job_id>.json and
// intermediate frames under images/<job_id>/frame-<n>.png.
type BlobStore interface {
	// Put persists data at key and returns the canonicalized key.
	Put(ctx context.Context, key string, data []byte) (string, error)
	// Get returns the bytes stored at key, or domain.ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// PublicURL derives the client-facing URL for a stored key.
	PublicURL(key string) string
}
