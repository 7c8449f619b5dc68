// Package jobstore persists job records. Records are held in an in-memory
// map and, when a blob backend is configured, written through to the durable
// store so state survives process restarts. Memory is a read-through /
// write-through cache, never the sole source of truth when a durable backend
// exists.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"shortgen/internal/domain"
	"shortgen/internal/infra"
	"shortgen/internal/storage"
)

// Store implements the job persistence contract for the orchestration
// engine. Entries are keyed by job id and replaced wholesale on every write,
// so a concurrent reader never observes a torn record.
type Store struct {
	blobs  storage.BlobStore
	logger infra.Logger

	mu   sync.RWMutex
	jobs map[string]domain.Job
}

// New constructs a Store. blobs may be nil, in which case records live in
// memory only.
func New(blobs storage.BlobStore, logger infra.Logger) *Store {
	return &Store{
		blobs:  blobs,
		logger: logger,
		jobs:   make(map[string]domain.Job),
	}
}

// Durable reports whether a blob backend is configured. Callers use it to
// decide whether status polls should prefer the remote copy.
func (s *Store) Durable() bool {
	return s.blobs != nil
}

// Save upserts the full record in the memory cache and, if a durable backend
// is configured, to the blob store. The durable write failing is logged and
// non-fatal: the memory write always succeeds so local operation remains
// available even if durable persistence is transiently down.
func (s *Store) Save(ctx context.Context, job domain.Job) error {
	if job.ID == "" {
		return errors.New("jobstore: job id is required")
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	if s.blobs == nil {
		return nil
	}
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobstore: encode job: %w", err)
	}
	if _, err := s.blobs.Put(ctx, jobKey(job.ID), data); err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Msg("jobstore: durable write failed, serving from memory")
	}
	return nil
}

// Load returns the record for id, or domain.ErrNotFound. When preferRemote
// is false and a memory entry exists it is returned without a durable round
// trip. When preferRemote is true the durable copy is read first, tolerating
// the engine running as multiple replicas, and the memory copy is only a
// fallback on durable-read failure. Every successful durable read refreshes
// the cache.
func (s *Store) Load(ctx context.Context, id string, preferRemote bool) (domain.Job, error) {
	if id == "" {
		return domain.Job{}, domain.ErrNotFound
	}

	if !preferRemote {
		if job, ok := s.cached(id); ok {
			return job, nil
		}
	}

	if s.blobs != nil {
		job, err := s.loadRemote(ctx, id)
		switch {
		case err == nil:
			s.mu.Lock()
			s.jobs[id] = job
			s.mu.Unlock()
			return job, nil
		case errors.Is(err, domain.ErrNotFound):
			// Fall through to the memory copy: a durable write may have
			// failed earlier while the record is still cached.
		default:
			s.logger.Warn().Err(err).Str("job_id", id).Msg("jobstore: durable read failed, falling back to memory")
		}
	}

	if job, ok := s.cached(id); ok {
		return job, nil
	}
	return domain.Job{}, domain.ErrNotFound
}

func (s *Store) cached(id string) (domain.Job, bool) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	return job, ok
}

func (s *Store) loadRemote(ctx context.Context, id string) (domain.Job, error) {
	data, err := s.blobs.Get(ctx, jobKey(id))
	if err != nil {
		return domain.Job{}, err
	}
	var job domain.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return domain.Job{}, fmt.Errorf("jobstore: decode job: %w", err)
	}
	return job, nil
}

func jobKey(id string) string {
	return "jobs/" + id + ".json"
}
