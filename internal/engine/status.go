package engine

import (
	"context"
	"fmt"
	"strings"

	"shortgen/internal/domain"
)

// GetStatus resolves the client-facing status of a job. For a processing job
// with an operation handle it polls the backend operation and, on the first
// poll after completion, performs the single write that transitions the
// record into its terminal state. Polls that observe an unfinished operation
// mutate nothing. Concurrent pollers racing on the same completion write the
// same deterministic terminal values, so last-write-wins is safe.
func (e *Engine) GetStatus(ctx context.Context, jobID string) (domain.StatusSnapshot, error) {
	job, err := e.store.Load(ctx, jobID, e.store.Durable())
	if err != nil {
		return domain.StatusSnapshot{}, err
	}

	switch job.Status {
	case domain.JobStatusPending, domain.JobStatusQueued:
		return e.snapshot(job, domain.ClientStatusWaiting), nil

	case domain.JobStatusError:
		return e.snapshot(job, domain.ClientStatusError), nil

	case domain.JobStatusDone:
		return e.snapshot(job, domain.ClientStatusDone), nil

	case domain.JobStatusProcessing:
		if job.OperationHandle == "" {
			return e.snapshot(job, domain.ClientStatusWaiting), nil
		}
		return e.resolveOperation(ctx, job)

	default:
		// Fail open: an unrecognized stored status is an internal
		// inconsistency, not something to surface to the client.
		e.logger.Warn().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("engine: unknown stored status")
		return e.snapshot(job, domain.ClientStatusWaiting), nil
	}
}

func (e *Engine) resolveOperation(ctx context.Context, job domain.Job) (domain.StatusSnapshot, error) {
	op, err := e.backend.PollOperation(ctx, job.OperationHandle)
	if err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("engine: operation poll failed")
		return e.snapshot(job, domain.ClientStatusWaiting), nil
	}
	if !op.Done {
		return e.snapshot(job, domain.ClientStatusWaiting), nil
	}

	end := e.now().UTC()
	job.JobEndTime = &end
	job.OperationHandle = ""
	if op.Failure != "" {
		job.Status = domain.JobStatusError
		job.Error = op.Failure
	} else {
		job.Status = domain.JobStatusDone
		job.VideoRef = op.VideoURI
	}
	if err := e.store.Save(ctx, job); err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("engine: persist terminal state failed")
	}

	if job.Status == domain.JobStatusError {
		return e.snapshot(job, domain.ClientStatusError), nil
	}
	return e.snapshot(job, domain.ClientStatusDone), nil
}

// UpdateJob applies a merge-patch to a stored record. Unset patch fields are
// left untouched and job_start_time is never overwritten.
func (e *Engine) UpdateJob(ctx context.Context, jobID string, patch domain.JobPatch) error {
	job, err := e.store.Load(ctx, jobID, e.store.Durable())
	if err != nil {
		return err
	}
	if patch.Status != nil {
		job.Status = *patch.Status
	}
	if patch.OperationHandle != nil {
		job.OperationHandle = *patch.OperationHandle
	}
	if patch.VideoRef != nil {
		job.VideoRef = *patch.VideoRef
	}
	if patch.Error != nil {
		job.Error = *patch.Error
	}
	if patch.JobEndTime != nil {
		job.JobEndTime = patch.JobEndTime
	}
	if err := e.store.Save(ctx, job); err != nil {
		return fmt.Errorf("engine: persist patched job: %w", err)
	}
	return nil
}

func (e *Engine) snapshot(job domain.Job, status domain.ClientStatus) domain.StatusSnapshot {
	snap := domain.StatusSnapshot{
		Status:       status,
		Title:        job.Title,
		Outcome:      job.Outcome,
		JobStartTime: job.JobStartTime,
		JobEndTime:   job.JobEndTime,
	}
	if e.blobs != nil {
		for _, ref := range job.FrameRefs {
			snap.FrameURLs = append(snap.FrameURLs, e.blobs.PublicURL(ref))
		}
	}
	switch status {
	case domain.ClientStatusDone:
		snap.VideoURL = e.deriveVideoURL(job.VideoRef)
	case domain.ClientStatusError:
		snap.Error = job.Error
	}
	return snap
}

// deriveVideoURL maps the stored raw video reference to a client-facing
// URL. Deriving at read time keeps the rule changeable without a data
// migration.
func (e *Engine) deriveVideoURL(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "gs://") {
		return "https://storage.googleapis.com/" + strings.TrimPrefix(ref, "gs://")
	}
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if e.blobs != nil {
		return e.blobs.PublicURL(ref)
	}
	return ref
}
