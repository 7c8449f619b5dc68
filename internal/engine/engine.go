// Package engine orchestrates video-generation jobs: it creates and
// persists job records, dispatches work to a queue backend, runs the
// generation pipeline, and resolves client-facing status snapshots.
package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"shortgen/internal/domain"
	"shortgen/internal/infra"
	"shortgen/internal/jobstore"
	"shortgen/internal/prompt"
	"shortgen/internal/providers/genai"
	"shortgen/internal/queue"
	"shortgen/internal/storage"
)

const (
	defaultDurationSeconds = 6
	minDurationSeconds     = 4
	maxDurationSeconds     = 8

	referenceFetchTimeout = 10 * time.Second
	maxReferenceBytes     = 8 << 20
)

// Backend is the slice of the generative-media client the engine consumes.
type Backend interface {
	GenerateImage(ctx context.Context, req genai.ImageRequest) ([]byte, error)
	StartVideo(ctx context.Context, req genai.VideoRequest) (string, error)
	PollOperation(ctx context.Context, handle string) (genai.Operation, error)
}

// Options wires the engine's collaborators.
type Options struct {
	Store   *jobstore.Store
	Blobs   storage.BlobStore // intermediate frame storage; may be nil
	Backend Backend
	Logger  infra.Logger
	// FetchClient downloads reference images. A short-timeout default is
	// used when nil.
	FetchClient *http.Client
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Engine is the job orchestration facade.
type Engine struct {
	store      *jobstore.Store
	blobs      storage.BlobStore
	backend    Backend
	dispatcher queue.Dispatcher
	logger     infra.Logger
	fetch      *http.Client
	now        func() time.Time
}

// New constructs an Engine. The dispatcher is attached separately via
// UseDispatcher because the local dispatch backend needs the engine's
// ProcessJob as its runner.
func New(opts Options) *Engine {
	fetch := opts.FetchClient
	if fetch == nil {
		fetch = &http.Client{Timeout: referenceFetchTimeout}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:   opts.Store,
		blobs:   opts.Blobs,
		backend: opts.Backend,
		logger:  opts.Logger,
		fetch:   fetch,
		now:     now,
	}
}

// UseDispatcher attaches the dispatch backend selected at startup.
func (e *Engine) UseDispatcher(d queue.Dispatcher) {
	e.dispatcher = d
}

// CreateJob validates the brief, persists the pending record and enqueues
// the work. It never fails due to downstream backend issues: pipeline
// failures surface later via polling. The returned id is the store key and
// queue correlation token.
func (e *Engine) CreateJob(ctx context.Context, brief domain.Brief) (string, error) {
	brief, err := normalizeBrief(brief)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	job := domain.Job{
		ID:              id,
		Status:          domain.JobStatusPending,
		Title:           brief.Title,
		Outcome:         brief.Outcome,
		ReferenceLink:   brief.ReferenceLink,
		DurationSeconds: brief.DurationSeconds,
		JobStartTime:    e.now().UTC(),
	}
	if err := e.store.Save(ctx, job); err != nil {
		return "", fmt.Errorf("engine: persist job: %w", err)
	}

	payload := queue.Payload{
		JobID:           id,
		Title:           brief.Title,
		Outcome:         brief.Outcome,
		ReferenceLink:   brief.ReferenceLink,
		DurationSeconds: brief.DurationSeconds,
	}
	if e.dispatcher == nil {
		e.logger.Warn().Str("job_id", id).Msg("engine: no dispatcher attached, job stays pending")
		return id, nil
	}
	if err := e.dispatcher.Enqueue(ctx, payload); err != nil {
		// Fire-and-forget: the job stays pending and the client keeps
		// polling; creation itself has succeeded.
		e.logger.Error().Err(err).Str("job_id", id).Msg("engine: enqueue failed")
	}
	return id, nil
}

// ProcessJob runs the generation pipeline for one payload: optional
// reference-image fetch, two image stages, then the video-generation start.
// Stages are strictly sequential because each consumes the previous stage's
// bytes. Any stage error transitions the record to a terminal error state
// with the brief fields and job_start_time preserved.
func (e *Engine) ProcessJob(ctx context.Context, p queue.Payload) error {
	job, err := e.store.Load(ctx, p.JobID, e.store.Durable())
	if err != nil {
		// The payload carries the full brief, so processing is replayable
		// even when the pending record was lost with a downed durable store.
		job = domain.Job{
			ID:              p.JobID,
			Status:          domain.JobStatusPending,
			Title:           p.Title,
			Outcome:         p.Outcome,
			ReferenceLink:   p.ReferenceLink,
			DurationSeconds: p.DurationSeconds,
			JobStartTime:    e.now().UTC(),
		}
	}
	brief := job.Brief()

	handle, err := e.runPipeline(ctx, &job, brief)
	if err != nil {
		e.logger.Error().Err(err).Str("job_id", job.ID).Msg("engine: pipeline failed")
		end := e.now().UTC()
		job.Status = domain.JobStatusError
		job.Error = err.Error()
		job.JobEndTime = &end
		job.OperationHandle = ""
		if saveErr := e.store.Save(ctx, job); saveErr != nil {
			e.logger.Error().Err(saveErr).Str("job_id", job.ID).Msg("engine: persist error state failed")
		}
		return err
	}

	job.Status = domain.JobStatusProcessing
	job.OperationHandle = handle
	if err := e.store.Save(ctx, job); err != nil {
		return fmt.Errorf("engine: persist processing state: %w", err)
	}
	e.logger.Info().Str("job_id", job.ID).Str("operation", handle).Msg("engine: video generation started")
	return nil
}

func (e *Engine) runPipeline(ctx context.Context, job *domain.Job, brief domain.Brief) (string, error) {
	source := e.fetchReferenceImage(ctx, job.ID, brief.ReferenceLink)

	frame1, err := e.backend.GenerateImage(ctx, genai.ImageRequest{
		Prompt:    prompt.FirstFrame(brief),
		Reference: source,
	})
	if err != nil {
		return "", fmt.Errorf("generate first frame: %w", err)
	}
	e.recordFrame(ctx, job, 1, frame1)

	frame2, err := e.backend.GenerateImage(ctx, genai.ImageRequest{
		Prompt:    prompt.SecondFrame(brief),
		Reference: frame1,
	})
	if err != nil {
		return "", fmt.Errorf("generate second frame: %w", err)
	}
	e.recordFrame(ctx, job, 2, frame2)

	handle, err := e.backend.StartVideo(ctx, genai.VideoRequest{
		Prompt:          prompt.Video(brief),
		StartFrame:      frame1,
		EndFrame:        frame2,
		DurationSeconds: brief.DurationSeconds,
	})
	if err != nil {
		return "", fmt.Errorf("start video generation: %w", err)
	}
	return handle, nil
}

// fetchReferenceImage downloads the brief's reference image. Failures are
// non-fatal: the pipeline proceeds without a seed image.
func (e *Engine) fetchReferenceImage(ctx context.Context, jobID, link string) []byte {
	link = strings.TrimSpace(link)
	if link == "" || (!strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://")) {
		return nil
	}
	fetchCtx, cancel := context.WithTimeout(ctx, referenceFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, link, nil)
	if err != nil {
		e.logger.Warn().Err(err).Str("job_id", jobID).Msg("engine: bad reference link, proceeding without image")
		return nil
	}
	resp, err := e.fetch.Do(req)
	if err != nil {
		e.logger.Warn().Err(err).Str("job_id", jobID).Msg("engine: reference fetch failed, proceeding without image")
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		e.logger.Warn().Int("status", resp.StatusCode).Str("job_id", jobID).Msg("engine: reference fetch failed, proceeding without image")
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceBytes))
	if err != nil {
		e.logger.Warn().Err(err).Str("job_id", jobID).Msg("engine: reference read failed, proceeding without image")
		return nil
	}
	return data
}

// recordFrame persists an intermediate frame and records its storage
// reference on the job so status responses can show progress. Storage
// problems are logged and do not fail the stage.
func (e *Engine) recordFrame(ctx context.Context, job *domain.Job, stage int, data []byte) {
	if e.blobs == nil || len(data) == 0 {
		return
	}
	key := fmt.Sprintf("images/%s/frame-%d.png", job.ID, stage)
	storedKey, err := e.blobs.Put(ctx, key, data)
	if err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Int("stage", stage).Msg("engine: persist frame failed")
		return
	}
	job.FrameRefs = append(job.FrameRefs, storedKey)
	if err := e.store.Save(ctx, *job); err != nil {
		e.logger.Warn().Err(err).Str("job_id", job.ID).Msg("engine: record frame ref failed")
	}
}

func normalizeBrief(brief domain.Brief) (domain.Brief, error) {
	brief.Title = strings.TrimSpace(brief.Title)
	brief.Outcome = strings.TrimSpace(brief.Outcome)
	brief.ReferenceLink = strings.TrimSpace(brief.ReferenceLink)

	var missing []string
	if brief.Title == "" {
		missing = append(missing, "title")
	}
	if brief.Outcome == "" {
		missing = append(missing, "outcome")
	}
	if len(missing) > 0 {
		return domain.Brief{}, fmt.Errorf("%w: missing %s", domain.ErrInvalidBrief, strings.Join(missing, ", "))
	}

	switch {
	case brief.DurationSeconds == 0:
		brief.DurationSeconds = defaultDurationSeconds
	case brief.DurationSeconds < minDurationSeconds:
		brief.DurationSeconds = minDurationSeconds
	case brief.DurationSeconds > maxDurationSeconds:
		brief.DurationSeconds = maxDurationSeconds
	}
	return brief, nil
}
