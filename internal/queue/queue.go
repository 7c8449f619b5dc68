// Package queue dispatches accepted jobs to the pipeline runner. Two
// interchangeable backends exist: a managed push-queue client that targets a
// worker HTTP endpoint, and a local in-process FIFO drained by a background
// worker goroutine. The payload handed to the runner has the same shape in
// both modes, so the runner never branches on dispatch mode.
package queue

import "context"

// Payload is the unit of work carried through either backend. It embeds the
// full brief so the runner needs nothing beyond the payload itself.
type Payload struct {
	JobID           string `json:"job_id"`
	Title           string `json:"title"`
	Outcome         string `json:"outcome"`
	ReferenceLink   string `json:"reference_link,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Dispatcher enqueues work for asynchronous processing.
type Dispatcher interface {
	Enqueue(ctx context.Context, p Payload) error
}

// Runner executes one job's pipeline. Implemented by the orchestration
// engine's ProcessJob.
type Runner func(ctx context.Context, p Payload) error
