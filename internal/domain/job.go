package domain

import "time"

// JobStatus enumerates job lifecycle states as persisted on the record.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// Terminal reports whether a job in this status no longer changes, apart
// from idempotent re-writes of the same values.
func (s JobStatus) Terminal() bool {
	return s == JobStatusDone || s == JobStatusError
}

// Brief is the immutable input describing the video to generate. It is
// copied into the job record at creation so the pipeline is replayable from
// the record alone.
type Brief struct {
	Title           string `json:"title"`
	Outcome         string `json:"outcome"`
	ReferenceLink   string `json:"reference_link"`
	DurationSeconds int    `json:"duration_seconds"`
}

// Job is the single persisted entity of the orchestration engine. One JSON
// object per job lives on the blob store at a job-id-derived key; encoding
// follows struct field order so re-uploads of unchanged state are
// byte-identical.
type Job struct {
	ID              string     `json:"job_id"`
	Status          JobStatus  `json:"status"`
	Title           string     `json:"title"`
	Outcome         string     `json:"outcome"`
	ReferenceLink   string     `json:"reference_link,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	JobStartTime    time.Time  `json:"job_start_time"`
	JobEndTime      *time.Time `json:"job_end_time,omitempty"`
	OperationHandle string     `json:"operation_handle,omitempty"`
	FrameRefs       []string   `json:"intermediate_image_refs,omitempty"`
	VideoRef        string     `json:"video_ref,omitempty"`
	Error           string     `json:"error,omitempty"`
}

// Brief reconstructs the input brief captured on the record.
func (j Job) Brief() Brief {
	return Brief{
		Title:           j.Title,
		Outcome:         j.Outcome,
		ReferenceLink:   j.ReferenceLink,
		DurationSeconds: j.DurationSeconds,
	}
}

// ClientStatus is the status vocabulary exposed to pollers, distinct from
// the persisted JobStatus.
type ClientStatus string

const (
	ClientStatusWaiting ClientStatus = "waiting"
	ClientStatusDone    ClientStatus = "done"
	ClientStatusError   ClientStatus = "error"
)

// StatusSnapshot is the client-facing view of a job produced by the status
// resolver. The video URL is derived at read time from the stored reference,
// never persisted as the only copy.
type StatusSnapshot struct {
	Status       ClientStatus `json:"status"`
	Title        string       `json:"title"`
	Outcome      string       `json:"outcome"`
	JobStartTime time.Time    `json:"job_start_time"`
	JobEndTime   *time.Time   `json:"job_end_time,omitempty"`
	FrameURLs    []string     `json:"frame_urls,omitempty"`
	VideoURL     string       `json:"video_url,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// JobPatch is a merge-patch applied by Engine.UpdateJob. Nil fields are left
// untouched. JobStartTime is deliberately absent: it is set once at creation
// and never overwritten.
type JobPatch struct {
	Status          *JobStatus
	OperationHandle *string
	VideoRef        *string
	Error           *string
	JobEndTime      *time.Time
}
