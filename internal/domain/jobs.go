package domain

// JobStatus tracks one transcription job from request to terminal outcome.
type JobStatus string

const (
	JobStatusCreated    JobStatus = "created"
	JobStatusValidating JobStatus = "validating"
	JobStatusRejected   JobStatus = "rejected"
	JobStatusSpawning   JobStatus = "spawning"
	JobStatusRunning    JobStatus = "running"
	JobStatusDone       JobStatus = "done"
	JobStatusErrored    JobStatus = "errored"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether a status ends the job. No retries happen after
// a terminal status; the caller decides whether to issue a new request.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusDone, JobStatusRejected, JobStatusErrored, JobStatusFailed:
		return true
	default:
		return false
	}
}

// Job stores job identity, lifecycle status, and last reported progress.
type Job struct {
	ID       string    `json:"id"`
	Status   JobStatus `json:"status"`
	Progress int       `json:"progress"`
}
