package types

import "time"

// JobStatus represents the current status of a validation job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// ValidationJob represents an uploaded release waiting for or undergoing validation
type ValidationJob struct {
	ID          string     `json:"id"`
	Status      JobStatus  `json:"status"`
	Archive     string     `json:"archive"`
	ArchivePath string     `json:"-"`
	Progress    int        `json:"progress"`
	Total       int        `json:"total"`
	Report      *Report    `json:"report,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Done reports whether the job reached a final state
func (j *ValidationJob) Done() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}
