// Package jobs defines the asynchronous backup job model and the queue
// interfaces it runs on.
package jobs

import (
	"context"
	"time"
)

// JobKind distinguishes what a backup job does.
type JobKind string

const (
	// JobKindBackup exports a snapshot and uploads it.
	JobKindBackup JobKind = "backup"
	// JobKindRestore downloads a snapshot and replaces local data.
	JobKindRestore JobKind = "restore"
)

// JobStatus is the current lifecycle state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// BackupJob is one unit of backup or restore work.
type BackupJob struct {
	JobID string  `json:"job_id"`
	Kind  JobKind `json:"kind"`

	// Object is the snapshot object name. Restore jobs require it; backup
	// jobs record it once the upload lands.
	Object string `json:"object,omitempty"`

	Status      JobStatus  `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
	RetryCount  int        `json:"retry_count"`
	MaxRetries  int        `json:"max_retries"`
}

// Publisher enqueues backup jobs.
type Publisher interface {
	PublishBackup(ctx context.Context, job *BackupJob) error
	Close() error
}

// Consumer drains the queue, calling the handler per job.
type Consumer interface {
	Start(ctx context.Context, handler JobHandler) error
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed and
// eligible for retry.
type JobHandler func(ctx context.Context, job *BackupJob) error

// JobStore tracks job state so the API can report backup status.
type JobStore interface {
	SaveJob(ctx context.Context, job *BackupJob) error
	GetJob(ctx context.Context, jobID string) (*BackupJob, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*BackupJob, error)
}

// JobFilter narrows ListJobs results.
type JobFilter struct {
	Kind   JobKind
	Status JobStatus
	Limit  int
	Offset int
}
