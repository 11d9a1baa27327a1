package jobs

import "context"

// Store persists job records for restart recovery and retention cleanup.
type Store interface {
	LoadJobs(ctx context.Context) ([]*Job, error)
	// UpsertJob writes the full job record atomically; called on every
	// progress update, so one record per job id is all that ever exists.
	UpsertJob(ctx context.Context, job *Job) error
	DeleteJob(ctx context.Context, jobID string) error
}
