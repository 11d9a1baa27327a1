package jobs

import (
	"time"

	"github.com/TomMannion/plex-dualsub-manager/internal/catalog"
	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final. Terminal jobs are immutable.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// SyncMode selects between the strategy chain and raw passthrough.
type SyncMode string

const (
	SyncAuto SyncMode = "auto"
	SyncNone SyncMode = "none"
)

// EpisodeTask is one unit of work: produce a dual subtitle for one episode.
// Source resolution (external file vs embedded stream) happens when the task
// runs, not when it is created.
type EpisodeTask struct {
	EpisodeID string                         `json:"episode_id"`
	Name      string                         `json:"name"`
	MediaPath string                         `json:"media_path"`
	Profile   catalog.EpisodeSubtitleProfile `json:"profile"`
}

// Progress is the live view of a running job.
type Progress struct {
	Processed          int     `json:"processed"`
	Total              int     `json:"total"`
	Percentage         float64 `json:"percentage"`
	CurrentEpisode     string  `json:"current_episode,omitempty"`
	EstimatedRemaining float64 `json:"estimated_remaining_seconds"`
}

// OutcomeStatus classifies one finished task.
type OutcomeStatus string

const (
	OutcomeSuccessful OutcomeStatus = "successful"
	OutcomeFailed     OutcomeStatus = "failed"
	OutcomeSkipped    OutcomeStatus = "skipped"
)

// TaskOutcome records how one episode task ended.
type TaskOutcome struct {
	EpisodeID  string        `json:"episode_id"`
	Status     OutcomeStatus `json:"status"`
	OutputPath string        `json:"output_path,omitempty"`
	Strategy   string        `json:"strategy,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	OffsetMs   int64         `json:"offset_ms,omitempty"`
	Reason     string        `json:"reason,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	DurationMs int64         `json:"duration_ms"`

	// Fatal marks a failure that makes continuing the job meaningless.
	Fatal bool `json:"-"`
}

// Result buckets every task of a finished job. The three lists are disjoint
// and together contain each task's episode id exactly once.
type Result struct {
	Successful []TaskOutcome `json:"successful"`
	Failed     []TaskOutcome `json:"failed"`
	Skipped    []TaskOutcome `json:"skipped"`
}

// Job is a bulk dual-subtitle run over one show. Mutated only by its
// orchestrating goroutine while running; immutable once terminal.
type Job struct {
	ID        string                `json:"id"`
	ShowID    string                `json:"show_id"`
	Primary   string                `json:"primary"`
	Secondary string                `json:"secondary"`
	SyncMode  SyncMode              `json:"sync_mode"`
	Format    dualsub.Format        `json:"format"`
	Styling   dualsub.StylingConfig `json:"styling"`

	Status   Status        `json:"status"`
	Tasks    []EpisodeTask `json:"tasks"`
	Progress Progress      `json:"progress"`
	Result   *Result       `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func cloneJob(job *Job) *Job {
	if job == nil {
		return nil
	}
	tmp := *job
	tmp.Tasks = append([]EpisodeTask(nil), job.Tasks...)
	if job.Result != nil {
		result := Result{
			Successful: append([]TaskOutcome(nil), job.Result.Successful...),
			Failed:     append([]TaskOutcome(nil), job.Result.Failed...),
			Skipped:    append([]TaskOutcome(nil), job.Result.Skipped...),
		}
		tmp.Result = &result
	}
	if job.StartedAt != nil {
		t := *job.StartedAt
		tmp.StartedAt = &t
	}
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		tmp.CompletedAt = &t
	}
	return &tmp
}
