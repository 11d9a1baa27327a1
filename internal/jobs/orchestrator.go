package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

// TaskRunner executes one episode task and classifies its outcome. It must
// never panic past the orchestrator; per-episode errors come back as failed
// or skipped outcomes, with Fatal set only when continuing is meaningless.
type TaskRunner func(ctx context.Context, job *Job, task EpisodeTask) TaskOutcome

// Orchestrator drives jobs through their lifecycle. Jobs run concurrently
// with each other, but the tasks inside one job run strictly sequentially to
// bound audio-decode and external-process load.
type Orchestrator struct {
	registry    *Registry
	runner      TaskRunner
	taskTimeout time.Duration
}

func NewOrchestrator(registry *Registry, runner TaskRunner, taskTimeout time.Duration) *Orchestrator {
	if taskTimeout <= 0 {
		taskTimeout = 5 * time.Minute
	}
	return &Orchestrator{
		registry:    registry,
		runner:      runner,
		taskTimeout: taskTimeout,
	}
}

// Start launches the job's run loop in its own goroutine.
func (o *Orchestrator) Start(ctx context.Context, jobID string) {
	go o.run(ctx, jobID)
}

// run is the single designated writer for its job. Cancellation is
// cooperative: it is observed between tasks only, so an in-flight task
// always finishes before the job goes terminal.
func (o *Orchestrator) run(ctx context.Context, jobID string) {
	job, ok := o.registry.markRunning(jobID)
	if !ok {
		// cancelled while pending, or unknown id
		return
	}
	log.Info("Job %s started: %d episodes, %s+%s, sync=%s", job.ID, len(job.Tasks), job.Primary, job.Secondary, job.SyncMode)

	result := &Result{
		Successful: make([]TaskOutcome, 0),
		Failed:     make([]TaskOutcome, 0),
		Skipped:    make([]TaskOutcome, 0),
	}
	durations := make([]time.Duration, 0, len(job.Tasks))
	total := len(job.Tasks)

	for i, task := range job.Tasks {
		if o.registry.CancelRequested(jobID) {
			log.Info("Job %s cancelled after %d/%d tasks", jobID, i, total)
			o.registry.finalize(jobID, StatusCancelled, result, "")
			return
		}
		if err := ctx.Err(); err != nil {
			o.registry.finalize(jobID, StatusCancelled, result, "")
			return
		}

		o.registry.updateProgress(jobID, Progress{
			Processed:          i,
			Total:              total,
			Percentage:         percentage(i, total),
			CurrentEpisode:     task.Name,
			EstimatedRemaining: estimateRemaining(durations, total-i),
		})

		taskCtx, cancel := context.WithTimeout(ctx, o.taskTimeout)
		started := time.Now()
		outcome := o.runner(taskCtx, job, task)
		cancel()

		elapsed := time.Since(started)
		outcome.EpisodeID = task.EpisodeID
		outcome.DurationMs = elapsed.Milliseconds()
		durations = append(durations, elapsed)

		switch outcome.Status {
		case OutcomeSuccessful:
			result.Successful = append(result.Successful, outcome)
		case OutcomeSkipped:
			result.Skipped = append(result.Skipped, outcome)
		default:
			result.Failed = append(result.Failed, outcome)
		}

		// currentEpisode cleared between tasks to avoid stale display
		o.registry.updateProgress(jobID, Progress{
			Processed:          i + 1,
			Total:              total,
			Percentage:         percentage(i+1, total),
			EstimatedRemaining: estimateRemaining(durations, total-i-1),
		})

		if outcome.Fatal {
			log.Error("Job %s aborted on %s: %s", jobID, task.EpisodeID, outcome.Reason)
			o.registry.finalize(jobID, StatusFailed, result, fmt.Sprintf("fatal error on %s: %s", task.EpisodeID, outcome.Reason))
			return
		}
	}

	// a cancel that landed during the final task is still honored
	if o.registry.CancelRequested(jobID) {
		log.Info("Job %s cancelled after %d/%d tasks", jobID, total, total)
		o.registry.finalize(jobID, StatusCancelled, result, "")
		return
	}

	if total == 0 {
		o.registry.updateProgress(jobID, Progress{Percentage: percentage(0, 0)})
	}
	log.Info("Job %s completed: %d ok, %d failed, %d skipped",
		jobID, len(result.Successful), len(result.Failed), len(result.Skipped))
	o.registry.finalize(jobID, StatusCompleted, result, "")
}

func percentage(processed, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(processed) / float64(total)
}

// estimateRemaining recomputes the ETA from the average of all completed
// task durations, so the estimate depends only on which tasks finished, not
// on their order.
func estimateRemaining(durations []time.Duration, remaining int) float64 {
	if len(durations) == 0 || remaining <= 0 {
		return 0
	}
	var sum time.Duration
	for _, d := range durations {
		sum += d
	}
	avg := sum / time.Duration(len(durations))
	return (avg * time.Duration(remaining)).Seconds()
}
