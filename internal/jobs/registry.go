package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
	"github.com/TomMannion/plex-dualsub-manager/pkg/log"
)

// ErrNotFound is returned for unknown job ids.
var ErrNotFound = errors.New("job not found")

// ErrAlreadyTerminal is returned when cancelling a finished job.
var ErrAlreadyTerminal = errors.New("job already terminal")

// CreateRequest carries everything captured at job-creation time. Styling is
// frozen here and stays constant across all tasks of the job.
type CreateRequest struct {
	ShowID    string
	Primary   string
	Secondary string
	SyncMode  SyncMode
	Format    dualsub.Format
	Styling   dualsub.StylingConfig
	Tasks     []EpisodeTask
}

// Registry holds all jobs in memory, backed by an optional Store. Reads hand
// out snapshots; each running job is mutated only through the registry by its
// single orchestrating goroutine.
type Registry struct {
	store Store

	mu              sync.RWMutex
	jobs            map[string]*Job
	cancelRequested map[string]bool
}

func NewRegistry(store Store) *Registry {
	r := &Registry{
		store:           store,
		jobs:            make(map[string]*Job),
		cancelRequested: make(map[string]bool),
	}
	r.hydrateFromStore(context.Background())
	return r
}

// Create registers a new pending job and persists it.
func (r *Registry) Create(req CreateRequest) *Job {
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		ShowID:    req.ShowID,
		Primary:   req.Primary,
		Secondary: req.Secondary,
		SyncMode:  req.SyncMode,
		Format:    req.Format,
		Styling:   req.Styling,
		Status:    StatusPending,
		Tasks:     append([]EpisodeTask(nil), req.Tasks...),
		Progress: Progress{
			Total: len(req.Tasks),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.mu.Lock()
	r.jobs[job.ID] = job
	snapshot := cloneJob(job)
	r.mu.Unlock()

	r.persistJob(snapshot)
	return snapshot
}

// Get returns a snapshot of one job.
func (r *Registry) Get(id string) (*Job, bool) {
	r.mu.RLock()
	job, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return cloneJob(job), true
}

// List returns snapshots of all jobs.
func (r *Registry) List() []*Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		ret = append(ret, cloneJob(job))
	}
	return ret
}

// Stats counts jobs per status.
func (r *Registry) Stats() map[Status]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ret := make(map[Status]int)
	for _, job := range r.jobs {
		ret[job.Status]++
	}
	return ret
}

// Cancel requests cooperative cancellation. A pending job flips to cancelled
// immediately; a running job finishes its in-flight task first. Terminal
// jobs return ErrAlreadyTerminal.
func (r *Registry) Cancel(id string) error {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	if job.Status.Terminal() {
		r.mu.Unlock()
		return ErrAlreadyTerminal
	}

	r.cancelRequested[id] = true
	var snapshot *Job
	if job.Status == StatusPending {
		// never started, no task boundary to wait for
		now := time.Now()
		job.Status = StatusCancelled
		job.UpdatedAt = now
		job.CompletedAt = &now
		snapshot = cloneJob(job)
	}
	r.mu.Unlock()

	if snapshot != nil {
		r.persistJob(snapshot)
	}
	return nil
}

// CancelRequested reports whether a cancellation is pending for the job.
func (r *Registry) CancelRequested(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cancelRequested[id]
}

// markRunning transitions pending → running. Persisted before any task runs.
func (r *Registry) markRunning(id string) (*Job, bool) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusPending {
		r.mu.Unlock()
		return nil, false
	}
	now := time.Now()
	job.Status = StatusRunning
	job.StartedAt = &now
	job.UpdatedAt = now
	snapshot := cloneJob(job)
	r.mu.Unlock()

	r.persistJob(snapshot)
	return snapshot, true
}

// updateProgress overwrites the live progress of a running job.
func (r *Registry) updateProgress(id string, progress Progress) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.Status != StatusRunning {
		r.mu.Unlock()
		return
	}
	job.Progress = progress
	job.UpdatedAt = time.Now()
	snapshot := cloneJob(job)
	r.mu.Unlock()

	r.persistJob(snapshot)
}

// finalize moves a running job to a terminal status with its result.
func (r *Registry) finalize(id string, status Status, result *Result, errMsg string) {
	r.mu.Lock()
	job, ok := r.jobs[id]
	if !ok || job.Status.Terminal() {
		r.mu.Unlock()
		return
	}
	now := time.Now()
	job.Status = status
	job.Result = result
	job.Error = errMsg
	job.Progress.CurrentEpisode = ""
	job.Progress.EstimatedRemaining = 0
	job.UpdatedAt = now
	job.CompletedAt = &now
	delete(r.cancelRequested, id)
	snapshot := cloneJob(job)
	r.mu.Unlock()

	r.persistJob(snapshot)
}

// DeleteExpired removes terminal jobs past their retention window and
// returns how many were dropped. Completed jobs use completedTTL;
// failed and cancelled jobs use failedTTL.
func (r *Registry) DeleteExpired(completedTTL, failedTTL time.Duration) int {
	cutoff := time.Now()

	r.mu.Lock()
	expired := make([]string, 0)
	for id, job := range r.jobs {
		if !job.Status.Terminal() || job.CompletedAt == nil {
			continue
		}
		ttl := failedTTL
		if job.Status == StatusCompleted {
			ttl = completedTTL
		}
		if cutoff.Sub(*job.CompletedAt) > ttl {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(r.jobs, id)
		delete(r.cancelRequested, id)
	}
	r.mu.Unlock()

	for _, id := range expired {
		if r.store == nil {
			continue
		}
		if err := r.store.DeleteJob(context.Background(), id); err != nil {
			log.Error("Failed to delete expired job %s from store: %v", id, err)
		}
	}
	return len(expired)
}

// hydrateFromStore reloads persisted jobs. Jobs caught mid-flight by a
// restart cannot be resumed; they land in failed with their partial result.
func (r *Registry) hydrateFromStore(ctx context.Context) {
	if r.store == nil {
		return
	}
	loaded, err := r.store.LoadJobs(ctx)
	if err != nil {
		log.Error("Failed to load jobs from store: %v", err)
		return
	}

	now := time.Now()
	toPersist := make([]*Job, 0)
	r.mu.Lock()
	for _, raw := range loaded {
		if raw == nil || raw.ID == "" {
			continue
		}
		job := cloneJob(raw)
		if job.Status == StatusPending || job.Status == StatusRunning {
			job.Status = StatusFailed
			job.Error = "interrupted by restart"
			job.UpdatedAt = now
			job.CompletedAt = &now
			toPersist = append(toPersist, cloneJob(job))
		}
		r.jobs[job.ID] = job
	}
	r.mu.Unlock()

	for _, job := range toPersist {
		r.persistJob(job)
	}
}

func (r *Registry) persistJob(job *Job) {
	if r.store == nil || job == nil {
		return
	}
	if err := r.store.UpsertJob(context.Background(), job); err != nil {
		log.Error("Failed to persist job %s: %v", job.ID, err)
	}
}
