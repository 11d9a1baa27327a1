package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TomMannion/plex-dualsub-manager/internal/dualsub"
)

type fakeStore struct {
	mu      sync.Mutex
	jobs    map[string]*Job
	deleted []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*Job)}
}

func (s *fakeStore) LoadJobs(context.Context) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ret := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		ret = append(ret, cloneJob(job))
	}
	return ret, nil
}

func (s *fakeStore) UpsertJob(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = cloneJob(job)
	return nil
}

func (s *fakeStore) DeleteJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, jobID)
	s.deleted = append(s.deleted, jobID)
	return nil
}

func sampleRequest(taskCount int) CreateRequest {
	tasks := make([]EpisodeTask, 0, taskCount)
	for i := 0; i < taskCount; i++ {
		tasks = append(tasks, EpisodeTask{
			EpisodeID: string(rune('a' + i)),
			Name:      "episode",
		})
	}
	return CreateRequest{
		ShowID:    "shows|/shows/demo",
		Primary:   "ja",
		Secondary: "en",
		SyncMode:  SyncAuto,
		Format:    dualsub.FormatASS,
		Styling:   dualsub.DefaultStyling(),
		Tasks:     tasks,
	}
}

func TestRegistry_CreateAndGet(t *testing.T) {
	r := NewRegistry(nil)

	job := r.Create(sampleRequest(3))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, StatusPending, job.Status)
	assert.Equal(t, 3, job.Progress.Total)
	assert.Equal(t, 0, job.Progress.Processed)

	got, ok := r.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, job.ID, got.ID)

	// snapshots are isolated from registry state
	got.Status = StatusCompleted
	again, _ := r.Get(job.ID)
	assert.Equal(t, StatusPending, again.Status)
}

func TestRegistry_CancelPendingJob(t *testing.T) {
	store := newFakeStore()
	r := NewRegistry(store)

	job := r.Create(sampleRequest(1))
	require.NoError(t, r.Cancel(job.ID))

	got, ok := r.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusCancelled, got.Status)
	require.NotNil(t, got.CompletedAt)

	assert.ErrorIs(t, r.Cancel(job.ID), ErrAlreadyTerminal)
	assert.ErrorIs(t, r.Cancel("nope"), ErrNotFound)
}

func TestRegistry_Stats(t *testing.T) {
	r := NewRegistry(nil)
	a := r.Create(sampleRequest(1))
	r.Create(sampleRequest(1))
	require.NoError(t, r.Cancel(a.ID))

	stats := r.Stats()
	assert.Equal(t, 1, stats[StatusPending])
	assert.Equal(t, 1, stats[StatusCancelled])
}

func TestRegistry_PersistsOnMutation(t *testing.T) {
	store := newFakeStore()
	r := NewRegistry(store)

	job := r.Create(sampleRequest(1))

	store.mu.Lock()
	persisted, ok := store.jobs[job.ID]
	store.mu.Unlock()
	require.True(t, ok)
	assert.Equal(t, StatusPending, persisted.Status)
}

func TestRegistry_HydrateFailsInterruptedJobs(t *testing.T) {
	store := newFakeStore()
	first := NewRegistry(store)
	job := first.Create(sampleRequest(2))
	_, ok := first.markRunning(job.ID)
	require.True(t, ok)

	// simulated restart
	second := NewRegistry(store)
	got, ok := second.Get(job.ID)
	require.True(t, ok)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "interrupted by restart", got.Error)
	require.NotNil(t, got.CompletedAt)
}

func TestRegistry_DeleteExpired(t *testing.T) {
	store := newFakeStore()
	r := NewRegistry(store)

	old := r.Create(sampleRequest(1))
	fresh := r.Create(sampleRequest(1))
	require.NoError(t, r.Cancel(old.ID))
	require.NoError(t, r.Cancel(fresh.ID))

	// age the first job past the retention window
	past := time.Now().Add(-100 * time.Hour)
	r.mu.Lock()
	r.jobs[old.ID].CompletedAt = &past
	r.mu.Unlock()

	dropped := r.DeleteExpired(24*time.Hour, 72*time.Hour)
	assert.Equal(t, 1, dropped)

	_, ok := r.Get(old.ID)
	assert.False(t, ok)
	_, ok = r.Get(fresh.ID)
	assert.True(t, ok)
	assert.Contains(t, store.deleted, old.ID)
}
