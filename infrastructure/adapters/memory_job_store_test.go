package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirigzong/Ai-Video-Create/domain"
)

func newQueuedJob(id string, createdAt time.Time) domain.Job {
	return domain.Job{
		ID:                    id,
		Prompt:                "prompt " + id,
		RequestedDuration:     60,
		RequestedSegmentCount: 3,
		Status:                domain.StatusQueued,
		CreatedAt:             createdAt,
		UpdatedAt:             createdAt,
	}
}

func TestMemoryJobStore_SnapshotIsolation(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := newQueuedJob("a", time.Now().UTC())
	job.Script = []domain.Segment{{Index: 0, NarrationText: "hello"}}
	require.NoError(t, store.Create(ctx, job))

	snapshot, err := store.Get(ctx, "a")
	require.NoError(t, err)
	snapshot.Script[0].NarrationText = "mutated"

	again, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "hello", again.Script[0].NarrationText)
}

func TestMemoryJobStore_GetUnknown(t *testing.T) {
	store := NewMemoryJobStore()
	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMemoryJobStore_RejectsInvalidTransition(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := newQueuedJob("a", time.Now().UTC())
	require.NoError(t, store.Create(ctx, job))

	job.Status = domain.StatusCreatingVideo
	_, err := store.Update(ctx, job)
	require.Error(t, err)

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, got.Status)
}

func TestMemoryJobStore_TerminalSnapshotsCarryTheirFields(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	job := newQueuedJob("a", time.Now().UTC())
	require.NoError(t, store.Create(ctx, job))

	job.Status = domain.StatusFailed
	job.Error = nil
	_, err := store.Update(ctx, job)
	require.Error(t, err, "failed without error must be rejected")

	job.Status = domain.StatusGeneratingScript
	job, err = store.Update(ctx, job)
	require.NoError(t, err)
	job.Status = domain.StatusGeneratingAssets
	job, err = store.Update(ctx, job)
	require.NoError(t, err)
	job.Status = domain.StatusCreatingVideo
	job, err = store.Update(ctx, job)
	require.NoError(t, err)

	job.Status = domain.StatusCompleted
	job.OutputLocation = ""
	_, err = store.Update(ctx, job)
	require.Error(t, err, "completed without output location must be rejected")

	job.OutputLocation = "/api/videos/a.mp4"
	_, err = store.Update(ctx, job)
	require.NoError(t, err)
}

func TestMemoryJobStore_ListNewestFirst(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, store.Create(ctx, newQueuedJob("old", base.Add(-2*time.Hour))))
	require.NoError(t, store.Create(ctx, newQueuedJob("new", base)))
	require.NoError(t, store.Create(ctx, newQueuedJob("mid", base.Add(-1*time.Hour))))

	jobs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, "new", jobs[0].ID)
	assert.Equal(t, "mid", jobs[1].ID)
	assert.Equal(t, "old", jobs[2].ID)
}

func TestMemoryJobStore_UpdateBumpsUpdatedAt(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	created := time.Now().UTC().Add(-time.Minute)
	job := newQueuedJob("a", created)
	require.NoError(t, store.Create(ctx, job))

	job.Status = domain.StatusGeneratingScript
	updated, err := store.Update(ctx, job)
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created))
}
