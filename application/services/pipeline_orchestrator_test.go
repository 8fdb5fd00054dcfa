package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lirigzong/Ai-Video-Create/application/ports/inbound"
	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/domain"
	"github.com/lirigzong/Ai-Video-Create/infrastructure/adapters"
)

// recordingStore wraps the in-memory store and keeps the sequence of statuses
// it was asked to persist.
type recordingStore struct {
	outbound.JobStorePort

	mu       sync.Mutex
	statuses []domain.JobStatus
}

func newRecordingStore() *recordingStore {
	return &recordingStore{JobStorePort: adapters.NewMemoryJobStore()}
}

func (r *recordingStore) Create(ctx context.Context, job domain.Job) error {
	if err := r.JobStorePort.Create(ctx, job); err != nil {
		return err
	}
	r.record(job.Status)
	return nil
}

func (r *recordingStore) Update(ctx context.Context, job domain.Job) (domain.Job, error) {
	updated, err := r.JobStorePort.Update(ctx, job)
	if err != nil {
		return updated, err
	}
	r.record(updated.Status)
	return updated, nil
}

func (r *recordingStore) record(status domain.JobStatus) {
	r.mu.Lock()
	r.statuses = append(r.statuses, status)
	r.mu.Unlock()
}

func (r *recordingStore) recorded() []domain.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.JobStatus(nil), r.statuses...)
}

type fakeScriptGenerator struct {
	generate func(ctx context.Context, req outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error)
}

func (f *fakeScriptGenerator) Generate(ctx context.Context, req outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
	return f.generate(ctx, req)
}

func scriptSegmentsOf(n int) []outbound.ScriptSegment {
	segments := make([]outbound.ScriptSegment, n)
	for i := range segments {
		segments[i] = outbound.ScriptSegment{
			NarrationText: fmt.Sprintf("narration %d", i),
			ImagePrompt:   fmt.Sprintf("prompt %d", i),
		}
	}
	return segments
}

type fakeAssembler struct {
	mu     sync.Mutex
	called bool
	inputs []outbound.AssembleSegmentInput
}

func (f *fakeAssembler) Assemble(_ context.Context, inputs []outbound.AssembleSegmentInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = true
	f.inputs = inputs
	return filepath.Join(os.TempDir(), "assembled.mp4"), nil
}

func (f *fakeAssembler) wasCalled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.called
}

type fakePublisher struct{}

func (fakePublisher) Publish(_ context.Context, req outbound.PublishVideoRequest) (string, error) {
	return "/api/videos/" + req.JobID + ".mp4", nil
}

type orchestratorFixture struct {
	orchestrator inbound.PipelineOrchestratorPort
	store        *recordingStore
	assembler    *fakeAssembler
	workDir      string
}

func newOrchestratorFixture(t *testing.T, scriptGen outbound.ScriptGeneratorPort,
	imageGen outbound.ImageGeneratorPort, speechGen outbound.SpeechGeneratorPort,
	stageTimeout time.Duration) *orchestratorFixture {
	t.Helper()

	store := newRecordingStore()
	assembler := &fakeAssembler{}
	prober := &fixedProber{duration: 2.5}
	assetGenerator := NewSegmentAssetGenerator(nopLogger{}, imageGen, speechGen, prober, goDispatcher{})
	workDir := t.TempDir()

	orchestrator := NewPipelineOrchestrator(nopLogger{}, store,
		scriptGen, assetGenerator, assembler, fakePublisher{}, OrchestratorConfig{
			WorkDir:      workDir,
			StageTimeout: stageTimeout,
		})

	return &orchestratorFixture{
		orchestrator: orchestrator,
		store:        store,
		assembler:    assembler,
		workDir:      workDir,
	}
}

func waitForTerminal(t *testing.T, orchestrator inbound.PipelineOrchestratorPort, jobID string) domain.Job {
	t.Helper()

	var last domain.Job
	require.Eventually(t, func() bool {
		job, err := orchestrator.GetStatus(context.Background(), jobID)
		if err != nil {
			return false
		}
		last = job
		return job.Status.Terminal()
	}, 5*time.Second, 10*time.Millisecond, "job never reached a terminal status")
	return last
}

func TestOrchestrator_SuccessfulRun(t *testing.T) {
	scriptGen := &fakeScriptGenerator{
		generate: func(_ context.Context, req outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			return scriptSegmentsOf(req.TargetSegmentCount), nil
		},
	}
	fixture := newOrchestratorFixture(t, scriptGen, &fakeImageGenerator{}, &fakeSpeechGenerator{}, time.Minute)

	submitted, err := fixture.orchestrator.Submit(context.Background(), inbound.SubmitRequest{
		Prompt:          "how to plant a garden",
		DurationSeconds: 60,
		SegmentCount:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, submitted.Status)
	assert.NotEmpty(t, submitted.ID)

	job := waitForTerminal(t, fixture.orchestrator, submitted.ID)
	require.Equal(t, domain.StatusCompleted, job.Status)
	assert.Equal(t, "/api/videos/"+job.ID+".mp4", job.OutputLocation)
	assert.Nil(t, job.Error)
	require.Len(t, job.Script, 3)

	assert.Equal(t, []domain.JobStatus{
		domain.StatusQueued,
		domain.StatusGeneratingScript,
		domain.StatusGeneratingAssets,
		domain.StatusCreatingVideo,
		domain.StatusCompleted,
	}, fixture.store.recorded())

	require.True(t, fixture.assembler.wasCalled())
	for i, input := range fixture.assembler.inputs {
		assert.Equal(t, i, input.Index)
		assert.Equal(t, 2.5, input.DisplayDuration)
		assert.NotEmpty(t, input.SubtitleText)
	}

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(fixture.workDir, job.ID))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond, "job workspace must be removed after completion")
}

func TestOrchestrator_SubmitValidation(t *testing.T) {
	fixture := newOrchestratorFixture(t, &fakeScriptGenerator{
		generate: func(context.Context, outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			t.Fatal("script generator must not run for rejected submissions")
			return nil, nil
		},
	}, &fakeImageGenerator{}, &fakeSpeechGenerator{}, time.Minute)

	cases := []inbound.SubmitRequest{
		{Prompt: "", DurationSeconds: 60, SegmentCount: 3},
		{Prompt: "   ", DurationSeconds: 60, SegmentCount: 3},
		{Prompt: "ok", DurationSeconds: 60, SegmentCount: 0},
		{Prompt: "ok", DurationSeconds: 60, SegmentCount: 11},
		{Prompt: "ok", DurationSeconds: 5, SegmentCount: 3},
		{Prompt: "ok", DurationSeconds: 601, SegmentCount: 3},
	}
	for _, req := range cases {
		_, err := fixture.orchestrator.Submit(context.Background(), req)
		require.ErrorIs(t, err, domain.ErrInvalidRequest, "request %+v", req)
	}

	jobs, err := fixture.orchestrator.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, jobs, "rejected submissions must not create jobs")
}

func TestOrchestrator_ProviderSegmentCountWins(t *testing.T) {
	scriptGen := &fakeScriptGenerator{
		generate: func(context.Context, outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			return scriptSegmentsOf(4), nil
		},
	}
	fixture := newOrchestratorFixture(t, scriptGen, &fakeImageGenerator{}, &fakeSpeechGenerator{}, time.Minute)

	submitted, err := fixture.orchestrator.Submit(context.Background(), inbound.SubmitRequest{
		Prompt: "p", DurationSeconds: 60, SegmentCount: 3,
	})
	require.NoError(t, err)

	job := waitForTerminal(t, fixture.orchestrator, submitted.ID)
	require.Equal(t, domain.StatusCompleted, job.Status)
	require.Len(t, job.Script, 4)
	for i, segment := range job.Script {
		assert.Equal(t, i, segment.Index)
	}
}

func TestOrchestrator_AssetFailureFailsJobWithSegmentIndex(t *testing.T) {
	scriptGen := &fakeScriptGenerator{
		generate: func(context.Context, outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			return scriptSegmentsOf(5), nil
		},
	}
	fixture := newOrchestratorFixture(t, scriptGen, &fakeImageGenerator{},
		&fakeSpeechGenerator{failText: "narration 2"}, time.Minute)

	submitted, err := fixture.orchestrator.Submit(context.Background(), inbound.SubmitRequest{
		Prompt: "p", DurationSeconds: 60, SegmentCount: 5,
	})
	require.NoError(t, err)

	job := waitForTerminal(t, fixture.orchestrator, submitted.ID)
	require.Equal(t, domain.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, domain.StageAssets, job.Error.Stage)
	assert.Equal(t, domain.KindProviderUnavailable, job.Error.Kind)
	require.NotNil(t, job.Error.SegmentIndex)
	assert.Equal(t, 2, *job.Error.SegmentIndex)

	assert.False(t, fixture.assembler.wasCalled(), "assembly must not run after an asset failure")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(fixture.workDir, job.ID))
		return os.IsNotExist(err)
	}, 2*time.Second, 10*time.Millisecond, "job workspace must be removed after failure")
}

func TestOrchestrator_CancelFailsJobAsCancelled(t *testing.T) {
	scriptGen := &fakeScriptGenerator{
		generate: func(ctx context.Context, _ outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	fixture := newOrchestratorFixture(t, scriptGen, &fakeImageGenerator{}, &fakeSpeechGenerator{}, time.Minute)

	submitted, err := fixture.orchestrator.Submit(context.Background(), inbound.SubmitRequest{
		Prompt: "p", DurationSeconds: 60, SegmentCount: 3,
	})
	require.NoError(t, err)
	require.NoError(t, fixture.orchestrator.Cancel(context.Background(), submitted.ID))

	job := waitForTerminal(t, fixture.orchestrator, submitted.ID)
	require.Equal(t, domain.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, domain.KindCancelled, job.Error.Kind)
	assert.Equal(t, domain.StageScript, job.Error.Stage)

	// Cancelling a terminal job is a no-op.
	require.NoError(t, fixture.orchestrator.Cancel(context.Background(), submitted.ID))
}

func TestOrchestrator_StageTimeoutFailsJobAsTimeout(t *testing.T) {
	scriptGen := &fakeScriptGenerator{
		generate: func(ctx context.Context, _ outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	fixture := newOrchestratorFixture(t, scriptGen, &fakeImageGenerator{}, &fakeSpeechGenerator{}, 50*time.Millisecond)

	submitted, err := fixture.orchestrator.Submit(context.Background(), inbound.SubmitRequest{
		Prompt: "p", DurationSeconds: 60, SegmentCount: 3,
	})
	require.NoError(t, err)

	job := waitForTerminal(t, fixture.orchestrator, submitted.ID)
	require.Equal(t, domain.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, domain.KindTimeout, job.Error.Kind)
	assert.Equal(t, domain.StageScript, job.Error.Stage)
}

func TestOrchestrator_EmptyScriptIsMalformed(t *testing.T) {
	scriptGen := &fakeScriptGenerator{
		generate: func(context.Context, outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			return nil, nil
		},
	}
	fixture := newOrchestratorFixture(t, scriptGen, &fakeImageGenerator{}, &fakeSpeechGenerator{}, time.Minute)

	submitted, err := fixture.orchestrator.Submit(context.Background(), inbound.SubmitRequest{
		Prompt: "p", DurationSeconds: 60, SegmentCount: 3,
	})
	require.NoError(t, err)

	job := waitForTerminal(t, fixture.orchestrator, submitted.ID)
	require.Equal(t, domain.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, domain.KindMalformedResponse, job.Error.Kind)
}

// blockedAssetGenerator never produces anything; it closes its channels only
// once the fan-out context is cancelled, so collection and cancellation race.
type blockedAssetGenerator struct{}

func (blockedAssetGenerator) Generate(ctx context.Context, _ []domain.Segment, _ string) (<-chan domain.Segment, <-chan error) {
	out := make(chan domain.Segment)
	errCh := make(chan error)
	go func() {
		<-ctx.Done()
		close(errCh)
		close(out)
	}()
	return out, errCh
}

func TestOrchestrator_ManyJobsShareBoundedPool(t *testing.T) {
	pool, err := ants.NewPool(2)
	require.NoError(t, err)
	defer pool.Release()

	scriptGen := &fakeScriptGenerator{
		generate: func(_ context.Context, req outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			return scriptSegmentsOf(req.TargetSegmentCount), nil
		},
	}
	store := newRecordingStore()
	assetGenerator := NewSegmentAssetGenerator(nopLogger{}, &fakeImageGenerator{},
		&fakeSpeechGenerator{delay: 20 * time.Millisecond}, &fixedProber{duration: 1}, pool)

	orchestrator := NewPipelineOrchestrator(nopLogger{}, store, scriptGen,
		assetGenerator, &fakeAssembler{}, fakePublisher{}, OrchestratorConfig{
			WorkDir:      t.TempDir(),
			StageTimeout: 5 * time.Second,
		})

	// Far more concurrent jobs than pool workers; every job must still drain
	// through the shared pool and finish well inside the stage timeout.
	ids := make([]string, 6)
	for i := range ids {
		job, err := orchestrator.Submit(context.Background(), inbound.SubmitRequest{
			Prompt: fmt.Sprintf("prompt %d", i), DurationSeconds: 60, SegmentCount: 3,
		})
		require.NoError(t, err)
		ids[i] = job.ID
	}

	for _, id := range ids {
		job := waitForTerminal(t, orchestrator, id)
		assert.Equal(t, domain.StatusCompleted, job.Status, "job %s", id)
	}
}

func TestOrchestrator_CancelDuringAssetFanOut(t *testing.T) {
	scriptGen := &fakeScriptGenerator{
		generate: func(context.Context, outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			return scriptSegmentsOf(3), nil
		},
	}
	store := newRecordingStore()
	orchestrator := NewPipelineOrchestrator(nopLogger{}, store, scriptGen,
		blockedAssetGenerator{}, &fakeAssembler{}, fakePublisher{}, OrchestratorConfig{
			WorkDir:      t.TempDir(),
			StageTimeout: time.Minute,
		})

	submitted, err := orchestrator.Submit(context.Background(), inbound.SubmitRequest{
		Prompt: "p", DurationSeconds: 60, SegmentCount: 3,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		job, err := orchestrator.GetStatus(context.Background(), submitted.ID)
		return err == nil && job.Status == domain.StatusGeneratingAssets
	}, 5*time.Second, 10*time.Millisecond, "job never entered asset generation")

	require.NoError(t, orchestrator.Cancel(context.Background(), submitted.ID))

	job := waitForTerminal(t, orchestrator, submitted.ID)
	require.Equal(t, domain.StatusFailed, job.Status)
	require.NotNil(t, job.Error)
	assert.Equal(t, domain.KindCancelled, job.Error.Kind, "cancellation racing the channel close must report cancelled")
	assert.Equal(t, domain.StageAssets, job.Error.Stage)
}

func TestOrchestrator_GetStatusUnknownJob(t *testing.T) {
	fixture := newOrchestratorFixture(t, &fakeScriptGenerator{
		generate: func(context.Context, outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
			return scriptSegmentsOf(1), nil
		},
	}, &fakeImageGenerator{}, &fakeSpeechGenerator{}, time.Minute)

	_, err := fixture.orchestrator.GetStatus(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = fixture.orchestrator.Cancel(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, domain.ErrNotFound)
}
