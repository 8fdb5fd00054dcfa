package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lirigzong/Ai-Video-Create/application/ports/inbound"
	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

// Policy bounds for accepted submissions, from observed usage.
const (
	MinDurationSeconds = 10
	MaxDurationSeconds = 600
	MinSegmentCount    = 1
	MaxSegmentCount    = 10
)

// OrchestratorConfig carries the runtime knobs of the pipeline; provider
// bounds above are policy, not configuration.
type OrchestratorConfig struct {
	// WorkDir is where per-job asset workspaces are created.
	WorkDir string
	// StageTimeout bounds the total wait on each stage, including the slowest
	// straggler of the asset fan-out.
	StageTimeout time.Duration
}

type pipelineOrchestrator struct {
	logger          outbound.LoggerPort
	store           outbound.JobStorePort
	scriptGenerator outbound.ScriptGeneratorPort
	assetGenerator  inbound.SegmentAssetGeneratorPort
	assembler       outbound.VideoAssemblerPort
	publisher       outbound.VideoPublisherPort
	cfg             OrchestratorConfig

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewPipelineOrchestrator(logger outbound.LoggerPort, store outbound.JobStorePort,
	scriptGenerator outbound.ScriptGeneratorPort,
	assetGenerator inbound.SegmentAssetGeneratorPort, assembler outbound.VideoAssemblerPort,
	publisher outbound.VideoPublisherPort, cfg OrchestratorConfig) inbound.PipelineOrchestratorPort {
	return &pipelineOrchestrator{
		logger:          logger,
		store:           store,
		scriptGenerator: scriptGenerator,
		assetGenerator:  assetGenerator,
		assembler:       assembler,
		publisher:       publisher,
		cfg:             cfg,
		cancels:         make(map[string]context.CancelFunc),
	}
}

func (p *pipelineOrchestrator) Submit(ctx context.Context, req inbound.SubmitRequest) (domain.Job, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return domain.Job{}, fmt.Errorf("%w: prompt must not be empty", domain.ErrInvalidRequest)
	}
	if req.SegmentCount < MinSegmentCount || req.SegmentCount > MaxSegmentCount {
		return domain.Job{}, fmt.Errorf("%w: segments must be between %d and %d",
			domain.ErrInvalidRequest, MinSegmentCount, MaxSegmentCount)
	}
	if req.DurationSeconds < MinDurationSeconds || req.DurationSeconds > MaxDurationSeconds {
		return domain.Job{}, fmt.Errorf("%w: duration must be between %d and %d seconds",
			domain.ErrInvalidRequest, MinDurationSeconds, MaxDurationSeconds)
	}

	now := time.Now().UTC()
	job := domain.Job{
		ID:                    uuid.NewString(),
		Prompt:                req.Prompt,
		RequestedDuration:     req.DurationSeconds,
		RequestedSegmentCount: req.SegmentCount,
		Status:                domain.StatusQueued,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := p.store.Create(ctx, job); err != nil {
		return domain.Job{}, err
	}

	// The run owns its own context: it must outlive the HTTP request that
	// submitted it, and Cancel reaches it through the registry.
	runCtx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancels[job.ID] = cancel
	p.mu.Unlock()

	// Each job runs on its own goroutine. The shared worker pool is reserved
	// for the per-segment provider calls; a job task sitting in it would hold
	// a worker for the job's whole lifetime and wedge the pool under load.
	go p.run(runCtx, job)

	return job, nil
}

func (p *pipelineOrchestrator) GetStatus(ctx context.Context, jobID string) (domain.Job, error) {
	return p.store.Get(ctx, jobID)
}

func (p *pipelineOrchestrator) List(ctx context.Context) ([]domain.Job, error) {
	return p.store.List(ctx)
}

func (p *pipelineOrchestrator) Cancel(ctx context.Context, jobID string) error {
	job, err := p.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.Terminal() {
		return nil
	}

	p.mu.Lock()
	cancel, ok := p.cancels[jobID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
	return nil
}

func (p *pipelineOrchestrator) finish(jobID string) {
	p.mu.Lock()
	if cancel, ok := p.cancels[jobID]; ok {
		cancel()
		delete(p.cancels, jobID)
	}
	p.mu.Unlock()
}

// run is the job's dedicated task and the only writer of its record.
func (p *pipelineOrchestrator) run(ctx context.Context, job domain.Job) {
	defer p.finish(job.ID)

	workDir := filepath.Join(p.cfg.WorkDir, job.ID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		p.fail(job, domain.StageScript, err, workDir)
		return
	}

	job, err := p.transition(job, domain.StatusGeneratingScript, nil)
	if err != nil {
		p.fail(job, domain.StageScript, err, workDir)
		return
	}

	script, err := p.runScriptStage(ctx, job)
	if err != nil {
		p.fail(job, domain.StageScript, err, workDir)
		return
	}
	job.Script = script

	job, err = p.transition(job, domain.StatusGeneratingAssets, script)
	if err != nil {
		p.fail(job, domain.StageAssets, err, workDir)
		return
	}

	enriched, err := p.runAssetStage(ctx, job, workDir)
	if err != nil {
		p.fail(job, domain.StageAssets, err, workDir)
		return
	}
	job.Script = enriched

	job, err = p.transition(job, domain.StatusCreatingVideo, enriched)
	if err != nil {
		p.fail(job, domain.StageAssembly, err, workDir)
		return
	}

	location, err := p.runAssemblyStage(ctx, job)
	if err != nil {
		p.fail(job, domain.StageAssembly, err, workDir)
		return
	}

	job.OutputLocation = location
	job.Status = domain.StatusCompleted
	if _, err := p.store.Update(context.Background(), job); err != nil {
		p.logger.Error(err, "failed to record job completion")
	}
	p.cleanup(workDir)

	p.logger.InfoWithFields("job completed", map[string]interface{}{
		"job_id":          job.ID,
		"output_location": location,
		"segments":        len(job.Script),
	})
}

// runScriptStage calls the script provider and validates the result. The
// provider's segment count is authoritative: when it differs from the
// requested count, the per-segment target duration is simply recomputed.
func (p *pipelineOrchestrator) runScriptStage(ctx context.Context, job domain.Job) ([]domain.Segment, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	defer cancel()

	scriptSegments, err := p.scriptGenerator.Generate(stageCtx, outbound.GenerateScriptRequest{
		Prompt:             job.Prompt,
		TargetDuration:     job.RequestedDuration,
		TargetSegmentCount: job.RequestedSegmentCount,
	})
	if err != nil {
		return nil, err
	}
	if len(scriptSegments) == 0 {
		return nil, fmt.Errorf("%w: provider returned an empty script", domain.ErrMalformedResponse)
	}

	if len(scriptSegments) != job.RequestedSegmentCount {
		p.logger.InfoWithFields("provider segment count differs from request, accepting provider's", map[string]interface{}{
			"job_id":    job.ID,
			"requested": job.RequestedSegmentCount,
			"returned":  len(scriptSegments),
		})
	}

	segments := make([]domain.Segment, len(scriptSegments))
	for i, s := range scriptSegments {
		if strings.TrimSpace(s.NarrationText) == "" || strings.TrimSpace(s.ImagePrompt) == "" {
			return nil, fmt.Errorf("%w: segment %d is missing narration or image prompt", domain.ErrMalformedResponse, i)
		}
		segments[i] = domain.Segment{
			Index:         i,
			NarrationText: s.NarrationText,
			ImagePrompt:   s.ImagePrompt,
		}
	}
	return segments, nil
}

// runAssetStage fans out per-segment generation and collects the enriched
// segments back into index order. Any permanent per-segment failure fails the
// whole stage; already-fetched assets for other segments are discarded with
// the job workspace.
func (p *pipelineOrchestrator) runAssetStage(ctx context.Context, job domain.Job, workDir string) ([]domain.Segment, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	defer cancel()

	out, errCh := p.assetGenerator.Generate(stageCtx, job.Script, workDir)

	collected := make([]domain.Segment, len(job.Script))
	seen := make([]bool, len(job.Script))

	for {
		select {
		case <-stageCtx.Done():
			return nil, stageCtx.Err()
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		case segment, ok := <-out:
			if !ok {
				// errCh is closed before out; a buffered failure must win
				// over the completeness check below.
				if errCh != nil {
					for err := range errCh {
						if err != nil {
							return nil, err
						}
					}
				}
				// Cancellation racing the channel close must surface as the
				// cause, not as an incomplete-assets fault.
				if err := stageCtx.Err(); err != nil {
					return nil, err
				}
				for i, ready := range seen {
					if !ready || !collected[i].ReadyForAssembly() {
						return nil, domain.NewStageError(domain.StageAssets, i,
							fmt.Errorf("segment assets incomplete"))
					}
				}
				return collected, nil
			}
			if segment.Index < 0 || segment.Index >= len(collected) {
				return nil, fmt.Errorf("asset generator emitted unknown segment index %d", segment.Index)
			}
			collected[segment.Index] = segment
			seen[segment.Index] = true
		}
	}
}

func (p *pipelineOrchestrator) runAssemblyStage(ctx context.Context, job domain.Job) (string, error) {
	stageCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
	defer cancel()

	inputs := make([]outbound.AssembleSegmentInput, len(job.Script))
	for i, segment := range job.Script {
		inputs[i] = outbound.AssembleSegmentInput{
			Index:           segment.Index,
			ImageFile:       segment.ImageFile,
			AudioFile:       segment.AudioFile,
			DisplayDuration: segment.AudioDurationSeconds,
			SubtitleText:    segment.NarrationText,
		}
	}

	videoFile, err := p.assembler.Assemble(stageCtx, inputs)
	if err != nil {
		return "", err
	}

	location, err := p.publisher.Publish(stageCtx, outbound.PublishVideoRequest{
		JobID:         job.ID,
		VideoFileName: videoFile,
	})
	if err != nil {
		return "", err
	}
	return location, nil
}

// transition publishes the next status (and, when given, the script so far)
// as one atomic store update.
func (p *pipelineOrchestrator) transition(job domain.Job, status domain.JobStatus, script []domain.Segment) (domain.Job, error) {
	job.Status = status
	if script != nil {
		job.Script = script
	}
	updated, err := p.store.Update(context.Background(), job)
	if err != nil {
		return job, err
	}
	p.logger.DebugWithFields("job transitioned", map[string]interface{}{
		"job_id": job.ID,
		"status": string(status),
	})
	return updated, nil
}

// fail records the terminal failure with its stage attribution and discards
// any partial artifacts. The failed snapshot always carries a populated error.
func (p *pipelineOrchestrator) fail(job domain.Job, stage domain.Stage, cause error, workDir string) {
	jobErr := &domain.JobError{
		Stage:   stage,
		Kind:    domain.KindOf(cause),
		Message: cause.Error(),
	}

	var stageErr *domain.StageError
	if errors.As(cause, &stageErr) {
		jobErr.Stage = stageErr.Stage
		if stageErr.SegmentIndex >= 0 {
			idx := stageErr.SegmentIndex
			jobErr.SegmentIndex = &idx
		}
	}
	switch jobErr.Kind {
	case domain.KindTimeout:
		jobErr.Message = fmt.Sprintf("%s stage timed out after %s", jobErr.Stage, p.cfg.StageTimeout)
	case domain.KindCancelled:
		jobErr.Message = fmt.Sprintf("%s stage cancelled by user", jobErr.Stage)
	}

	job.Status = domain.StatusFailed
	job.Error = jobErr
	if _, err := p.store.Update(context.Background(), job); err != nil {
		p.logger.Error(err, "failed to record job failure")
	}
	p.cleanup(workDir)

	p.logger.ErrorWithFields(cause, "job failed", map[string]interface{}{
		"job_id": job.ID,
		"stage":  string(jobErr.Stage),
		"kind":   string(jobErr.Kind),
	})
}

func (p *pipelineOrchestrator) cleanup(workDir string) {
	if workDir == "" {
		return
	}
	if err := os.RemoveAll(workDir); err != nil {
		p.logger.Error(err, "failed to remove job workspace")
	}
}
