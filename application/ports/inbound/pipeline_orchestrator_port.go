package inbound

import (
	"context"

	"github.com/lirigzong/Ai-Video-Create/domain"
)

type SubmitRequest struct {
	Prompt          string
	DurationSeconds int
	SegmentCount    int
}

// PipelineOrchestratorPort drives a job through script generation, asset
// generation and assembly on a background task, and exposes its state for
// polling.
type PipelineOrchestratorPort interface {
	// Submit validates the request, records a queued job and schedules its
	// execution. It returns the initial snapshot without waiting for any work.
	Submit(ctx context.Context, req SubmitRequest) (domain.Job, error)
	// GetStatus returns a read-only snapshot of the job.
	GetStatus(ctx context.Context, jobID string) (domain.Job, error)
	// List returns snapshots of all known jobs, newest first.
	List(ctx context.Context) ([]domain.Job, error)
	// Cancel requests cooperative cancellation. In-flight provider calls are
	// allowed to finish; their results are discarded.
	Cancel(ctx context.Context, jobID string) error
}
