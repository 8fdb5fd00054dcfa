package outbound

import (
	"context"

	"github.com/lirigzong/Ai-Video-Create/domain"
)

// JobStorePort is the single source of truth for job state. Writes follow a
// single-writer discipline: only the task running a job updates its record.
// Reads return snapshots that never expose a torn update.
type JobStorePort interface {
	Create(ctx context.Context, job domain.Job) error
	Get(ctx context.Context, jobID string) (domain.Job, error)
	List(ctx context.Context) ([]domain.Job, error)
	// Update atomically replaces the stored record. Implementations reject
	// status transitions that are not valid state machine edges.
	Update(ctx context.Context, job domain.Job) (domain.Job, error)
}
