package inbound

import (
	"context"

	"github.com/lirigzong/Ai-Video-Create/domain"
)

// SegmentAssetGeneratorPort fans out image and speech generation across
// script segments with bounded concurrency. Enriched segments are emitted on
// the first channel as they finish, in no particular order; the first
// permanent failure is emitted on the second channel and cancels the rest of
// the fan-out. Both channels close when the stage is done.
type SegmentAssetGeneratorPort interface {
	Generate(ctx context.Context, segments []domain.Segment, workDir string) (<-chan domain.Segment, <-chan error)
}
