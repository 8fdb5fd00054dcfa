package outbound

import "context"

// AssembleSegmentInput is the exact tuple the assembler consumes. Inputs must
// arrive in index order with contiguous indices starting at zero; the
// assembler never reorders, deduplicates or drops entries.
type AssembleSegmentInput struct {
	Index           int
	ImageFile       string
	AudioFile       string
	DisplayDuration float64
	SubtitleText    string
}

// VideoAssemblerPort renders the ordered segment inputs into one playable
// video file with concatenated audio and burned subtitles, and returns its
// path. Deterministic with respect to its inputs; performs no network calls.
type VideoAssemblerPort interface {
	Assemble(ctx context.Context, segments []AssembleSegmentInput) (string, error)
}
