package outbound

import "context"

type GenerateScriptRequest struct {
	Prompt             string
	TargetDuration     int
	TargetSegmentCount int
}

// ScriptSegment is one narrated unit as returned by the provider, before it
// is given an index and assets.
type ScriptSegment struct {
	NarrationText string
	ImagePrompt   string
}

// ScriptGeneratorPort turns a prompt into an ordered script. Transient
// provider failures are retried inside the adapter; what escapes is either
// domain.ErrProviderUnavailable or domain.ErrMalformedResponse.
type ScriptGeneratorPort interface {
	Generate(ctx context.Context, req GenerateScriptRequest) ([]ScriptSegment, error)
}
