package outbound

import "context"

type PublishVideoRequest struct {
	JobID         string
	VideoFileName string
}

// VideoPublisherPort moves a finished video to its addressable location and
// returns that location. The local file is consumed either way.
type VideoPublisherPort interface {
	Publish(ctx context.Context, req PublishVideoRequest) (string, error)
}
