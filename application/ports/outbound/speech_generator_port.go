package outbound

import "context"

// SpeechGeneratorPort synthesizes narration audio. The caller measures the
// duration from the produced file, never from the text.
type SpeechGeneratorPort interface {
	Generate(ctx context.Context, text string) ([]byte, error)
}
