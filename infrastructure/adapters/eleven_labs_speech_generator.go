package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type speechGenerator struct {
	ContentFetcher
	logger           outbound.LoggerPort
	elevenLabsConfig *config.ElevenLabsConfig
}

func NewSpeechGenerator(contentFetcher ContentFetcher, elevenLabsConfig *config.ElevenLabsConfig, logger outbound.LoggerPort) outbound.SpeechGeneratorPort {
	return &speechGenerator{
		ContentFetcher:   contentFetcher,
		logger:           logger,
		elevenLabsConfig: elevenLabsConfig,
	}
}

// Generate returns the synthesized narration as mpeg audio bytes. Duration is
// deliberately not reported here; callers measure it from the written file.
func (a *speechGenerator) Generate(ctx context.Context, text string) ([]byte, error) {
	req, err := a.getRequest(ctx, text)
	if err != nil {
		a.logger.Error(err, "failed to create the speech request")
		return nil, err
	}

	payload, err := a.FetchContent(req)
	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		}
		return nil, err
	}
	return payload, nil
}

func (a *speechGenerator) getRequest(ctx context.Context, text string) (*http.Request, error) {
	reqBody := elevenLabsRequest{
		Text:    text,
		ModelId: a.elevenLabsConfig.ModelId,
		VoiceSettings: voiceSettings{
			Stability:       a.elevenLabsConfig.Stability,
			SimilarityBoost: a.elevenLabsConfig.SimilarityBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := a.elevenLabsConfig.ApiUrl + "/" + a.elevenLabsConfig.VoiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", a.elevenLabsConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
