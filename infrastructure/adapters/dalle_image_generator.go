package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

// DALL-E caps prompt length; longer prompts are truncated, not rejected.
const dallePromptLimit = 1000

type dalleApiRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	Number         int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type dalleApiResponse struct {
	Data []struct {
		B64Json string `json:"b64_json"`
	} `json:"data"`
}

type imageGenerator struct {
	ContentFetcher
	logger      outbound.LoggerPort
	dalleConfig *config.DaLLeConfig
}

func NewImageGenerator(contentFetcher ContentFetcher, dalleConfig *config.DaLLeConfig, logger outbound.LoggerPort) outbound.ImageGeneratorPort {
	return &imageGenerator{
		ContentFetcher: contentFetcher,
		logger:         logger,
		dalleConfig:    dalleConfig,
	}
}

func (i *imageGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	req, err := i.getRequest(ctx, prompt)
	if err != nil {
		i.logger.Error(err, "failed to create the image request")
		return nil, err
	}

	rawRes, err := i.FetchContent(req)
	if err != nil {
		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusBadRequest {
			// The images API answers 400 when the safety system rejects a
			// prompt.
			return nil, fmt.Errorf("%w: %v", domain.ErrContentRejected, err)
		}
		if errors.As(err, &statusErr) {
			return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		}
		return nil, err
	}

	var dalleRes dalleApiResponse
	if err := json.Unmarshal(rawRes, &dalleRes); err != nil {
		i.logger.Error(err, "failed to unmarshal the image response")
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if len(dalleRes.Data) == 0 {
		return nil, fmt.Errorf("%w: image response has no data", domain.ErrMalformedResponse)
	}

	decodedImage, err := base64.StdEncoding.DecodeString(dalleRes.Data[0].B64Json)
	if err != nil {
		i.logger.Error(err, "failed to decode the image payload")
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}

	return decodedImage, nil
}

func (i *imageGenerator) getRequest(ctx context.Context, prompt string) (*http.Request, error) {
	reqBody := dalleApiRequest{
		Model:          i.dalleConfig.Model,
		Prompt:         enhancePrompt(prompt),
		Size:           i.dalleConfig.Size,
		Number:         1,
		ResponseFormat: "b64_json",
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.dalleConfig.ApiUrl, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+i.dalleConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

func enhancePrompt(prompt string) string {
	clean := strings.TrimSpace(prompt)
	if len(clean) > dallePromptLimit {
		// Cut on a rune boundary so the truncation never leaves a broken
		// multi-byte sequence at the end.
		cut := dallePromptLimit
		for cut > 0 && !utf8.RuneStart(clean[cut]) {
			cut--
		}
		clean = clean[:cut]
	}
	return fmt.Sprintf("High quality, photorealistic: %s. Professional lighting, detailed, 16:9 aspect ratio suitable for video.", clean)
}
