package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/donovanhide/eventsource"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

const (
	doneSignal       = "[DONE]"
	streamMaxRetries = 3
)

type chatCompletionRequest struct {
	Stream      bool          `json:"stream"`
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

type scriptPayload struct {
	Segments []scriptPayloadSegment `json:"segments"`
}

type scriptPayloadSegment struct {
	Content     string `json:"content"`
	ImagePrompt string `json:"image_prompt"`
}

// Models sometimes wrap the JSON in a markdown fence despite being asked not
// to; strip it before parsing.
var jsonFenceRegexp = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

type deepSeekScriptGenerator struct {
	logger         outbound.LoggerPort
	deepSeekConfig *config.DeepSeekConfig
}

func NewDeepSeekScriptGenerator(logger outbound.LoggerPort, deepSeekConfig *config.DeepSeekConfig) outbound.ScriptGeneratorPort {
	return &deepSeekScriptGenerator{
		logger:         logger,
		deepSeekConfig: deepSeekConfig,
	}
}

// Generate streams the chat completion over SSE, accumulates the deltas and
// parses the finished payload into script segments.
func (s *deepSeekScriptGenerator) Generate(ctx context.Context, req outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
	httpReq, err := s.createRequest(ctx, req)
	if err != nil {
		s.logger.Error(err, "failed to create script completion request")
		return nil, err
	}

	raw, err := s.streamCompletion(ctx, httpReq)
	if err != nil {
		return nil, err
	}

	return parseScriptPayload(raw)
}

func (s *deepSeekScriptGenerator) streamCompletion(ctx context.Context, req *http.Request) (string, error) {
	stream, err := eventsource.SubscribeWithRequest("", req)
	if err != nil {
		s.logger.Error(err, "failed to subscribe to completion stream")
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer stream.Close()

	var content strings.Builder
	retryCount := 0

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev := <-stream.Events:
			if ev.Data() == doneSignal {
				return content.String(), nil
			}
			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(ev.Data()), &chunk); err != nil {
				s.logger.Error(err, "failed to unmarshal completion chunk")
				return "", fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
			}
			if len(chunk.Choices) > 0 {
				content.WriteString(chunk.Choices[0].Delta.Content)
			}
			retryCount = 0
		case err := <-stream.Errors:
			if err == io.EOF {
				return content.String(), nil
			}
			if retryCount < streamMaxRetries {
				s.logger.ErrorWithFields(err, "error during completion stream, retrying", map[string]interface{}{
					"retry_count": retryCount,
				})
				retryCount++
				continue
			}
			s.logger.Error(err, "completion stream failed, max retries reached")
			return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
		}
	}
}

// parseScriptPayload turns the accumulated completion into ordered segments.
// The provider decides the final segment count; callers treat it as
// authoritative.
func parseScriptPayload(raw string) ([]outbound.ScriptSegment, error) {
	trimmed := strings.TrimSpace(raw)
	if match := jsonFenceRegexp.FindStringSubmatch(trimmed); match != nil {
		trimmed = match[1]
	}

	var payload scriptPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("%w: parsing script JSON: %v", domain.ErrMalformedResponse, err)
	}
	if len(payload.Segments) == 0 {
		return nil, fmt.Errorf("%w: script has no segments", domain.ErrMalformedResponse)
	}

	segments := make([]outbound.ScriptSegment, len(payload.Segments))
	for i, seg := range payload.Segments {
		segments[i] = outbound.ScriptSegment{
			NarrationText: strings.TrimSpace(seg.Content),
			ImagePrompt:   strings.TrimSpace(seg.ImagePrompt),
		}
	}
	return segments, nil
}

func (s *deepSeekScriptGenerator) createRequest(ctx context.Context, req outbound.GenerateScriptRequest) (*http.Request, error) {
	segmentDuration := float64(req.TargetDuration) / float64(req.TargetSegmentCount)

	prompt := fmt.Sprintf(`Create a video script for: %q

Requirements:
- Total video duration: %d seconds
- Divide into %d equal segments
- Each segment should be approximately %.1f seconds when spoken
- For each segment, provide:
  1. Engaging narration text (concise but informative)
  2. A detailed image prompt (photorealistic description)

Format your response as JSON:
{
    "segments": [
        {
            "content": "Narration text for segment 1",
            "image_prompt": "Detailed photorealistic image description"
        }
    ]
}

Make sure the narration is natural, engaging, and fits the timing. Respond with JSON only.`,
		req.Prompt, req.TargetDuration, req.TargetSegmentCount, segmentDuration)

	completionReq := chatCompletionRequest{
		Stream:      true,
		Model:       s.deepSeekConfig.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.7,
	}

	payloadBytes, err := json.Marshal(completionReq)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.deepSeekConfig.ApiUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.deepSeekConfig.ApiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	return httpReq, nil
}
