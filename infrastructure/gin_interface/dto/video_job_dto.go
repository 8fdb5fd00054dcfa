package dto

import (
	"time"

	"github.com/lirigzong/Ai-Video-Create/domain"
)

// GenerateVideoRequest is the submission payload. Duration and segments fall
// back to the historical defaults when omitted.
type GenerateVideoRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	Duration int    `json:"duration"`
	Segments int    `json:"segments"`
}

const (
	DefaultDurationSeconds = 60
	DefaultSegmentCount    = 3
)

func (r *GenerateVideoRequest) ApplyDefaults() {
	if r.Duration == 0 {
		r.Duration = DefaultDurationSeconds
	}
	if r.Segments == 0 {
		r.Segments = DefaultSegmentCount
	}
}

type SegmentResponse struct {
	Index                int     `json:"index"`
	NarrationText        string  `json:"narration_text"`
	ImagePrompt          string  `json:"image_prompt"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds,omitempty"`
}

type JobErrorResponse struct {
	Stage        string `json:"stage"`
	Kind         string `json:"kind"`
	SegmentIndex *int   `json:"segment_index,omitempty"`
	Message      string `json:"message"`
}

type JobResponse struct {
	ID             string            `json:"id"`
	Prompt         string            `json:"prompt"`
	Duration       int               `json:"duration"`
	Segments       int               `json:"segments"`
	Status         string            `json:"status"`
	Script         []SegmentResponse `json:"script,omitempty"`
	OutputLocation string            `json:"output_location,omitempty"`
	Error          *JobErrorResponse `json:"error,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

type JobSummaryResponse struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Status    string    `json:"status"`
	Duration  int       `json:"duration"`
	Segments  int       `json:"segments"`
	CreatedAt time.Time `json:"created_at"`
}

func FromJob(job domain.Job) JobResponse {
	res := JobResponse{
		ID:             job.ID,
		Prompt:         job.Prompt,
		Duration:       job.RequestedDuration,
		Segments:       job.RequestedSegmentCount,
		Status:         string(job.Status),
		OutputLocation: job.OutputLocation,
		CreatedAt:      job.CreatedAt,
		UpdatedAt:      job.UpdatedAt,
	}
	for _, segment := range job.Script {
		res.Script = append(res.Script, SegmentResponse{
			Index:                segment.Index,
			NarrationText:        segment.NarrationText,
			ImagePrompt:          segment.ImagePrompt,
			AudioDurationSeconds: segment.AudioDurationSeconds,
		})
	}
	if job.Error != nil {
		res.Error = &JobErrorResponse{
			Stage:        string(job.Error.Stage),
			Kind:         string(job.Error.Kind),
			SegmentIndex: job.Error.SegmentIndex,
			Message:      job.Error.Message,
		}
	}
	return res
}

func SummaryFromJob(job domain.Job) JobSummaryResponse {
	return JobSummaryResponse{
		ID:        job.ID,
		Prompt:    job.Prompt,
		Status:    string(job.Status),
		Duration:  job.RequestedDuration,
		Segments:  job.RequestedSegmentCount,
		CreatedAt: job.CreatedAt,
	}
}
