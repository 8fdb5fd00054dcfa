package domain

import "time"

type JobStatus string

const (
	StatusQueued           JobStatus = "queued"
	StatusGeneratingScript JobStatus = "generating_script"
	StatusGeneratingAssets JobStatus = "generating_assets"
	StatusCreatingVideo    JobStatus = "creating_video"
	StatusCompleted        JobStatus = "completed"
	StatusFailed           JobStatus = "failed"
)

type Stage string

const (
	StageScript   Stage = "script"
	StageAssets   Stage = "assets"
	StageAssembly Stage = "assembly"
)

// Terminal reports whether a job in this status will never move again.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ValidTransition enforces the allowed job state machine edges. Failed is
// reachable from every non-terminal state; nothing skips a stage or moves
// backward.
func ValidTransition(from, to JobStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusFailed {
		return true
	}
	switch from {
	case StatusQueued:
		return to == StatusGeneratingScript
	case StatusGeneratingScript:
		return to == StatusGeneratingAssets
	case StatusGeneratingAssets:
		return to == StatusCreatingVideo
	case StatusCreatingVideo:
		return to == StatusCompleted
	default:
		return false
	}
}

type Segment struct {
	Index                int     `json:"index"`
	NarrationText        string  `json:"narration_text"`
	ImagePrompt          string  `json:"image_prompt"`
	ImageFile            string  `json:"-"`
	AudioFile            string  `json:"-"`
	AudioDurationSeconds float64 `json:"audio_duration_seconds,omitempty"`
}

// ReadyForAssembly reports whether both assets exist and the audio has a
// measured duration.
func (s Segment) ReadyForAssembly() bool {
	return s.ImageFile != "" && s.AudioFile != "" && s.AudioDurationSeconds > 0
}

type JobError struct {
	Stage        Stage     `json:"stage"`
	Kind         ErrorKind `json:"kind"`
	SegmentIndex *int      `json:"segment_index,omitempty"`
	Message      string    `json:"message"`
}

type Job struct {
	ID                    string    `json:"id"`
	Prompt                string    `json:"prompt"`
	RequestedDuration     int       `json:"duration"`
	RequestedSegmentCount int       `json:"segments"`
	Status                JobStatus `json:"status"`
	Script                []Segment `json:"script,omitempty"`
	OutputLocation        string    `json:"output_location,omitempty"`
	Error                 *JobError `json:"error,omitempty"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// Clone returns a deep copy so published snapshots never share mutable state
// with the writer.
func (j Job) Clone() Job {
	out := j
	if j.Script != nil {
		out.Script = make([]Segment, len(j.Script))
		copy(out.Script, j.Script)
	}
	if j.Error != nil {
		errCopy := *j.Error
		if j.Error.SegmentIndex != nil {
			idx := *j.Error.SegmentIndex
			errCopy.SegmentIndex = &idx
		}
		out.Error = &errCopy
	}
	return out
}
