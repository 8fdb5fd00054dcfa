package adapters

import (
	"fmt"
	"math"
	"strings"
)

// subtitleCue is one subtitle interval, aligned to the output frame grid.
type subtitleCue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// buildTimeline converts per-segment display durations into contiguous,
// non-overlapping cues. Each boundary is the running sum of prior durations
// snapped to the nearest output frame, so floating-point error never
// accumulates past one frame.
func buildTimeline(durations []float64, texts []string, frameRate int) []subtitleCue {
	cues := make([]subtitleCue, len(durations))

	var cumulative float64
	prevBoundary := 0.0
	for i, d := range durations {
		cumulative += d
		boundary := snapToFrame(cumulative, frameRate)
		cues[i] = subtitleCue{
			Index: i,
			Start: prevBoundary,
			End:   boundary,
			Text:  texts[i],
		}
		prevBoundary = boundary
	}
	return cues
}

func snapToFrame(seconds float64, frameRate int) float64 {
	return math.Round(seconds*float64(frameRate)) / float64(frameRate)
}

// renderSRT emits the cues as an SRT document, one numbered cue per segment.
func renderSRT(cues []subtitleCue) string {
	var b strings.Builder
	for _, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n",
			cue.Index+1,
			formatSRTTimestamp(cue.Start),
			formatSRTTimestamp(cue.End),
			strings.TrimSpace(cue.Text))
	}
	return b.String()
}

func formatSRTTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	minutes := totalMillis % 3_600_000 / 60_000
	secs := totalMillis % 60_000 / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
