package adapters

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

type ffmpegVideoAssembler struct {
	logger    outbound.LoggerPort
	prober    outbound.MediaProberPort
	frameRate int
}

func NewFFmpegVideoAssembler(logger outbound.LoggerPort, prober outbound.MediaProberPort,
	assemblerConfig *config.AssemblerConfig) outbound.VideoAssemblerPort {
	return &ffmpegVideoAssembler{
		logger:    logger,
		prober:    prober,
		frameRate: assemblerConfig.FrameRate,
	}
}

// Assemble renders the ordered inputs into one mp4: each still is shown for
// its frame-snapped display duration with its narration audio, segments are
// concatenated losslessly in index order, and the subtitle track is burned
// in. The same inputs always yield the same timeline.
func (v *ffmpegVideoAssembler) Assemble(ctx context.Context, segments []outbound.AssembleSegmentInput) (string, error) {
	if err := validateSequence(segments); err != nil {
		return "", err
	}
	if err := v.validateAssets(segments); err != nil {
		return "", err
	}

	tmpDir, err := os.MkdirTemp("", "assemble-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			v.logger.Error(rmErr, "failed to remove assembler temp dir")
		}
	}()

	durations := make([]float64, len(segments))
	texts := make([]string, len(segments))
	for i, segment := range segments {
		durations[i] = segment.DisplayDuration
		texts[i] = segment.SubtitleText
	}
	cues := buildTimeline(durations, texts, v.frameRate)

	segmentFiles := make([]string, len(segments))
	for i, segment := range segments {
		segmentFile := filepath.Join(tmpDir, fmt.Sprintf("segment_%d.mp4", i))
		if err := v.encodeSegment(ctx, segment, cues[i].End-cues[i].Start, segmentFile); err != nil {
			return "", domain.NewStageError(domain.StageAssembly, segment.Index, err)
		}
		segmentFiles[i] = segmentFile
	}

	merged := filepath.Join(tmpDir, "merged.mp4")
	if err := v.concatenate(ctx, segmentFiles, merged); err != nil {
		return "", domain.NewStageError(domain.StageAssembly, domain.NoSegment, err)
	}

	srtFile := filepath.Join(tmpDir, "subtitles.srt")
	if err := os.WriteFile(srtFile, []byte(renderSRT(cues)), 0o644); err != nil {
		return "", err
	}

	output := filepath.Join(os.TempDir(), uuid.NewString()+".mp4")
	if err := v.burnSubtitles(ctx, merged, srtFile, output); err != nil {
		return "", domain.NewStageError(domain.StageAssembly, domain.NoSegment, err)
	}

	return output, nil
}

// validateSequence fails fast on caller contract violations: empty input,
// gaps, duplicates or non-positive durations.
func validateSequence(segments []outbound.AssembleSegmentInput) error {
	if len(segments) == 0 {
		return fmt.Errorf("%w: no segments", domain.ErrInvalidInput)
	}
	for i, segment := range segments {
		if segment.Index != i {
			return fmt.Errorf("%w: expected index %d at position %d, got %d",
				domain.ErrInvalidInput, i, i, segment.Index)
		}
		if segment.DisplayDuration <= 0 {
			return fmt.Errorf("%w: segment %d has non-positive duration",
				domain.ErrInvalidInput, i)
		}
		if segment.ImageFile == "" || segment.AudioFile == "" {
			return fmt.Errorf("%w: segment %d is missing an asset path",
				domain.ErrInvalidInput, i)
		}
	}
	return nil
}

func (v *ffmpegVideoAssembler) validateAssets(segments []outbound.AssembleSegmentInput) error {
	for _, segment := range segments {
		if err := v.prober.CanDecode(segment.ImageFile); err != nil {
			return domain.NewStageError(domain.StageAssembly, segment.Index,
				fmt.Errorf("%w: image: %v", domain.ErrAssetUnreadable, err))
		}
		if err := v.prober.CanDecode(segment.AudioFile); err != nil {
			return domain.NewStageError(domain.StageAssembly, segment.Index,
				fmt.Errorf("%w: audio: %v", domain.ErrAssetUnreadable, err))
		}
	}
	return nil
}

// encodeSegment loops the still image for exactly the snapped duration with
// the segment's narration as the audio track.
func (v *ffmpegVideoAssembler) encodeSegment(ctx context.Context, segment outbound.AssembleSegmentInput,
	duration float64, outputFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-loop", "1", "-i", segment.ImageFile,
		"-i", segment.AudioFile,
		"-c:v", "libx264", "-tune", "stillimage",
		"-c:a", "aac", "-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-r", strconv.Itoa(v.frameRate),
		"-t", formatSeconds(duration),
		outputFile)
	return v.runFFmpeg(cmd, "encoding segment")
}

// concatenate stitches the per-segment files with the concat demuxer without
// re-encoding, so audio stays a lossless concatenation.
func (v *ffmpegVideoAssembler) concatenate(ctx context.Context, segmentFiles []string, outputFile string) error {
	listFile := filepath.Join(filepath.Dir(outputFile), "concat.txt")
	file, err := os.Create(listFile)
	if err != nil {
		return err
	}

	writer := bufio.NewWriter(file)
	for _, name := range segmentFiles {
		if _, err := writer.WriteString("file '" + name + "'\n"); err != nil {
			file.Close()
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-f", "concat", "-safe", "0", "-i", listFile,
		"-c", "copy", outputFile)
	return v.runFFmpeg(cmd, "concatenating segments")
}

func (v *ffmpegVideoAssembler) burnSubtitles(ctx context.Context, inputFile, srtFile, outputFile string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg", "-y",
		"-i", inputFile,
		"-vf", "subtitles="+escapeFilterPath(srtFile),
		"-c:a", "copy",
		outputFile)
	return v.runFFmpeg(cmd, "burning subtitles")
}

func (v *ffmpegVideoAssembler) runFFmpeg(cmd *exec.Cmd, action string) error {
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		v.logger.ErrorWithFields(err, "ffmpeg failed", map[string]interface{}{
			"action": action,
			"stderr": tailLines(stderr.String(), 5),
		})
		return fmt.Errorf("%w: %s: %v: %s", domain.ErrEncodeFailed, action, err, tailLines(stderr.String(), 5))
	}
	return nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 3, 64)
}

// The subtitles filter parses its argument, so the path's special characters
// must be escaped.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
	return replacer.Replace(path)
}

func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
