package adapters

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
)

type ffprobeMediaProber struct {
	logger outbound.LoggerPort
}

func NewFFprobeMediaProber(logger outbound.LoggerPort) outbound.MediaProberPort {
	return &ffprobeMediaProber{logger: logger}
}

// Duration returns the container duration in fractional seconds. Downstream
// timing depends on the fraction, so it is kept intact.
func (f *ffprobeMediaProber) Duration(path string) (float64, error) {
	cmd := exec.Command("ffprobe", "-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1", path)

	out, err := cmd.Output()
	if err != nil {
		f.logger.ErrorWithFields(err, "ffprobe failed to read duration", map[string]interface{}{
			"path": path,
		})
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration of %s: %w", path, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%s has non-positive duration %f", path, duration)
	}
	return duration, nil
}

// CanDecode asks ffprobe whether the file contains at least one decodable
// stream.
func (f *ffprobeMediaProber) CanDecode(path string) error {
	cmd := exec.Command("ffprobe", "-v", "error",
		"-show_entries", "stream=codec_type",
		"-of", "default=noprint_wrappers=1:nokey=1", path)

	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("probing %s: %w", path, err)
	}
	if strings.TrimSpace(string(out)) == "" {
		return fmt.Errorf("%s has no decodable streams", path)
	}
	return nil
}
