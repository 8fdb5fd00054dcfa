package adapters

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
)

// localVideoPublisher keeps finished videos in the directory the HTTP layer
// serves from and returns the serving URL as the output location.
type localVideoPublisher struct {
	logger    outbound.LoggerPort
	videosDir string
}

func NewLocalVideoPublisher(logger outbound.LoggerPort, outputConfig *config.OutputConfig) outbound.VideoPublisherPort {
	return &localVideoPublisher{
		logger:    logger,
		videosDir: outputConfig.VideosDir,
	}
}

func (p *localVideoPublisher) Publish(_ context.Context, req outbound.PublishVideoRequest) (string, error) {
	if err := os.MkdirAll(p.videosDir, 0o755); err != nil {
		return "", err
	}

	target := filepath.Join(p.videosDir, req.JobID+".mp4")
	if err := os.Rename(req.VideoFileName, target); err != nil {
		// Rename fails across filesystems; fall back to a copy.
		if copyErr := copyFile(req.VideoFileName, target); copyErr != nil {
			return "", copyErr
		}
		if rmErr := os.Remove(req.VideoFileName); rmErr != nil {
			p.logger.Error(rmErr, "failed to remove staged video file")
		}
	}

	return "/api/videos/" + req.JobID + ".mp4", nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
