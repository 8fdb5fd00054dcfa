package config

import (
	"fmt"
	"os"
)

const (
	PublisherLocal = "local"
	PublisherS3    = "s3"
)

type OutputConfig struct {
	// Publisher selects where finished videos land: local or s3.
	Publisher string
	// VideosDir is where the local publisher keeps served videos.
	VideosDir string
}

func GetOutputConfig() (*OutputConfig, error) {
	publisher := os.Getenv("OUTPUT_PUBLISHER")
	if publisher == "" {
		publisher = PublisherLocal
	}
	if publisher != PublisherLocal && publisher != PublisherS3 {
		return nil, fmt.Errorf("OUTPUT_PUBLISHER must be %q or %q", PublisherLocal, PublisherS3)
	}

	videosDir := os.Getenv("OUTPUT_VIDEOS_DIR")
	if videosDir == "" {
		videosDir = "generated_videos"
	}

	return &OutputConfig{
		Publisher: publisher,
		VideosDir: videosDir,
	}, nil
}
