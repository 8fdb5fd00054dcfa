package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PipelineConfig struct {
	// WorkDir holds per-job asset workspaces, removed when the job finishes.
	WorkDir string
	// WorkerPoolSize caps concurrent tasks process-wide, including outbound
	// provider calls, to respect external rate limits.
	WorkerPoolSize int
	// StageTimeout bounds the total time spent waiting on one stage.
	StageTimeout time.Duration
}

func GetPipelineConfig() (*PipelineConfig, error) {
	workDir := os.Getenv("PIPELINE_WORK_DIR")
	if workDir == "" {
		workDir = "/tmp/video-pipeline"
	}

	poolSize := 32
	if raw := os.Getenv("PIPELINE_WORKER_POOL_SIZE"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 1 {
			return nil, fmt.Errorf("failed to parse PIPELINE_WORKER_POOL_SIZE")
		}
		poolSize = val
	}

	stageTimeout := 10 * time.Minute
	if raw := os.Getenv("PIPELINE_STAGE_TIMEOUT"); raw != "" {
		val, err := time.ParseDuration(raw)
		if err != nil || val <= 0 {
			return nil, fmt.Errorf("failed to parse PIPELINE_STAGE_TIMEOUT")
		}
		stageTimeout = val
	}

	return &PipelineConfig{
		WorkDir:        workDir,
		WorkerPoolSize: poolSize,
		StageTimeout:   stageTimeout,
	}, nil
}
