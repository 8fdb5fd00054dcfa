package config

import (
	"fmt"
	"os"
	"strconv"
)

type AssemblerConfig struct {
	// FrameRate of the output video; subtitle boundaries snap to this grid.
	FrameRate int
}

func GetAssemblerConfig() (*AssemblerConfig, error) {
	frameRate := 24
	if raw := os.Getenv("ASSEMBLER_FRAME_RATE"); raw != "" {
		val, err := strconv.Atoi(raw)
		if err != nil || val < 1 {
			return nil, fmt.Errorf("failed to parse ASSEMBLER_FRAME_RATE")
		}
		frameRate = val
	}
	return &AssemblerConfig{FrameRate: frameRate}, nil
}
