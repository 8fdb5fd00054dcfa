package config

import (
	"fmt"
	"os"
)

type DaLLeConfig struct {
	ApiUrl string
	ApiKey string
	Model  string
	Size   string
}

func GetDaLLeConfig() (*DaLLeConfig, error) {
	apiKey := os.Getenv("DALLE_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("DALLE_API_KEY must be set")
	}
	apiUrl := os.Getenv("DALLE_API_URL")
	if apiUrl == "" {
		apiUrl = "https://api.openai.com/v1/images/generations"
	}
	model := os.Getenv("DALLE_MODEL")
	if model == "" {
		model = "dall-e-3"
	}
	// 16:9, suitable for video frames.
	size := os.Getenv("DALLE_SIZE")
	if size == "" {
		size = "1792x1024"
	}

	return &DaLLeConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
		Model:  model,
		Size:   size,
	}, nil
}
