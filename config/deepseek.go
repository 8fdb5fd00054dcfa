package config

import (
	"fmt"
	"os"
)

type DeepSeekConfig struct {
	ApiUrl string
	ApiKey string
	Model  string
}

func GetDeepSeekConfig() (*DeepSeekConfig, error) {
	apiKey := os.Getenv("DEEPSEEK_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("DEEPSEEK_API_KEY must be set")
	}
	apiUrl := os.Getenv("DEEPSEEK_API_URL")
	if apiUrl == "" {
		apiUrl = "https://api.deepseek.com/v1/chat/completions"
	}
	model := os.Getenv("DEEPSEEK_MODEL")
	if model == "" {
		model = "deepseek-chat"
	}
	return &DeepSeekConfig{
		ApiUrl: apiUrl,
		ApiKey: apiKey,
		Model:  model,
	}, nil
}
