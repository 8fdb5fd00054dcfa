package config

import (
	"fmt"
	"os"
	"strconv"
)

type ElevenLabsConfig struct {
	ApiUrl          string
	ApiKey          string
	ModelId         string
	VoiceID         string
	Stability       float64
	SimilarityBoost float64
}

func GetElevenLabsConfig() (*ElevenLabsConfig, error) {
	apiKey := os.Getenv("ELEVEN_LABS_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ELEVEN_LABS_API_KEY must be set")
	}
	apiUrl := os.Getenv("ELEVEN_LABS_API_URL")
	if apiUrl == "" {
		apiUrl = "https://api.elevenlabs.io/v1/text-to-speech"
	}
	modelId := os.Getenv("ELEVEN_LABS_MODEL_ID")
	if modelId == "" {
		modelId = "eleven_monolingual_v1"
	}
	voiceID := os.Getenv("ELEVEN_LABS_VOICE_ID")
	if voiceID == "" {
		return nil, fmt.Errorf("ELEVEN_LABS_VOICE_ID must be set")
	}

	stability := 0.5
	if raw := os.Getenv("ELEVEN_LABS_STABILITY"); raw != "" {
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ELEVEN_LABS_STABILITY")
		}
		stability = val
	}
	similarityBoost := 0.75
	if raw := os.Getenv("ELEVEN_LABS_SIMILARITY_BOOST"); raw != "" {
		val, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ELEVEN_LABS_SIMILARITY_BOOST")
		}
		similarityBoost = val
	}

	return &ElevenLabsConfig{
		ApiUrl:          apiUrl,
		ApiKey:          apiKey,
		ModelId:         modelId,
		VoiceID:         voiceID,
		Stability:       stability,
		SimilarityBoost: similarityBoost,
	}, nil
}
