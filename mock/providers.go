// Package mockproviders supplies stub script, image and speech providers so
// the pipeline can run end to end without API keys. The stubs produce real,
// decodable media: a solid-color JPEG per image prompt and a silent WAV sized
// to the narration length.
package mockproviders

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"strings"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
)

type ScriptGenerator struct{}

func NewScriptGenerator() outbound.ScriptGeneratorPort {
	return &ScriptGenerator{}
}

func (g *ScriptGenerator) Generate(_ context.Context, req outbound.GenerateScriptRequest) ([]outbound.ScriptSegment, error) {
	segments := make([]outbound.ScriptSegment, req.TargetSegmentCount)
	for i := range segments {
		segments[i] = outbound.ScriptSegment{
			NarrationText: fmt.Sprintf("Part %d of %d about %s.", i+1, req.TargetSegmentCount, req.Prompt),
			ImagePrompt:   fmt.Sprintf("Illustration %d for %s", i+1, req.Prompt),
		}
	}
	return segments, nil
}

type ImageGenerator struct{}

func NewImageGenerator() outbound.ImageGeneratorPort {
	return &ImageGenerator{}
}

func (g *ImageGenerator) Generate(_ context.Context, prompt string) ([]byte, error) {
	// Hue derived from the prompt so different segments are telling apart.
	var sum int
	for _, r := range prompt {
		sum += int(r)
	}

	img := image.NewRGBA(image.Rect(0, 0, 1280, 720))
	fill := color.RGBA{R: uint8(73 + sum%100), G: uint8(109 + sum%80), B: 137, A: 255}
	for y := 0; y < 720; y++ {
		for x := 0; x < 1280; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type SpeechGenerator struct{}

func NewSpeechGenerator() outbound.SpeechGeneratorPort {
	return &SpeechGenerator{}
}

func (g *SpeechGenerator) Generate(_ context.Context, text string) ([]byte, error) {
	// Roughly 150 spoken words per minute, three seconds minimum. ffmpeg and
	// ffprobe identify the format from content, not the file extension.
	words := len(strings.Fields(text))
	seconds := float64(words) / 2.5
	if seconds < 3 {
		seconds = 3
	}
	return silentWAV(seconds), nil
}

func silentWAV(seconds float64) []byte {
	const sampleRate = 44100
	samples := int(seconds * sampleRate)
	dataSize := samples * 2 // 16-bit mono

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVEfmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}
