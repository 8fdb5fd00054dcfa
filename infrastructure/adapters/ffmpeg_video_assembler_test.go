package adapters

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

type unreadableProber struct {
	badPath string
}

func (p *unreadableProber) Duration(string) (float64, error) { return 1, nil }

func (p *unreadableProber) CanDecode(path string) error {
	if path == p.badPath {
		return fmt.Errorf("no streams in %s", path)
	}
	return nil
}

func newTestAssembler(prober outbound.MediaProberPort) outbound.VideoAssemblerPort {
	return NewFFmpegVideoAssembler(NewZerologWrapper(), prober, &config.AssemblerConfig{FrameRate: 24})
}

func validInput(index int) outbound.AssembleSegmentInput {
	return outbound.AssembleSegmentInput{
		Index:           index,
		ImageFile:       fmt.Sprintf("/assets/segment_%d.jpg", index),
		AudioFile:       fmt.Sprintf("/assets/segment_%d.mp3", index),
		DisplayDuration: 2.5,
		SubtitleText:    fmt.Sprintf("segment %d", index),
	}
}

func TestAssemble_RejectsEmptyInput(t *testing.T) {
	assembler := newTestAssembler(&unreadableProber{})
	_, err := assembler.Assemble(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssemble_RejectsIndexGap(t *testing.T) {
	assembler := newTestAssembler(&unreadableProber{})
	_, err := assembler.Assemble(context.Background(), []outbound.AssembleSegmentInput{
		validInput(0), validInput(2),
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssemble_RejectsDuplicateIndex(t *testing.T) {
	assembler := newTestAssembler(&unreadableProber{})
	_, err := assembler.Assemble(context.Background(), []outbound.AssembleSegmentInput{
		validInput(0), validInput(0),
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssemble_RejectsNonPositiveDuration(t *testing.T) {
	assembler := newTestAssembler(&unreadableProber{})
	bad := validInput(0)
	bad.DisplayDuration = 0
	_, err := assembler.Assemble(context.Background(), []outbound.AssembleSegmentInput{bad})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssemble_RejectsMissingAssetPath(t *testing.T) {
	assembler := newTestAssembler(&unreadableProber{})
	bad := validInput(0)
	bad.AudioFile = ""
	_, err := assembler.Assemble(context.Background(), []outbound.AssembleSegmentInput{bad})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAssemble_UnreadableAssetCarriesSegmentIndex(t *testing.T) {
	inputs := []outbound.AssembleSegmentInput{validInput(0), validInput(1), validInput(2)}
	assembler := newTestAssembler(&unreadableProber{badPath: inputs[1].AudioFile})

	_, err := assembler.Assemble(context.Background(), inputs)
	require.ErrorIs(t, err, domain.ErrAssetUnreadable)

	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	require.Equal(t, domain.StageAssembly, stageErr.Stage)
	require.Equal(t, 1, stageErr.SegmentIndex)
}
