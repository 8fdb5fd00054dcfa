package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lirigzong/Ai-Video-Create/application/ports/inbound"
	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

type segmentAssetGenerator struct {
	logger          outbound.LoggerPort
	imageGenerator  outbound.ImageGeneratorPort
	speechGenerator outbound.SpeechGeneratorPort
	prober          outbound.MediaProberPort
	workerPool      outbound.TaskDispatcher
}

func NewSegmentAssetGenerator(logger outbound.LoggerPort, imageGenerator outbound.ImageGeneratorPort,
	speechGenerator outbound.SpeechGeneratorPort, prober outbound.MediaProberPort,
	workerPool outbound.TaskDispatcher) inbound.SegmentAssetGeneratorPort {
	return &segmentAssetGenerator{
		logger:          logger,
		imageGenerator:  imageGenerator,
		speechGenerator: speechGenerator,
		prober:          prober,
		workerPool:      workerPool,
	}
}

func (s *segmentAssetGenerator) Generate(ctx context.Context, segments []domain.Segment, workDir string) (<-chan domain.Segment, <-chan error) {
	out := make(chan domain.Segment)
	errCh := make(chan error, len(segments)+1)

	newCtx, cancel := context.WithCancel(ctx)

	// The fan-out loop runs on its own goroutine: it blocks in Submit while
	// the pool is saturated, and a loop occupying a pool worker while waiting
	// for another pool worker deadlocks once enough jobs run at once. Only
	// the per-segment tasks go through the bounded pool.
	go func() {
		defer close(out)
		defer close(errCh)
		defer cancel()

		var wg sync.WaitGroup

		for _, seg := range segments {
			select {
			case <-newCtx.Done():
				wg.Wait()
				return
			default:
			}

			segment := seg
			wg.Add(1)
			// Submit blocks when the shared pool is saturated, so segments
			// past the worker budget queue here in index order.
			err := s.workerPool.Submit(func() {
				defer wg.Done()

				enriched, err := s.generateAssets(newCtx, segment, workDir)
				if err != nil {
					select {
					case errCh <- domain.NewStageError(domain.StageAssets, segment.Index, err):
					case <-newCtx.Done():
					}
					cancel()
					return
				}
				select {
				case out <- *enriched:
				case <-newCtx.Done():
				}
			})
			if err != nil {
				wg.Done()
				select {
				case errCh <- err:
				case <-newCtx.Done():
				}
				cancel()
				break
			}
		}

		wg.Wait()
	}()

	return out, errCh
}

// generateAssets runs the segment's image and speech calls concurrently. Both
// are required; the audio duration is measured from the written file.
func (s *segmentAssetGenerator) generateAssets(ctx context.Context, segment domain.Segment, workDir string) (*domain.Segment, error) {
	var (
		imageFile     string
		audioFile     string
		audioDuration float64
	)

	g, groupCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		content, err := s.imageGenerator.Generate(groupCtx, segment.ImagePrompt)
		if err != nil {
			s.logger.ErrorWithFields(err, "failed to generate segment image", map[string]interface{}{
				"segment_index": segment.Index,
			})
			return err
		}
		path := filepath.Join(workDir, fmt.Sprintf("segment_%d.jpg", segment.Index))
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return err
		}
		imageFile = path
		return nil
	})

	g.Go(func() error {
		content, err := s.speechGenerator.Generate(groupCtx, segment.NarrationText)
		if err != nil {
			s.logger.ErrorWithFields(err, "failed to synthesize segment audio", map[string]interface{}{
				"segment_index": segment.Index,
			})
			return err
		}
		path := filepath.Join(workDir, fmt.Sprintf("segment_%d.mp3", segment.Index))
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return err
		}
		duration, err := s.prober.Duration(path)
		if err != nil {
			return fmt.Errorf("%w: measuring audio duration: %v", domain.ErrAssetUnreadable, err)
		}
		audioFile = path
		audioDuration = duration
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	segment.ImageFile = imageFile
	segment.AudioFile = audioFile
	segment.AudioDurationSeconds = audioDuration

	s.logger.DebugWithFields("segment assets ready", map[string]interface{}{
		"segment_index":  segment.Index,
		"audio_duration": audioDuration,
	})

	return &segment, nil
}
