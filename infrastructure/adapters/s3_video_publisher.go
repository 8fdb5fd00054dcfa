package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
)

type s3VideoPublisher struct {
	logger   outbound.LoggerPort
	s3Svc    *s3.S3
	s3Config *config.S3Config
}

func NewS3VideoPublisher(logger outbound.LoggerPort, s3Svc *s3.S3, s3Config *config.S3Config) outbound.VideoPublisherPort {
	return &s3VideoPublisher{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

func (p *s3VideoPublisher) Publish(ctx context.Context, req outbound.PublishVideoRequest) (string, error) {
	key := fmt.Sprintf("videos/%s.mp4", req.JobID)

	file, err := os.Open(req.VideoFileName)
	if err != nil {
		p.logger.Error(err, "failed to open video file")
		return "", err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			p.logger.Error(closeErr, "failed to close video file")
			return
		}
		if rmErr := os.Remove(req.VideoFileName); rmErr != nil {
			p.logger.Error(rmErr, "failed to remove staged video file")
		}
	}()

	putInput := &s3.PutObjectInput{
		Bucket:      aws.String(p.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("video/mp4"),
	}
	if _, err := p.s3Svc.PutObjectWithContext(ctx, putInput); err != nil {
		p.logger.Error(err, "failed to upload video to S3")
		return "", err
	}

	return fmt.Sprintf("s3://%s/%s", p.s3Config.BucketName, key), nil
}
