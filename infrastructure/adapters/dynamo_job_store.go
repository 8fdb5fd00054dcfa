package adapters

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"github.com/lirigzong/Ai-Video-Create/application/ports/outbound"
	"github.com/lirigzong/Ai-Video-Create/config"
	"github.com/lirigzong/Ai-Video-Create/domain"
)

type dynamoJobItem struct {
	ID             string           `dynamodbav:"id"`
	Prompt         string           `dynamodbav:"prompt"`
	Duration       int              `dynamodbav:"duration"`
	Segments       int              `dynamodbav:"segments"`
	Status         string           `dynamodbav:"status"`
	Script         []domain.Segment `dynamodbav:"script,omitempty"`
	OutputLocation string           `dynamodbav:"output_location,omitempty"`
	Error          *domain.JobError `dynamodbav:"error,omitempty"`
	CreatedAt      int64            `dynamodbav:"created_at"`
	UpdatedAt      int64            `dynamodbav:"updated_at"`
}

// dynamoJobStore keeps the durable job record in DynamoDB behind the same
// port as the in-memory store; the single-writer discipline of the pipeline
// makes plain puts safe.
type dynamoJobStore struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

func NewDynamoJobStore(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB,
	dynamoConfig *config.DynamoConfig) outbound.JobStorePort {
	return &dynamoJobStore{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (s *dynamoJobStore) Create(ctx context.Context, job domain.Job) error {
	av, err := dynamodbattribute.MarshalMap(toDynamoItem(job))
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:                av,
		TableName:           aws.String(s.dynamoConfig.TableName),
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	}
	if _, err := s.dynamoSvc.PutItemWithContext(ctx, input); err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException {
			return fmt.Errorf("job %s already exists", job.ID)
		}
		s.logger.ErrorWithFields(err, "failed to create job item", map[string]interface{}{
			"job_id": job.ID,
		})
		return err
	}
	return nil
}

func (s *dynamoJobStore) Get(ctx context.Context, jobID string) (domain.Job, error) {
	input := &dynamodb.GetItemInput{
		TableName: aws.String(s.dynamoConfig.TableName),
		Key: map[string]*dynamodb.AttributeValue{
			"id": {S: aws.String(jobID)},
		},
	}

	res, err := s.dynamoSvc.GetItemWithContext(ctx, input)
	if err != nil {
		s.logger.ErrorWithFields(err, "failed to get job item", map[string]interface{}{
			"job_id": jobID,
		})
		return domain.Job{}, err
	}
	if res.Item == nil {
		return domain.Job{}, fmt.Errorf("%w: %s", domain.ErrNotFound, jobID)
	}

	var item dynamoJobItem
	if err := dynamodbattribute.UnmarshalMap(res.Item, &item); err != nil {
		return domain.Job{}, err
	}
	return fromDynamoItem(item), nil
}

func (s *dynamoJobStore) List(ctx context.Context) ([]domain.Job, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(s.dynamoConfig.TableName),
	}

	jobs := make([]domain.Job, 0)
	err := s.dynamoSvc.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, _ bool) bool {
		for _, raw := range page.Items {
			var item dynamoJobItem
			if err := dynamodbattribute.UnmarshalMap(raw, &item); err != nil {
				s.logger.Error(err, "failed to unmarshal job item, skipping")
				continue
			}
			jobs = append(jobs, fromDynamoItem(item))
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

func (s *dynamoJobStore) Update(ctx context.Context, job domain.Job) (domain.Job, error) {
	job.UpdatedAt = time.Now().UTC()

	av, err := dynamodbattribute.MarshalMap(toDynamoItem(job))
	if err != nil {
		return domain.Job{}, err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(s.dynamoConfig.TableName),
	}
	if _, err := s.dynamoSvc.PutItemWithContext(ctx, input); err != nil {
		s.logger.ErrorWithFields(err, "failed to update job item", map[string]interface{}{
			"job_id": job.ID,
		})
		return domain.Job{}, err
	}
	return job, nil
}

func toDynamoItem(job domain.Job) dynamoJobItem {
	return dynamoJobItem{
		ID:             job.ID,
		Prompt:         job.Prompt,
		Duration:       job.RequestedDuration,
		Segments:       job.RequestedSegmentCount,
		Status:         string(job.Status),
		Script:         job.Script,
		OutputLocation: job.OutputLocation,
		Error:          job.Error,
		CreatedAt:      job.CreatedAt.UnixMilli(),
		UpdatedAt:      job.UpdatedAt.UnixMilli(),
	}
}

func fromDynamoItem(item dynamoJobItem) domain.Job {
	return domain.Job{
		ID:                    item.ID,
		Prompt:                item.Prompt,
		RequestedDuration:     item.Duration,
		RequestedSegmentCount: item.Segments,
		Status:                domain.JobStatus(item.Status),
		Script:                item.Script,
		OutputLocation:        item.OutputLocation,
		Error:                 item.Error,
		CreatedAt:             time.UnixMilli(item.CreatedAt).UTC(),
		UpdatedAt:             time.UnixMilli(item.UpdatedAt).UTC(),
	}
}
