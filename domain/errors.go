package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNotFound            = errors.New("job not found")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrMalformedResponse   = errors.New("malformed provider response")
	ErrContentRejected     = errors.New("content rejected by provider")
	ErrAssetUnreadable     = errors.New("asset unreadable")
	ErrEncodeFailed        = errors.New("encode failed")
	ErrInvalidInput        = errors.New("invalid assembler input")
	ErrTimeout             = errors.New("stage timed out")
	ErrCancelled           = errors.New("cancelled")
)

type ErrorKind string

const (
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindProviderUnavailable ErrorKind = "provider_unavailable"
	KindMalformedResponse   ErrorKind = "malformed_response"
	KindContentRejected     ErrorKind = "content_rejected"
	KindAssetUnreadable     ErrorKind = "asset_unreadable"
	KindEncodeFailed        ErrorKind = "encode_failed"
	KindInvalidInput        ErrorKind = "invalid_input"
	KindTimeout             ErrorKind = "timeout"
	KindCancelled           ErrorKind = "cancelled"
	KindInternal            ErrorKind = "internal"
)

// KindOf maps an error chain to the taxonomy used in job failure records.
// Context errors are folded in so that stage deadlines and cooperative
// cancellation surface as Timeout and Cancelled.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return KindCancelled
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrProviderUnavailable):
		return KindProviderUnavailable
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrContentRejected):
		return KindContentRejected
	case errors.Is(err, ErrAssetUnreadable):
		return KindAssetUnreadable
	case errors.Is(err, ErrEncodeFailed):
		return KindEncodeFailed
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// NoSegment marks a StageError that is not attributable to one segment.
const NoSegment = -1

// StageError attributes a pipeline failure to the stage (and, for asset and
// assembly faults, the segment index) where it happened.
type StageError struct {
	Stage        Stage
	SegmentIndex int
	Err          error
}

func NewStageError(stage Stage, segmentIndex int, err error) *StageError {
	return &StageError{Stage: stage, SegmentIndex: segmentIndex, Err: err}
}

func (e *StageError) Error() string {
	if e.SegmentIndex >= 0 {
		return fmt.Sprintf("stage %s, segment %d: %v", e.Stage, e.SegmentIndex, e.Err)
	}
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
