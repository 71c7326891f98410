package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rubenxyz/replicate-img-to-vid-tool/internal/replicate"
)

// ReplicateService adapts the Replicate client to the Service port. It
// converts wire types to RawStatus and marks retryable failures with
// TransientError so the poll loop can classify them.
type ReplicateService struct {
	client replicate.Client
}

// NewReplicateService creates a new Replicate service adapter.
func NewReplicateService(client replicate.Client) *ReplicateService {
	return &ReplicateService{client: client}
}

// CreateJob submits a prediction and returns its ID. Credential
// rejections are wrapped with ErrCredentialRejected so the batch layer
// can abort instead of burning through every item.
func (s *ReplicateService) CreateJob(ctx context.Context, req GenerationRequest) (string, error) {
	id, err := s.client.CreatePrediction(ctx, req.Model, req.Input)
	if err != nil {
		if errors.Is(err, replicate.ErrUnauthorized) {
			return "", fmt.Errorf("%w: %w", ErrCredentialRejected, err)
		}
		return "", fmt.Errorf("replicate create: %w", err)
	}
	return id, nil
}

// GetJobStatus fetches the raw status payload for a prediction.
func (s *ReplicateService) GetJobStatus(ctx context.Context, jobID string) (RawStatus, error) {
	p, err := s.client.GetPrediction(ctx, jobID)
	if err != nil {
		return RawStatus{}, markTransient(fmt.Errorf("replicate status: %w", err))
	}
	return RawStatus{
		Status:      p.Status,
		Logs:        p.Logs,
		OutputRef:   p.OutputURL,
		ErrorDetail: p.Error,
	}, nil
}

// CancelJob requests cancellation of a prediction.
func (s *ReplicateService) CancelJob(ctx context.Context, jobID string) error {
	if err := s.client.CancelPrediction(ctx, jobID); err != nil {
		return fmt.Errorf("replicate cancel: %w", err)
	}
	return nil
}

// markTransient wraps retryable wire failures with TransientError. Errors
// it leaves unmarked are classified FailureUnknown by the poll loop and
// retried anyway, conservatively.
func markTransient(err error) error {
	switch {
	case errors.Is(err, replicate.ErrRateLimited):
		return &TransientError{Err: err, RateLimited: true}
	case errors.Is(err, replicate.ErrServerError), errors.Is(err, replicate.ErrTransport):
		return &TransientError{Err: err}
	default:
		return err
	}
}

// Compile-time check that ReplicateService implements Service.
var _ Service = (*ReplicateService)(nil)
