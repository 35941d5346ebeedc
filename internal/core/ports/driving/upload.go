package driving

import (
	"context"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// UploadService validates and submits new documents
type UploadService interface {
	// Validate checks a candidate without side effects
	Validate(candidate domain.UploadCandidate) (*domain.UploadPayload, error)

	// Stage holds a candidate until it is submitted
	Stage(candidate domain.UploadCandidate)

	// Candidate returns the staged candidate
	Candidate() (domain.UploadCandidate, bool)

	// Reset drops the staged candidate
	Reset()

	// Submit validates and uploads the staged candidate
	Submit(ctx context.Context) (*domain.Document, error)
}
