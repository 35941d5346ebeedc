package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven"
	"github.com/custodia-labs/docsum/internal/core/ports/driving"
)

// Ensure uploadService implements UploadService
var _ driving.UploadService = (*uploadService)(nil)

// UploadConfig holds the dependencies of the upload service
type UploadConfig struct {
	Documents   driven.DocumentAPI
	Catalog     driving.CatalogService
	Credentials driving.CredentialSource
	Logger      *zap.Logger
}

type uploadService struct {
	docs    driven.DocumentAPI
	catalog driving.CatalogService
	creds   driving.CredentialSource
	logger  *zap.Logger

	mu         sync.Mutex
	candidate  *domain.UploadCandidate
	submitting bool
}

// NewUploadService creates a new UploadService
func NewUploadService(cfg UploadConfig) driving.UploadService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &uploadService{
		docs:    cfg.Documents,
		catalog: cfg.Catalog,
		creds:   cfg.Credentials,
		logger:  logger.Named("upload"),
	}
}

// Validate checks a candidate without side effects
func (s *uploadService) Validate(candidate domain.UploadCandidate) (*domain.UploadPayload, error) {
	return domain.ValidateUpload(candidate)
}

// Stage replaces the held candidate
func (s *uploadService) Stage(candidate domain.UploadCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = &candidate
}

// Candidate returns the held candidate
func (s *uploadService) Candidate() (domain.UploadCandidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.candidate == nil {
		return domain.UploadCandidate{}, false
	}
	return *s.candidate, true
}

// Reset drops the held candidate
func (s *uploadService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candidate = nil
}

// Submit validates and uploads the staged candidate.
// On failure the candidate is kept so the caller can retry.
func (s *uploadService) Submit(ctx context.Context) (*domain.Document, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, domain.NewValidationError(domain.KindUpload, domain.CodeUploadInProgress, "an upload is already in progress")
	}
	staged := s.candidate
	var candidate domain.UploadCandidate
	if staged != nil {
		candidate = *staged
	}
	payload, err := domain.ValidateUpload(candidate)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	token := s.creds.Token()
	if token == "" {
		s.mu.Unlock()
		return nil, &domain.ClientError{
			Kind:    domain.KindUpload,
			Cause:   domain.CauseUnauthenticated,
			Message: "please log in to upload documents",
			Err:     domain.ErrNotAuthenticated,
		}
	}
	s.submitting = true
	s.mu.Unlock()

	doc, err := s.docs.Upload(ctx, token, payload)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("upload failed", zap.String("filename", payload.Filename), zap.Error(err))
		return nil, domain.Interpret(domain.KindUpload, err, "upload failed")
	}
	// A candidate staged while this one was in flight is left alone.
	if s.candidate == staged {
		s.candidate = nil
	}
	s.mu.Unlock()

	s.catalog.Invalidate()
	s.logger.Info("document uploaded",
		zap.Int64("document_id", doc.ID),
		zap.String("filename", payload.Filename),
		zap.Int64("size", payload.Size),
	)
	return doc, nil
}
