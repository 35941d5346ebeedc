package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven/mocks"
)

func newTestUploadService(token string) (*mocks.MockDocumentAPI, *catalogService, *uploadService) {
	api, catalog := newTestCatalogService(token, sampleDocuments()...)
	api.SetClock(fixedClock)
	svc := NewUploadService(UploadConfig{
		Documents:   api,
		Catalog:     catalog,
		Credentials: staticCredentials(token),
	}).(*uploadService)
	return api, catalog, svc
}

func reportCandidate(size int64) domain.UploadCandidate {
	return domain.UploadCandidate{
		Title: "Q1 Report",
		File:  domain.SizedSource{FileName: "report.pdf", Bytes: size},
	}
}

func TestUploadService_Validate(t *testing.T) {
	_, _, svc := newTestUploadService("tok")

	payload, err := svc.Validate(reportCandidate(domain.MaxUploadSize))
	require.NoError(t, err)
	assert.Equal(t, domain.FileTypePDF, payload.FileType)

	_, err = svc.Validate(reportCandidate(domain.MaxUploadSize + 1))
	ce, ok := domain.AsClientError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeFileTooLarge, ce.Code)

	_, ok = svc.Candidate()
	assert.False(t, ok, "validation does not stage")
}

func TestUploadService_SubmitSuccess(t *testing.T) {
	api, catalog, svc := newTestUploadService("tok")
	before, err := catalog.Refresh(context.Background(), domain.FileTypeAll)
	require.NoError(t, err)
	require.False(t, catalog.Stale())

	svc.Stage(reportCandidate(2 * 1024 * 1024))
	doc, err := svc.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Q1 Report", doc.Title)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Nil(t, doc.Summary)
	assert.True(t, catalog.Stale(), "upload invalidates the catalog")
	_, staged := svc.Candidate()
	assert.False(t, staged, "candidate cleared after success")

	require.Len(t, api.Uploads(), 1)
	assert.Equal(t, "application/pdf", api.Uploads()[0].ContentType)

	after, err := catalog.EnsureFresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, before.Stats.TotalCount+1, after.Stats.TotalCount)
	assert.False(t, after.Find(doc.ID).HasSummary())
}

func TestUploadService_SubmitValidationFailure(t *testing.T) {
	api, _, svc := newTestUploadService("tok")

	_, err := svc.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrValidation)

	svc.Stage(domain.UploadCandidate{Title: "Deck", File: domain.SizedSource{FileName: "deck.pptx", Bytes: 10}})
	_, err = svc.Submit(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpload)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, api.Uploads(), "rejected candidates are never submitted")
	_, staged := svc.Candidate()
	assert.True(t, staged)
}

func TestUploadService_SubmitRequiresToken(t *testing.T) {
	api, _, svc := newTestUploadService("")
	svc.Stage(reportCandidate(10))

	_, err := svc.Submit(context.Background())

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, api.Uploads())
}

func TestUploadService_SubmitFailureKeepsCandidate(t *testing.T) {
	api, catalog, svc := newTestUploadService("tok")
	_, err := catalog.Refresh(context.Background(), domain.FileTypeAll)
	require.NoError(t, err)

	tests := []struct {
		name    string
		inject  error
		wantMsg string
	}{
		{"server detail", &domain.APIError{StatusCode: 400, Detail: "File type not allowed"}, "File type not allowed"},
		{"transport failure", errors.New("broken pipe"), "upload failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api.UploadErr = tt.inject
			svc.Stage(reportCandidate(10))

			_, err := svc.Submit(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUpload)
			assert.ErrorIs(t, err, domain.ErrTransport)
			assert.Equal(t, tt.wantMsg, err.Error())
			c, staged := svc.Candidate()
			assert.True(t, staged)
			assert.Equal(t, "Q1 Report", c.Title)
			assert.False(t, catalog.Stale(), "failed upload leaves the cache alone")
		})
	}

	// Retry succeeds with the kept candidate
	api.UploadErr = nil
	_, err = svc.Submit(context.Background())
	require.NoError(t, err)
}

func TestUploadService_RejectsConcurrentSubmit(t *testing.T) {
	api, _, svc := newTestUploadService("tok")

	entered := make(chan struct{})
	release := make(chan struct{})
	api.UploadHook = func(*domain.UploadPayload) {
		close(entered)
		<-release
	}

	svc.Stage(reportCandidate(10))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Submit(context.Background())
		assert.NoError(t, err)
	}()
	<-entered

	_, err := svc.Submit(context.Background())
	ce, ok := domain.AsClientError(err)
	require.True(t, ok)
	assert.Equal(t, domain.CodeUploadInProgress, ce.Code)

	close(release)
	wg.Wait()
	assert.Len(t, api.Uploads(), 1)
}

func TestUploadService_NewCandidateDuringSubmitIsKept(t *testing.T) {
	api, _, svc := newTestUploadService("tok")

	api.UploadHook = func(*domain.UploadPayload) {
		svc.Stage(domain.UploadCandidate{Title: "Next", File: domain.SizedSource{FileName: "next.txt", Bytes: 5}})
	}

	svc.Stage(reportCandidate(10))
	_, err := svc.Submit(context.Background())
	require.NoError(t, err)

	c, staged := svc.Candidate()
	require.True(t, staged)
	assert.Equal(t, "Next", c.Title)

	svc.Reset()
	_, staged = svc.Candidate()
	assert.False(t, staged)
}
