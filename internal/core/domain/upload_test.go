package domain

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name      string
		candidate UploadCandidate
		wantCode  string
	}{
		{"blank title", UploadCandidate{Title: "   ", File: SizedSource{FileName: "a.pdf", Bytes: 10}}, CodeTitleRequired},
		{"title checked before file", UploadCandidate{Title: "", File: nil}, CodeTitleRequired},
		{"missing file", UploadCandidate{Title: "Q1"}, CodeFileRequired},
		{"unsupported type", UploadCandidate{Title: "Q1", File: SizedSource{FileName: "deck.pptx", Bytes: 10}}, CodeUnsupportedType},
		{"type checked before size", UploadCandidate{Title: "Q1", File: SizedSource{FileName: "deck.pptx", Bytes: MaxUploadSize + 1}}, CodeUnsupportedType},
		{"no extension", UploadCandidate{Title: "Q1", File: SizedSource{FileName: "README", Bytes: 10}}, CodeUnsupportedType},
		{"one byte over", UploadCandidate{Title: "Q1", File: SizedSource{FileName: "report.PDF", Bytes: MaxUploadSize + 1}}, CodeFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ValidateUpload(tt.candidate)
			require.Error(t, err)
			assert.Nil(t, payload)

			ce, ok := AsClientError(err)
			require.True(t, ok)
			assert.Equal(t, KindUpload, ce.Kind)
			assert.Equal(t, CauseValidation, ce.Cause)
			assert.Equal(t, tt.wantCode, ce.Code)
			assert.ErrorIs(t, err, ErrUpload)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestValidateUpload_ExactLimitPasses(t *testing.T) {
	c := UploadCandidate{Title: "  Annual  ", File: SizedSource{FileName: "report.PDF", Bytes: 10485760}}

	payload, err := ValidateUpload(c)
	require.NoError(t, err)

	assert.Equal(t, "Annual", payload.Title)
	assert.Equal(t, "report.PDF", payload.Filename)
	assert.Equal(t, FileTypePDF, payload.FileType)
	assert.Equal(t, int64(10485760), payload.Size)
	assert.Equal(t, "application/pdf", payload.ContentType)
}

func TestValidateUpload_Idempotent(t *testing.T) {
	for _, c := range []UploadCandidate{
		{Title: "Q1", File: SizedSource{FileName: "notes.txt", Bytes: 12}},
		{Title: "Q1", File: SizedSource{FileName: "deck.pptx", Bytes: 12}},
	} {
		p1, err1 := ValidateUpload(c)
		p2, err2 := ValidateUpload(c)
		assert.Equal(t, p1, p2)
		assert.Equal(t, err1, err2)
	}
}

func TestFileFromBytes(t *testing.T) {
	src := FileFromBytes("notes.txt", []byte("hello"))
	assert.Equal(t, "notes.txt", src.Name())
	assert.Equal(t, int64(5), src.Size())

	rc, err := src.Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestFileFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	src, err := FileFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", src.Name())
	assert.Equal(t, int64(8), src.Size())

	_, err = FileFromPath(filepath.Join(dir, "missing.pdf"))
	assert.Error(t, err)

	_, err = FileFromPath(dir)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSizedSourceOpen(t *testing.T) {
	rc, err := SizedSource{FileName: "a.txt", Bytes: 3000}.Open()
	require.NoError(t, err)
	n, err := io.Copy(io.Discard, rc)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), n)
}
