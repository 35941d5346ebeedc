package domain

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MaxUploadSize is the largest file the service accepts (10 MiB)
const MaxUploadSize int64 = 10 * 1024 * 1024

// Upload rejection codes, in the order the rules are checked
const (
	CodeTitleRequired   = "title_required"
	CodeFileRequired    = "file_required"
	CodeUnsupportedType = "unsupported_type"
	CodeFileTooLarge    = "file_too_large"

	CodeUploadInProgress = "upload_in_progress"
)

// FileSource is a file chosen for upload. Open may be called once per attempt.
type FileSource interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// UploadCandidate is the title and file the user has picked but not yet submitted
type UploadCandidate struct {
	Title string
	File  FileSource
}

// UploadPayload is a candidate that passed validation, normalized for submission
type UploadPayload struct {
	Title       string
	Filename    string
	FileType    FileType
	Size        int64
	ContentType string
	File        FileSource
}

// ValidateUpload checks the candidate and returns the first failing rule.
// It has no side effects and may be called any number of times.
func ValidateUpload(c UploadCandidate) (*UploadPayload, error) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return nil, NewValidationError(KindUpload, CodeTitleRequired, "document title is required")
	}
	if c.File == nil || c.File.Name() == "" {
		return nil, NewValidationError(KindUpload, CodeFileRequired, "please select a file")
	}

	name := filepath.Base(c.File.Name())
	ft := FileType(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."))
	if !ft.Supported() {
		return nil, NewValidationError(KindUpload, CodeUnsupportedType, "only PDF, DOCX, TXT and DOC files are supported")
	}
	if c.File.Size() > MaxUploadSize {
		return nil, NewValidationError(KindUpload, CodeFileTooLarge, "file size must not exceed 10MB")
	}

	return &UploadPayload{
		Title:       title,
		Filename:    name,
		FileType:    ft,
		Size:        c.File.Size(),
		ContentType: ft.ContentType(),
		File:        c.File,
	}, nil
}

type pathSource struct {
	path string
	size int64
}

// FileFromPath stats path and returns a source that reopens it on each attempt
func FileFromPath(path string) (FileSource, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, ErrInvalidInput)
	}
	return &pathSource{path: path, size: info.Size()}, nil
}

func (p *pathSource) Name() string { return filepath.Base(p.path) }
func (p *pathSource) Size() int64  { return p.size }

func (p *pathSource) Open() (io.ReadCloser, error) {
	return os.Open(p.path)
}

type bytesSource struct {
	name string
	data []byte
}

// FileFromBytes returns an in-memory source
func FileFromBytes(name string, data []byte) FileSource {
	return &bytesSource{name: name, data: data}
}

func (b *bytesSource) Name() string { return b.name }
func (b *bytesSource) Size() int64  { return int64(len(b.data)) }

func (b *bytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// SizedSource reports a size without holding the content. Open returns zeros.
// Used where only validation matters.
type SizedSource struct {
	FileName string
	Bytes    int64
}

func (s SizedSource) Name() string { return s.FileName }
func (s SizedSource) Size() int64  { return s.Bytes }

func (s SizedSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(io.LimitReader(zeroReader{}, s.Bytes)), nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
