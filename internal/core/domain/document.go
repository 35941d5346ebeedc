package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// FileType is one of the document formats the service accepts
type FileType string

const (
	FileTypeAll  FileType = "" // No filter
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeTXT  FileType = "txt"
	FileTypeDOC  FileType = "doc"
)

// SupportedFileTypes lists the accepted formats in display order
var SupportedFileTypes = []FileType{FileTypePDF, FileTypeDOCX, FileTypeTXT, FileTypeDOC}

var fileTypeContentTypes = map[FileType]string{
	FileTypePDF:  "application/pdf",
	FileTypeDOCX: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	FileTypeTXT:  "text/plain",
	FileTypeDOC:  "application/msword",
}

// ParseFileType accepts "pdf", ".PDF", " Docx " and similar spellings.
// The empty string and "all" parse to FileTypeAll.
func ParseFileType(s string) (FileType, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	if s == "" || s == "all" {
		return FileTypeAll, nil
	}
	ft := FileType(s)
	if !ft.Supported() {
		return FileTypeAll, ErrInvalidInput
	}
	return ft, nil
}

// Supported reports whether ft is one of the accepted formats
func (ft FileType) Supported() bool {
	_, ok := fileTypeContentTypes[ft]
	return ok
}

// ContentType returns the MIME type sent with uploads of this format
func (ft FileType) ContentType() string {
	if ct, ok := fileTypeContentTypes[ft]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Document is the client's read-only copy of a server-side document
type Document struct {
	ID        int64        `json:"id"`
	Title     string       `json:"title"`
	Filename  string       `json:"filename"`
	FileSize  int64        `json:"file_size"`
	FileType  FileType     `json:"file_type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`
	Summary   *SummaryInfo `json:"summary,omitempty"` // nil until generated
}

// HasSummary reports whether the document has been summarized
func (d *Document) HasSummary() bool {
	return d.Summary != nil
}

// SummaryInfo holds the generated summary and its keywords.
// They are produced together and are never set independently.
type SummaryInfo struct {
	Summary  string `json:"summary"`
	Keywords string `json:"keywords"` // Comma-delimited
}

// NewSummaryInfo returns nil when there is no summary text
func NewSummaryInfo(summary, keywords string) *SummaryInfo {
	if strings.TrimSpace(summary) == "" {
		return nil
	}
	return &SummaryInfo{Summary: summary, Keywords: keywords}
}

// KeywordList splits the comma-delimited keywords, dropping blanks
func (s *SummaryInfo) KeywordList() []string {
	if s == nil || s.Keywords == "" {
		return nil
	}
	parts := strings.Split(s.Keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB"}

// HumanSize formats a byte count using 1024-based units with at most two decimals
func HumanSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(1024)))
	if i >= len(sizeUnits) {
		i = len(sizeUnits) - 1
	}
	v := float64(bytes) / math.Pow(1024, float64(i))
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + sizeUnits[i]
}
