package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileType(t *testing.T) {
	tests := []struct {
		input   string
		want    FileType
		wantErr bool
	}{
		{"pdf", FileTypePDF, false},
		{".PDF", FileTypePDF, false},
		{" Docx ", FileTypeDOCX, false},
		{"txt", FileTypeTXT, false},
		{"doc", FileTypeDOC, false},
		{"", FileTypeAll, false},
		{"all", FileTypeAll, false},
		{"pptx", FileTypeAll, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFileType(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileTypeContentType(t *testing.T) {
	assert.Equal(t, "application/pdf", FileTypePDF.ContentType())
	assert.Equal(t, "text/plain", FileTypeTXT.ContentType())
	assert.Equal(t, "application/octet-stream", FileType("pptx").ContentType())
	assert.False(t, FileTypeAll.Supported())
}

func TestNewSummaryInfo(t *testing.T) {
	assert.Nil(t, NewSummaryInfo("", "a, b"))
	assert.Nil(t, NewSummaryInfo("   ", ""))

	info := NewSummaryInfo("A short summary", "")
	require.NotNil(t, info)
	assert.Equal(t, "A short summary", info.Summary)
	assert.Empty(t, info.KeywordList())
}

func TestSummaryInfoKeywordList(t *testing.T) {
	info := &SummaryInfo{Summary: "s", Keywords: "machine learning, data ,, analysis "}
	assert.Equal(t, []string{"machine learning", "data", "analysis"}, info.KeywordList())

	var none *SummaryInfo
	assert.Nil(t, none.KeywordList())
}

func TestDocumentHasSummary(t *testing.T) {
	doc := &Document{ID: 1}
	assert.False(t, doc.HasSummary())

	doc.Summary = &SummaryInfo{Summary: "s", Keywords: "k"}
	assert.True(t, doc.HasSummary())
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{2 * 1024 * 1024, "2 MB"},
		{10485760, "10 MB"},
		{5 * 1024 * 1024 * 1024, "5 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3072 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, HumanSize(tt.bytes))
		})
	}
}
