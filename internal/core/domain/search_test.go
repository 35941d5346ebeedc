package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocumentQueryMode(t *testing.T) {
	tests := []struct {
		name string
		text string
		want RetrievalMode
	}{
		{"empty", "", RetrievalList},
		{"whitespace", "   \t ", RetrievalList},
		{"text", "report", RetrievalSearch},
		{"padded text", "  report ", RetrievalSearch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := DocumentQuery{Text: tt.text, FileType: FileTypePDF}
			assert.Equal(t, tt.want, q.Mode())
		})
	}
}

func TestDocumentQueryNormalize(t *testing.T) {
	q := DocumentQuery{Text: "  q1 report ", Offset: -3}.Normalize()

	assert.Equal(t, "q1 report", q.Text)
	assert.Equal(t, DefaultSearchLimit, q.Limit)
	assert.Equal(t, 0, q.Offset)

	q = DocumentQuery{Limit: 5, Offset: 10}.Normalize()
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 10, q.Offset)
}

func TestDocumentSetViewFailed(t *testing.T) {
	assert.False(t, DocumentSetView{}.Failed())
	assert.True(t, DocumentSetView{Err: &ClientError{Kind: KindRetrieval}}.Failed())
}
