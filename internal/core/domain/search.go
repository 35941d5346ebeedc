package domain

import (
	"strings"
	"time"
)

// RetrievalMode selects which endpoint serves a document set
type RetrievalMode string

const (
	RetrievalList   RetrievalMode = "list"   // Catalog listing
	RetrievalSearch RetrievalMode = "search" // Server-side search
)

// DefaultSearchLimit matches the service's default page size
const DefaultSearchLimit = 20

// DocumentQuery is the user's current query text and filters
type DocumentQuery struct {
	Text     string     `json:"query"`
	FileType FileType   `json:"file_type,omitempty"`
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

// Mode returns RetrievalSearch iff the trimmed query text is non-empty
func (q DocumentQuery) Mode() RetrievalMode {
	if strings.TrimSpace(q.Text) != "" {
		return RetrievalSearch
	}
	return RetrievalList
}

// Trimmed returns the query text without surrounding whitespace
func (q DocumentQuery) Trimmed() string {
	return strings.TrimSpace(q.Text)
}

// Normalize returns a copy with trimmed text and default paging applied
func (q DocumentQuery) Normalize() DocumentQuery {
	q.Text = strings.TrimSpace(q.Text)
	if q.Limit <= 0 {
		q.Limit = DefaultSearchLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// DocumentSetView is the document set currently shown for a query.
// Err is set when the last retrieval failed; Documents is then empty.
type DocumentSetView struct {
	Mode      RetrievalMode `json:"mode"`
	Query     DocumentQuery `json:"query"`
	Documents []*Document   `json:"documents"`
	Err       *ClientError  `json:"error,omitempty"`
	Seq       uint64        `json:"seq"`
}

// Failed reports whether the view records a retrieval failure
func (v DocumentSetView) Failed() bool {
	return v.Err != nil
}
