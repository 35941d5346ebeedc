package domain

// SummaryStatus is the position of the summarization state machine
type SummaryStatus string

const (
	SummaryIdle      SummaryStatus = "idle"
	SummaryPending   SummaryStatus = "pending"
	SummarySucceeded SummaryStatus = "succeeded"
	SummaryFailed    SummaryStatus = "failed"
)

// SummaryState is the outcome of the most recently issued summarization.
// DocumentID is the document the request was issued for, which may differ
// from the current selection.
type SummaryState struct {
	Status     SummaryStatus `json:"status"`
	DocumentID int64         `json:"document_id,omitempty"`
	Result     *SummaryInfo  `json:"result,omitempty"` // Succeeded only
	Err        *ClientError  `json:"error,omitempty"`  // Failed only
	Seq        uint64        `json:"seq"`
}

// Terminal reports whether the state is Succeeded or Failed
func (s SummaryState) Terminal() bool {
	return s.Status == SummarySucceeded || s.Status == SummaryFailed
}

// SummaryResult is what the service returns for a generate request
type SummaryResult struct {
	Message  string    `json:"message,omitempty"`
	Summary  string    `json:"summary"`
	Keywords string    `json:"keywords"`
	Document *Document `json:"document,omitempty"`
}

// Info returns the summary composite, nil when the service returned no text
func (r *SummaryResult) Info() *SummaryInfo {
	if r == nil {
		return nil
	}
	return NewSummaryInfo(r.Summary, r.Keywords)
}

// StoredSummary is a summary previously generated for a document
type StoredSummary struct {
	DocumentID int64        `json:"document_id"`
	Title      string       `json:"title"`
	Summary    *SummaryInfo `json:"summary,omitempty"`
}

// Answer is the reply to a question asked about one document
type Answer struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	DocumentID    int64  `json:"document_id"`
	DocumentTitle string `json:"document_title"`
}

// BatchSummaryItem is the outcome of a batch request for one document
type BatchSummaryItem struct {
	DocumentID int64        `json:"document_id"`
	Success    bool         `json:"success"`
	Summary    *SummaryInfo `json:"summary,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// BatchSummaryResult is the reply to a batch summarization request.
// Items are in request order.
type BatchSummaryResult struct {
	Items      []BatchSummaryItem `json:"items"`
	Processed  int                `json:"processed"`
	Successful int                `json:"successful"`
}
