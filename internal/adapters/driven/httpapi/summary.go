package httpapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

type generateResponse struct {
	Message  string        `json:"message"`
	Summary  string        `json:"summary"`
	Keywords string        `json:"keywords"`
	Document *wireDocument `json:"document"`
}

type summaryResponse struct {
	DocumentID int64   `json:"document_id"`
	Title      string  `json:"title"`
	Summary    *string `json:"summary"`
	Keywords   *string `json:"keywords"`
	HasSummary bool    `json:"has_summary"`
}

// Generate asks the service to summarize a document
func (c *Client) Generate(ctx context.Context, token string, id int64) (*domain.SummaryResult, error) {
	var resp generateResponse
	if err := c.do(ctx, request{method: http.MethodPost, path: summaryPath(id, "generate"), token: token}, &resp); err != nil {
		return nil, err
	}
	res := &domain.SummaryResult{
		Message:  resp.Message,
		Summary:  resp.Summary,
		Keywords: resp.Keywords,
	}
	if resp.Document != nil {
		res.Document = resp.Document.toDomain()
	}
	return res, nil
}

// Summary reads a stored summary
func (c *Client) Summary(ctx context.Context, token string, id int64) (*domain.StoredSummary, error) {
	var resp summaryResponse
	if err := c.do(ctx, request{method: http.MethodGet, path: summaryPath(id, "summary"), token: token}, &resp); err != nil {
		return nil, err
	}
	stored := &domain.StoredSummary{DocumentID: resp.DocumentID, Title: resp.Title}
	if resp.HasSummary {
		stored.Summary = summaryInfo(resp.Summary, resp.Keywords)
	}
	return stored, nil
}

// Ask asks a question about a document
func (c *Client) Ask(ctx context.Context, token string, id int64, question string) (*domain.Answer, error) {
	var answer domain.Answer
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   summaryPath(id, "ask"),
		query:  url.Values{"question": {question}},
		token:  token,
	}, &answer)
	if err != nil {
		return nil, err
	}
	return &answer, nil
}

type batchItem struct {
	DocumentID int64   `json:"document_id"`
	Success    bool    `json:"success"`
	Summary    *string `json:"summary"`
	Keywords   *string `json:"keywords"`
	Error      string  `json:"error"`
}

type batchResponse struct {
	Results        []batchItem `json:"results"`
	TotalProcessed int         `json:"total_processed"`
	Successful     int         `json:"successful"`
}

// BatchGenerate summarizes several documents in one request
func (c *Client) BatchGenerate(ctx context.Context, token string, ids []int64) (*domain.BatchSummaryResult, error) {
	body, err := jsonBody(ids)
	if err != nil {
		return nil, err
	}
	var resp batchResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/summary/batch-summarize",
		body:        body,
		contentType: "application/json",
		token:       token,
	}, &resp)
	if err != nil {
		return nil, err
	}

	out := &domain.BatchSummaryResult{
		Items:      make([]domain.BatchSummaryItem, 0, len(resp.Results)),
		Processed:  resp.TotalProcessed,
		Successful: resp.Successful,
	}
	for _, r := range resp.Results {
		item := domain.BatchSummaryItem{DocumentID: r.DocumentID, Success: r.Success, Error: r.Error}
		if r.Success {
			item.Summary = summaryInfo(r.Summary, r.Keywords)
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func summaryPath(id int64, action string) string {
	return "/summary/" + strconv.FormatInt(id, 10) + "/" + action
}
