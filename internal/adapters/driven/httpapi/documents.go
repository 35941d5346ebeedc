package httpapi

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// List returns the user's documents
func (c *Client) List(ctx context.Context, token string, filter domain.FileType) ([]*domain.Document, error) {
	q := url.Values{}
	if filter != domain.FileTypeAll {
		q.Set("file_type", string(filter))
	}
	var docs []wireDocument
	if err := c.do(ctx, request{method: http.MethodGet, path: "/documents/", query: q, token: token}, &docs); err != nil {
		return nil, err
	}
	return toDocuments(docs), nil
}

// Search runs a server-side search
func (c *Client) Search(ctx context.Context, token string, query domain.DocumentQuery) ([]*domain.Document, error) {
	query = query.Normalize()
	q := url.Values{}
	q.Set("query", query.Text)
	if query.FileType != domain.FileTypeAll {
		q.Set("file_type", string(query.FileType))
	}
	if query.DateFrom != nil {
		q.Set("date_from", query.DateFrom.UTC().Format(time.RFC3339))
	}
	if query.DateTo != nil {
		q.Set("date_to", query.DateTo.UTC().Format(time.RFC3339))
	}
	q.Set("limit", strconv.Itoa(query.Limit))
	q.Set("offset", strconv.Itoa(query.Offset))

	var docs []wireDocument
	if err := c.do(ctx, request{method: http.MethodGet, path: "/search/", query: q, token: token}, &docs); err != nil {
		return nil, err
	}
	return toDocuments(docs), nil
}

// Get returns one document
func (c *Client) Get(ctx context.Context, token string, id int64) (*domain.Document, error) {
	var doc wireDocument
	if err := c.do(ctx, request{method: http.MethodGet, path: documentPath(id), token: token}, &doc); err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

// Delete removes a document
func (c *Client) Delete(ctx context.Context, token string, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: documentPath(id), token: token}, nil)
}

// Upload streams the payload as multipart/form-data with "title" and "file" fields
func (c *Client) Upload(ctx context.Context, token string, payload *domain.UploadPayload) (*domain.Document, error) {
	src, err := payload.File.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload file: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		defer src.Close()
		pw.CloseWithError(writeUploadForm(mw, payload, src))
	}()

	var doc wireDocument
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/documents/",
		token:       token,
		body:        pr,
		contentType: mw.FormDataContentType(),
	}, &doc)
	// Unblocks the writer if the request ended before reading the whole body
	_ = pr.CloseWithError(io.ErrClosedPipe)
	if err != nil {
		return nil, err
	}
	return doc.toDomain(), nil
}

func writeUploadForm(mw *multipart.Writer, payload *domain.UploadPayload, src io.Reader) error {
	if err := mw.WriteField("title", payload.Title); err != nil {
		return fmt.Errorf("failed to write title field: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(payload.Filename)))
	h.Set("Content-Type", payload.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func documentPath(id int64) string {
	return "/documents/" + strconv.FormatInt(id, 10)
}
