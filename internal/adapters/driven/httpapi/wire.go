package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docsum/internal/core/domain"
)

// The service emits timestamps with and without a zone. Zoneless values are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// wireTime decodes the service's timestamps
type wireTime struct {
	time.Time
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

type wireUser struct {
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	Username  string   `json:"username"`
	FullName  string   `json:"full_name"`
	IsActive  bool     `json:"is_active"`
	CreatedAt wireTime `json:"created_at"`
}

func (u *wireUser) toDomain() *domain.User {
	if u == nil {
		return nil
	}
	return &domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Active:    u.IsActive,
		CreatedAt: u.CreatedAt.Time,
	}
}

type wireDocument struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	Summary   *string   `json:"summary"`
	Keywords  *string   `json:"keywords"`
	CreatedAt wireTime  `json:"created_at"`
	UpdatedAt *wireTime `json:"updated_at"`
}

func (d *wireDocument) toDomain() *domain.Document {
	ft, err := domain.ParseFileType(d.FileType)
	if err != nil {
		ft = domain.FileType(strings.ToLower(strings.TrimSpace(d.FileType)))
	}
	doc := &domain.Document{
		ID:        d.ID,
		Title:     d.Title,
		Filename:  d.Filename,
		FileSize:  d.FileSize,
		FileType:  ft,
		CreatedAt: d.CreatedAt.Time,
		Summary:   summaryInfo(d.Summary, d.Keywords),
	}
	if d.UpdatedAt != nil && !d.UpdatedAt.IsZero() {
		t := d.UpdatedAt.Time
		doc.UpdatedAt = &t
	}
	return doc
}

func toDocuments(in []wireDocument) []*domain.Document {
	out := make([]*domain.Document, 0, len(in))
	for i := range in {
		out = append(out, in[i].toDomain())
	}
	return out
}

// summaryInfo builds the composite only when summary text is present
func summaryInfo(summary, keywords *string) *domain.SummaryInfo {
	if summary == nil {
		return nil
	}
	var kw string
	if keywords != nil {
		kw = *keywords
	}
	return domain.NewSummaryInfo(*summary, kw)
}
