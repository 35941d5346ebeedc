package domain

import "time"

// RecentWindow is how far back a document counts towards CatalogStats.RecentCount
const RecentWindow = 7 * 24 * time.Hour

// CatalogStats are the aggregates shown alongside the document list
type CatalogStats struct {
	TotalCount  int   `json:"total_count"`
	TotalSize   int64 `json:"total_size"`
	RecentCount int   `json:"recent_count"`
}

// ComputeStats derives the aggregates for docs as of now.
// A document is recent when it was created less than RecentWindow before now.
func ComputeStats(docs []*Document, now time.Time) CatalogStats {
	var stats CatalogStats
	for _, d := range docs {
		if d == nil {
			continue
		}
		stats.TotalCount++
		stats.TotalSize += d.FileSize
		if now.Sub(d.CreatedAt) < RecentWindow {
			stats.RecentCount++
		}
	}
	return stats
}

// CatalogSnapshot is one fetched document list and the stats computed from it.
// Snapshots are immutable once published; a refresh replaces the whole value.
type CatalogSnapshot struct {
	Documents []*Document  `json:"documents"`
	Stats     CatalogStats `json:"stats"`
	Filter    FileType     `json:"filter,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// NewCatalogSnapshot builds a snapshot with stats computed at now. Nil entries are dropped.
func NewCatalogSnapshot(docs []*Document, filter FileType, now time.Time) *CatalogSnapshot {
	kept := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			kept = append(kept, d)
		}
	}
	return &CatalogSnapshot{
		Documents: kept,
		Stats:     ComputeStats(kept, now),
		Filter:    filter,
		FetchedAt: now,
	}
}

// Find returns the document with the given id, or nil
func (s *CatalogSnapshot) Find(id int64) *Document {
	if s == nil {
		return nil
	}
	for _, d := range s.Documents {
		if d != nil && d.ID == id {
			return d
		}
	}
	return nil
}

// Empty reports whether the snapshot has never been filled
func (s *CatalogSnapshot) Empty() bool {
	return s == nil || s.FetchedAt.IsZero()
}
