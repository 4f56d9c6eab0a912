package ingest

import (
	"fleet_attendance/internal/models"
)

// SkipReason is the typed outcome of a skipped row. Rows are never fatal;
// every skip is counted so a caller (or a test) can assert on why data
// went missing.
type SkipReason string

const (
	SkipBlankDriver      SkipReason = "blank_driver"
	SkipBlankAsset       SkipReason = "blank_asset"
	SkipBadTimestamp     SkipReason = "bad_timestamp"
	SkipBadCoordinate    SkipReason = "bad_coordinate"
	SkipNegativeDuration SkipReason = "negative_duration"
	SkipShortRow         SkipReason = "short_row"

	// SkipUnknownAsset marks a time-on-site row whose asset never appeared
	// in an identity-bearing export, so no driver can be attributed.
	SkipUnknownAsset SkipReason = "unknown_asset"
)

// FileFailure records one rejected file and why.
type FileFailure struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// RowCounts tracks valid vs. total rows for one source type.
type RowCounts struct {
	Total int `json:"total"`
	Valid int `json:"valid"`
}

// IngestionSummary is the per-run ingestion report: which files made it,
// which did not, and row counts broken down by source type and skip reason.
type IngestionSummary struct {
	ProcessedFiles []string                         `json:"processed_files"`
	FailedFiles    []FileFailure                    `json:"failed_files"`
	RowsBySource   map[models.SourceType]*RowCounts `json:"rows_by_source"`
	Skips          map[SkipReason]int               `json:"skips"`
}

func newIngestionSummary() *IngestionSummary {
	return &IngestionSummary{
		RowsBySource: make(map[models.SourceType]*RowCounts),
		Skips:        make(map[SkipReason]int),
	}
}

func (s *IngestionSummary) counts(src models.SourceType) *RowCounts {
	c, ok := s.RowsBySource[src]
	if !ok {
		c = &RowCounts{}
		s.RowsBySource[src] = c
	}
	return c
}

func (s *IngestionSummary) skip(src models.SourceType, reason SkipReason) {
	s.counts(src).Total++
	s.Skips[reason]++
}

func (s *IngestionSummary) accept(src models.SourceType) {
	c := s.counts(src)
	c.Total++
	c.Valid++
}

func (s *IngestionSummary) failFile(name, reason string) {
	s.FailedFiles = append(s.FailedFiles, FileFailure{File: name, Reason: reason})
}

// TotalValidRows across every source type. Zero after ingesting everything
// means the run has nothing to classify and must abort.
func (s *IngestionSummary) TotalValidRows() int {
	total := 0
	for _, c := range s.RowsBySource {
		total += c.Valid
	}
	return total
}
