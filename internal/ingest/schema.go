package ingest

import (
	"fmt"
	"strings"
	"time"

	"fleet_attendance/internal/models"
)

// Logical fields a source row can carry. Each source type declares which of
// these are required; the rest are best-effort.
type fieldKey string

const (
	fieldDriver    fieldKey = "driver"
	fieldAsset     fieldKey = "asset"
	fieldTimestamp fieldKey = "timestamp"
	fieldLatitude  fieldKey = "latitude"
	fieldLongitude fieldKey = "longitude"
	fieldEventType fieldKey = "event_type"
	fieldSiteName  fieldKey = "site_name"
	fieldStartTime fieldKey = "start_time"
	fieldEndTime   fieldKey = "end_time"
)

// columnCandidates maps each logical field to the header spellings seen
// across fleet-telemetry exports, in preference order. Matching is
// case-insensitive on a whitespace-collapsed header.
var columnCandidates = map[fieldKey][]string{
	fieldDriver:    {"driver name", "contact", "person", "driver", "operator"},
	fieldAsset:     {"asset label", "asset id", "asset", "vehicle", "unit"},
	fieldTimestamp: {"event time", "date/time", "timestamp", "time", "date"},
	fieldLatitude:  {"latitude", "lat"},
	fieldLongitude: {"longitude", "lon", "lng"},
	fieldEventType: {"event type", "activity type", "activity", "event"},
	fieldSiteName:  {"site name", "site", "geofence", "location"},
	fieldStartTime: {"start time", "arrival", "entry time", "start"},
	fieldEndTime:   {"end time", "departure", "exit time", "end"},
}

// requiredFields per source type. A file missing any of these is rejected
// whole; optional fields simply resolve to -1. Time-on-site exports carry
// no driver identity of their own: rows are attributed through the
// asset→driver association built from the other sources, with a driver
// column honored when present.
var requiredFields = map[models.SourceType][]fieldKey{
	models.SourceDrivingHistory: {fieldDriver, fieldAsset, fieldTimestamp},
	models.SourceActivityDetail: {fieldDriver, fieldAsset, fieldTimestamp},
	models.SourceTimeOnSite:     {fieldAsset, fieldSiteName, fieldStartTime, fieldEndTime},
}

var optionalFields = map[models.SourceType][]fieldKey{
	models.SourceDrivingHistory: {fieldLatitude, fieldLongitude, fieldEventType},
	models.SourceActivityDetail: {fieldLatitude, fieldLongitude, fieldEventType, fieldSiteName},
	models.SourceTimeOnSite:     {fieldDriver, fieldLatitude, fieldLongitude},
}

// resolvedSchema is the fixed field→column-index mapping computed once per
// file from its header row. Per-row parsing only does slice lookups.
type resolvedSchema struct {
	source  models.SourceType
	indexes map[fieldKey]int
}

func (rs *resolvedSchema) value(row []string, f fieldKey) string {
	idx, ok := rs.indexes[f]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// resolveSchema matches the header row against the candidate spellings for
// every field the source type uses. First candidate present wins.
func resolveSchema(source models.SourceType, header []string) (*resolvedSchema, error) {
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.Join(strings.Fields(h), " "))
	}

	find := func(f fieldKey) int {
		for _, cand := range columnCandidates[f] {
			for i, h := range normalized {
				if h == cand {
					return i
				}
			}
		}
		return -1
	}

	rs := &resolvedSchema{source: source, indexes: make(map[fieldKey]int)}
	for _, f := range requiredFields[source] {
		idx := find(f)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s (accepted headers: %s)",
				ErrMissingColumn, f, strings.Join(columnCandidates[f], ", "))
		}
		rs.indexes[f] = idx
	}
	for _, f := range optionalFields[source] {
		rs.indexes[f] = find(f)
	}
	return rs, nil
}

// InferSourceType matches a file name against the known export naming
// conventions, case-insensitively and ignoring separators.
func InferSourceType(fileName string) (models.SourceType, bool) {
	flat := strings.ToLower(fileName)
	for _, r := range []string{" ", "-", "_", "."} {
		flat = strings.ReplaceAll(flat, r, "")
	}
	switch {
	case strings.Contains(flat, "drivinghistory") || strings.Contains(flat, "drivehistory"):
		return models.SourceDrivingHistory, true
	case strings.Contains(flat, "activitydetail") || strings.Contains(flat, "activity"):
		return models.SourceActivityDetail, true
	case strings.Contains(flat, "timeonsite") || strings.Contains(flat, "siteduration"):
		return models.SourceTimeOnSite, true
	}
	return "", false
}

// timestampFormats is the accepted parse ladder; first successful format
// wins. Exports disagree on this constantly.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04",
	"01/02/2006 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampFormats {
		if v, err := time.Parse(layout, raw); err == nil {
			return v, true
		}
	}
	return time.Time{}, false
}
