package models

// SourceType identifies which telemetry export a record came from.
// The three exports carry overlapping but not identical information, so
// provenance is tracked per type all the way into the final classification.
type SourceType string

const (
	SourceDrivingHistory SourceType = "driving_history"
	SourceActivityDetail SourceType = "activity_detail"
	SourceTimeOnSite     SourceType = "time_on_site"
)

// KnownSourceTypes lists every export type the normalizer accepts, in the
// order they are scored for classification evidence.
var KnownSourceTypes = []SourceType{
	SourceDrivingHistory,
	SourceActivityDetail,
	SourceTimeOnSite,
}

func (s SourceType) Valid() bool {
	switch s {
	case SourceDrivingHistory, SourceActivityDetail, SourceTimeOnSite:
		return true
	}
	return false
}
