package models

import (
	"time"

	"github.com/twpayne/go-geom"
)

// LocationEvent is a single raw telemetry record after normalization.
// Immutable once created; events accumulate on a DriverRecord during
// ingestion and are read-only afterwards.
type LocationEvent struct {
	Timestamp time.Time  `json:"timestamp"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	HasCoords bool       `json:"has_coords"`
	AssetID   string     `json:"asset_id"`
	Source    SourceType `json:"source"`
	EventType string     `json:"event_type,omitempty"` // e.g. "Ignition On", "Stop"
	SiteName  string     `json:"site_name,omitempty"`  // time-on-site rows only

	// DurationMinutes is end-start for time-on-site rows, 0 otherwise.
	DurationMinutes float64 `json:"duration_minutes,omitempty"`
}

// Point returns the event position as an XY point (SRID 4326), or nil when
// the source row carried no coordinates.
func (e *LocationEvent) Point() *geom.Point {
	if !e.HasCoords {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{e.Longitude, e.Latitude})
}
