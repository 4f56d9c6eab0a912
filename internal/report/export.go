package report

import (
	"fmt"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/twpayne/go-geom/encoding/geojson"

	"fleet_attendance/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WriteJSON serializes v to path, creating parent directories as needed.
// This is the renderer-facing file contract: results.json, audit.json.
func WriteJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SitesGeoJSON encodes the job-site registry as a GeoJSON FeatureCollection
// of geofence centers, radius and schedule carried as properties. Renderers
// use it for map overlays.
func SitesGeoJSON(sites []models.JobSite) ([]byte, error) {
	fc := &geojson.FeatureCollection{}
	for i := range sites {
		s := &sites[i]
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       s.JobNumber,
			Geometry: s.Center(),
			Properties: map[string]interface{}{
				"job_number":      s.JobNumber,
				"name":            s.Name,
				"radius_km":       s.RadiusKM,
				"scheduled_start": s.ScheduledStart,
				"scheduled_end":   s.ScheduledEnd,
			},
		})
	}
	return fc.MarshalJSON()
}

// WriteSitesGeoJSON writes the registry overlay next to the run's results.
func WriteSitesGeoJSON(path string, sites []models.JobSite) error {
	data, err := SitesGeoJSON(sites)
	if err != nil {
		return fmt.Errorf("encode job sites: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
