package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fleet_attendance/internal/models"
)

func TestWriteJSONCreatesParentDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "abc", "results.json")
	if err := WriteJSON(path, map[string]int{"drivers": 3}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), `"drivers": 3`) {
		t.Errorf("unexpected payload: %s", data)
	}
}

func TestWriteJSONOmitsPersistenceColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	payload := struct {
		Classifications []models.Classification `json:"classifications"`
		Sites           []models.JobSite        `json:"sites"`
	}{
		Classifications: []models.Classification{{
			RunID:      "run-1",
			DriverName: "John Smith",
			Date:       "2026-08-10",
			Status:     models.StatusOnTime,
		}},
		Sites: []models.JobSite{{JobNumber: "J-100", Name: "Nairobi Yard"}},
	}
	if err := WriteJSON(path, payload); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	out := string(data)
	for _, leak := range []string{`"ID"`, `"CreatedAt"`, `"UpdatedAt"`, `"DeletedAt"`} {
		if strings.Contains(out, leak) {
			t.Errorf("database column %s leaked into the JSON contract: %s", leak, out)
		}
	}
	if !strings.Contains(out, `"driver_name": "John Smith"`) {
		t.Errorf("expected payload fields missing: %s", out)
	}
}

func TestSitesGeoJSON(t *testing.T) {
	sites := []models.JobSite{
		{JobNumber: "J-100", Name: "Nairobi Yard", Latitude: -1.2921, Longitude: 36.8219, RadiusKM: 5},
	}
	data, err := SitesGeoJSON(sites)
	if err != nil {
		t.Fatalf("SitesGeoJSON: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"FeatureCollection"`, `"J-100"`, `"radius_km"`, `36.8219`} {
		if !strings.Contains(out, want) {
			t.Errorf("geojson missing %s: %s", want, out)
		}
	}
}
