package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	logrus "github.com/sirupsen/logrus"

	"fleet_attendance/internal/models"
)

// Registry column synonyms, same tolerant matching as the export schemas.
var registryCandidates = map[string][]string{
	"job":    {"job number", "job #", "job no", "job"},
	"name":   {"site name", "display name", "description", "name"},
	"lat":    {"latitude", "lat", "center lat"},
	"lon":    {"longitude", "lon", "lng", "center lon"},
	"radius": {"radius (km)", "radius km", "radius"},
	"start":  {"scheduled start", "start time", "start"},
	"end":    {"scheduled end", "end time", "end"},
}

var registryRequired = []string{"job", "name", "lat", "lon", "radius"}

// LoadJobSites reads the job-site registry CSV: job number, display name,
// geofence center/radius and optional HH:MM work schedule. Unlike telemetry
// exports the registry is a hard input: a missing column fails the load.
func LoadJobSites(path string) ([]models.JobSite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open job-site registry: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read registry header: %w", err)
	}
	normalized := make([]string, len(header))
	for i, h := range header {
		normalized[i] = strings.ToLower(strings.Join(strings.Fields(h), " "))
	}

	idx := make(map[string]int)
	for field, cands := range registryCandidates {
		idx[field] = -1
		for _, cand := range cands {
			for i, h := range normalized {
				if h == cand {
					idx[field] = i
					break
				}
			}
			if idx[field] >= 0 {
				break
			}
		}
	}
	for _, field := range registryRequired {
		if idx[field] < 0 {
			return nil, fmt.Errorf("%w: registry %s", ErrMissingColumn, field)
		}
	}

	value := func(row []string, field string) string {
		i := idx[field]
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var sites []models.JobSite
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}
		lat, errLat := strconv.ParseFloat(value(row, "lat"), 64)
		lon, errLon := strconv.ParseFloat(value(row, "lon"), 64)
		radius, errRad := strconv.ParseFloat(value(row, "radius"), 64)
		job := value(row, "job")
		if job == "" || errLat != nil || errLon != nil || errRad != nil || radius <= 0 {
			skipped++
			continue
		}
		sites = append(sites, models.JobSite{
			JobNumber:      job,
			Name:           value(row, "name"),
			Latitude:       lat,
			Longitude:      lon,
			RadiusKM:       radius,
			ScheduledStart: value(row, "start"),
			ScheduledEnd:   value(row, "end"),
		})
	}

	logrus.WithFields(logrus.Fields{
		"file":    filepath.Base(path),
		"sites":   len(sites),
		"skipped": skipped,
	}).Info("Loaded job-site registry")
	return sites, nil
}
