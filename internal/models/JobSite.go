package models

import (
	"fmt"
	"time"

	"github.com/twpayne/go-geom"
	"gorm.io/gorm"
)

// JobSite represents a job-site registry entry: identity, circular geofence
// and optional scheduled work hours. Read-only input to a pipeline run.
type JobSite struct {
	gorm.Model `json:"-"`

	JobNumber string  `json:"job_number" gorm:"uniqueIndex"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKM  float64 `json:"radius_km"`

	// Scheduled work hours as "HH:MM" time-of-day, empty when the registry
	// does not define a schedule for the site.
	ScheduledStart string `json:"scheduled_start,omitempty"`
	ScheduledEnd   string `json:"scheduled_end,omitempty"`
}

// Center returns the geofence center as an XY point (SRID 4326).
func (s *JobSite) Center() *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{s.Longitude, s.Latitude})
}

// HasSchedule reports whether the registry supplied work hours for the site.
func (s *JobSite) HasSchedule() bool {
	return s.ScheduledStart != "" && s.ScheduledEnd != ""
}

// ScheduleWindow anchors the site's HH:MM schedule onto a calendar day,
// in that day's location. Returns an error when no schedule is defined or
// the stored time-of-day strings are malformed.
func (s *JobSite) ScheduleWindow(day time.Time) (start, end time.Time, err error) {
	if !s.HasSchedule() {
		return start, end, fmt.Errorf("job site %s has no schedule", s.JobNumber)
	}
	start, err = anchorClock(day, s.ScheduledStart)
	if err != nil {
		return start, end, fmt.Errorf("job site %s: bad scheduled start: %w", s.JobNumber, err)
	}
	end, err = anchorClock(day, s.ScheduledEnd)
	if err != nil {
		return start, end, fmt.Errorf("job site %s: bad scheduled end: %w", s.JobNumber, err)
	}
	return start, end, nil
}

func anchorClock(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
