package classify

import (
	"fmt"
	"time"

	"fleet_attendance/internal/models"
)

// Config holds the attendance thresholds. Both default to 15 minutes.
type Config struct {
	LateThresholdMinutes     int
	EarlyEndThresholdMinutes int
}

func DefaultConfig() Config {
	return Config{
		LateThresholdMinutes:     15,
		EarlyEndThresholdMinutes: 15,
	}
}

// Input is everything the classifier may consult for one driver-day.
// Geo is nil when the driver produced no coordinate-bearing events.
type Input struct {
	Driver         *models.DriverRecord
	Day            time.Time
	ScheduledStart time.Time // zero when the site defines no schedule
	ScheduledEnd   time.Time
	AssignedJob    string
	Geo            *models.GeoValidationResult
}

// Classify produces the terminal attendance status for one driver-day.
// Pure: no logging, no shared state; the orchestrator owns side effects.
//
// Evaluation order is fixed: missing schedule/activity guard, late start,
// early end (never clearing a prior Late), then the NotOnJob override which
// discards timing reasons entirely, and finally OnTime.
func Classify(in Input, cfg Config) models.Classification {
	c := models.Classification{
		DriverName:  in.Driver.Name,
		Date:        in.Day.Format("2006-01-02"),
		Status:      models.StatusUnknown,
		Sources:     in.Driver.SourcesPresent(),
		AssignedJob: in.AssignedJob,
	}

	actualStart, actualEnd, hasActivity := dayBounds(in.Driver, in.Day)
	hasSchedule := !in.ScheduledStart.IsZero() && !in.ScheduledEnd.IsZero()

	if !hasSchedule {
		c.Reasons = append(c.Reasons, "no scheduled work hours available")
	}
	if !hasActivity {
		c.Reasons = append(c.Reasons, "no activity recorded for the day")
	}

	if hasSchedule && hasActivity {
		if late := int(actualStart.Sub(in.ScheduledStart).Minutes()); late > 0 {
			c.MinutesLate = late
		}
		if early := int(in.ScheduledEnd.Sub(actualEnd).Minutes()); early > 0 {
			c.MinutesEarlyEnd = early
		}

		if c.MinutesLate >= cfg.LateThresholdMinutes {
			c.Status = models.StatusLate
			c.Reasons = append(c.Reasons, fmt.Sprintf(
				"started %d minutes after scheduled start %s",
				c.MinutesLate, in.ScheduledStart.Format("15:04")))
		}
		if c.MinutesEarlyEnd >= cfg.EarlyEndThresholdMinutes {
			// Late keeps priority when both trigger.
			if c.Status != models.StatusLate {
				c.Status = models.StatusEarlyEnd
			}
			c.Reasons = append(c.Reasons, fmt.Sprintf(
				"ended %d minutes before scheduled end %s",
				c.MinutesEarlyEnd, in.ScheduledEnd.Format("15:04")))
		}
	}

	// Location absence is definitive: samples exist but none validated
	// inside a site, so timing-based findings are discarded, not appended.
	if in.Geo != nil && in.Geo.TotalPoints > 0 && in.Geo.PointsInside == 0 {
		c.Status = models.StatusNotOnJob
		c.Reasons = []string{fmt.Sprintf(
			"%d location samples recorded, none inside the assigned job site geofence",
			in.Geo.TotalPoints)}
	}

	if c.Status == models.StatusUnknown && hasSchedule && hasActivity {
		c.Status = models.StatusOnTime
		c.Reasons = append(c.Reasons, "started and ended within scheduled hours")
	}

	c.ValidationScore = validationScore(in.Driver, c.Reasons)
	return c
}

// validationScore rewards evidence diversity (asset registry, driving
// history, activity detail: 25 each, max 75) and penalizes ambiguity
// (10 per reason beyond the first). Clamped to [0,100]. A heuristic
// confidence measure, not a probability.
func validationScore(driver *models.DriverRecord, reasons []string) int {
	score := 0
	if len(driver.Assets) > 0 {
		score += 25
	}
	if p, ok := driver.Provenance[models.SourceDrivingHistory]; ok && p.Records > 0 {
		score += 25
	}
	if p, ok := driver.Provenance[models.SourceActivityDetail]; ok && p.Records > 0 {
		score += 25
	}
	if extra := len(reasons) - 1; extra > 0 {
		score -= 10 * extra
	}
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// dayBounds finds the first and last event timestamps falling on the given
// calendar day. hasActivity is false when no event lands on that day.
func dayBounds(driver *models.DriverRecord, day time.Time) (start, end time.Time, hasActivity bool) {
	y, m, d := day.Date()
	for _, ev := range driver.Events {
		ey, em, ed := ev.Timestamp.Date()
		if ey != y || em != m || ed != d {
			continue
		}
		if !hasActivity || ev.Timestamp.Before(start) {
			start = ev.Timestamp
		}
		if !hasActivity || ev.Timestamp.After(end) {
			end = ev.Timestamp
		}
		hasActivity = true
	}
	return start, end, hasActivity
}
