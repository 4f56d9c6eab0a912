package pipeline

import (
	"sort"

	"fleet_attendance/internal/models"
)

// Offender is one entry in the worst-offenders list, sorted by minutes late.
type Offender struct {
	DriverName  string `json:"driver_name"`
	Date        string `json:"date"`
	MinutesLate int    `json:"minutes_late"`
}

// TimingStats aggregates the classification set for the report renderer.
type TimingStats struct {
	CountsByStatus map[models.AttendanceStatus]int `json:"counts_by_status"`

	AvgMinutesLate  float64 `json:"avg_minutes_late"`
	MaxMinutesLate  int     `json:"max_minutes_late"`
	AvgMinutesEarly float64 `json:"avg_minutes_early"`
	MaxMinutesEarly int     `json:"max_minutes_early"`

	WorstOffenders []Offender `json:"worst_offenders"`
}

// maxOffenders caps the worst-offenders list handed to the renderer.
const maxOffenders = 10

// ComputeStats derives status counts and timing statistics. Averages run
// over the drivers that actually triggered the respective condition.
func ComputeStats(classifications []models.Classification) TimingStats {
	stats := TimingStats{
		CountsByStatus: make(map[models.AttendanceStatus]int),
	}

	var lateSum, lateN, earlySum, earlyN int
	for _, c := range classifications {
		stats.CountsByStatus[c.Status]++
		if c.MinutesLate > 0 {
			lateSum += c.MinutesLate
			lateN++
			if c.MinutesLate > stats.MaxMinutesLate {
				stats.MaxMinutesLate = c.MinutesLate
			}
			stats.WorstOffenders = append(stats.WorstOffenders, Offender{
				DriverName:  c.DriverName,
				Date:        c.Date,
				MinutesLate: c.MinutesLate,
			})
		}
		if c.MinutesEarlyEnd > 0 {
			earlySum += c.MinutesEarlyEnd
			earlyN++
			if c.MinutesEarlyEnd > stats.MaxMinutesEarly {
				stats.MaxMinutesEarly = c.MinutesEarlyEnd
			}
		}
	}
	if lateN > 0 {
		stats.AvgMinutesLate = float64(lateSum) / float64(lateN)
	}
	if earlyN > 0 {
		stats.AvgMinutesEarly = float64(earlySum) / float64(earlyN)
	}

	sort.Slice(stats.WorstOffenders, func(i, j int) bool {
		if stats.WorstOffenders[i].MinutesLate != stats.WorstOffenders[j].MinutesLate {
			return stats.WorstOffenders[i].MinutesLate > stats.WorstOffenders[j].MinutesLate
		}
		return stats.WorstOffenders[i].DriverName < stats.WorstOffenders[j].DriverName
	})
	if len(stats.WorstOffenders) > maxOffenders {
		stats.WorstOffenders = stats.WorstOffenders[:maxOffenders]
	}
	return stats
}
