package models

import (
	"gorm.io/gorm"
)

// AttendanceStatus is the terminal state of one driver-day.
type AttendanceStatus string

const (
	StatusUnknown  AttendanceStatus = "unknown"
	StatusOnTime   AttendanceStatus = "on_time"
	StatusLate     AttendanceStatus = "late"
	StatusEarlyEnd AttendanceStatus = "early_end"
	StatusNotOnJob AttendanceStatus = "not_on_job"
)

// Classification is the per-driver decision handed to the report renderer.
// Persisted to Postgres when a database sink is configured.
type Classification struct {
	gorm.Model `json:"-"`

	RunID      string           `json:"run_id" gorm:"index"`
	DriverName string           `json:"driver_name" gorm:"index"`
	Date       string           `json:"date"` // YYYY-MM-DD of the classified day
	Status     AttendanceStatus `json:"status"`

	MinutesLate     int `json:"minutes_late"`
	MinutesEarlyEnd int `json:"minutes_early_end"`

	// Reasons is the ordered, human-readable audit of why the status was
	// chosen. A NotOnJob override replaces the list rather than appending.
	Reasons []string `json:"reasons" gorm:"serializer:json"`

	ValidationScore int          `json:"validation_score"`
	Sources         []SourceType `json:"sources" gorm:"serializer:json"`

	AssignedJob string `json:"assigned_job,omitempty"`
}
