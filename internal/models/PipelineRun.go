package models

import (
	"time"
)

// Run terminal states.
const (
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// PipelineRun is the persisted header row for one pipeline execution.
type PipelineRun struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`

	// FailureReason is set only when Status == RunFailed.
	FailureReason string `json:"failure_reason,omitempty"`

	DriversProcessed int `json:"drivers_processed"`
	FilesProcessed   int `json:"files_processed"`
	FilesFailed      int `json:"files_failed"`
}
