package models

import (
	"time"

	"gorm.io/gorm"
)

// Audit event types emitted by the orchestrator. Every phase transition and
// every per-driver decision produces one, so a run is reconstructable from
// the event stream alone.
const (
	AuditRunStarted       = "run_started"
	AuditPhaseStarted     = "phase_started"
	AuditPhaseCompleted   = "phase_completed"
	AuditFileIngested     = "file_ingested"
	AuditFileFailed       = "file_failed"
	AuditDriverClassified = "driver_classified"
	AuditRunCompleted     = "run_completed"
	AuditRunFailed        = "run_failed"
	AuditFatalError       = "fatal_error"
)

// AuditEvent is one entry in a run's append-only decision log.
type AuditEvent struct {
	gorm.Model `json:"-"`

	RunID     string                 `json:"run_id" gorm:"index"`
	Seq       int                    `json:"seq"`
	Type      string                 `json:"type" gorm:"index"`
	Timestamp time.Time              `json:"timestamp"`
	Detail    map[string]interface{} `json:"detail" gorm:"serializer:json"`
}
