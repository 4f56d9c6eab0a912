package pipeline

import (
	"sync"
	"time"

	"fleet_attendance/internal/models"
)

// AuditTrail is the append-only decision log for one run. Safe for
// concurrent Record calls (classification workers log through it).
// Timestamps are real wall-clock so consumers can reconstruct temporal
// order even though worker output order is not deterministic.
type AuditTrail struct {
	mu     sync.Mutex
	runID  string
	seq    int
	events []models.AuditEvent
}

func NewAuditTrail(runID string) *AuditTrail {
	return &AuditTrail{runID: runID}
}

// Record appends one event. Detail is owned by the trail after the call.
func (a *AuditTrail) Record(eventType string, detail map[string]interface{}) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	a.events = append(a.events, models.AuditEvent{
		RunID:     a.runID,
		Seq:       a.seq,
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Detail:    detail,
	})
}

// Events returns a snapshot copy of the log so far.
func (a *AuditTrail) Events() []models.AuditEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.AuditEvent, len(a.events))
	copy(out, a.events)
	return out
}
