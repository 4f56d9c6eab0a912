package pipeline

import (
	"testing"

	"fleet_attendance/internal/models"
)

func TestComputeStats(t *testing.T) {
	classifications := []models.Classification{
		{DriverName: "A", Date: "2026-08-10", Status: models.StatusLate, MinutesLate: 45},
		{DriverName: "B", Date: "2026-08-10", Status: models.StatusLate, MinutesLate: 15},
		{DriverName: "C", Date: "2026-08-10", Status: models.StatusEarlyEnd, MinutesEarlyEnd: 90},
		{DriverName: "D", Date: "2026-08-10", Status: models.StatusOnTime},
		{DriverName: "E", Date: "2026-08-10", Status: models.StatusNotOnJob},
	}

	stats := ComputeStats(classifications)

	if stats.CountsByStatus[models.StatusLate] != 2 {
		t.Errorf("late count = %d, want 2", stats.CountsByStatus[models.StatusLate])
	}
	if stats.AvgMinutesLate != 30 {
		t.Errorf("avg minutes late = %.1f, want 30", stats.AvgMinutesLate)
	}
	if stats.MaxMinutesLate != 45 {
		t.Errorf("max minutes late = %d, want 45", stats.MaxMinutesLate)
	}
	if stats.MaxMinutesEarly != 90 {
		t.Errorf("max minutes early = %d, want 90", stats.MaxMinutesEarly)
	}
	if len(stats.WorstOffenders) != 2 || stats.WorstOffenders[0].DriverName != "A" {
		t.Errorf("worst offenders = %+v, want A first with 45", stats.WorstOffenders)
	}
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	if stats.AvgMinutesLate != 0 || stats.MaxMinutesLate != 0 {
		t.Error("empty classification set must produce zero timing stats")
	}
	if len(stats.WorstOffenders) != 0 {
		t.Error("empty classification set produced offenders")
	}
}

func TestAuditTrailOrdering(t *testing.T) {
	trail := NewAuditTrail("run-1")
	trail.Record(models.AuditRunStarted, nil)
	trail.Record(models.AuditPhaseStarted, map[string]interface{}{"phase": "ingestion"})
	trail.Record(models.AuditRunCompleted, nil)

	events := trail.Events()
	if len(events) != 3 {
		t.Fatalf("events = %d, want 3", len(events))
	}
	for i, ev := range events {
		if ev.Seq != i+1 {
			t.Errorf("event %d seq = %d, want %d", i, ev.Seq, i+1)
		}
		if ev.RunID != "run-1" {
			t.Errorf("event run id = %q, want run-1", ev.RunID)
		}
		if ev.Timestamp.IsZero() {
			t.Error("event missing wall-clock timestamp")
		}
	}
	if events[0].Timestamp.After(events[2].Timestamp) {
		t.Error("timestamps not monotonic over sequential records")
	}
}
