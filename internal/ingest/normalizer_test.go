package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fleet_attendance/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const drivingHistoryCSV = `Driver Name,Asset Label,Event Time,Latitude,Longitude,Event Type
John Smith,TRK-1,2026-08-10 07:45:00,-1.2921,36.8219,Ignition On
DR. JOHN SMITH,TRK-1,2026-08-10 17:10:00,-1.2921,36.8219,Ignition Off
,TRK-1,2026-08-10 08:00:00,,,Stop
Jane Doe,,2026-08-10 08:15:00,,,Stop
Jane Doe,TRK-2,not-a-timestamp,,,Stop
Jane Doe,TRK-2,2026-08-10 09:00:00,999.0,36.8,Moving
`

func TestIngestDrivingHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "driving_history.csv", drivingHistoryCSV)

	n := NewNormalizer()
	if err := n.IngestFile(path, ""); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}

	rec, ok := n.Drivers()["John Smith"]
	if !ok {
		t.Fatalf("drivers = %v, want merged John Smith", n.DriverNames())
	}
	if len(rec.Events) != 2 {
		t.Errorf("events = %d, want 2 (honorific variant merged)", len(rec.Events))
	}
	if len(rec.Assets) != 1 || rec.Assets[0] != "TRK-1" {
		t.Errorf("assets = %v, want [TRK-1]", rec.Assets)
	}
	if rec.FirstSeen.Hour() != 7 || rec.LastSeen.Hour() != 17 {
		t.Errorf("seen bounds = %v..%v, want 07:45..17:10", rec.FirstSeen, rec.LastSeen)
	}

	s := n.Summary()
	counts := s.RowsBySource[models.SourceDrivingHistory]
	if counts.Total != 6 || counts.Valid != 2 {
		t.Errorf("rows = %d/%d valid, want 2/6", counts.Valid, counts.Total)
	}
	wantSkips := map[SkipReason]int{
		SkipBlankDriver:   1,
		SkipBlankAsset:    1,
		SkipBadTimestamp:  1,
		SkipBadCoordinate: 1,
	}
	for reason, want := range wantSkips {
		if got := s.Skips[reason]; got != want {
			t.Errorf("skips[%s] = %d, want %d", reason, got, want)
		}
	}
}

func TestIngestIdempotentAssetSet(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "driving_history.csv", drivingHistoryCSV)

	n := NewNormalizer()
	if err := n.IngestFile(path, ""); err != nil {
		t.Fatalf("first ingest: %v", err)
	}
	if err := n.IngestFile(path, ""); err != nil {
		t.Fatalf("second ingest: %v", err)
	}

	rec := n.Drivers()["John Smith"]
	if len(rec.Assets) != 1 {
		t.Errorf("assets = %v, want asset set deduplicated across re-ingest", rec.Assets)
	}
	// Raw event dedup is an explicit non-goal: the event list duplicates.
	if len(rec.Events) != 4 {
		t.Errorf("events = %d, want 4 after double ingest", len(rec.Events))
	}
	prov := rec.Provenance[models.SourceDrivingHistory]
	if len(prov.Files) != 1 {
		t.Errorf("provenance files = %v, want single deduplicated entry", prov.Files)
	}
}

func TestIngestUnrecognizedSourceType(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "quantum_billing.csv", "a,b\n1,2\n")

	n := NewNormalizer()
	err := n.IngestFile(path, "")
	if !errors.Is(err, ErrUnrecognizedSourceType) {
		t.Fatalf("err = %v, want ErrUnrecognizedSourceType", err)
	}
	if len(n.Summary().FailedFiles) != 1 {
		t.Errorf("failed files = %v, want the rejected file recorded", n.Summary().FailedFiles)
	}
	if len(n.Summary().ProcessedFiles) != 0 {
		t.Error("rejected file counted as processed")
	}
}

func TestIngestMissingRequiredColumn(t *testing.T) {
	dir := t.TempDir()
	// No driver-identity column under any accepted synonym.
	path := writeFile(t, dir, "activity_detail.csv",
		"Asset,Event Time,Activity Type\nTRK-1,2026-08-10 08:00:00,Loading\n")

	n := NewNormalizer()
	err := n.IngestFile(path, "")
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("err = %v, want ErrMissingColumn", err)
	}
	if len(n.Summary().FailedFiles) != 1 {
		t.Error("missing-column rejection not recorded")
	}
}

func TestIngestFailedFileDoesNotAffectSiblings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "driving_history.csv", drivingHistoryCSV)
	writeFile(t, dir, "mystery_export.csv", "a,b\n1,2\n")

	n := NewNormalizer()
	if err := n.IngestDirectory(dir); err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if len(n.Summary().ProcessedFiles) != 1 || len(n.Summary().FailedFiles) != 1 {
		t.Errorf("processed=%v failed=%v, want 1 and 1",
			n.Summary().ProcessedFiles, n.Summary().FailedFiles)
	}
	if n.Summary().TotalValidRows() != 2 {
		t.Errorf("valid rows = %d, want 2 from the good sibling", n.Summary().TotalValidRows())
	}
}

func TestIngestColumnSynonyms(t *testing.T) {
	dir := t.TempDir()
	// "Contact" and "Vehicle" are accepted synonyms for driver and asset.
	path := writeFile(t, dir, "activity_detail.csv",
		"Contact,Vehicle,Timestamp,Activity Type\nJane Doe,TRK-2,2026-08-10 08:00:00,Loading\n")

	n := NewNormalizer()
	if err := n.IngestFile(path, ""); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	if _, ok := n.Drivers()["Jane Doe"]; !ok {
		t.Errorf("drivers = %v, want Jane Doe via synonym columns", n.DriverNames())
	}
}

func TestIngestTimeOnSite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "time_on_site.csv",
		`Driver Name,Asset,Site Name,Start Time,End Time
John Smith,TRK-1,Nairobi Yard,2026-08-10 07:50:00,2026-08-10 16:40:00
John Smith,TRK-1,Nairobi Yard,2026-08-10 17:00:00,2026-08-10 16:00:00
`)

	n := NewNormalizer()
	if err := n.IngestFile(path, ""); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	rec := n.Drivers()["John Smith"]
	if len(rec.Events) != 1 {
		t.Fatalf("events = %d, want 1 (negative duration rejected)", len(rec.Events))
	}
	ev := rec.Events[0]
	if ev.DurationMinutes != 530 {
		t.Errorf("duration = %.0f minutes, want 530", ev.DurationMinutes)
	}
	if ev.SiteName != "Nairobi Yard" {
		t.Errorf("site = %q, want Nairobi Yard", ev.SiteName)
	}
	// Last-seen widened to the visit end, not the visit start.
	if rec.LastSeen.Hour() != 16 || rec.LastSeen.Minute() != 40 {
		t.Errorf("last seen = %v, want 16:40", rec.LastSeen)
	}
	if n.Summary().Skips[SkipNegativeDuration] != 1 {
		t.Errorf("negative-duration skips = %d, want 1", n.Summary().Skips[SkipNegativeDuration])
	}
}

func TestIngestTimeOnSiteAssetOnly(t *testing.T) {
	dir := t.TempDir()
	history := writeFile(t, dir, "driving_history.csv", drivingHistoryCSV)
	visits := writeFile(t, dir, "time_on_site.csv",
		`Asset,Site Name,Start Time,End Time
TRK-1,Nairobi Yard,2026-08-10 07:50:00,2026-08-10 16:40:00
TRK-9,Nairobi Yard,2026-08-10 08:00:00,2026-08-10 12:00:00
`)

	n := NewNormalizer()
	if err := n.IngestFile(history, ""); err != nil {
		t.Fatalf("ingest driving history: %v", err)
	}
	if err := n.IngestFile(visits, ""); err != nil {
		t.Fatalf("ingest asset-only visits: %v", err)
	}

	// TRK-1 belongs to John Smith per the driving-history rows, so his
	// visit lands on him despite the file carrying no driver column.
	rec := n.Drivers()["John Smith"]
	if rec == nil {
		t.Fatalf("drivers = %v, want John Smith", n.DriverNames())
	}
	visit := rec.EventsBySource(models.SourceTimeOnSite)
	if len(visit) != 1 {
		t.Fatalf("time-on-site events = %d, want 1 attributed via asset", len(visit))
	}
	if visit[0].DurationMinutes != 530 {
		t.Errorf("duration = %.0f minutes, want 530", visit[0].DurationMinutes)
	}

	// TRK-9 never appeared in an identity-bearing export.
	if got := n.Summary().Skips[SkipUnknownAsset]; got != 1 {
		t.Errorf("unknown-asset skips = %d, want 1", got)
	}
	counts := n.Summary().RowsBySource[models.SourceTimeOnSite]
	if counts.Valid != 1 || counts.Total != 2 {
		t.Errorf("time-on-site rows = %d/%d valid, want 1/2", counts.Valid, counts.Total)
	}
}

func TestIngestDirectoryResolvesTimeOnSiteLast(t *testing.T) {
	dir := t.TempDir()
	// Named to sort before the driving-history file; directory ingestion
	// must still process identity-bearing exports first so the asset
	// resolves.
	writeFile(t, dir, "a_time_on_site.csv",
		`Asset,Site Name,Start Time,End Time
TRK-1,Nairobi Yard,2026-08-10 07:50:00,2026-08-10 16:40:00
`)
	writeFile(t, dir, "driving_history.csv", drivingHistoryCSV)

	n := NewNormalizer()
	if err := n.IngestDirectory(dir); err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	rec := n.Drivers()["John Smith"]
	if rec == nil {
		t.Fatalf("drivers = %v, want John Smith", n.DriverNames())
	}
	if got := len(rec.EventsBySource(models.SourceTimeOnSite)); got != 1 {
		t.Errorf("time-on-site events = %d, want 1 despite file name order", got)
	}
	if got := n.Summary().Skips[SkipUnknownAsset]; got != 0 {
		t.Errorf("unknown-asset skips = %d, want 0", got)
	}
}

func TestIngestDeclaredTypeOverridesInference(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "export.csv",
		"Driver Name,Asset Label,Event Time\nJohn Smith,TRK-1,2026-08-10 07:45:00\n")

	n := NewNormalizer()
	if err := n.IngestFile(path, models.SourceDrivingHistory); err != nil {
		t.Fatalf("IngestFile with declared type: %v", err)
	}
	if n.Summary().TotalValidRows() != 1 {
		t.Errorf("valid rows = %d, want 1", n.Summary().TotalValidRows())
	}
}
