package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_attendance/internal/classify"
	"fleet_attendance/internal/geofence"
	"fleet_attendance/internal/ingest"
	"fleet_attendance/internal/models"
	"fleet_attendance/internal/report"
)

// ErrNoUsableRecords aborts a run whose ingestion phase produced nothing to
// classify. Individual bad files never trigger it; a completely empty
// working set does.
var ErrNoUsableRecords = errors.New("ingestion produced no usable records")

// Config is the per-run configuration. A Pipeline is constructed fresh per
// invocation; no state survives between runs.
type Config struct {
	SourceDirs   []string
	RegistryPath string
	OutputDir    string

	// Assignments maps normalized driver names to assigned job numbers.
	Assignments map[string]string

	Thresholds classify.Config
	Workers    int
	RunTimeout time.Duration
}

// Result is the contract handed to the report renderer: the full
// classification set, ingestion and timing summaries, and the audit stream.
// The caller always gets one, completed or failed.
type Result struct {
	Run             models.PipelineRun       `json:"run"`
	Classifications []models.Classification  `json:"classifications"`
	Ingestion       *ingest.IngestionSummary `json:"ingestion"`
	Stats           TimingStats              `json:"stats"`

	// Audit is flushed to its own file; exposed here for API consumers.
	Audit []models.AuditEvent `json:"-"`
	Sites []models.JobSite    `json:"-"`
}

// Pipeline sequences ingestion, geofence validation and classification for
// one run.
type Pipeline struct {
	cfg   Config
	db    *gorm.DB // optional persistence sink, nil for in-memory runs
	audit *AuditTrail
}

func New(cfg Config, db *gorm.DB) *Pipeline {
	if cfg.Thresholds.LateThresholdMinutes <= 0 {
		cfg.Thresholds.LateThresholdMinutes = classify.DefaultConfig().LateThresholdMinutes
	}
	if cfg.Thresholds.EarlyEndThresholdMinutes <= 0 {
		cfg.Thresholds.EarlyEndThresholdMinutes = classify.DefaultConfig().EarlyEndThresholdMinutes
	}
	return &Pipeline{cfg: cfg, db: db}
}

// Run executes the full pipeline. The audit log is flushed to disk (and to
// the database sink when configured) on every exit path, fatal ones
// included. Bad input data never panics out of here: unexpected failures
// are caught, logged as a fatal audit event, and surfaced as a failed-run
// result.
func (p *Pipeline) Run(ctx context.Context) (result *Result, err error) {
	runID := uuid.NewString()
	p.audit = NewAuditTrail(runID)

	result = &Result{
		Run: models.PipelineRun{
			ID:        runID,
			StartedAt: time.Now().UTC(),
			Status:    models.RunFailed,
		},
	}

	if p.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RunTimeout)
		defer cancel()
	}

	// Flush runs last (registered first): the audit trail is written even
	// when a later defer turns a panic into a failed run.
	defer func() {
		result.Run.FinishedAt = time.Now().UTC()
		p.flush(result)
	}()
	defer func() {
		if r := recover(); r != nil {
			p.audit.Record(models.AuditFatalError, map[string]interface{}{
				"error": fmt.Sprint(r),
			})
			result.Run.FailureReason = fmt.Sprintf("fatal: %v", r)
			err = fmt.Errorf("pipeline run %s: fatal: %v", runID, r)
			logrus.WithField("run_id", runID).Errorf("Pipeline panic recovered: %v", r)
		}
	}()

	p.audit.Record(models.AuditRunStarted, map[string]interface{}{
		"source_dirs": p.cfg.SourceDirs,
		"registry":    p.cfg.RegistryPath,
	})

	// Job-site registry.
	if p.cfg.RegistryPath != "" {
		sites, loadErr := ingest.LoadJobSites(p.cfg.RegistryPath)
		if loadErr != nil {
			return p.fail(result, fmt.Errorf("load job-site registry: %w", loadErr))
		}
		result.Sites = sites
	}

	// Phase 1: ingestion.
	norm, phaseErr := p.runIngestion(ctx, result)
	if phaseErr != nil {
		return p.fail(result, phaseErr)
	}

	// Phase 2+3: geofence validation and classification per driver.
	phaseErr = p.runClassification(ctx, result, norm)
	if phaseErr != nil {
		return p.fail(result, phaseErr)
	}

	result.Stats = ComputeStats(result.Classifications)
	result.Run.Status = models.RunCompleted
	result.Run.DriversProcessed = len(norm.Drivers())
	result.Run.FilesProcessed = len(norm.Summary().ProcessedFiles)
	result.Run.FilesFailed = len(norm.Summary().FailedFiles)

	p.audit.Record(models.AuditRunCompleted, map[string]interface{}{
		"drivers":         result.Run.DriversProcessed,
		"classifications": len(result.Classifications),
		"files_processed": result.Run.FilesProcessed,
		"files_failed":    result.Run.FilesFailed,
	})
	return result, nil
}

func (p *Pipeline) fail(result *Result, phaseErr error) (*Result, error) {
	result.Run.FailureReason = phaseErr.Error()
	p.audit.Record(models.AuditRunFailed, map[string]interface{}{
		"reason": phaseErr.Error(),
	})
	logrus.WithField("run_id", result.Run.ID).WithError(phaseErr).Error("Pipeline run failed")
	return result, phaseErr
}

func (p *Pipeline) runIngestion(ctx context.Context, result *Result) (*ingest.Normalizer, error) {
	p.audit.Record(models.AuditPhaseStarted, map[string]interface{}{"phase": "ingestion"})

	norm := ingest.NewNormalizer()
	for _, dir := range p.cfg.SourceDirs {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ingestion: %w", ctx.Err())
		}
		if err := norm.IngestDirectory(dir); err != nil {
			// Unreadable directory: recorded, siblings still process.
			norm.Summary().FailedFiles = append(norm.Summary().FailedFiles,
				ingest.FileFailure{File: dir, Reason: err.Error()})
			logrus.WithError(err).WithField("dir", dir).Warn("Source directory unreadable")
		}
	}

	summary := norm.Summary()
	result.Ingestion = summary
	for _, f := range summary.ProcessedFiles {
		p.audit.Record(models.AuditFileIngested, map[string]interface{}{"file": f})
	}
	for _, f := range summary.FailedFiles {
		p.audit.Record(models.AuditFileFailed, map[string]interface{}{
			"file":   f.File,
			"reason": f.Reason,
		})
	}
	p.audit.Record(models.AuditPhaseCompleted, map[string]interface{}{
		"phase":      "ingestion",
		"drivers":    len(norm.Drivers()),
		"valid_rows": summary.TotalValidRows(),
	})

	if summary.TotalValidRows() == 0 {
		return nil, ErrNoUsableRecords
	}
	return norm, nil
}

// runClassification fans classification out across drivers. No driver's
// outcome depends on another's; the working set is read-only here, only the
// result slice and the audit trail need the mutex.
func (p *Pipeline) runClassification(ctx context.Context, result *Result, norm *ingest.Normalizer) error {
	p.audit.Record(models.AuditPhaseStarted, map[string]interface{}{"phase": "classification"})

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		jobs = make(chan *models.DriverRecord)
	)
	drivers := norm.Drivers()

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if ctx.Err() != nil {
					continue // drain; the dispatcher already stopped
				}
				classifications := p.classifyDriver(rec, result.Sites)
				mu.Lock()
				result.Classifications = append(result.Classifications, classifications...)
				mu.Unlock()
			}
		}()
	}

dispatch:
	for _, name := range norm.DriverNames() {
		select {
		case <-ctx.Done():
			break dispatch
		case jobs <- drivers[name]:
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		return fmt.Errorf("classification: %w", ctx.Err())
	}

	// Worker completion order is nondeterministic; the renderer contract is
	// an ordered list.
	sort.Slice(result.Classifications, func(i, j int) bool {
		a, b := result.Classifications[i], result.Classifications[j]
		if a.DriverName != b.DriverName {
			return a.DriverName < b.DriverName
		}
		return a.Date < b.Date
	})

	p.audit.Record(models.AuditPhaseCompleted, map[string]interface{}{
		"phase":           "classification",
		"classifications": len(result.Classifications),
	})
	return nil
}

// classifyDriver produces one classification per calendar day the driver
// has evidence for. Days with no events are absent from the output.
func (p *Pipeline) classifyDriver(rec *models.DriverRecord, sites []models.JobSite) []models.Classification {
	assigned := p.cfg.Assignments[rec.Name]

	var schedSite *models.JobSite
	if assigned != "" {
		for i := range sites {
			if sites[i].JobNumber == assigned {
				schedSite = &sites[i]
				break
			}
		}
	}

	var out []models.Classification
	for _, day := range distinctDays(rec.Events) {
		dayEvents := eventsOnDay(rec.Events, day)

		var geo *models.GeoValidationResult
		if hasCoordinates(dayEvents) {
			r := geofence.ValidateDriverLocations(dayEvents, sites, assigned)
			geo = &r
		}

		var schedStart, schedEnd time.Time
		if schedSite != nil && schedSite.HasSchedule() {
			if s, e, err := schedSite.ScheduleWindow(day); err == nil {
				schedStart, schedEnd = s, e
			} else {
				logrus.WithError(err).WithField("driver", rec.Name).Warn("Unusable site schedule")
			}
		}

		c := classify.Classify(classify.Input{
			Driver:         rec,
			Day:            day,
			ScheduledStart: schedStart,
			ScheduledEnd:   schedEnd,
			AssignedJob:    assigned,
			Geo:            geo,
		}, p.cfg.Thresholds)
		c.RunID = p.audit.runID

		detail := map[string]interface{}{
			"driver":           c.DriverName,
			"date":             c.Date,
			"status":           string(c.Status),
			"minutes_late":     c.MinutesLate,
			"minutes_early":    c.MinutesEarlyEnd,
			"validation_score": c.ValidationScore,
			"reasons":          c.Reasons,
		}
		if geo != nil {
			detail["geo_score"] = geo.Score
			detail["geo_points_inside"] = geo.PointsInside
			detail["geo_used_fallback"] = geo.UsedFallback
		}
		p.audit.Record(models.AuditDriverClassified, detail)

		out = append(out, c)
	}
	return out
}

// flush writes the audit log and (possibly partial) results to disk, and
// mirrors them to the database sink when one is configured. Never fatal:
// a run that classified everything but could not write a file still
// returns its result to the caller.
func (p *Pipeline) flush(result *Result) {
	result.Audit = p.audit.Events()

	if p.cfg.OutputDir != "" {
		runDir := filepath.Join(p.cfg.OutputDir, result.Run.ID)
		if err := report.WriteJSON(filepath.Join(runDir, "audit.json"), result.Audit); err != nil {
			logrus.WithError(err).Error("Failed to flush audit log")
		}
		if err := report.WriteJSON(filepath.Join(runDir, "results.json"), result); err != nil {
			logrus.WithError(err).Error("Failed to write results")
		}
		if len(result.Sites) > 0 {
			if err := report.WriteSitesGeoJSON(filepath.Join(runDir, "jobsites.geojson"), result.Sites); err != nil {
				logrus.WithError(err).Error("Failed to write job-site overlay")
			}
		}
	}

	if p.db == nil {
		return
	}
	if err := p.db.Create(&result.Run).Error; err != nil {
		logrus.WithError(err).Error("Failed to persist run row")
	}
	if len(result.Classifications) > 0 {
		if err := p.db.Create(&result.Classifications).Error; err != nil {
			logrus.WithError(err).Error("Failed to persist classifications")
		}
	}
	if len(result.Audit) > 0 {
		if err := p.db.Create(&result.Audit).Error; err != nil {
			logrus.WithError(err).Error("Failed to persist audit events")
		}
	}
}

func distinctDays(events []models.LocationEvent) []time.Time {
	seen := make(map[string]time.Time)
	for _, ev := range events {
		if ev.Timestamp.IsZero() {
			continue
		}
		y, m, d := ev.Timestamp.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, ev.Timestamp.Location())
		seen[day.Format("2006-01-02")] = day
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	days := make([]time.Time, 0, len(keys))
	for _, k := range keys {
		days = append(days, seen[k])
	}
	return days
}

func eventsOnDay(events []models.LocationEvent, day time.Time) []models.LocationEvent {
	y, m, d := day.Date()
	var out []models.LocationEvent
	for _, ev := range events {
		ey, em, ed := ev.Timestamp.Date()
		if ey == y && em == m && ed == d {
			out = append(out, ev)
		}
	}
	return out
}

func hasCoordinates(events []models.LocationEvent) bool {
	for _, ev := range events {
		if ev.HasCoords {
			return true
		}
	}
	return false
}
