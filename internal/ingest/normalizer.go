package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	logrus "github.com/sirupsen/logrus"

	"fleet_attendance/internal/models"
)

// defaultMaxRowsPerFile bounds memory on runaway exports. Reading is
// streaming, so the cap is about the working set, not the file size.
const defaultMaxRowsPerFile = 500000

// Normalizer parses heterogeneous CSV exports into the canonical per-driver
// working set. Purely additive: ingesting more files only ever widens the
// set. Not safe for concurrent IngestFile calls; the pipeline serializes
// the merge.
type Normalizer struct {
	drivers map[string]*models.DriverRecord
	// assets maps asset id -> normalized driver name, built from the
	// identity-bearing exports; time-on-site rows resolve through it.
	assets  map[string]string
	summary *IngestionSummary
	maxRows int
}

func NewNormalizer() *Normalizer {
	return &Normalizer{
		drivers: make(map[string]*models.DriverRecord),
		assets:  make(map[string]string),
		summary: newIngestionSummary(),
		maxRows: defaultMaxRowsPerFile,
	}
}

// Drivers exposes the working set keyed by normalized driver name.
// Read-only once ingestion finishes.
func (n *Normalizer) Drivers() map[string]*models.DriverRecord {
	return n.drivers
}

// Summary exposes the running ingestion report.
func (n *Normalizer) Summary() *IngestionSummary {
	return n.summary
}

// IngestDirectory ingests every .csv file in dir, inferring each file's
// source type from its name. Identity-bearing exports ingest first so
// time-on-site rows can resolve their asset→driver attribution regardless
// of directory order. File failures land in the summary; the walk itself
// only fails if the directory is unreadable.
func (n *Normalizer) IngestDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read source directory %s: %w", dir, err)
	}
	var identityFiles, siteFiles []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		if src, ok := InferSourceType(e.Name()); ok && src == models.SourceTimeOnSite {
			siteFiles = append(siteFiles, e.Name())
		} else {
			identityFiles = append(identityFiles, e.Name())
		}
	}
	// Errors are already recorded in the summary; a bad file must not
	// stop its siblings.
	for _, name := range identityFiles {
		_ = n.IngestFile(filepath.Join(dir, name), "")
	}
	for _, name := range siteFiles {
		_ = n.IngestFile(filepath.Join(dir, name), "")
	}
	return nil
}

// IngestFile parses one export file into the working set. When declared is
// empty the source type is inferred from the file name. Any returned error
// is file-level: the file was rejected whole but the run continues.
func (n *Normalizer) IngestFile(path string, declared models.SourceType) error {
	name := filepath.Base(path)

	source := declared
	if source == "" {
		inferred, ok := InferSourceType(name)
		if !ok {
			n.summary.failFile(name, ErrUnrecognizedSourceType.Error())
			logrus.WithField("file", name).Warn("Skipping file with unrecognized source type")
			return fmt.Errorf("%s: %w", name, ErrUnrecognizedSourceType)
		}
		source = inferred
	}
	if !source.Valid() {
		n.summary.failFile(name, ErrUnrecognizedSourceType.Error())
		return fmt.Errorf("%s: %w: %q", name, ErrUnrecognizedSourceType, source)
	}

	f, err := os.Open(path)
	if err != nil {
		n.summary.failFile(name, "unreadable: "+err.Error())
		logrus.WithError(err).WithField("file", name).Warn("Failed to open export file")
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // exports pad rows inconsistently
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		n.summary.failFile(name, ErrEmptyFile.Error())
		return fmt.Errorf("%s: %w", name, ErrEmptyFile)
	}
	if err != nil {
		n.summary.failFile(name, "corrupt header: "+err.Error())
		return fmt.Errorf("read header of %s: %w", name, err)
	}

	schema, err := resolveSchema(source, header)
	if err != nil {
		n.summary.failFile(name, err.Error())
		logrus.WithError(err).WithFields(logrus.Fields{
			"file":   name,
			"source": source,
		}).Warn("Rejecting file with unresolvable schema")
		return fmt.Errorf("%s: %w", name, err)
	}

	rows := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A torn line mid-file counts as a skipped row, not a dead file.
			n.summary.skip(source, SkipShortRow)
			continue
		}
		rows++
		if rows > n.maxRows {
			logrus.WithFields(logrus.Fields{
				"file": name,
				"cap":  n.maxRows,
			}).Warn("Row cap reached, truncating file")
			break
		}
		n.ingestRow(schema, row, name)
	}

	n.summary.ProcessedFiles = append(n.summary.ProcessedFiles, name)
	logrus.WithFields(logrus.Fields{
		"file":   name,
		"source": source,
		"rows":   rows,
	}).Info("Ingested export file")
	return nil
}

func (n *Normalizer) ingestRow(schema *resolvedSchema, row []string, fileName string) {
	switch schema.source {
	case models.SourceTimeOnSite:
		n.ingestTimeOnSiteRow(schema, row, fileName)
	default:
		n.ingestTelemetryRow(schema, row, fileName)
	}
}

// ingestTelemetryRow handles driving-history and activity-detail rows,
// which share the driver/asset/timestamp shape.
func (n *Normalizer) ingestTelemetryRow(schema *resolvedSchema, row []string, fileName string) {
	driver := NormalizeDriverName(schema.value(row, fieldDriver))
	if driver == "" {
		n.summary.skip(schema.source, SkipBlankDriver)
		return
	}
	asset := schema.value(row, fieldAsset)
	if asset == "" {
		n.summary.skip(schema.source, SkipBlankAsset)
		return
	}
	ts, ok := parseTimestamp(schema.value(row, fieldTimestamp))
	if !ok {
		n.summary.skip(schema.source, SkipBadTimestamp)
		return
	}

	ev := models.LocationEvent{
		Timestamp: ts,
		AssetID:   asset,
		Source:    schema.source,
		EventType: schema.value(row, fieldEventType),
		SiteName:  schema.value(row, fieldSiteName),
	}
	lat, lon, hasCoords, ok := parseCoordinates(schema, row)
	if !ok {
		n.summary.skip(schema.source, SkipBadCoordinate)
		return
	}
	ev.Latitude, ev.Longitude, ev.HasCoords = lat, lon, hasCoords

	n.assets[asset] = driver
	n.record(driver).AddEvent(ev, fileName)
	n.summary.accept(schema.source)
}

// ingestTimeOnSiteRow derives visit duration from the start/end pair and
// anchors the event at the visit start. These exports identify the asset,
// not the driver: attribution comes from the optional driver column when
// present, otherwise from the asset→driver association accumulated while
// ingesting the other sources.
func (n *Normalizer) ingestTimeOnSiteRow(schema *resolvedSchema, row []string, fileName string) {
	asset := schema.value(row, fieldAsset)
	if asset == "" {
		n.summary.skip(schema.source, SkipBlankAsset)
		return
	}
	driver := NormalizeDriverName(schema.value(row, fieldDriver))
	if driver != "" {
		n.assets[asset] = driver
	} else {
		driver = n.assets[asset]
	}
	if driver == "" {
		n.summary.skip(schema.source, SkipUnknownAsset)
		return
	}
	start, ok := parseTimestamp(schema.value(row, fieldStartTime))
	if !ok {
		n.summary.skip(schema.source, SkipBadTimestamp)
		return
	}
	end, ok := parseTimestamp(schema.value(row, fieldEndTime))
	if !ok {
		n.summary.skip(schema.source, SkipBadTimestamp)
		return
	}
	duration := end.Sub(start).Minutes()
	if duration < 0 {
		n.summary.skip(schema.source, SkipNegativeDuration)
		return
	}

	ev := models.LocationEvent{
		Timestamp:       start,
		AssetID:         asset,
		Source:          schema.source,
		SiteName:        schema.value(row, fieldSiteName),
		DurationMinutes: duration,
	}
	lat, lon, hasCoords, ok := parseCoordinates(schema, row)
	if !ok {
		n.summary.skip(schema.source, SkipBadCoordinate)
		return
	}
	ev.Latitude, ev.Longitude, ev.HasCoords = lat, lon, hasCoords

	rec := n.record(driver)
	rec.AddEvent(ev, fileName)
	rec.ObserveTime(end) // a visit spanning midnight still widens last-seen
	n.summary.accept(schema.source)
}

// parseCoordinates reads the optional lat/lon pair. Absent coordinates are
// fine (hasCoords=false); present but unparsable ones poison the row.
func parseCoordinates(schema *resolvedSchema, row []string) (lat, lon float64, hasCoords, ok bool) {
	rawLat := schema.value(row, fieldLatitude)
	rawLon := schema.value(row, fieldLongitude)
	if rawLat == "" || rawLon == "" {
		return 0, 0, false, true
	}
	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lon, errLon := strconv.ParseFloat(rawLon, 64)
	if errLat != nil || errLon != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return 0, 0, false, false
	}
	return lat, lon, true, true
}

func (n *Normalizer) record(name string) *models.DriverRecord {
	rec, ok := n.drivers[name]
	if !ok {
		rec = models.NewDriverRecord(name)
		n.drivers[name] = rec
	}
	return rec
}

// DriverNames returns the working-set keys in stable sorted order, for
// deterministic iteration in the classification phase.
func (n *Normalizer) DriverNames() []string {
	names := make([]string, 0, len(n.drivers))
	for name := range n.drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
