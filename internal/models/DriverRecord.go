// internal/models/DriverRecord.go
package models

import (
	"time"
)

// SourceProvenance counts what a single export type contributed to a driver.
type SourceProvenance struct {
	Records int      `json:"records"`
	Files   []string `json:"files"`
}

// DriverRecord is the per-driver working set built during ingestion.
// Name is the normalized identity and the unique key within one run;
// records arriving from different files about the same person merge here.
// Ingestion is the sole writer; validation and classification read only.
type DriverRecord struct {
	Name      string          `json:"name"`
	Assets    []string        `json:"assets"`
	Events    []LocationEvent `json:"events"`
	FirstSeen time.Time       `json:"first_seen"`
	LastSeen  time.Time       `json:"last_seen"`

	Provenance map[SourceType]*SourceProvenance `json:"provenance"`
}

func NewDriverRecord(name string) *DriverRecord {
	return &DriverRecord{
		Name:       name,
		Provenance: make(map[SourceType]*SourceProvenance),
	}
}

// AddAsset records an asset identifier seen for this driver. The asset set
// is deduplicated so re-ingesting a file never double-counts.
func (d *DriverRecord) AddAsset(assetID string) {
	if assetID == "" {
		return
	}
	for _, a := range d.Assets {
		if a == assetID {
			return
		}
	}
	d.Assets = append(d.Assets, assetID)
}

// AddEvent appends a raw event and widens the first/last-seen bounds.
// Bounds only ever widen, never narrow, so ingestion order does not matter.
func (d *DriverRecord) AddEvent(ev LocationEvent, fileName string) {
	d.Events = append(d.Events, ev)
	d.AddAsset(ev.AssetID)
	d.ObserveTime(ev.Timestamp)

	prov, ok := d.Provenance[ev.Source]
	if !ok {
		prov = &SourceProvenance{}
		d.Provenance[ev.Source] = prov
	}
	prov.Records++
	for _, f := range prov.Files {
		if f == fileName {
			return
		}
	}
	prov.Files = append(prov.Files, fileName)
}

// ObserveTime widens the seen-bounds to include t.
func (d *DriverRecord) ObserveTime(t time.Time) {
	if t.IsZero() {
		return
	}
	if d.FirstSeen.IsZero() || t.Before(d.FirstSeen) {
		d.FirstSeen = t
	}
	if d.LastSeen.IsZero() || t.After(d.LastSeen) {
		d.LastSeen = t
	}
}

// EventsBySource filters the event list down to one export type.
func (d *DriverRecord) EventsBySource(src SourceType) []LocationEvent {
	var out []LocationEvent
	for _, ev := range d.Events {
		if ev.Source == src {
			out = append(out, ev)
		}
	}
	return out
}

// CoordinateEvents returns only events that carried a GPS fix.
func (d *DriverRecord) CoordinateEvents() []LocationEvent {
	var out []LocationEvent
	for _, ev := range d.Events {
		if ev.HasCoords {
			out = append(out, ev)
		}
	}
	return out
}

// SourcesPresent lists which export types contributed at least one record,
// in the canonical KnownSourceTypes order.
func (d *DriverRecord) SourcesPresent() []SourceType {
	var out []SourceType
	for _, src := range KnownSourceTypes {
		if p, ok := d.Provenance[src]; ok && p.Records > 0 {
			out = append(out, src)
		}
	}
	return out
}
