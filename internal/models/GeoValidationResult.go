package models

// GeoValidationResult summarizes geofence validation over one driver's
// coordinate-bearing events.
type GeoValidationResult struct {
	TotalPoints  int `json:"total_points"`
	PointsInside int `json:"points_inside"`

	// BestSite is the job number matched most frequently across all points;
	// empty when no point fell inside any geofence.
	BestSite     string `json:"best_site,omitempty"`
	BestSiteName string `json:"best_site_name,omitempty"`

	// MatchesAssigned is true when BestSite equals the driver's assigned job.
	MatchesAssigned bool `json:"matches_assigned"`

	// UsedFallback flags that the assigned job matched no registered site and
	// validation fell back to the full site set.
	UsedFallback bool `json:"used_fallback"`

	// Score is the 0-100 validation confidence.
	Score int      `json:"score"`
	Notes []string `json:"notes,omitempty"`
}

// IsValid reports whether any sampled point validated inside a geofence.
func (r *GeoValidationResult) IsValid() bool {
	return r.PointsInside > 0
}
