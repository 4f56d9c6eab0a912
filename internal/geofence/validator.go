package geofence

import (
	"math"

	"github.com/twpayne/go-geom"

	"fleet_attendance/internal/models"
)

const (
	earthRadiusKM = 6371.0

	// Validation scoring knobs. Fewer than minSamplePoints GPS fixes makes
	// the aggregate score unreliable, so each missing point costs 5.
	minSamplePoints    = 5
	assignedMatchBonus = 20
	smallSamplePenalty = 5
)

// Haversine returns the great-circle distance in kilometers between two
// WGS84 coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180.0)*math.Cos(lat2*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKM * c
}

// LocationCheck is the outcome of testing one point against a site set.
// When the point lies inside at least one geofence, Site is the closest
// such site; otherwise Site is the closest candidate overall so callers
// can report "nearest site, N km away" diagnostics.
type LocationCheck struct {
	IsValid    bool
	Site       *models.JobSite
	DistanceKM float64
}

// ValidateLocation tests a point against every site's circular geofence.
// IsValid is true when the point lies within any site's radius, not just
// the nearest one: a small site's center being closer must not mask
// containment by a larger overlapping geofence.
func ValidateLocation(point *geom.Point, sites []models.JobSite) LocationCheck {
	if point == nil || len(sites) == 0 {
		return LocationCheck{}
	}

	lon, lat := point.X(), point.Y()
	closestDist, insideDist := math.MaxFloat64, math.MaxFloat64
	var closest, inside *models.JobSite
	for i := range sites {
		d := Haversine(lat, lon, sites[i].Latitude, sites[i].Longitude)
		if d < closestDist {
			closestDist, closest = d, &sites[i]
		}
		if d <= sites[i].RadiusKM && d < insideDist {
			insideDist, inside = d, &sites[i]
		}
	}

	if inside != nil {
		return LocationCheck{IsValid: true, Site: inside, DistanceKM: insideDist}
	}
	return LocationCheck{Site: closest, DistanceKM: closestDist}
}

// ValidateDriverLocations aggregates per-point geofence checks into a
// GeoValidationResult for one driver.
//
// When assignedJob is non-empty the site set is filtered to that job first.
// If the filter leaves zero candidates the full site set is used instead and
// the result is flagged with UsedFallback; a driver carrying a job number
// absent from the registry therefore gets matched against every site rather
// than none. Preserved from observed behavior, flagged because silently
// widening the candidate set is questionable.
func ValidateDriverLocations(events []models.LocationEvent, sites []models.JobSite, assignedJob string) models.GeoValidationResult {
	result := models.GeoValidationResult{}

	candidates := sites
	if assignedJob != "" {
		var filtered []models.JobSite
		for _, s := range sites {
			if s.JobNumber == assignedJob {
				filtered = append(filtered, s)
			}
		}
		if len(filtered) > 0 {
			candidates = filtered
		} else {
			result.UsedFallback = true
			result.Notes = append(result.Notes,
				"assigned job "+assignedJob+" not in registry, evaluated against all sites")
		}
	}

	matchCounts := make(map[string]int)
	siteNames := make(map[string]string)
	for i := range events {
		pt := events[i].Point()
		if pt == nil {
			continue
		}
		result.TotalPoints++
		check := ValidateLocation(pt, candidates)
		if check.IsValid {
			result.PointsInside++
			matchCounts[check.Site.JobNumber]++
			siteNames[check.Site.JobNumber] = check.Site.Name
		}
	}

	// Zero GPS samples: zero confidence, not an error.
	if result.TotalPoints == 0 {
		return result
	}

	best, bestCount := "", 0
	for job, n := range matchCounts {
		if n > bestCount || (n == bestCount && job < best) {
			best, bestCount = job, n
		}
	}
	result.BestSite = best
	result.BestSiteName = siteNames[best]
	result.MatchesAssigned = assignedJob != "" && best == assignedJob

	score := result.PointsInside * 100 / result.TotalPoints
	if result.MatchesAssigned {
		score += assignedMatchBonus
	}
	if result.TotalPoints < minSamplePoints {
		score -= smallSamplePenalty * (minSamplePoints - result.TotalPoints)
	}
	result.Score = clampScore(score)
	return result
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
