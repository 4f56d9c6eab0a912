package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"

	"fleet_attendance/internal/ingest"
	"fleet_attendance/internal/report"
)

// JobSiteController serves the read-only job-site registry.
type JobSiteController struct {
	registryPath string
}

func NewJobSiteController(registryPath string) *JobSiteController {
	return &JobSiteController{registryPath: registryPath}
}

// ListJobSites returns the registry entries as JSON.
func (jc *JobSiteController) ListJobSites(c *gin.Context) {
	if jc.registryPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No job-site registry configured."})
		return
	}
	sites, err := ingest.LoadJobSites(jc.registryPath)
	if err != nil {
		logrus.WithError(err).Error("Failed to load job-site registry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job-site registry: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_sites": sites})
}

// GetJobSitesGeoJSON returns the registry as a GeoJSON FeatureCollection
// for map overlays.
func (jc *JobSiteController) GetJobSitesGeoJSON(c *gin.Context) {
	if jc.registryPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No job-site registry configured."})
		return
	}
	sites, err := ingest.LoadJobSites(jc.registryPath)
	if err != nil {
		logrus.WithError(err).Error("Failed to load job-site registry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job-site registry: " + err.Error()})
		return
	}
	data, err := report.SitesGeoJSON(sites)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode job sites: " + err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", data)
}
