package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_attendance/internal/controllers"
)

func JobSiteRoutes(r *gin.Engine, jc *controllers.JobSiteController) {
	sites := r.Group("/jobsites")
	{
		sites.GET("/", jc.ListJobSites)
		sites.GET("/geojson", jc.GetJobSitesGeoJSON)
	}
}
