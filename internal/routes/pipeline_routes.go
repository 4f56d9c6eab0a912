package routes

import (
	"github.com/gin-gonic/gin"

	"fleet_attendance/internal/controllers"
)

func PipelineRoutes(r *gin.Engine, rc *controllers.RunController) {
	runs := r.Group("/pipeline/runs")
	{
		runs.POST("/", rc.TriggerRun)
		runs.GET("/", rc.ListRuns)
		runs.GET("/:id", rc.GetRun)
		runs.GET("/:id/audit", rc.GetRunAudit)
	}
}
