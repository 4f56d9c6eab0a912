package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fleet_attendance/internal/controllers"
)

// SetupRouter wires the pipeline and job-site route groups onto a gin
// engine with structured request logging.
func SetupRouter(rc *controllers.RunController, jc *controllers.JobSiteController) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger(
		ginlog.WithLogger(func(_ *gin.Context, l zerolog.Logger) zerolog.Logger {
			return l.With().Str("component", "http").Logger()
		}),
	))

	PipelineRoutes(r, rc)
	JobSiteRoutes(r, jc)

	return r
}
