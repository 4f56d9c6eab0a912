package controllers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	logrus "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fleet_attendance/internal/pipeline"
)

// RunController triggers pipeline runs over the configured source
// directories and serves their results. Each trigger constructs a fresh
// Pipeline; the controller only caches completed Results for retrieval.
type RunController struct {
	cfg pipeline.Config
	db  *gorm.DB

	mu   sync.RWMutex
	runs map[string]*pipeline.Result
	ids  []string // insertion order
}

func NewRunController(cfg pipeline.Config, db *gorm.DB) *RunController {
	return &RunController{
		cfg:  cfg,
		db:   db,
		runs: make(map[string]*pipeline.Result),
	}
}

// TriggerRun executes one synchronous pipeline run. These are offline batch
// jobs; the request blocks until the run finishes or its deadline fires.
// A failed run still answers with the partial result and the audit log.
func (rc *RunController) TriggerRun(c *gin.Context) {
	pipe := pipeline.New(rc.cfg, rc.db)
	result, err := pipe.Run(c.Request.Context())

	rc.mu.Lock()
	rc.runs[result.Run.ID] = result
	rc.ids = append(rc.ids, result.Run.ID)
	rc.mu.Unlock()

	if err != nil {
		logrus.WithError(err).WithField("run_id", result.Run.ID).Warn("Pipeline run failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Pipeline run failed: " + err.Error(),
			"result": result,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ListRuns returns the header rows of every run this server has executed.
func (rc *RunController) ListRuns(c *gin.Context) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	headers := make([]interface{}, 0, len(rc.ids))
	for _, id := range rc.ids {
		headers = append(headers, rc.runs[id].Run)
	}
	c.JSON(http.StatusOK, gin.H{"runs": headers})
}

// GetRun returns the full result set for one run: classifications,
// ingestion summary and timing statistics.
func (rc *RunController) GetRun(c *gin.Context) {
	result, ok := rc.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetRunAudit returns the ordered audit event stream for one run.
func (rc *RunController) GetRunAudit(c *gin.Context) {
	result, ok := rc.lookup(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"audit": result.Audit})
}

func (rc *RunController) lookup(id string) (*pipeline.Result, bool) {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	result, ok := rc.runs[id]
	return result, ok
}
