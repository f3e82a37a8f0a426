package handlers

import (
	"net/http"

	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type JobHandler struct {
	jobService *services.JobService
}

func NewJobHandler(jobSvc *services.JobService) *JobHandler {
	return &JobHandler{
		jobService: jobSvc,
	}
}

// Status returns the current worker status
// @Summary Get background job status
// @Description Worker statistics and the last run of each scheduled job
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /jobs/status [get]
func (h *JobHandler) Status(c *gin.Context) {
	status := h.jobService.GetStatus()
	c.JSON(http.StatusOK, status)
}

// RecurringSweep runs the recurring sweep now
// @Summary Run recurring sweep
// @Description Materializes every due recurring template. Answers 422 while a run is in progress.
// @Tags Jobs
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string
// @Router /jobs/recurring-sweep [post]
func (h *JobHandler) RecurringSweep(c *gin.Context) {
	created, err := h.jobService.RunRecurringSweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}
