package handlers

import (
	"net/http"

	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// @Summary Month Summary
// @Description Revenue and expense totals of a month compared with the month before
// @Tags Dashboard
// @Produce json
// @Param year query int false "Year, defaults to the current one"
// @Param month query int false "Month 1-12, defaults to the current one"
// @Success 200 {object} services.MonthSummary
// @Security BearerAuth
// @Router /dashboard/month [get]
func (h *DashboardHandler) Month(c *gin.Context) {
	year, month, err := monthParam(c)
	if err != nil {
		respondError(c, err)
		return
	}
	summary, err := h.dashboardService.Month(c.Request.Context(), companyID(c), year, month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
