package handlers

import (
	"net/http"

	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService *services.AuditService
}

func NewAuditHandler(auditService *services.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// @Summary List Audit Logs
// @Description Paginated ledger write history of the active company
// @Tags Audit
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param entity query string false "Entity name, e.g. Transaction"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /audit-logs [get]
func (h *AuditHandler) Index(c *gin.Context) {
	query := listQuery(c)
	logs, total, err := h.auditService.List(c.Request.Context(), companyID(c), query)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": logs, "pagination": pagination(total, query.Page, query.PerPage)})
}
