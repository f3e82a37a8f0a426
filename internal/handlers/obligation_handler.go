package handlers

import (
	"net/http"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

// ObligationHandler serves bills or incomes, depending on kind
type ObligationHandler struct {
	settlementService *services.SettlementService
	kind              models.ObligationKind
}

func NewObligationHandler(settlementService *services.SettlementService, kind models.ObligationKind) *ObligationHandler {
	return &ObligationHandler{settlementService: settlementService, kind: kind}
}

func (h *ObligationHandler) key() string {
	return string(h.kind)
}

// @Summary List Bills or Incomes
// @Tags Settlement
// @Produce json
// @Param status query string false "open or settled"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bills [get]
// @Router /incomes [get]
func (h *ObligationHandler) Index(c *gin.Context) {
	query := listQuery(c)
	items, total, err := h.settlementService.List(c.Request.Context(), companyID(c), h.kind, query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.ObligationResponse, 0, len(items))
	for i := range items {
		responses = append(responses, items[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{h.key() + "s": responses, "pagination": pagination(total, query.Page, query.PerPage)})
}

// @Summary Get Bill or Income
// @Tags Settlement
// @Produce json
// @Param id path string true "ID"
// @Success 200 {object} models.ObligationResponse
// @Security BearerAuth
// @Router /bills/{id} [get]
// @Router /incomes/{id} [get]
func (h *ObligationHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	obligation, err := h.settlementService.Get(c.Request.Context(), companyID(c), h.kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.key(): obligation.ToResponse()})
}

// @Summary Create Bill or Income
// @Tags Settlement
// @Accept json
// @Produce json
// @Param request body services.ObligationInput true "Bill or income"
// @Success 201 {object} models.ObligationResponse
// @Security BearerAuth
// @Router /bills [post]
// @Router /incomes [post]
func (h *ObligationHandler) Create(c *gin.Context) {
	var input services.ObligationInput
	if !bindBody(c, h.key(), &input) {
		return
	}
	obligation, err := h.settlementService.Create(c.Request.Context(), companyID(c), h.kind, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{h.key(): obligation.ToResponse()})
}

// @Summary Update Bill or Income
// @Description Only open bills and incomes can change
// @Tags Settlement
// @Accept json
// @Produce json
// @Param id path string true "ID"
// @Param request body services.ObligationPatch true "Changed fields"
// @Success 200 {object} models.ObligationResponse
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /bills/{id} [patch]
// @Router /incomes/{id} [patch]
func (h *ObligationHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch services.ObligationPatch
	if !bindBody(c, h.key(), &patch) {
		return
	}
	obligation, err := h.settlementService.Update(c.Request.Context(), companyID(c), h.kind, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.key(): obligation.ToResponse()})
}

// @Summary Delete Bill or Income
// @Tags Settlement
// @Param id path string true "ID"
// @Success 204
// @Security BearerAuth
// @Router /bills/{id} [delete]
// @Router /incomes/{id} [delete]
func (h *ObligationHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.settlementService.Delete(c.Request.Context(), companyID(c), h.kind, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Record Payment
// @Description Settles the bill or income and posts the matching transaction in one unit of work
// @Tags Settlement
// @Accept json
// @Produce json
// @Param id path string true "ID"
// @Param request body services.PaymentInput true "Payment"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bills/{id}/record-payment [post]
// @Router /incomes/{id}/record-payment [post]
func (h *ObligationHandler) RecordPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.PaymentInput
	if !bindBody(c, "payment", &input) {
		return
	}
	obligation, tx, err := h.settlementService.RecordPayment(c.Request.Context(), companyID(c), h.kind, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{h.key(): obligation.ToResponse(), "transaction": tx.ToResponse()})
}
