package handlers

import (
	"net/http"
	"strconv"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

// RecurringHandler serves recurring bills or recurring incomes, depending on kind
type RecurringHandler struct {
	recurringService  *services.RecurringService
	settlementService *services.SettlementService
	kind              models.ObligationKind
}

func NewRecurringHandler(recurringService *services.RecurringService, settlementService *services.SettlementService, kind models.ObligationKind) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService, settlementService: settlementService, kind: kind}
}

func (h *RecurringHandler) key() string {
	return "recurring_" + string(h.kind)
}

// @Summary List Recurring Bills or Incomes
// @Tags Recurring
// @Produce json
// @Param active query string false "true or false"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /recurring-bills [get]
// @Router /recurring-incomes [get]
func (h *RecurringHandler) Index(c *gin.Context) {
	query := listQuery(c)
	templates, total, err := h.recurringService.List(c.Request.Context(), companyID(c), h.kind, query)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.RecurringTemplateResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, templates[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{h.key() + "s": responses, "pagination": pagination(total, query.Page, query.PerPage)})
}

// @Summary Get Recurring Bill or Income
// @Tags Recurring
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} models.RecurringTemplateResponse
// @Security BearerAuth
// @Router /recurring-bills/{id} [get]
// @Router /recurring-incomes/{id} [get]
func (h *RecurringHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	template, err := h.recurringService.Get(c.Request.Context(), companyID(c), h.kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.key(): template.ToResponse()})
}

// @Summary Create Recurring Bill or Income
// @Description Stores the template and generates its pending instances up to the horizon
// @Tags Recurring
// @Accept json
// @Produce json
// @Param request body services.RecurringInput true "Template"
// @Success 201 {object} models.RecurringTemplateResponse
// @Security BearerAuth
// @Router /recurring-bills [post]
// @Router /recurring-incomes [post]
func (h *RecurringHandler) Create(c *gin.Context) {
	var input services.RecurringInput
	if !bindBody(c, h.key(), &input) {
		return
	}
	template, err := h.recurringService.Create(c.Request.Context(), companyID(c), h.kind, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{h.key(): template.ToResponse()})
}

// @Summary Update Recurring Bill or Income
// @Description Schedule changes regenerate pending instances from today on
// @Tags Recurring
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param request body services.RecurringPatch true "Changed fields"
// @Success 200 {object} models.RecurringTemplateResponse
// @Security BearerAuth
// @Router /recurring-bills/{id} [patch]
// @Router /recurring-incomes/{id} [patch]
func (h *RecurringHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch services.RecurringPatch
	if !bindBody(c, h.key(), &patch) {
		return
	}
	template, err := h.recurringService.Update(c.Request.Context(), companyID(c), h.kind, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{h.key(): template.ToResponse()})
}

// @Summary Delete Recurring Bill or Income
// @Description Removes pending instances from today on; settled history is kept
// @Tags Recurring
// @Param id path string true "Template ID"
// @Success 204
// @Security BearerAuth
// @Router /recurring-bills/{id} [delete]
// @Router /recurring-incomes/{id} [delete]
func (h *RecurringHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.recurringService.Delete(c.Request.Context(), companyID(c), h.kind, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Preview Due Dates
// @Tags Recurring
// @Produce json
// @Param id path string true "Template ID"
// @Param count query int false "Number of dates" default(12)
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /recurring-bills/{id}/preview [get]
// @Router /recurring-incomes/{id}/preview [get]
func (h *RecurringHandler) Preview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	count, err := strconv.Atoi(c.DefaultQuery("count", "12"))
	if err != nil {
		respondError(c, services.Invalid("count", "must be a number"))
		return
	}
	dates, err := h.recurringService.Preview(c.Request.Context(), companyID(c), h.kind, id, count)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"due_dates": dates})
}

// @Summary List Instances
// @Tags Recurring
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /recurring-bills/{id}/instances [get]
// @Router /recurring-incomes/{id}/instances [get]
func (h *RecurringHandler) Instances(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	instances, err := h.recurringService.Instances(c.Request.Context(), companyID(c), h.kind, id)
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.RecurringInstanceResponse, 0, len(instances))
	for i := range instances {
		responses = append(responses, instances[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"instances": responses})
}

// @Summary Record Instance Payment
// @Description Settles one pending instance and posts its transaction
// @Tags Recurring
// @Accept json
// @Produce json
// @Param id path string true "Instance ID"
// @Param request body services.PaymentInput true "Payment"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /recurring-bill-payments/{id}/record-payment [post]
// @Router /recurring-income-receipts/{id}/record-payment [post]
func (h *RecurringHandler) RecordInstancePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.PaymentInput
	if !bindBody(c, "payment", &input) {
		return
	}
	instance, tx, err := h.settlementService.RecordInstancePayment(c.Request.Context(), companyID(c), h.kind, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"instance": instance.ToResponse(), "transaction": tx.ToResponse()})
}
