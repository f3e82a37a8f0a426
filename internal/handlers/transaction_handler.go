package handlers

import (
	"fmt"
	"net/http"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type TransactionHandler struct {
	transactionService *services.TransactionService
	exportService      *services.ExportService
}

func NewTransactionHandler(transactionService *services.TransactionService, exportService *services.ExportService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, exportService: exportService}
}

func transactionResponses(transactions []models.Transaction) []models.TransactionResponse {
	responses := make([]models.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		responses = append(responses, transactions[i].ToResponse())
	}
	return responses
}

// listParams reads the transaction filters shared by Index and Export
func listParams(c *gin.Context) (services.TransactionListParams, error) {
	verr := services.NewValidationError()
	params := services.TransactionListParams{
		Query:         listQuery(c),
		Type:          models.TransactionType(c.Query("type")),
		BankAccountID: optionalUUID(c, "bank_account_id", verr),
		CategoryID:    optionalUUID(c, "category_id", verr),
		DateFrom:      optionalDate(c, "date_from", verr),
		DateTo:        optionalDate(c, "date_to", verr),
	}
	if params.Type != "" && !params.Type.Valid() {
		verr.Add("type", "unknown transaction type")
	}
	return params, verr.OrNil()
}

// @Summary List Transactions
// @Description Paginated ledger entries of the active company. A category filter includes its subcategories.
// @Tags Transactions
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param type query string false "revenue, expense, internal_transfer, external_transfer or reversal"
// @Param bank_account_id query string false "Bank account ID"
// @Param category_id query string false "Category ID"
// @Param date_from query string false "YYYY-MM-DD"
// @Param date_to query string false "YYYY-MM-DD"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /transactions [get]
func (h *TransactionHandler) Index(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	transactions, total, err := h.transactionService.List(c.Request.Context(), companyID(c), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"transactions": transactionResponses(transactions),
		"pagination":   pagination(total, params.Query.Page, params.Query.PerPage),
	})
}

// @Summary Get Transaction
// @Tags Transactions
// @Produce json
// @Param id path string true "Transaction ID"
// @Success 200 {object} models.TransactionResponse
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	tx, err := h.transactionService.Get(c.Request.Context(), companyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx.ToResponse()})
}

// @Summary Create Transaction
// @Description Posts a ledger entry and updates the account balance in the same unit of work
// @Tags Transactions
// @Accept json
// @Produce json
// @Param request body services.TransactionInput true "Transaction"
// @Success 201 {object} models.TransactionResponse
// @Failure 400 {object} map[string]interface{}
// @Security BearerAuth
// @Router /transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var input services.TransactionInput
	if !bindBody(c, "transaction", &input) {
		return
	}
	tx, err := h.transactionService.Create(c.Request.Context(), companyID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx.ToResponse()})
}

// @Summary Update Transaction
// @Description Partial update. The balance moves by the net difference between old and new state.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path string true "Transaction ID"
// @Param request body services.TransactionPatch true "Changed fields"
// @Success 200 {object} models.TransactionResponse
// @Security BearerAuth
// @Router /transactions/{id} [patch]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch services.TransactionPatch
	if !bindBody(c, "transaction", &patch) {
		return
	}
	tx, err := h.transactionService.Update(c.Request.Context(), companyID(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transaction": tx.ToResponse()})
}

// @Summary Delete Transaction
// @Description Reverts the ledger effect and removes the entry
// @Tags Transactions
// @Param id path string true "Transaction ID"
// @Success 204
// @Security BearerAuth
// @Router /transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.transactionService.Delete(c.Request.Context(), companyID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Refund Transaction
// @Description Creates a reversal of a revenue transaction, up to its remaining refundable amount
// @Tags Transactions
// @Accept json
// @Produce json
// @Param id path string true "Original transaction ID"
// @Param request body services.RefundInput true "Refund"
// @Success 201 {object} models.TransactionResponse
// @Security BearerAuth
// @Router /transactions/{id}/refund [post]
func (h *TransactionHandler) Refund(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.RefundInput
	if !bindBody(c, "refund", &input) {
		return
	}
	reversal, err := h.transactionService.Refund(c.Request.Context(), companyID(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": reversal.ToResponse()})
}

// @Summary Export Transactions
// @Description Downloads the filtered transactions as csv, xlsx or pdf
// @Tags Transactions
// @Produce application/octet-stream
// @Param format query string false "csv (default), xlsx or pdf"
// @Security BearerAuth
// @Router /transactions/export [get]
func (h *TransactionHandler) Export(c *gin.Context) {
	params, err := listParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	data, filename, err := h.exportService.Transactions(c.Request.Context(), companyID(c), params, c.DefaultQuery("format", services.ExportCSV))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/octet-stream", data)
}
