package handlers

import (
	"net/http"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type BankAccountHandler struct {
	bankAccountService *services.BankAccountService
	transactionService *services.TransactionService
}

func NewBankAccountHandler(bankAccountService *services.BankAccountService, transactionService *services.TransactionService) *BankAccountHandler {
	return &BankAccountHandler{bankAccountService: bankAccountService, transactionService: transactionService}
}

// @Summary List Bank Accounts
// @Tags Bank Accounts
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bank-accounts [get]
func (h *BankAccountHandler) Index(c *gin.Context) {
	accounts, err := h.bankAccountService.List(c.Request.Context(), companyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	responses := make([]models.BankAccountResponse, 0, len(accounts))
	for i := range accounts {
		responses = append(responses, accounts[i].ToResponse())
	}
	c.JSON(http.StatusOK, gin.H{"bank_accounts": responses})
}

// @Summary Create Bank Account
// @Tags Bank Accounts
// @Accept json
// @Produce json
// @Param request body services.BankAccountInput true "Bank account"
// @Success 201 {object} models.BankAccountResponse
// @Security BearerAuth
// @Router /bank-accounts [post]
func (h *BankAccountHandler) Create(c *gin.Context) {
	var input services.BankAccountInput
	if !bindBody(c, "bank_account", &input) {
		return
	}
	account, err := h.bankAccountService.Create(c.Request.Context(), companyID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"bank_account": account.ToResponse()})
}

// @Summary Get Bank Account
// @Tags Bank Accounts
// @Produce json
// @Param id path string true "Bank account ID"
// @Success 200 {object} models.BankAccountResponse
// @Security BearerAuth
// @Router /bank-accounts/{id} [get]
func (h *BankAccountHandler) Show(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	account, err := h.bankAccountService.Get(c.Request.Context(), companyID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bank_account": account.ToResponse()})
}

// @Summary Total Balance
// @Description Sum of current balances, credit-bank accounts excluded
// @Tags Bank Accounts
// @Produce json
// @Success 200 {object} services.TotalBalance
// @Security BearerAuth
// @Router /bank-accounts/total-balance [get]
func (h *BankAccountHandler) TotalBalance(c *gin.Context) {
	total, err := h.bankAccountService.TotalBalance(c.Request.Context(), companyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, total)
}

// @Summary Transfer Between Accounts
// @Description Creates the outgoing and the incoming leg atomically. The deduction is kept out of the incoming leg.
// @Tags Bank Accounts
// @Accept json
// @Produce json
// @Param id path string true "Source bank account ID"
// @Param request body services.TransferInput true "Transfer"
// @Success 201 {object} map[string]interface{}
// @Security BearerAuth
// @Router /bank-accounts/{id}/transfer [post]
func (h *BankAccountHandler) Transfer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.TransferInput
	if !bindBody(c, "transfer", &input) {
		return
	}
	result, err := h.transactionService.Transfer(c.Request.Context(), companyID(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"outgoing": result.Outgoing.ToResponse(),
		"incoming": result.Incoming.ToResponse(),
	})
}

// @Summary Withdraw
// @Description Takes money out of the account as an expense
// @Tags Bank Accounts
// @Accept json
// @Produce json
// @Param id path string true "Bank account ID"
// @Param request body services.WithdrawInput true "Withdrawal"
// @Success 201 {object} models.TransactionResponse
// @Security BearerAuth
// @Router /bank-accounts/{id}/withdraw [post]
func (h *BankAccountHandler) Withdraw(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input services.WithdrawInput
	if !bindBody(c, "withdraw", &input) {
		return
	}
	tx, err := h.transactionService.Withdraw(c.Request.Context(), companyID(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"transaction": tx.ToResponse()})
}
