package handlers

import (
	"net/http"

	"github.com/fintelis/fintelis-api/internal/middleware"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type ReferenceHandler struct {
	referenceService *services.ReferenceService
}

func NewReferenceHandler(referenceService *services.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{referenceService: referenceService}
}

// @Summary List Cash Registers
// @Tags Reference Data
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cash-registers [get]
func (h *ReferenceHandler) CashRegisters(c *gin.Context) {
	registers, err := h.referenceService.ListCashRegisters(c.Request.Context(), companyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cash_registers": registers})
}

// @Summary Create Cash Register
// @Tags Reference Data
// @Accept json
// @Produce json
// @Param request body services.CashRegisterInput true "Cash register"
// @Success 201 {object} models.CashRegister
// @Security BearerAuth
// @Router /cash-registers [post]
func (h *ReferenceHandler) CreateCashRegister(c *gin.Context) {
	var input services.CashRegisterInput
	if !bindBody(c, "cash_register", &input) {
		return
	}
	register, err := h.referenceService.CreateCashRegister(c.Request.Context(), companyID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cash_register": register})
}

// @Summary List Cost Centers
// @Tags Reference Data
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /cost-centers [get]
func (h *ReferenceHandler) CostCenters(c *gin.Context) {
	centers, err := h.referenceService.ListCostCenters(c.Request.Context(), companyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cost_centers": centers})
}

// @Summary Create Cost Center
// @Tags Reference Data
// @Accept json
// @Produce json
// @Param request body services.CostCenterInput true "Cost center"
// @Success 201 {object} models.CostCenter
// @Security BearerAuth
// @Router /cost-centers [post]
func (h *ReferenceHandler) CreateCostCenter(c *gin.Context) {
	var input services.CostCenterInput
	if !bindBody(c, "cost_center", &input) {
		return
	}
	center, err := h.referenceService.CreateCostCenter(c.Request.Context(), companyID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"cost_center": center})
}

// @Summary Create Contact
// @Tags Reference Data
// @Accept json
// @Produce json
// @Param request body services.ContactInput true "Contact"
// @Success 201 {object} models.Contact
// @Security BearerAuth
// @Router /contacts [post]
func (h *ReferenceHandler) CreateContact(c *gin.Context) {
	var input services.ContactInput
	if !bindBody(c, "contact", &input) {
		return
	}
	contact, err := h.referenceService.CreateContact(c.Request.Context(), companyID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contact": contact})
}

type CompanyHandler struct {
	companyService *services.CompanyService
}

func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

type createCompanyRequest struct {
	Name string `json:"name"`
}

// @Summary Create Company
// @Description Creates a company owned by the authenticated user
// @Tags Companies
// @Accept json
// @Produce json
// @Param request body createCompanyRequest true "Company"
// @Success 201 {object} models.Company
// @Security BearerAuth
// @Router /companies [post]
func (h *CompanyHandler) Create(c *gin.Context) {
	var req createCompanyRequest
	if !bindBody(c, "company", &req) {
		return
	}
	company, err := h.companyService.Create(c.Request.Context(), req.Name, middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"company": company})
}
