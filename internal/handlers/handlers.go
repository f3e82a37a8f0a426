package handlers

import (
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health          *HealthHandler
	Company         *CompanyHandler
	Transaction     *TransactionHandler
	BankAccount     *BankAccountHandler
	Category        *CategoryHandler
	Reference       *ReferenceHandler
	Bill            *ObligationHandler
	Income          *ObligationHandler
	RecurringBill   *RecurringHandler
	RecurringIncome *RecurringHandler
	Dashboard       *DashboardHandler
	Audit           *AuditHandler
	Job             *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:          NewHealthHandler(),
		Company:         NewCompanyHandler(svcs.Company),
		Transaction:     NewTransactionHandler(svcs.Transaction, svcs.Export),
		BankAccount:     NewBankAccountHandler(svcs.BankAccount, svcs.Transaction),
		Category:        NewCategoryHandler(svcs.Category),
		Reference:       NewReferenceHandler(svcs.Reference),
		Bill:            NewObligationHandler(svcs.Settlement, models.KindBill),
		Income:          NewObligationHandler(svcs.Settlement, models.KindIncome),
		RecurringBill:   NewRecurringHandler(svcs.Recurring, svcs.Settlement, models.KindBill),
		RecurringIncome: NewRecurringHandler(svcs.Recurring, svcs.Settlement, models.KindIncome),
		Dashboard:       NewDashboardHandler(svcs.Dashboard),
		Audit:           NewAuditHandler(svcs.Audit),
		Job:             NewJobHandler(svcs.Job),
	}
}
