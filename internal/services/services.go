package services

import (
	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/config"
	"github.com/fintelis/fintelis-api/internal/jobs"
	"github.com/fintelis/fintelis-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Company     *CompanyService
	Ledger      *LedgerService
	BankAccount *BankAccountService
	Category    *CategoryService
	Reference   *ReferenceService
	Transaction *TransactionService
	Settlement  *SettlementService
	Recurring   *RecurringService
	Dashboard   *DashboardService
	Export      *ExportService
	Audit       *AuditService
	Job         *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, versioner *cache.Versioner, cfg *config.Config) *Services {
	auditSvc := NewAuditService(repos.Audit, worker)
	ledgerSvc := NewLedgerService(repos)
	categorySvc := NewCategoryService(repos)
	transactionSvc := NewTransactionService(repos, ledgerSvc, categorySvc, versioner, auditSvc)
	recurringSvc := NewRecurringService(repos, versioner, auditSvc, RecurringOptions{
		HorizonMonths: cfg.RecurringHorizonMonths,
		SweepTarget:   cfg.SchedulerSweepTarget,
	})

	bankAccountSvc := NewBankAccountService(repos, ledgerSvc, versioner, auditSvc)

	return &Services{
		Company:     NewCompanyService(repos.Company),
		Ledger:      ledgerSvc,
		BankAccount: bankAccountSvc,
		Category:    categorySvc,
		Reference:   NewReferenceService(repos),
		Transaction: transactionSvc,
		Settlement:  NewSettlementService(repos, transactionSvc, versioner, auditSvc),
		Recurring:   recurringSvc,
		Dashboard:   NewDashboardService(repos.Dashboard, versioner),
		Export:      NewExportService(repos, categorySvc),
		Audit:       auditSvc,
		Job:         NewJobService(worker, recurringSvc, repos.Company, bankAccountSvc),
	}
}
