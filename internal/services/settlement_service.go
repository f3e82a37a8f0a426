package services

import (
	"context"
	"errors"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/schedule"
	"github.com/fintelis/fintelis-api/internal/statemachine"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationInput is the payload of a new bill or income
type ObligationInput struct {
	CategoryID   *uuid.UUID      `json:"category_id"`
	CostCenterID *uuid.UUID      `json:"cost_center_id"`
	ContactID    *uuid.UUID      `json:"contact_id"`
	Description  string          `json:"description" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      civil.Date      `json:"due_date"`
}

// ObligationPatch is a partial update of an open bill or income
type ObligationPatch struct {
	CategoryID   OptionalID       `json:"category_id"`
	CostCenterID OptionalID       `json:"cost_center_id"`
	ContactID    OptionalID       `json:"contact_id"`
	Description  *string          `json:"description"`
	Amount       *decimal.Decimal `json:"amount"`
	DueDate      *civil.Date      `json:"due_date"`
}

// PaymentInput settles a bill, an income or a recurring instance
type PaymentInput struct {
	BankAccountID   uuid.UUID   `json:"bank_account_id" binding:"required"`
	CashRegisterID  *uuid.UUID  `json:"cash_register_id"`
	PaymentMethodID *uuid.UUID  `json:"payment_method_id"`
	Description     string      `json:"description"`
	TransactionDate *civil.Date `json:"transaction_date"`
}

// SettlementService manages bills and incomes and records their one-way
// settlement into the ledger
type SettlementService struct {
	repos        *repository.Repositories
	transactions *TransactionService
	versioner    *cache.Versioner
	audit        *AuditService
}

func NewSettlementService(repos *repository.Repositories, transactions *TransactionService, versioner *cache.Versioner, audit *AuditService) *SettlementService {
	return &SettlementService{repos: repos, transactions: transactions, versioner: versioner, audit: audit}
}

func obligationCacheKind(kind models.ObligationKind) cache.Kind {
	if kind == models.KindIncome {
		return cache.KindIncomes
	}
	return cache.KindBills
}

func instanceCacheKind(kind models.ObligationKind) cache.Kind {
	if kind == models.KindIncome {
		return cache.KindRecurringIncomeReceipts
	}
	return cache.KindRecurringBillPayments
}

func entityName(kind models.ObligationKind) string {
	if kind == models.KindIncome {
		return "income"
	}
	return "bill"
}

// validateClassification checks the category, cost center and contact an
// obligation or template points to
func validateClassification(ctx context.Context, r *repository.Repositories, verr *ValidationError, companyID uuid.UUID, kind models.ObligationKind, categoryID, costCenterID, contactID *uuid.UUID) error {
	if categoryID != nil {
		category, err := r.Category.FindByID(ctx, *categoryID)
		if err != nil {
			return referenceError("category", "category_id", err)
		}
		if category.CompanyID != companyID {
			verr.Add("category_id", "must belong to the same company")
		}
		if category.Type != kind.CategoryType() {
			verr.Add("category_id", "must be a "+string(kind.CategoryType())+" category")
		}
	}
	if costCenterID != nil {
		center, err := r.Reference.FindCostCenter(ctx, *costCenterID)
		if err != nil {
			return referenceError("cost center", "cost_center_id", err)
		}
		if center.CompanyID != companyID {
			verr.Add("cost_center_id", "must belong to the same company")
		}
	}
	if contactID != nil {
		contact, err := r.Reference.FindContact(ctx, *contactID)
		if err != nil {
			return referenceError("contact", "contact_id", err)
		}
		if contact.CompanyID != companyID {
			verr.Add("contact_id", "must belong to the same company")
		}
	}
	return nil
}

func validateAmount(verr *ValidationError, amount decimal.Decimal) {
	if !amount.IsPositive() {
		verr.Add("amount", "must be greater than zero")
	} else if !amount.Equal(amount.Round(2)) {
		verr.Add("amount", "must have at most 2 decimal places")
	}
}

func (s *SettlementService) validate(ctx context.Context, r *repository.Repositories, o *models.Obligation) error {
	verr := NewValidationError()
	validateAmount(verr, o.Amount)
	if o.Description == "" {
		verr.Add("description", "is required")
	}
	if o.DueDate.IsZero() {
		verr.Add("due_date", "is required")
	}
	if err := validateClassification(ctx, r, verr, o.CompanyID, o.Kind, o.CategoryID, o.CostCenterID, o.ContactID); err != nil {
		return err
	}
	return verr.OrNil()
}

// Create records a new open bill or income
func (s *SettlementService) Create(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, input ObligationInput) (*models.Obligation, error) {
	obligation := &models.Obligation{
		CompanyID:    companyID,
		Kind:         kind,
		CategoryID:   input.CategoryID,
		CostCenterID: input.CostCenterID,
		ContactID:    input.ContactID,
		Description:  input.Description,
		Amount:       input.Amount,
		Status:       models.ObligationStatusOpen,
	}
	if !input.DueDate.IsZero() {
		obligation.DueDate = schedule.ToTime(input.DueDate)
	}
	if err := s.validate(ctx, s.repos, obligation); err != nil {
		return nil, err
	}
	if err := s.repos.Obligation.Create(ctx, obligation); err != nil {
		return nil, classify("create "+entityName(kind), err)
	}

	s.versioner.BumpAll(ctx, companyID, obligationCacheKind(kind))
	s.audit.Log(ctx, companyID, models.AuditActionCreate, entityName(kind), obligation.ID, map[string]interface{}{
		"amount": obligation.Amount.StringFixed(2),
	})
	return obligation, nil
}

// Get returns a bill or income of the company
func (s *SettlementService) Get(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID) (*models.Obligation, error) {
	obligation, err := s.repos.Obligation.FindByID(ctx, id)
	if err != nil {
		return nil, referenceError(entityName(kind), "", err)
	}
	if obligation.CompanyID != companyID || obligation.Kind != kind {
		return nil, notFound(entityName(kind))
	}
	return obligation, nil
}

// List returns a page of bills or incomes, read through the cache
func (s *SettlementService) List(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, query *repository.ListQuery) ([]models.Obligation, int64, error) {
	if query == nil {
		query = repository.NewListQuery()
	}
	type page struct {
		Items []models.Obligation `json:"items"`
		Total int64               `json:"total"`
	}
	result, err := cache.Cached(ctx, s.versioner, companyID, obligationCacheKind(kind), query.Params(), func(ctx context.Context) (page, error) {
		items, total, err := s.repos.Obligation.List(ctx, companyID, kind, query)
		if err != nil {
			return page{}, classify("list "+entityName(kind)+"s", err)
		}
		return page{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}

// Update edits an open bill or income
func (s *SettlementService) Update(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID, patch ObligationPatch) (*models.Obligation, error) {
	var updated *models.Obligation

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		obligation, err := r.Obligation.LockByID(ctx, id)
		if err != nil {
			return referenceError(entityName(kind), "", err)
		}
		if obligation.CompanyID != companyID || obligation.Kind != kind {
			return notFound(entityName(kind))
		}
		if obligation.IsSettled() {
			return &StateError{Message: "a settled " + entityName(kind) + " cannot be changed"}
		}

		patch.CategoryID.apply(&obligation.CategoryID)
		patch.CostCenterID.apply(&obligation.CostCenterID)
		patch.ContactID.apply(&obligation.ContactID)
		if patch.Description != nil {
			obligation.Description = *patch.Description
		}
		if patch.Amount != nil {
			obligation.Amount = *patch.Amount
		}
		if patch.DueDate != nil {
			obligation.DueDate = schedule.ToTime(*patch.DueDate)
		}
		if err := s.validate(ctx, r, obligation); err != nil {
			return err
		}
		if err := r.Obligation.Update(ctx, obligation); err != nil {
			return classify("update "+entityName(kind), err)
		}
		updated = obligation
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.versioner.BumpAll(ctx, companyID, obligationCacheKind(kind))
	s.audit.Log(ctx, companyID, models.AuditActionUpdate, entityName(kind), id, nil)
	return updated, nil
}

// Delete removes an open bill or income. Settled ones are kept as history.
func (s *SettlementService) Delete(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID) error {
	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		obligation, err := r.Obligation.LockByID(ctx, id)
		if err != nil {
			return referenceError(entityName(kind), "", err)
		}
		if obligation.CompanyID != companyID || obligation.Kind != kind {
			return notFound(entityName(kind))
		}
		if obligation.IsSettled() {
			return &StateError{Message: "a settled " + entityName(kind) + " cannot be deleted"}
		}
		if err := r.Obligation.Delete(ctx, id); err != nil {
			return classify("delete "+entityName(kind), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.versioner.BumpAll(ctx, companyID, obligationCacheKind(kind))
	s.audit.Log(ctx, companyID, models.AuditActionDelete, entityName(kind), id, nil)
	return nil
}

// settle runs the one-way transition; a repeated settlement is a user error
func settle(ctx context.Context, target statemachine.Settleable) error {
	machine := statemachine.NewSettlementFSM(target)
	if err := machine.Settle(ctx); err != nil {
		if errors.Is(err, statemachine.ErrAlreadySettled) {
			return Invalid("status", "already settled")
		}
		return &StateError{Message: err.Error()}
	}
	return nil
}

func paymentDescription(kind models.ObligationKind, supplied, subject string) string {
	if supplied != "" {
		return supplied
	}
	if kind == models.KindIncome {
		return truncate("Receipt - "+subject, 255)
	}
	return truncate("Payment - "+subject, 255)
}

// RecordPayment settles a bill or income: the matching transaction is
// posted and linked in the same unit of work as the status change
func (s *SettlementService) RecordPayment(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID, input PaymentInput) (*models.Obligation, *models.Transaction, error) {
	var settled *models.Obligation
	var payment *models.Transaction

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		obligation, err := r.Obligation.LockByID(ctx, id)
		if err != nil {
			return referenceError(entityName(kind), "", err)
		}
		if obligation.CompanyID != companyID || obligation.Kind != kind {
			return notFound(entityName(kind))
		}
		if err := settle(ctx, obligation); err != nil {
			return err
		}

		payment = &models.Transaction{
			CompanyID:       companyID,
			BankAccountID:   input.BankAccountID,
			CategoryID:      obligation.CategoryID,
			CashRegisterID:  input.CashRegisterID,
			ContactID:       obligation.ContactID,
			CostCenterID:    obligation.CostCenterID,
			PaymentMethodID: input.PaymentMethodID,
			Description:     paymentDescription(kind, input.Description, obligation.Description),
			Amount:          obligation.Amount,
			Type:            kind.TransactionType(),
			TransactionDate: schedule.ToTime(s.paymentDate(input)),
		}
		if err := s.transactions.post(ctx, r, payment); err != nil {
			return err
		}

		obligation.PaymentTransactionID = models.UUIDPtr(payment.ID)
		if err := r.Obligation.Update(ctx, obligation); err != nil {
			return classify("settle "+entityName(kind), err)
		}
		settled = obligation
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.transactions.afterWrite(ctx, nil, payment)
	s.versioner.BumpAll(ctx, companyID, obligationCacheKind(kind))
	s.audit.Log(ctx, companyID, models.AuditActionSettle, entityName(kind), id, map[string]interface{}{
		"transaction_id": payment.ID, "amount": payment.Amount.StringFixed(2),
	})
	return settled, payment, nil
}

// RecordInstancePayment settles one pending instance of a recurring template
func (s *SettlementService) RecordInstancePayment(ctx context.Context, companyID uuid.UUID, kind models.ObligationKind, id uuid.UUID, input PaymentInput) (*models.RecurringInstance, *models.Transaction, error) {
	var settled *models.RecurringInstance
	var payment *models.Transaction
	entity := "recurring " + entityName(kind) + " instance"

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		instance, err := r.Recurring.LockInstance(ctx, id)
		if err != nil {
			return referenceError(entity, "", err)
		}
		if instance.CompanyID != companyID || instance.Kind != kind {
			return notFound(entity)
		}
		if err := settle(ctx, instance); err != nil {
			return err
		}

		payment = &models.Transaction{
			CompanyID:       companyID,
			BankAccountID:   input.BankAccountID,
			CashRegisterID:  input.CashRegisterID,
			PaymentMethodID: input.PaymentMethodID,
			Amount:          instance.Amount,
			Type:            kind.TransactionType(),
			TransactionDate: schedule.ToTime(s.paymentDate(input)),
		}
		subject := "recurring " + entityName(kind)
		if instance.TemplateID != nil {
			template, err := r.Recurring.FindTemplate(ctx, *instance.TemplateID)
			if err != nil {
				return referenceError("recurring template", "", err)
			}
			payment.CategoryID = template.CategoryID
			payment.ContactID = template.ContactID
			payment.CostCenterID = template.CostCenterID
			subject = template.Description
		}
		payment.Description = paymentDescription(kind, input.Description, subject)
		if err := s.transactions.post(ctx, r, payment); err != nil {
			return err
		}

		settledOn := payment.TransactionDate
		instance.SettledOn = &settledOn
		instance.TransactionID = models.UUIDPtr(payment.ID)
		if err := r.Recurring.UpdateInstance(ctx, instance); err != nil {
			return classify("settle "+entity, err)
		}
		settled = instance
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.transactions.afterWrite(ctx, nil, payment)
	s.versioner.BumpAll(ctx, companyID, instanceCacheKind(kind))
	s.audit.Log(ctx, companyID, models.AuditActionSettle, "recurring_instance", id, map[string]interface{}{
		"transaction_id": payment.ID, "amount": payment.Amount.StringFixed(2),
	})
	return settled, payment, nil
}

func (s *SettlementService) paymentDate(input PaymentInput) civil.Date {
	if input.TransactionDate != nil && !input.TransactionDate.IsZero() {
		return *input.TransactionDate
	}
	return s.transactions.today()
}
