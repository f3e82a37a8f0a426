package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/fintelis/fintelis-api/internal/cache"
	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/fintelis/fintelis-api/internal/schedule"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// TransactionInput is the payload of a new transaction
type TransactionInput struct {
	BankAccountID        uuid.UUID              `json:"bank_account_id" binding:"required"`
	CategoryID           *uuid.UUID             `json:"category_id"`
	CashRegisterID       *uuid.UUID             `json:"cash_register_id"`
	ContactID            *uuid.UUID             `json:"contact_id"`
	CostCenterID         *uuid.UUID             `json:"cost_center_id"`
	PaymentMethodID      *uuid.UUID             `json:"payment_method_id"`
	LinkedTransactionID  *uuid.UUID             `json:"linked_transaction_id"`
	RelatedTransactionID *uuid.UUID             `json:"related_transaction_id"`
	Description          string                 `json:"description"`
	Amount               decimal.Decimal        `json:"amount"`
	Type                 models.TransactionType `json:"type" binding:"required"`
	TransactionDate      civil.Date             `json:"transaction_date"`
}

// TransactionPatch is a partial update; nil fields are left unchanged
type TransactionPatch struct {
	BankAccountID        *uuid.UUID              `json:"bank_account_id"`
	CategoryID           OptionalID              `json:"category_id"`
	CashRegisterID       OptionalID              `json:"cash_register_id"`
	ContactID            OptionalID              `json:"contact_id"`
	CostCenterID         OptionalID              `json:"cost_center_id"`
	PaymentMethodID      OptionalID              `json:"payment_method_id"`
	LinkedTransactionID  OptionalID              `json:"linked_transaction_id"`
	RelatedTransactionID OptionalID              `json:"related_transaction_id"`
	Description          *string                 `json:"description"`
	Amount               *decimal.Decimal        `json:"amount"`
	Type                 *models.TransactionType `json:"type"`
	TransactionDate      *civil.Date             `json:"transaction_date"`
}

// TransferInput moves money from one account to another
type TransferInput struct {
	ToBankAccountID     uuid.UUID       `json:"to_bank_account_id" binding:"required"`
	Amount              decimal.Decimal `json:"amount"`
	DeductionPercentage decimal.Decimal `json:"deduction_percentage"`
	Description         string          `json:"description"`
	TransactionDate     *civil.Date     `json:"transaction_date"`
}

// TransferResult holds both legs of a transfer
type TransferResult struct {
	Outgoing *models.Transaction
	Incoming *models.Transaction
}

// RefundInput reverses part or all of a revenue transaction
type RefundInput struct {
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required"`
}

// WithdrawInput takes money out of an account as an expense
type WithdrawInput struct {
	Amount          decimal.Decimal `json:"amount"`
	CategoryID      *uuid.UUID      `json:"category_id"`
	Description     string          `json:"description"`
	TransactionDate *civil.Date     `json:"transaction_date"`
}

// TransactionListParams filters a transaction listing
type TransactionListParams struct {
	Query         *repository.ListQuery
	Type          models.TransactionType
	BankAccountID *uuid.UUID
	CategoryID    *uuid.UUID
	DateFrom      *civil.Date
	DateTo        *civil.Date
}

// TransactionService owns the ledger entry lifecycle. Every write validates,
// locks, persists and syncs balances in one unit of work.
type TransactionService struct {
	repos      *repository.Repositories
	ledger     *LedgerService
	categories *CategoryService
	versioner  *cache.Versioner
	audit      *AuditService
	today      func() civil.Date
}

// NewTransactionService creates a new transaction service
func NewTransactionService(repos *repository.Repositories, ledger *LedgerService, categories *CategoryService, versioner *cache.Versioner, audit *AuditService) *TransactionService {
	return &TransactionService{
		repos:      repos,
		ledger:     ledger,
		categories: categories,
		versioner:  versioner,
		audit:      audit,
		today:      schedule.Today,
	}
}

// Validate checks tx against the rules that span entities. All violations
// are collected into one ValidationError; a referenced id that does not
// exist at all is reported as NotFoundError instead.
func (s *TransactionService) Validate(ctx context.Context, repos *repository.Repositories, tx *models.Transaction) error {
	verr := NewValidationError()

	if !tx.Amount.IsPositive() {
		verr.Add("amount", "must be greater than zero")
	} else if !tx.Amount.Equal(tx.Amount.Round(2)) {
		verr.Add("amount", "must have at most 2 decimal places")
	}
	if !tx.Type.Valid() {
		verr.Add("type", "unknown transaction type")
	}
	if tx.Description == "" {
		verr.Add("description", "is required")
	}
	if tx.TransactionDate.IsZero() {
		verr.Add("transaction_date", "is required")
	}

	// 1. company scope
	account, err := repos.BankAccount.FindByID(ctx, tx.BankAccountID)
	if err != nil {
		return referenceError("bank account", "bank_account_id", err)
	}
	if account.CompanyID != tx.CompanyID {
		verr.Add("bank_account_id", "must belong to the same company")
	}

	// 2. category/type alignment
	if tx.CategoryID != nil {
		category, err := repos.Category.FindByID(ctx, *tx.CategoryID)
		if err != nil {
			return referenceError("category", "category_id", err)
		}
		if category.CompanyID != tx.CompanyID {
			verr.Add("category_id", "must belong to the same company")
		}
		switch {
		case tx.Type.IsTransfer():
			verr.Add("category_id", "transfers cannot have a category")
		case tx.Type == models.TransactionReversal:
			if category.Type != models.CategoryRevenue {
				verr.Add("category_id", "reversals must use a revenue category")
			}
		case tx.Type.Valid() && string(category.Type) != string(tx.Type):
			verr.Add("category_id", fmt.Sprintf("category type %s does not match transaction type %s", category.Type, tx.Type))
		}
	}

	// 3. cash register routing
	if tx.CashRegisterID != nil {
		register, err := repos.Reference.FindCashRegister(ctx, *tx.CashRegisterID)
		if err != nil {
			return referenceError("cash register", "cash_register_id", err)
		}
		if register.CompanyID != tx.CompanyID {
			verr.Add("cash_register_id", "must belong to the same company")
		}
		if tx.Type.IsTransfer() {
			verr.Add("cash_register_id", "transfers cannot use a cash register")
		}
		if register.DefaultBankAccountID != tx.BankAccountID {
			verr.Add("bank_account_id", "must be the cash register's default bank account")
		}
	}

	if tx.CostCenterID != nil {
		center, err := repos.Reference.FindCostCenter(ctx, *tx.CostCenterID)
		if err != nil {
			return referenceError("cost center", "cost_center_id", err)
		}
		if center.CompanyID != tx.CompanyID {
			verr.Add("cost_center_id", "must belong to the same company")
		}
	}
	if tx.ContactID != nil {
		contact, err := repos.Reference.FindContact(ctx, *tx.ContactID)
		if err != nil {
			return referenceError("contact", "contact_id", err)
		}
		if contact.CompanyID != tx.CompanyID {
			verr.Add("contact_id", "must belong to the same company")
		}
	}
	if tx.PaymentMethodID != nil {
		if _, err := repos.Reference.FindPaymentMethod(ctx, *tx.PaymentMethodID); err != nil {
			return referenceError("payment method", "payment_method_id", err)
		}
	}

	// 4. linked transaction
	if tx.LinkedTransactionID != nil {
		if !tx.Type.IsTransfer() {
			verr.Add("linked_transaction_id", "only transfers can be linked")
		}
		if *tx.LinkedTransactionID == tx.ID {
			verr.Add("linked_transaction_id", "a transaction cannot link to itself")
		} else {
			linked, err := repos.Transaction.FindByID(ctx, *tx.LinkedTransactionID)
			if err != nil {
				return referenceError("linked transaction", "linked_transaction_id", err)
			}
			if linked.CompanyID != tx.CompanyID {
				verr.Add("linked_transaction_id", "must belong to the same company")
			}
			if !linked.Type.IsTransfer() {
				verr.Add("linked_transaction_id", "linked transaction must be a transfer")
			}
		}
	}

	// 5. related transaction
	if tx.RelatedTransactionID != nil {
		if tx.Type != models.TransactionReversal {
			verr.Add("related_transaction_id", "only reversals can reference a related transaction")
		}
		if *tx.RelatedTransactionID == tx.ID {
			verr.Add("related_transaction_id", "a transaction cannot reference itself")
		} else {
			related, err := repos.Transaction.FindByID(ctx, *tx.RelatedTransactionID)
			if err != nil {
				return referenceError("related transaction", "related_transaction_id", err)
			}
			if related.CompanyID != tx.CompanyID {
				verr.Add("related_transaction_id", "must belong to the same company")
			}
			if related.Type != models.TransactionRevenue {
				verr.Add("related_transaction_id", "only revenue transactions can be reversed")
			}
		}
	} else if tx.Type == models.TransactionReversal {
		verr.Add("related_transaction_id", "reversals must reference the original transaction")
	}

	return verr.OrNil()
}

func referenceError(entity, field string, err error) error {
	if repository.IsNotFound(err) {
		return &NotFoundError{Entity: entity, Field: field}
	}
	return classify("load "+entity, err)
}

// Get returns a transaction of the company
func (s *TransactionService) Get(ctx context.Context, companyID, id uuid.UUID) (*models.Transaction, error) {
	tx, err := s.repos.Transaction.FindByID(ctx, id)
	if err != nil {
		return nil, referenceError("transaction", "", err)
	}
	if tx.CompanyID != companyID {
		return nil, notFound("transaction")
	}
	return tx, nil
}

// Create validates and posts a new transaction
func (s *TransactionService) Create(ctx context.Context, companyID uuid.UUID, input TransactionInput) (*models.Transaction, error) {
	if input.Type == models.TransactionReversal {
		return nil, Invalid("type", "reversals are created by refunding a transaction")
	}
	tx := &models.Transaction{
		CompanyID:            companyID,
		BankAccountID:        input.BankAccountID,
		CategoryID:           input.CategoryID,
		CashRegisterID:       input.CashRegisterID,
		ContactID:            input.ContactID,
		CostCenterID:         input.CostCenterID,
		PaymentMethodID:      input.PaymentMethodID,
		LinkedTransactionID:  input.LinkedTransactionID,
		RelatedTransactionID: input.RelatedTransactionID,
		Description:          input.Description,
		Amount:               input.Amount,
		Type:                 input.Type,
	}
	if !input.TransactionDate.IsZero() {
		tx.TransactionDate = schedule.ToTime(input.TransactionDate)
	}

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		return s.post(ctx, r, tx)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, nil, tx)
	s.audit.Log(ctx, companyID, models.AuditActionCreate, "Transaction", tx.ID, map[string]interface{}{
		"type": tx.Type, "amount": tx.Amount.StringFixed(2), "bank_account_id": tx.BankAccountID,
	})
	return tx, nil
}

// post validates and inserts tx and applies its balance delta. It runs
// inside the caller's unit of work; settlement and the scheduler use it too.
func (s *TransactionService) post(ctx context.Context, r *repository.Repositories, tx *models.Transaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	if err := s.Validate(ctx, r, tx); err != nil {
		return err
	}
	if _, err := s.ledger.Lock(ctx, r, tx.BankAccountID); err != nil {
		return err
	}
	if err := r.Transaction.Create(ctx, tx); err != nil {
		return classify("create transaction", err)
	}
	return s.ledger.Sync(ctx, r, nil, tx)
}

// Update applies a partial change and re-syncs the balance by the net delta
func (s *TransactionService) Update(ctx context.Context, companyID, id uuid.UUID, patch TransactionPatch) (*models.Transaction, error) {
	var prev, next models.Transaction

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		current, err := r.Transaction.LockByID(ctx, id)
		if err != nil {
			return referenceError("transaction", "", err)
		}
		if current.CompanyID != companyID {
			return notFound("transaction")
		}
		prev = *current
		next = *current

		if patch.BankAccountID != nil {
			next.BankAccountID = *patch.BankAccountID
		}
		patch.CategoryID.apply(&next.CategoryID)
		patch.CashRegisterID.apply(&next.CashRegisterID)
		patch.ContactID.apply(&next.ContactID)
		patch.CostCenterID.apply(&next.CostCenterID)
		patch.PaymentMethodID.apply(&next.PaymentMethodID)
		patch.LinkedTransactionID.apply(&next.LinkedTransactionID)
		patch.RelatedTransactionID.apply(&next.RelatedTransactionID)
		if patch.Description != nil {
			next.Description = *patch.Description
		}
		if patch.Amount != nil {
			next.Amount = *patch.Amount
		}
		if patch.Type != nil {
			next.Type = *patch.Type
		}
		if patch.TransactionDate != nil {
			next.TransactionDate = schedule.ToTime(*patch.TransactionDate)
		}

		verr := NewValidationError()
		if (prev.Type == models.TransactionReversal) != (next.Type == models.TransactionReversal) {
			verr.Add("type", "cannot change to or from a reversal")
		}
		if prev.Type.IsTransfer() && prev.LinkedTransactionID != nil && !next.Type.IsTransfer() {
			verr.Add("type", "a linked transfer leg must stay a transfer")
		}
		if verr.HasErrors() {
			return verr
		}
		if err := s.Validate(ctx, r, &next); err != nil {
			return err
		}
		if next.Type == models.TransactionReversal {
			extra := next.Amount
			if models.SameID(prev.RelatedTransactionID, next.RelatedTransactionID) {
				extra = next.Amount.Sub(prev.Amount)
			}
			if extra.IsPositive() {
				if err := s.checkRefundCeiling(ctx, r, &next, extra); err != nil {
					return err
				}
			}
		}

		if _, err := s.ledger.Lock(ctx, r, prev.BankAccountID, next.BankAccountID); err != nil {
			return err
		}
		if err := r.Transaction.Update(ctx, &next); err != nil {
			return classify("update transaction", err)
		}
		return s.ledger.Sync(ctx, r, &prev, &next)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, &prev, &next)
	s.audit.Log(ctx, companyID, models.AuditActionUpdate, "Transaction", next.ID, map[string]interface{}{
		"previous_amount": prev.Amount.StringFixed(2), "amount": next.Amount.StringFixed(2),
		"previous_type": prev.Type, "type": next.Type,
	})
	return &next, nil
}

// Delete reverses the ledger effect of a transaction and removes it.
// References from other rows are cleared first.
func (s *TransactionService) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	var prev *models.Transaction

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		current, err := r.Transaction.LockByID(ctx, id)
		if err != nil {
			return referenceError("transaction", "", err)
		}
		if current.CompanyID != companyID {
			return notFound("transaction")
		}
		prev = current

		if _, err := s.ledger.Lock(ctx, r, prev.BankAccountID); err != nil {
			return err
		}
		if err := r.Transaction.ClearReferencesTo(ctx, id); err != nil {
			return classify("clear transaction references", err)
		}
		if err := r.Obligation.ClearPaymentTransaction(ctx, id); err != nil {
			return classify("clear obligation payment", err)
		}
		if err := r.Recurring.ClearInstanceTransaction(ctx, id); err != nil {
			return classify("clear instance transaction", err)
		}
		if err := s.ledger.Sync(ctx, r, prev, nil); err != nil {
			return err
		}
		if err := r.Transaction.Delete(ctx, id); err != nil {
			return classify("delete transaction", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.afterWrite(ctx, prev, nil)
	s.audit.Log(ctx, companyID, models.AuditActionDelete, "Transaction", id, map[string]interface{}{
		"type": prev.Type, "amount": prev.Amount.StringFixed(2),
	})
	return nil
}

// Transfer posts both legs of a transfer in one unit of work. The outgoing
// leg carries the full amount; the incoming leg is reduced by the deduction.
func (s *TransactionService) Transfer(ctx context.Context, companyID, fromAccountID uuid.UUID, input TransferInput) (*TransferResult, error) {
	verr := NewValidationError()
	if !input.Amount.IsPositive() {
		verr.Add("amount", "must be greater than zero")
	} else if !input.Amount.Equal(input.Amount.Round(2)) {
		verr.Add("amount", "must have at most 2 decimal places")
	}
	if input.DeductionPercentage.IsNegative() || input.DeductionPercentage.GreaterThanOrEqual(hundred) {
		verr.Add("deduction_percentage", "must be at least 0 and less than 100")
	}
	if input.ToBankAccountID == fromAccountID {
		verr.Add("to_bank_account_id", "source and destination accounts must differ")
	}

	deduction := input.Amount.Mul(input.DeductionPercentage).Div(hundred).Round(2)
	incomingAmount := input.Amount.Sub(deduction).Round(2)
	if input.Amount.IsPositive() && !incomingAmount.IsPositive() {
		verr.Add("deduction_percentage", "leaves nothing to transfer")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	date := s.today()
	if input.TransactionDate != nil && !input.TransactionDate.IsZero() {
		date = *input.TransactionDate
	}
	description := input.Description
	if description == "" {
		description = "Transfer between accounts"
	}
	outgoingDescription := "Outgoing: " + description
	incomingDescription := "Incoming: " + description
	if input.DeductionPercentage.IsPositive() {
		outgoingDescription = fmt.Sprintf("Outgoing: %s (deduction: %s%% = %s)", description, input.DeductionPercentage.String(), deduction.StringFixed(2))
		incomingDescription = fmt.Sprintf("Incoming: %s (net of %s%% deduction)", description, input.DeductionPercentage.String())
	}

	result := &TransferResult{}
	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		from, err := r.BankAccount.FindByID(ctx, fromAccountID)
		if err != nil {
			return referenceError("bank account", "", err)
		}
		if from.CompanyID != companyID {
			return notFound("bank account")
		}
		if _, err := s.ledger.Lock(ctx, r, fromAccountID, input.ToBankAccountID); err != nil {
			return err
		}

		outgoing := &models.Transaction{
			Base:            models.Base{ID: uuid.New()},
			CompanyID:       companyID,
			BankAccountID:   fromAccountID,
			Description:     truncate(outgoingDescription, 255),
			Amount:          input.Amount,
			Type:            models.TransactionExternalTransfer,
			TransactionDate: schedule.ToTime(date),
		}
		incoming := &models.Transaction{
			Base:                models.Base{ID: uuid.New()},
			CompanyID:           companyID,
			BankAccountID:       input.ToBankAccountID,
			Description:         truncate(incomingDescription, 255),
			Amount:              incomingAmount,
			Type:                models.TransactionInternalTransfer,
			TransactionDate:     schedule.ToTime(date),
			LinkedTransactionID: models.UUIDPtr(outgoing.ID),
		}

		if err := s.post(ctx, r, outgoing); err != nil {
			return remapField(err, "bank_account_id", "to_bank_account_id", false)
		}
		if err := s.post(ctx, r, incoming); err != nil {
			return remapField(err, "bank_account_id", "to_bank_account_id", true)
		}
		outgoing.LinkedTransactionID = models.UUIDPtr(incoming.ID)
		if err := r.Transaction.SetLinked(ctx, outgoing.ID, outgoing.LinkedTransactionID); err != nil {
			return classify("link transfer legs", err)
		}

		result.Outgoing = outgoing
		result.Incoming = incoming
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, nil, result.Outgoing)
	s.afterWrite(ctx, nil, result.Incoming)
	s.audit.Log(ctx, companyID, models.AuditActionTransfer, "Transaction", result.Outgoing.ID, map[string]interface{}{
		"from_bank_account_id": fromAccountID, "to_bank_account_id": input.ToBankAccountID,
		"amount": input.Amount.StringFixed(2), "received": incomingAmount.StringFixed(2),
	})
	return result, nil
}

// remapField renames a field of a ValidationError; the destination leg
// reports its account under the request's field name
func remapField(err error, from, to string, apply bool) error {
	verr, ok := err.(*ValidationError)
	if !ok || !apply {
		return err
	}
	if reasons, found := verr.Fields[from]; found {
		delete(verr.Fields, from)
		verr.Fields[to] = append(verr.Fields[to], reasons...)
	}
	return verr
}

// Refund records a reversal against a revenue transaction. The original row
// is locked so concurrent refunds cannot both pass the ceiling check.
func (s *TransactionService) Refund(ctx context.Context, companyID, originalID uuid.UUID, input RefundInput) (*models.Transaction, error) {
	var reversal *models.Transaction

	err := s.repos.InTransaction(ctx, func(r *repository.Repositories) error {
		original, err := r.Transaction.LockByID(ctx, originalID)
		if err != nil {
			return referenceError("transaction", "", err)
		}
		if original.CompanyID != companyID {
			return notFound("transaction")
		}

		verr := NewValidationError()
		if original.Type != models.TransactionRevenue {
			verr.Add("transaction", "only revenue transactions can be refunded")
		}
		if original.RelatedTransactionID != nil {
			verr.Add("transaction", "a reversal cannot be refunded")
		}
		if !input.Amount.IsPositive() {
			verr.Add("amount", "must be greater than zero")
		}
		if input.Description == "" {
			verr.Add("description", "is required")
		}
		if verr.HasErrors() {
			return verr
		}

		reversal = &models.Transaction{
			Base:                 models.Base{ID: uuid.New()},
			CompanyID:            companyID,
			BankAccountID:        original.BankAccountID,
			CategoryID:           original.CategoryID,
			CashRegisterID:       original.CashRegisterID,
			ContactID:            original.ContactID,
			Description:          truncate("Refund: "+input.Description, 255),
			Amount:               input.Amount,
			Type:                 models.TransactionReversal,
			TransactionDate:      schedule.ToTime(s.today()),
			RelatedTransactionID: models.UUIDPtr(original.ID),
		}
		if err := s.checkRefundCeiling(ctx, r, reversal, input.Amount); err != nil {
			return err
		}
		return s.post(ctx, r, reversal)
	})
	if err != nil {
		return nil, err
	}

	s.afterWrite(ctx, nil, reversal)
	s.audit.Log(ctx, companyID, models.AuditActionRefund, "Transaction", reversal.ID, map[string]interface{}{
		"original_id": originalID, "amount": reversal.Amount.StringFixed(2),
	})
	return reversal, nil
}

// checkRefundCeiling rejects an extra amount that would push the reversals
// of the original above its own amount. The original stays locked until the
// caller's unit of work ends, so refunds and reversal edits serialize on it.
func (s *TransactionService) checkRefundCeiling(ctx context.Context, r *repository.Repositories, reversal *models.Transaction, extra decimal.Decimal) error {
	original, err := r.Transaction.LockByID(ctx, *reversal.RelatedTransactionID)
	if err != nil {
		return referenceError("transaction", "related_transaction_id", err)
	}
	refunded, err := r.Transaction.SumReversals(ctx, original.ID)
	if err != nil {
		return classify("sum reversals", err)
	}
	remaining := original.Amount.Sub(refunded)
	if extra.GreaterThan(remaining) {
		return Invalid("amount", fmt.Sprintf("exceeds the refundable balance of %s", remaining.StringFixed(2)))
	}
	return nil
}

// Withdraw posts an expense against the account
func (s *TransactionService) Withdraw(ctx context.Context, companyID, accountID uuid.UUID, input WithdrawInput) (*models.Transaction, error) {
	account, err := s.repos.BankAccount.FindByID(ctx, accountID)
	if err != nil {
		return nil, referenceError("bank account", "", err)
	}
	if account.CompanyID != companyID {
		return nil, notFound("bank account")
	}

	description := input.Description
	if description == "" {
		description = "Withdrawal"
	}
	date := s.today()
	if input.TransactionDate != nil && !input.TransactionDate.IsZero() {
		date = *input.TransactionDate
	}

	return s.Create(ctx, companyID, TransactionInput{
		BankAccountID:   accountID,
		CategoryID:      input.CategoryID,
		Description:     description,
		Amount:          input.Amount,
		Type:            models.TransactionExpense,
		TransactionDate: date,
	})
}

// List returns a page of transactions. Filtering by category includes its subcategories.
func (s *TransactionService) List(ctx context.Context, companyID uuid.UUID, params TransactionListParams) ([]models.Transaction, int64, error) {
	if params.Query == nil {
		params.Query = repository.NewListQuery()
	}
	filter := repository.TransactionFilter{
		Type:          params.Type,
		BankAccountID: params.BankAccountID,
	}
	if params.CategoryID != nil {
		ids, err := s.categories.DescendantIDs(ctx, companyID, *params.CategoryID)
		if err != nil {
			return nil, 0, err
		}
		filter.CategoryIDs = ids
	}
	if params.DateFrom != nil {
		from := schedule.ToTime(*params.DateFrom)
		filter.DateFrom = &from
	}
	if params.DateTo != nil {
		to := schedule.ToTime(*params.DateTo)
		filter.DateTo = &to
	}

	type page struct {
		Items []models.Transaction `json:"items"`
		Total int64                `json:"total"`
	}
	cacheParams := params.Query.Params()
	cacheParams["type"] = string(params.Type)
	cacheParams["bank_account_id"] = idString(params.BankAccountID)
	cacheParams["category_id"] = idString(params.CategoryID)
	cacheParams["date_from"] = dateString(params.DateFrom)
	cacheParams["date_to"] = dateString(params.DateTo)

	result, err := cache.Cached(ctx, s.versioner, companyID, cache.KindTransactions, cacheParams, func(ctx context.Context) (page, error) {
		items, total, err := s.repos.Transaction.List(ctx, companyID, filter, params.Query)
		if err != nil {
			return page{}, classify("list transactions", err)
		}
		return page{Items: items, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result.Items, result.Total, nil
}

// afterWrite runs once the unit of work has committed
func (s *TransactionService) afterWrite(ctx context.Context, prev, next *models.Transaction) {
	companyID := uuid.Nil
	if next != nil {
		companyID = next.CompanyID
	} else if prev != nil {
		companyID = prev.CompanyID
	}
	s.versioner.BumpAll(ctx, companyID, cache.KindTransactions, cache.KindBankAccounts)
	cache.InvalidateDashboard(ctx, s.versioner.Store(), cache.Snapshot(prev), cache.Snapshot(next))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func dateString(d *civil.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
