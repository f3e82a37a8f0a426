package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the kind of ledger movement
type TransactionType string

// Transaction types
const (
	TransactionRevenue          TransactionType = "revenue"
	TransactionExpense          TransactionType = "expense"
	TransactionInternalTransfer TransactionType = "internal_transfer" // incoming leg
	TransactionExternalTransfer TransactionType = "external_transfer" // outgoing leg
	TransactionReversal         TransactionType = "reversal"
)

// Valid reports whether t is a known transaction type
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionRevenue, TransactionExpense, TransactionInternalTransfer, TransactionExternalTransfer, TransactionReversal:
		return true
	}
	return false
}

// IsTransfer reports whether t is one of the transfer legs
func (t TransactionType) IsTransfer() bool {
	return t == TransactionInternalTransfer || t == TransactionExternalTransfer
}

// Transaction is the atomic ledger entry posted against a bank account
type Transaction struct {
	Base
	CompanyID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_company_date" json:"company_id"`
	BankAccountID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"bank_account_id"`
	CategoryID           *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	CashRegisterID       *uuid.UUID      `gorm:"type:uuid;index" json:"cash_register_id"`
	ContactID            *uuid.UUID      `gorm:"type:uuid;index" json:"contact_id"`
	CostCenterID         *uuid.UUID      `gorm:"type:uuid;index" json:"cost_center_id"`
	PaymentMethodID      *uuid.UUID      `gorm:"type:uuid" json:"payment_method_id"`
	LinkedTransactionID  *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"linked_transaction_id"`
	RelatedTransactionID *uuid.UUID      `gorm:"type:uuid;index" json:"related_transaction_id"`
	Description          string          `gorm:"size:255;not null" json:"description"`
	Amount               decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Type                 TransactionType `gorm:"size:25;not null;index" json:"type"`
	TransactionDate      time.Time       `gorm:"type:date;not null;index:idx_transactions_company_date" json:"transaction_date"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// TransactionResponse is the JSON response format for transactions
type TransactionResponse struct {
	ID                   uuid.UUID       `json:"id"`
	CompanyID            uuid.UUID       `json:"company_id"`
	BankAccountID        uuid.UUID       `json:"bank_account_id"`
	CategoryID           *uuid.UUID      `json:"category_id"`
	CashRegisterID       *uuid.UUID      `json:"cash_register_id"`
	ContactID            *uuid.UUID      `json:"contact_id"`
	CostCenterID         *uuid.UUID      `json:"cost_center_id"`
	PaymentMethodID      *uuid.UUID      `json:"payment_method_id"`
	LinkedTransactionID  *uuid.UUID      `json:"linked_transaction_id"`
	RelatedTransactionID *uuid.UUID      `json:"related_transaction_id"`
	Description          string          `json:"description"`
	Amount               string          `json:"amount"`
	Type                 TransactionType `json:"type"`
	TransactionDate      civil.Date      `json:"transaction_date"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// ToResponse converts Transaction to TransactionResponse
func (t *Transaction) ToResponse() TransactionResponse {
	return TransactionResponse{
		ID:                   t.ID,
		CompanyID:            t.CompanyID,
		BankAccountID:        t.BankAccountID,
		CategoryID:           t.CategoryID,
		CashRegisterID:       t.CashRegisterID,
		ContactID:            t.ContactID,
		CostCenterID:         t.CostCenterID,
		PaymentMethodID:      t.PaymentMethodID,
		LinkedTransactionID:  t.LinkedTransactionID,
		RelatedTransactionID: t.RelatedTransactionID,
		Description:          t.Description,
		Amount:               t.Amount.StringFixed(2),
		Type:                 t.Type,
		TransactionDate:      civil.DateOf(t.TransactionDate),
		CreatedAt:            t.CreatedAt,
		UpdatedAt:            t.UpdatedAt,
	}
}
