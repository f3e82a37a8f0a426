package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes payables (bills) from receivables (incomes).
// Recurring templates and their instances carry the same kind.
type ObligationKind string

// Obligation kinds
const (
	KindBill   ObligationKind = "bill"
	KindIncome ObligationKind = "income"
)

// Valid reports whether k is a known kind
func (k ObligationKind) Valid() bool {
	return k == KindBill || k == KindIncome
}

// CategoryType is the category type an obligation of this kind must use
func (k ObligationKind) CategoryType() CategoryType {
	if k == KindIncome {
		return CategoryRevenue
	}
	return CategoryExpense
}

// TransactionType is the type of the transaction that settles an obligation of this kind
func (k ObligationKind) TransactionType() TransactionType {
	if k == KindIncome {
		return TransactionRevenue
	}
	return TransactionExpense
}

// Obligation status constants
const (
	ObligationStatusOpen    = "open"
	ObligationStatusSettled = "settled"
)

// Obligation is a bill (payable) or an income (receivable). Settling it
// creates a transaction and is irreversible.
type Obligation struct {
	Base
	CompanyID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_obligations_company_kind" json:"company_id"`
	Kind                 ObligationKind  `gorm:"size:10;not null;index:idx_obligations_company_kind" json:"kind"`
	CategoryID           *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	CostCenterID         *uuid.UUID      `gorm:"type:uuid" json:"cost_center_id"`
	ContactID            *uuid.UUID      `gorm:"type:uuid" json:"contact_id"`
	PaymentTransactionID *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"payment_transaction_id"`
	Description          string          `gorm:"size:255;not null" json:"description"`
	Amount               decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	DueDate              time.Time       `gorm:"type:date;not null;index" json:"due_date"`
	Status               string          `gorm:"size:20;not null;default:open;index" json:"status"`
}

// TableName specifies the table name for Obligation
func (Obligation) TableName() string {
	return "obligations"
}

// IsSettled returns true once a payment transaction has been recorded
func (o *Obligation) IsSettled() bool {
	return o.Status == ObligationStatusSettled
}

// ObligationResponse is the JSON response format for bills and incomes
type ObligationResponse struct {
	ID                   uuid.UUID      `json:"id"`
	CompanyID            uuid.UUID      `json:"company_id"`
	Kind                 ObligationKind `json:"kind"`
	CategoryID           *uuid.UUID     `json:"category_id"`
	CostCenterID         *uuid.UUID     `json:"cost_center_id"`
	ContactID            *uuid.UUID     `json:"contact_id"`
	PaymentTransactionID *uuid.UUID     `json:"payment_transaction_id"`
	Description          string         `json:"description"`
	Amount               string         `json:"amount"`
	DueDate              civil.Date     `json:"due_date"`
	Status               string         `json:"status"`
	CreatedAt            time.Time      `json:"created_at"`
}

// ToResponse converts Obligation to ObligationResponse
func (o *Obligation) ToResponse() ObligationResponse {
	return ObligationResponse{
		ID:                   o.ID,
		CompanyID:            o.CompanyID,
		Kind:                 o.Kind,
		CategoryID:           o.CategoryID,
		CostCenterID:         o.CostCenterID,
		ContactID:            o.ContactID,
		PaymentTransactionID: o.PaymentTransactionID,
		Description:          o.Description,
		Amount:               o.Amount.StringFixed(2),
		DueDate:              civil.DateOf(o.DueDate),
		Status:               o.Status,
		CreatedAt:            o.CreatedAt,
	}
}

// CurrentStatus implements statemachine.Settleable
func (o *Obligation) CurrentStatus() string { return o.Status }

// SetStatus implements statemachine.Settleable
func (o *Obligation) SetStatus(status string) { o.Status = status }
