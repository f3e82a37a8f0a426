package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankAccountType classifies where money is held
type BankAccountType string

// Bank account types
const (
	BankAccountChecking      BankAccountType = "checking"
	BankAccountSavings       BankAccountType = "savings"
	BankAccountCreditBank    BankAccountType = "credit_bank"
	BankAccountDigitalWallet BankAccountType = "digital_wallet"
	BankAccountSafe          BankAccountType = "safe"
)

// Valid reports whether t is a known bank account type
func (t BankAccountType) Valid() bool {
	switch t {
	case BankAccountChecking, BankAccountSavings, BankAccountCreditBank, BankAccountDigitalWallet, BankAccountSafe:
		return true
	}
	return false
}

// BankAccount holds money for a company. CurrentBalance is derived from the
// ledger and is only ever changed by the balance ledger.
type BankAccount struct {
	Base
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	Type           BankAccountType `gorm:"size:25;not null" json:"type"`
	InitialBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"initial_balance"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"current_balance"`
}

// TableName specifies the table name for BankAccount
func (BankAccount) TableName() string {
	return "bank_accounts"
}

// BankAccountResponse is the JSON response format for bank accounts
type BankAccountResponse struct {
	ID             uuid.UUID       `json:"id"`
	CompanyID      uuid.UUID       `json:"company_id"`
	Name           string          `json:"name"`
	Type           BankAccountType `json:"type"`
	InitialBalance string          `json:"initial_balance"`
	CurrentBalance string          `json:"current_balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToResponse converts BankAccount to BankAccountResponse
func (a *BankAccount) ToResponse() BankAccountResponse {
	return BankAccountResponse{
		ID:             a.ID,
		CompanyID:      a.CompanyID,
		Name:           a.Name,
		Type:           a.Type,
		InitialBalance: a.InitialBalance.StringFixed(2),
		CurrentBalance: a.CurrentBalance.StringFixed(2),
		CreatedAt:      a.CreatedAt,
	}
}
