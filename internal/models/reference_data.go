package models

import "github.com/google/uuid"

// CashRegister is a point of sale whose receipts land in a default bank account
type CashRegister struct {
	Base
	CompanyID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_cash_register_company_name" json:"company_id"`
	Name                 string    `gorm:"size:100;not null;uniqueIndex:uniq_cash_register_company_name" json:"name"`
	DefaultBankAccountID uuid.UUID `gorm:"type:uuid;not null;index" json:"default_bank_account_id"`
}

// TableName specifies the table name for CashRegister
func (CashRegister) TableName() string {
	return "cash_registers"
}

// CostCenter groups spending for managerial reporting
type CostCenter struct {
	Base
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Code      string    `gorm:"size:30" json:"code"`
	Name      string    `gorm:"size:100;not null" json:"name"`
}

// TableName specifies the table name for CostCenter
func (CostCenter) TableName() string {
	return "cost_centers"
}

// Contact is a customer or supplier of a company
type Contact struct {
	Base
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index" json:"company_id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
}

// TableName specifies the table name for Contact
func (Contact) TableName() string {
	return "contacts"
}

// PaymentMethod is a global catalogue entry (pix, boleto, card, ...)
type PaymentMethod struct {
	Base
	Code string `gorm:"size:30;not null;uniqueIndex" json:"code"`
	Name string `gorm:"size:100;not null" json:"name"`
}

// TableName specifies the table name for PaymentMethod
func (PaymentMethod) TableName() string {
	return "payment_methods"
}
