package models

import "github.com/google/uuid"

// CategoryType is the side of the ledger a category classifies
type CategoryType string

// Category types
const (
	CategoryRevenue CategoryType = "revenue"
	CategoryExpense CategoryType = "expense"
)

// Valid reports whether t is a known category type
func (t CategoryType) Valid() bool {
	return t == CategoryRevenue || t == CategoryExpense
}

// Category classifies transactions. Categories form a tree through ParentID.
type Category struct {
	Base
	CompanyID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uniq_category_company_name_type" json:"company_id"`
	ParentID  *uuid.UUID   `gorm:"type:uuid;index" json:"parent_id"`
	Code      string       `gorm:"size:30" json:"code"`
	Name      string       `gorm:"size:100;not null;uniqueIndex:uniq_category_company_name_type" json:"name"`
	Type      CategoryType `gorm:"size:10;not null;uniqueIndex:uniq_category_company_name_type" json:"type"`
}

// TableName specifies the table name for Category
func (Category) TableName() string {
	return "categories"
}

// CategoryNode is a category with its resolved children
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"subcategories"`
}
