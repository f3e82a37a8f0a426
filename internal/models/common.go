package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base carries the identifier and timestamps shared by every table
type Base struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a random UUID when the caller did not choose one
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Company is the tenant root. Every other entity is scoped to one company.
type Company struct {
	Base
	Name string `gorm:"size:150;not null" json:"name"`
}

// TableName specifies the table name for Company
func (Company) TableName() string {
	return "companies"
}

// Membership grants a user access to a company
type Membership struct {
	Base
	CompanyID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_membership_company_user" json:"company_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uniq_membership_company_user;index" json:"user_id"`
	Role      string    `gorm:"size:20;not null;default:member" json:"role"`
}

// TableName specifies the table name for Membership
func (Membership) TableName() string {
	return "memberships"
}

// UUIDPtr returns a pointer to a copy of id
func UUIDPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

// SameID reports whether two optional identifiers point to the same row
func SameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
