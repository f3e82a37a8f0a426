package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records who changed which ledger entity
type AuditLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	UserID    *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	Action    string     `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, DELETE, TRANSFER, REFUND, SETTLE
	Entity    string     `gorm:"size:50;not null" json:"entity"` // Transaction, Bill, RecurringTemplate, ...
	EntityID  uuid.UUID  `gorm:"type:uuid;index" json:"entity_id"`
	Details   string     `gorm:"type:text" json:"details"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit actions
const (
	AuditActionCreate   = "CREATE"
	AuditActionUpdate   = "UPDATE"
	AuditActionDelete   = "DELETE"
	AuditActionTransfer = "TRANSFER"
	AuditActionRefund   = "REFUND"
	AuditActionSettle   = "SETTLE"
)
