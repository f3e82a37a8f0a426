package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Frequency is the step between two due dates of a recurring template
type Frequency string

// Frequencies
const (
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is a known frequency
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// RecurringTemplate is a recurring bill (kind=bill) or recurring income
// (kind=income). It owns the instances generated from its schedule.
type RecurringTemplate struct {
	Base
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_recurring_templates_company_kind" json:"company_id"`
	Kind          ObligationKind  `gorm:"size:10;not null;index:idx_recurring_templates_company_kind" json:"kind"`
	CategoryID    *uuid.UUID      `gorm:"type:uuid;index" json:"category_id"`
	CostCenterID  *uuid.UUID      `gorm:"type:uuid" json:"cost_center_id"`
	ContactID     *uuid.UUID      `gorm:"type:uuid" json:"contact_id"`
	Description   string          `gorm:"size:255;not null" json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Frequency     Frequency       `gorm:"size:20;not null" json:"frequency"`
	StartDate     time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate       *time.Time      `gorm:"type:date" json:"end_date"`
	NextDueDate   time.Time       `gorm:"type:date;not null;index:idx_recurring_templates_due" json:"next_due_date"`
	IsActive      bool            `gorm:"not null;default:true;index:idx_recurring_templates_due" json:"is_active"`
}

// TableName specifies the table name for RecurringTemplate
func (RecurringTemplate) TableName() string {
	return "recurring_templates"
}

// Instance status constants
const (
	InstanceStatusPending = "pending"
	InstanceStatusSettled = "settled"
)

// RecurringInstance is one dated occurrence of a recurring template
// (a recurring bill payment or a recurring income receipt). TemplateID is
// cleared when the template is deleted so settled history survives.
type RecurringInstance struct {
	Base
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"company_id"`
	Kind          ObligationKind  `gorm:"size:10;not null" json:"kind"`
	TemplateID    *uuid.UUID      `gorm:"type:uuid;uniqueIndex:uniq_instance_template_due" json:"template_id"`
	DueDate       time.Time       `gorm:"type:date;not null;uniqueIndex:uniq_instance_template_due" json:"due_date"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Status        string          `gorm:"size:20;not null;default:pending;index" json:"status"`
	SettledOn     *time.Time      `gorm:"type:date" json:"settled_on"`
	TransactionID *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"transaction_id"`
}

// TableName specifies the table name for RecurringInstance
func (RecurringInstance) TableName() string {
	return "recurring_instances"
}

// IsSettled returns true once the instance has a recorded transaction
func (i *RecurringInstance) IsSettled() bool {
	return i.Status == InstanceStatusSettled
}

// RecurringTemplateResponse is the JSON response format for recurring templates
type RecurringTemplateResponse struct {
	ID           uuid.UUID      `json:"id"`
	CompanyID    uuid.UUID      `json:"company_id"`
	Kind         ObligationKind `json:"kind"`
	CategoryID   *uuid.UUID     `json:"category_id"`
	CostCenterID *uuid.UUID     `json:"cost_center_id"`
	ContactID    *uuid.UUID     `json:"contact_id"`
	Description  string         `json:"description"`
	Amount       string         `json:"amount"`
	Frequency    Frequency      `json:"frequency"`
	StartDate    civil.Date     `json:"start_date"`
	EndDate      *civil.Date    `json:"end_date"`
	NextDueDate  civil.Date     `json:"next_due_date"`
	IsActive     bool           `json:"is_active"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ToResponse converts RecurringTemplate to RecurringTemplateResponse
func (t *RecurringTemplate) ToResponse() RecurringTemplateResponse {
	resp := RecurringTemplateResponse{
		ID:           t.ID,
		CompanyID:    t.CompanyID,
		Kind:         t.Kind,
		CategoryID:   t.CategoryID,
		CostCenterID: t.CostCenterID,
		ContactID:    t.ContactID,
		Description:  t.Description,
		Amount:       t.Amount.StringFixed(2),
		Frequency:    t.Frequency,
		StartDate:    civil.DateOf(t.StartDate),
		NextDueDate:  civil.DateOf(t.NextDueDate),
		IsActive:     t.IsActive,
		CreatedAt:    t.CreatedAt,
	}
	if t.EndDate != nil {
		end := civil.DateOf(*t.EndDate)
		resp.EndDate = &end
	}
	return resp
}

// RecurringInstanceResponse is the JSON response format for recurring instances
type RecurringInstanceResponse struct {
	ID            uuid.UUID      `json:"id"`
	Kind          ObligationKind `json:"kind"`
	TemplateID    *uuid.UUID     `json:"template_id"`
	DueDate       civil.Date     `json:"due_date"`
	Amount        string         `json:"amount"`
	Status        string         `json:"status"`
	SettledOn     *civil.Date    `json:"settled_on"`
	TransactionID *uuid.UUID     `json:"transaction_id"`
}

// ToResponse converts RecurringInstance to RecurringInstanceResponse
func (i *RecurringInstance) ToResponse() RecurringInstanceResponse {
	resp := RecurringInstanceResponse{
		ID:            i.ID,
		Kind:          i.Kind,
		TemplateID:    i.TemplateID,
		DueDate:       civil.DateOf(i.DueDate),
		Amount:        i.Amount.StringFixed(2),
		Status:        i.Status,
		TransactionID: i.TransactionID,
	}
	if i.SettledOn != nil {
		settled := civil.DateOf(*i.SettledOn)
		resp.SettledOn = &settled
	}
	return resp
}

// CurrentStatus implements statemachine.Settleable
func (i *RecurringInstance) CurrentStatus() string { return i.Status }

// SetStatus implements statemachine.Settleable
func (i *RecurringInstance) SetStatus(status string) { i.Status = status }
