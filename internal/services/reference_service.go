package services

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/google/uuid"
)

// CashRegisterInput is the payload of a new cash register
type CashRegisterInput struct {
	Name                 string    `json:"name" binding:"required"`
	DefaultBankAccountID uuid.UUID `json:"default_bank_account_id" binding:"required"`
}

// CostCenterInput is the payload of a new cost center
type CostCenterInput struct {
	Code string `json:"code"`
	Name string `json:"name" binding:"required"`
}

// ContactInput is the payload of a new contact
type ContactInput struct {
	Name string `json:"name" binding:"required"`
}

// ReferenceService manages the small per-company catalogues transactions point to
type ReferenceService struct {
	repos *repository.Repositories
}

func NewReferenceService(repos *repository.Repositories) *ReferenceService {
	return &ReferenceService{repos: repos}
}

func (s *ReferenceService) CreateCashRegister(ctx context.Context, companyID uuid.UUID, input CashRegisterInput) (*models.CashRegister, error) {
	if input.Name == "" {
		return nil, Invalid("name", "is required")
	}
	account, err := s.repos.BankAccount.FindByID(ctx, input.DefaultBankAccountID)
	if err != nil {
		return nil, referenceError("bank account", "default_bank_account_id", err)
	}
	if account.CompanyID != companyID {
		return nil, Invalid("default_bank_account_id", "must belong to the same company")
	}

	register := &models.CashRegister{
		CompanyID:            companyID,
		Name:                 input.Name,
		DefaultBankAccountID: input.DefaultBankAccountID,
	}
	if err := s.repos.Reference.CreateCashRegister(ctx, register); err != nil {
		return nil, classify("create cash register", err)
	}
	return register, nil
}

func (s *ReferenceService) ListCashRegisters(ctx context.Context, companyID uuid.UUID) ([]models.CashRegister, error) {
	registers, err := s.repos.Reference.ListCashRegisters(ctx, companyID)
	if err != nil {
		return nil, classify("list cash registers", err)
	}
	return registers, nil
}

func (s *ReferenceService) CreateCostCenter(ctx context.Context, companyID uuid.UUID, input CostCenterInput) (*models.CostCenter, error) {
	if input.Name == "" {
		return nil, Invalid("name", "is required")
	}
	center := &models.CostCenter{CompanyID: companyID, Code: input.Code, Name: input.Name}
	if err := s.repos.Reference.CreateCostCenter(ctx, center); err != nil {
		return nil, classify("create cost center", err)
	}
	return center, nil
}

func (s *ReferenceService) ListCostCenters(ctx context.Context, companyID uuid.UUID) ([]models.CostCenter, error) {
	centers, err := s.repos.Reference.ListCostCenters(ctx, companyID)
	if err != nil {
		return nil, classify("list cost centers", err)
	}
	return centers, nil
}

func (s *ReferenceService) CreateContact(ctx context.Context, companyID uuid.UUID, input ContactInput) (*models.Contact, error) {
	if input.Name == "" {
		return nil, Invalid("name", "is required")
	}
	contact := &models.Contact{CompanyID: companyID, Name: input.Name}
	if err := s.repos.Reference.CreateContact(ctx, contact); err != nil {
		return nil, classify("create contact", err)
	}
	return contact, nil
}

// CompanyService resolves tenants and their members
type CompanyService struct {
	repo repository.CompanyRepository
}

func NewCompanyService(repo repository.CompanyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

// Create registers a company and makes owner its first member
func (s *CompanyService) Create(ctx context.Context, name string, owner uuid.UUID) (*models.Company, error) {
	if name == "" {
		return nil, Invalid("name", "is required")
	}
	company := &models.Company{Name: name}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, classify("create company", err)
	}
	if owner != uuid.Nil {
		membership := &models.Membership{CompanyID: company.ID, UserID: owner, Role: "owner"}
		if err := s.repo.AddMember(ctx, membership); err != nil {
			return nil, classify("add company member", err)
		}
	}
	return company, nil
}

// IsMember reports whether userID may act on companyID
func (s *CompanyService) IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	ok, err := s.repo.IsMember(ctx, companyID, userID)
	if err != nil {
		return false, classify("check membership", err)
	}
	return ok, nil
}

// DefaultCompany is the company used when a request names none
func (s *CompanyService) DefaultCompany(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	company, err := s.repo.FirstCompanyForUser(ctx, userID)
	if err != nil {
		return uuid.Nil, referenceError("company", "", err)
	}
	return company.ID, nil
}
