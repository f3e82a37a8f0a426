package services

import (
	"context"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/repository"
	"github.com/google/uuid"
)

// maxCategoryDepth bounds tree walks so a malformed parent chain cannot loop
const maxCategoryDepth = 16

// CategoryInput is the payload of a new category
type CategoryInput struct {
	Name     string              `json:"name" binding:"required"`
	Code     string              `json:"code"`
	Type     models.CategoryType `json:"type" binding:"required"`
	ParentID *uuid.UUID          `json:"parent_id"`
}

type CategoryService struct {
	repos *repository.Repositories
}

func NewCategoryService(repos *repository.Repositories) *CategoryService {
	return &CategoryService{repos: repos}
}

func (s *CategoryService) Create(ctx context.Context, companyID uuid.UUID, input CategoryInput) (*models.Category, error) {
	verr := NewValidationError()
	if input.Name == "" {
		verr.Add("name", "is required")
	}
	if !input.Type.Valid() {
		verr.Add("type", "must be revenue or expense")
	}
	if input.ParentID != nil {
		parent, err := s.repos.Category.FindByID(ctx, *input.ParentID)
		if err != nil {
			return nil, referenceError("category", "parent_id", err)
		}
		if parent.CompanyID != companyID {
			verr.Add("parent_id", "must belong to the same company")
		}
		if parent.Type != input.Type {
			verr.Add("parent_id", "parent must have the same type")
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	category := &models.Category{
		CompanyID: companyID,
		ParentID:  input.ParentID,
		Code:      input.Code,
		Name:      input.Name,
		Type:      input.Type,
	}
	if err := s.repos.Category.Create(ctx, category); err != nil {
		return nil, classify("create category", err)
	}
	return category, nil
}

func (s *CategoryService) List(ctx context.Context, companyID uuid.UUID, categoryType models.CategoryType) ([]models.Category, error) {
	categories, err := s.repos.Category.List(ctx, companyID, categoryType)
	if err != nil {
		return nil, classify("list categories", err)
	}
	return categories, nil
}

// Tree arranges the company's categories under their parents. A category
// whose parent is missing is promoted to a root; nodes deeper than
// maxCategoryDepth or caught in a parent cycle are left out.
func (s *CategoryService) Tree(ctx context.Context, companyID uuid.UUID, categoryType models.CategoryType) ([]*models.CategoryNode, error) {
	categories, err := s.List(ctx, companyID, categoryType)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(categories), nil
}

// BuildCategoryTree links categories through an adjacency list and a
// breadth-first walk
func BuildCategoryTree(categories []models.Category) []*models.CategoryNode {
	known := make(map[uuid.UUID]bool, len(categories))
	for _, c := range categories {
		known[c.ID] = true
	}

	children := make(map[uuid.UUID][]models.Category)
	var roots []*models.CategoryNode
	for _, c := range categories {
		if c.ParentID == nil || !known[*c.ParentID] || *c.ParentID == c.ID {
			roots = append(roots, &models.CategoryNode{Category: c, Children: []*models.CategoryNode{}})
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	visited := make(map[uuid.UUID]bool, len(categories))
	level := roots
	for depth := 0; depth < maxCategoryDepth && len(level) > 0; depth++ {
		var next []*models.CategoryNode
		for _, node := range level {
			visited[node.ID] = true
			for _, child := range children[node.ID] {
				if visited[child.ID] {
					continue
				}
				childNode := &models.CategoryNode{Category: child, Children: []*models.CategoryNode{}}
				node.Children = append(node.Children, childNode)
				next = append(next, childNode)
			}
		}
		level = next
	}
	return roots
}

// DescendantIDs returns id and the ids of every category below it
func (s *CategoryService) DescendantIDs(ctx context.Context, companyID, id uuid.UUID) ([]uuid.UUID, error) {
	root, err := s.repos.Category.FindByID(ctx, id)
	if err != nil {
		return nil, referenceError("category", "category_id", err)
	}
	if root.CompanyID != companyID {
		return nil, &NotFoundError{Entity: "category", Field: "category_id"}
	}

	ids := []uuid.UUID{id}
	seen := map[uuid.UUID]bool{id: true}
	frontier := []uuid.UUID{id}
	for depth := 0; depth < maxCategoryDepth && len(frontier) > 0; depth++ {
		kids, err := s.repos.Category.ListChildren(ctx, companyID, frontier)
		if err != nil {
			return nil, classify("list subcategories", err)
		}
		frontier = frontier[:0]
		for _, kid := range kids {
			if seen[kid.ID] {
				continue
			}
			seen[kid.ID] = true
			ids = append(ids, kid.ID)
			frontier = append(frontier, kid.ID)
		}
	}
	return ids, nil
}
