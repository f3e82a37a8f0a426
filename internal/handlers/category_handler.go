package handlers

import (
	"net/http"

	"github.com/fintelis/fintelis-api/internal/models"
	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

func categoryType(c *gin.Context) (models.CategoryType, error) {
	t := models.CategoryType(c.Query("type"))
	if t != "" && !t.Valid() {
		return "", services.Invalid("type", "must be revenue or expense")
	}
	return t, nil
}

// @Summary List Categories
// @Tags Categories
// @Produce json
// @Param type query string false "revenue or expense"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /categories [get]
func (h *CategoryHandler) Index(c *gin.Context) {
	t, err := categoryType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	categories, err := h.categoryService.List(c.Request.Context(), companyID(c), t)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// @Summary Category Tree
// @Description Categories nested under their parents
// @Tags Categories
// @Produce json
// @Param type query string false "revenue or expense"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /categories/tree [get]
func (h *CategoryHandler) Tree(c *gin.Context) {
	t, err := categoryType(c)
	if err != nil {
		respondError(c, err)
		return
	}
	tree, err := h.categoryService.Tree(c.Request.Context(), companyID(c), t)
	if err != nil {
		respondError(c, err)
		return
	}
	if tree == nil {
		tree = []*models.CategoryNode{}
	}
	c.JSON(http.StatusOK, gin.H{"categories": tree})
}

// @Summary Create Category
// @Tags Categories
// @Accept json
// @Produce json
// @Param request body services.CategoryInput true "Category"
// @Success 201 {object} models.Category
// @Security BearerAuth
// @Router /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	var input services.CategoryInput
	if !bindBody(c, "category", &input) {
		return
	}
	category, err := h.categoryService.Create(c.Request.Context(), companyID(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}
