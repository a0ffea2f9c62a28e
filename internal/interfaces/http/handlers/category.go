// internal/interfaces/http/handlers/category.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/product"
)

// CategoryHandler handles category endpoints
type CategoryHandler struct {
	categoryService *product.CategoryService
	logger          *logrus.Logger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(categoryService *product.CategoryService, logger *logrus.Logger) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
		logger:          logger,
	}
}

// GetCategories handles GET /categories
func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categoryService.GetCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Categories retrieved successfully",
		"data":    categories,
	})
}

// GetCategoryBySlug handles GET /categories/:slug
func (h *CategoryHandler) GetCategoryBySlug(c *gin.Context) {
	category, err := h.categoryService.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category retrieved successfully",
		"data":    category,
	})
}

// CreateCategory handles POST /admin/categories
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req product.CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := h.categoryService.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Category created successfully",
		"data":    category,
	})
}

// UpdateCategory handles PUT /admin/categories/:id
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req product.CategoryUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	category, err := h.categoryService.UpdateCategory(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category updated successfully",
		"data":    category,
	})
}

// DeleteCategory handles DELETE /admin/categories/:id
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.categoryService.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category deleted successfully",
	})
}
