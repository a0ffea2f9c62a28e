// internal/interfaces/http/handlers/product.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/product"
)

// ProductHandler handles product endpoints
type ProductHandler struct {
	productService *product.Service
	logger         *logrus.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *product.Service, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// GetProducts handles GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	var req product.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	response, err := h.productService.GetProducts(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    response,
	})
}

// GetProductBySlug handles GET /products/:slug
func (h *ProductHandler) GetProductBySlug(c *gin.Context) {
	p, err := h.productService.GetProductBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product retrieved successfully",
		"data":    product.NewProductResponse(p),
	})
}

// CreateProduct handles POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req product.ProductCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    product.NewProductResponse(p),
	})
}

// UpdateProduct handles PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	var req product.ProductUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	p, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product updated successfully",
		"data":    product.NewProductResponse(p),
	})
}

// DeleteProduct handles DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deleted successfully",
	})
}
