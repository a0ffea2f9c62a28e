// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/upload"
)

// UploadHandler handles catalog image uploads
type UploadHandler struct {
	uploadService   *upload.Service
	productService  *product.Service
	categoryService *product.CategoryService
	logger          *logrus.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *upload.Service, productService *product.Service, categoryService *product.CategoryService, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService:   uploadService,
		productService:  productService,
		categoryService: categoryService,
		logger:          logger,
	}
}

// SetProductImage handles PUT /admin/products/:id/image
func (h *UploadHandler) SetProductImage(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	file, ok := h.formImage(c)
	if !ok {
		return
	}
	defer file.close()

	if err := h.uploadService.SetProductMainImage(c.Request.Context(), id, file.File); err != nil {
		respondError(c, h.logger, err)
		return
	}

	p, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product image updated successfully",
		"data":    product.NewProductResponse(p),
	})
}

// AddProductImage handles POST /admin/products/:id/images. The optional
// "ordering" form field positions the image; without it the image goes last.
func (h *UploadHandler) AddProductImage(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	ordering := 0
	if raw := c.PostForm("ordering"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, h.logger, apperr.New(apperr.KindInvalidInput, "upload", "ordering must be an integer"))
			return
		}
		ordering = n
	}

	file, ok := h.formImage(c)
	if !ok {
		return
	}
	defer file.close()

	img, err := h.uploadService.AddProductImage(c.Request.Context(), id, file.File, ordering)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product image added successfully",
		"data": product.ImageResponse{
			ID:       img.ID,
			Image:    product.ImageURL(img.Image),
			Ordering: img.Ordering,
		},
	})
}

// DeleteProductImage handles DELETE /admin/products/:id/images/:imageId
func (h *UploadHandler) DeleteProductImage(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	imageID, ok := parseUintParam(c, "imageId")
	if !ok {
		return
	}

	if err := h.uploadService.DeleteProductImage(c.Request.Context(), id, imageID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetCategoryImage handles PUT /admin/categories/:id/image
func (h *UploadHandler) SetCategoryImage(c *gin.Context) {
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}

	file, ok := h.formImage(c)
	if !ok {
		return
	}
	defer file.close()

	if err := h.uploadService.SetCategoryImage(c.Request.Context(), id, file.File); err != nil {
		respondError(c, h.logger, err)
		return
	}

	category, err := h.categoryService.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Category image updated successfully",
		"data":    category,
	})
}

type formFile struct {
	upload.File
	close func()
}

// formImage opens the "image" part of a multipart request
func (h *UploadHandler) formImage(c *gin.Context) (formFile, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   apperr.KindInvalidInput.String(),
			"message": "No image file provided",
			"details": err.Error(),
		})
		return formFile{}, false
	}

	f, err := header.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return formFile{}, false
	}

	return formFile{
		File:  upload.File{Name: header.Filename, Body: f},
		close: func() { _ = f.Close() },
	}, true
}
