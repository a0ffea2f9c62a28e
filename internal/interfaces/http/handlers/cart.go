// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints. Every route runs behind middleware.CartOwner.
type CartHandler struct {
	cartService *cart.Service
	logger      *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService *cart.Service, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	result, err := h.cartService.GetCart(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cart.NewResponse(result),
	})
}

// ListItems handles GET /cart/items
func (h *CartHandler) ListItems(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	items, err := h.cartService.ListItems(c.Request.Context(), owner)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart items retrieved successfully",
		"data":    cart.NewItemsResponse(items),
	})
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.cartService.AddItem(c.Request.Context(), owner, req.ProductID, req.Quantity)
	if err != nil {
		respondRequestError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Item added to cart successfully",
		"data":    cart.NewItemResponse(item),
	})
}

// UpdateItem handles PATCH /cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.cartService.UpdateItem(c.Request.Context(), owner, itemID, req.Quantity)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    cart.NewItemResponse(item),
	})
}

// RemoveItem handles DELETE /cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	itemID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), owner, itemID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *CartHandler) owner(c *gin.Context) (cart.Owner, bool) {
	owner, ok := middleware.GetCartOwnerFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Cart owner could not be resolved",
		})
		return cart.Owner{}, false
	}
	return owner, true
}
