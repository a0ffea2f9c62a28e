// internal/interfaces/http/handlers/order.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/interfaces/http/middleware"
)

// OrderHandler handles order endpoints
type OrderHandler struct {
	orderService *order.Service
	logger       *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService *order.Service, logger *logrus.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// CreateOrder handles POST /orders. Runs behind middleware.CartOwner, so guests can check out.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	owner, ok := middleware.GetCartOwnerFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Cart owner could not be resolved",
		})
		return
	}

	var req order.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	created, err := h.orderService.CreateFromCart(c.Request.Context(), owner, req.Contact())
	if err != nil {
		respondRequestError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data": order.CreatedResponse{
			ID:          created.ID,
			OrderNumber: created.OrderNumber,
		},
	})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.orderService.ListForUser(c.Request.Context(), actorFromContext(c), req.Page, req.Limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    result,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.Get(c.Request.Context(), actorFromContext(c), orderID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    order.NewResponse(o),
	})
}

// EditOrder handles PATCH /orders/:id
func (h *OrderHandler) EditOrder(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req order.EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.Edit(c.Request.Context(), actorFromContext(c), orderID, req.Update())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order updated successfully",
		"data":    order.NewResponse(o),
	})
}

// CancelOrder handles POST /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req order.CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	o, err := h.orderService.Cancel(c.Request.Context(), actorFromContext(c), orderID, req.Reason)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    order.NewResponse(o),
	})
}

// ListAllOrders handles GET /admin/orders
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.orderService.ListAll(c.Request.Context(), actorFromContext(c), order.Status(req.Status), req.Page, req.Limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    result,
	})
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req order.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	o, err := h.orderService.UpdateStatus(c.Request.Context(), actorFromContext(c), orderID, req.Status, req.Comment)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    order.NewResponse(o),
	})
}

func actorFromContext(c *gin.Context) order.Actor {
	userID, _ := middleware.GetUserIDFromContext(c)
	return order.Actor{
		UserID:  userID,
		IsStaff: middleware.IsStaffFromContext(c),
	}
}
