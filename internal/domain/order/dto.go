// internal/domain/order/dto.go
package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-api/internal/domain/product"
)

// CreateRequest represents checkout contact data
type CreateRequest struct {
	FullName string `json:"full_name" binding:"required,max=255"`
	Phone    string `json:"phone" binding:"required,max=32"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
}

// EditRequest represents a partial contact update
type EditRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,max=255"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
	Email    *string `json:"email" binding:"omitempty,max=255"`
}

// CancelRequest carries an optional cancellation reason
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// StatusUpdateRequest represents a staff status change
type StatusUpdateRequest struct {
	Status  Status `json:"status" binding:"required"`
	Comment string `json:"comment" binding:"max=1000"`
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status string `form:"status"`
}

// Contact converts the request into domain contact data
func (r *CreateRequest) Contact() Contact {
	return Contact{FullName: r.FullName, Phone: r.Phone, Email: r.Email}
}

// Update converts the request into a domain contact update
func (r *EditRequest) Update() ContactUpdate {
	return ContactUpdate{FullName: r.FullName, Phone: r.Phone, Email: r.Email}
}

// CreatedResponse is returned by checkout
type CreatedResponse struct {
	ID          uuid.UUID `json:"id"`
	OrderNumber string    `json:"order_number"`
}

// ItemResponse is one order line
type ItemResponse struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uint      `json:"product_id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Quantity   int       `json:"quantity"`
	Price      string    `json:"price"`
	TotalPrice string    `json:"total_price"`
}

// HistoryResponse is one status history entry
type HistoryResponse struct {
	Status    Status    `json:"status"`
	Comment   string    `json:"comment"`
	CreatedBy *uint     `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is the view of an order
type Response struct {
	ID            uuid.UUID         `json:"id"`
	OrderNumber   string            `json:"order_number"`
	Status        Status            `json:"status"`
	FullName      string            `json:"full_name"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	Notes         string            `json:"notes,omitempty"`
	Items         []ItemResponse    `json:"items"`
	TotalPrice    string            `json:"total_price"`
	StatusHistory []HistoryResponse `json:"status_history,omitempty"`
	ProcessedAt   *time.Time        `json:"processed_at,omitempty"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty"`
	CancelledAt   *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ListResponse is a page of orders
type ListResponse struct {
	Orders     []Response         `json:"orders"`
	Pagination product.Pagination `json:"pagination"`
}

// NewResponse builds the view of o
func NewResponse(o *Order) Response {
	items := make([]ItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, ItemResponse{
			ID:         item.ID,
			ProductID:  item.ProductID,
			SKU:        item.SKU,
			Name:       item.Name,
			Quantity:   item.Quantity,
			Price:      product.FormatMoney(item.Price),
			TotalPrice: product.FormatMoney(item.LineTotal()),
		})
	}

	var history []HistoryResponse
	for _, h := range o.StatusHistory {
		history = append(history, HistoryResponse{
			Status:    h.Status,
			Comment:   h.Comment,
			CreatedBy: h.CreatedBy,
			CreatedAt: h.CreatedAt,
		})
	}

	return Response{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		FullName:      o.FullName,
		Phone:         o.Phone,
		Email:         o.Email,
		Notes:         o.Notes,
		Items:         items,
		TotalPrice:    product.FormatMoney(o.Total()),
		StatusHistory: history,
		ProcessedAt:   o.ProcessedAt,
		CompletedAt:   o.CompletedAt,
		CancelledAt:   o.CancelledAt,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}
