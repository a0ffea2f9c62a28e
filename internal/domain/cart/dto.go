// internal/domain/cart/dto.go
package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-api/internal/domain/product"
)

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"` // validated by the service as InvalidQuantity
}

// UpdateItemRequest represents update cart item request
type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// ItemProduct is the product as shown inside a cart line
type ItemProduct struct {
	ID                 uint                       `json:"id"`
	SKU                string                     `json:"sku"`
	Name               string                     `json:"name"`
	Slug               string                     `json:"slug"`
	Stock              int                        `json:"stock"`
	AvailabilityStatus product.AvailabilityStatus `json:"availability_status"`
}

// ItemResponse represents a cart line
type ItemResponse struct {
	ID          uuid.UUID    `json:"id"`
	Product     *ItemProduct `json:"product"`
	Quantity    int          `json:"quantity"`
	Price       string       `json:"price"`
	TotalPrice  string       `json:"total_price"`
	IsAvailable bool         `json:"is_available"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Response represents a cart with its lines and total
type Response struct {
	ID         uuid.UUID      `json:"id"`
	Items      []ItemResponse `json:"items"`
	TotalItems int            `json:"total_items"`
	TotalPrice string         `json:"total_price"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// NewItemResponse builds the view of one line
func NewItemResponse(item *CartItem) ItemResponse {
	resp := ItemResponse{
		ID:          item.ID,
		Quantity:    item.Quantity,
		Price:       product.FormatMoney(item.UnitPrice()),
		TotalPrice:  product.FormatMoney(item.LineTotal()),
		IsAvailable: item.IsAvailable(),
		CreatedAt:   item.CreatedAt,
	}
	if p := item.Product; p != nil {
		resp.Product = &ItemProduct{
			ID:                 p.ID,
			SKU:                p.SKU,
			Name:               p.Name,
			Slug:               p.Slug,
			Stock:              p.Stock,
			AvailabilityStatus: p.Availability(),
		}
	}
	return resp
}

// NewItemsResponse builds the views of several lines
func NewItemsResponse(items []CartItem) []ItemResponse {
	result := make([]ItemResponse, 0, len(items))
	for i := range items {
		result = append(result, NewItemResponse(&items[i]))
	}
	return result
}

// NewResponse builds the view of a cart whose items are loaded
func NewResponse(c *Cart) Response {
	totalItems := 0
	for _, item := range c.Items {
		totalItems += item.Quantity
	}
	return Response{
		ID:         c.ID,
		Items:      NewItemsResponse(c.Items),
		TotalItems: totalItems,
		TotalPrice: product.FormatMoney(c.Total()),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
