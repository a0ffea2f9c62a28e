// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/domain/product"
	"gorm.io/gorm"
)

// Status represents the order status
type Status string

const (
	StatusNew        Status = "new"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var validTransitions = map[Status][]Status{
	StatusNew:        {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusCompleted, StatusCancelled},
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo checks the status machine
func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order is an immutable record of a checkout. Only the contact fields and status change afterwards.
type Order struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber string     `gorm:"uniqueIndex;not null;size:32" json:"order_number"`
	CartID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"cart_id"`
	UserID      *uint      `gorm:"index" json:"user_id"` // Nullable for anonymous orders
	FullName    string     `gorm:"not null;size:255" json:"full_name"`
	Phone       string     `gorm:"not null;size:32" json:"phone"`
	Email       string     `gorm:"size:255" json:"email"`
	Status      Status     `gorm:"not null;size:20;default:'new';index" json:"status"`
	Notes       string     `gorm:"type:text" json:"notes"`
	ProcessedAt *time.Time `json:"processed_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Relationships
	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a product line with the unit price captured at checkout
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_order_items_order_product" json:"order_id"`
	ProductID uint            `gorm:"not null;index;uniqueIndex:idx_order_items_order_product" json:"product_id"`
	SKU       string          `gorm:"not null;size:50" json:"sku"`
	Name      string          `gorm:"not null;size:200" json:"name"`
	Quantity  int             `gorm:"not null;check:quantity >= 1" json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"created_at"`

	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	Status    Status    `gorm:"not null;size:20" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedBy *uint     `gorm:"index" json:"created_by"` // User ID who made the change
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// BeforeCreate assigns the id and the human-readable order number
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.OrderNumber == "" {
		o.OrderNumber = GenerateOrderNumber(o.ID, time.Now().UTC())
	}
	return nil
}

// BeforeCreate assigns a UUID primary key
func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// GenerateOrderNumber formats ORD-YYYYMMDD-XXXXXXXX from the order id
func GenerateOrderNumber(id uuid.UUID, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), suffix)
}

// LineTotal is the captured price times quantity
func (i *OrderItem) LineTotal() decimal.Decimal {
	return product.LineTotal(i.Price, i.Quantity)
}

// Total sums the line totals; it is derived, never stored
func (o *Order) Total() decimal.Decimal {
	lines := make([]decimal.Decimal, 0, len(o.Items))
	for i := range o.Items {
		lines = append(lines, o.Items[i].LineTotal())
	}
	return product.SumMoney(lines...)
}

// CheckCancellable returns the reason the order cannot be cancelled, if any
func (o *Order) CheckCancellable() error {
	switch o.Status {
	case StatusCancelled:
		return apperr.New(apperr.KindAlreadyCancelled, "order", "order %s is already cancelled", o.OrderNumber)
	case StatusCompleted:
		return apperr.New(apperr.KindNotCancellable, "order", "completed order %s cannot be cancelled", o.OrderNumber)
	}
	return nil
}

// CheckEditable returns the reason the contact details cannot change, if any
func (o *Order) CheckEditable() error {
	if o.Status.IsTerminal() {
		return apperr.New(apperr.KindNotEditable, "order", "order %s in status %s cannot be edited", o.OrderNumber, o.Status)
	}
	return nil
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID uint) bool {
	return o.UserID != nil && *o.UserID == userID
}
