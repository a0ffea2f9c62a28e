// internal/domain/cart/entity.go
package cart

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"gorm.io/gorm"
)

// Owner identifies who a cart belongs to: exactly one of UserID or SessionToken is set
type Owner struct {
	UserID       *uint
	SessionToken string
}

// UserOwner returns the owner for an authenticated user
func UserOwner(userID uint) Owner {
	return Owner{UserID: &userID}
}

// SessionOwner returns the owner for an anonymous session
func SessionOwner(token string) Owner {
	return Owner{SessionToken: token}
}

// IsUser reports whether the owner is an authenticated user
func (o Owner) IsUser() bool {
	return o.UserID != nil
}

// Validate enforces that exactly one identity is present
func (o Owner) Validate() error {
	hasUser := o.UserID != nil
	hasSession := o.SessionToken != ""
	if hasUser == hasSession {
		return apperr.New(apperr.KindInvalidInput, "cart", "cart owner must be either a user or a session")
	}
	return nil
}

func (o Owner) String() string {
	if o.UserID != nil {
		return fmt.Sprintf("user:%d", *o.UserID)
	}
	return "session:" + o.SessionToken
}

// Cart is one shopping cart per owner
type Cart struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       *uint     `gorm:"uniqueIndex;check:chk_carts_owner,user_id IS NOT NULL OR session_token IS NOT NULL" json:"user_id,omitempty"`
	SessionToken *string   `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	User  *user.User `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Items []CartItem `gorm:"foreignKey:CartID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items,omitempty"`
}

// CartItem is one product line in a cart. ProductID becomes nil when the product is deleted.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CartID    uuid.UUID `gorm:"type:uuid;not null;index" json:"cart_id"`
	ProductID *uint     `gorm:"index" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity >= 1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Product *product.Product `gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"product,omitempty"`
}

// TableName overrides
func (Cart) TableName() string     { return "carts" }
func (CartItem) TableName() string { return "cart_items" }

// BeforeCreate assigns a UUID primary key
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// BeforeCreate assigns a UUID primary key
func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Owner returns the identity the cart was created for
func (c *Cart) Owner() Owner {
	if c.UserID != nil {
		return UserOwner(*c.UserID)
	}
	if c.SessionToken != nil {
		return SessionOwner(*c.SessionToken)
	}
	return Owner{}
}

// Total is the sum of the line totals
func (c *Cart) Total() decimal.Decimal {
	return Total(c.Items)
}

// Total sums line totals of items
func Total(items []CartItem) decimal.Decimal {
	lines := make([]decimal.Decimal, 0, len(items))
	for i := range items {
		lines = append(lines, items[i].LineTotal())
	}
	return product.SumMoney(lines...)
}

// IsAvailable reports whether the line's product still exists and can be ordered
func (i *CartItem) IsAvailable() bool {
	return i.Product != nil && i.Product.AvailableForOrder
}

// UnitPrice is the product's actual price, or zero when it cannot be ordered
func (i *CartItem) UnitPrice() decimal.Decimal {
	return product.UnitPrice(i.Product)
}

// LineTotal is unit price times quantity
func (i *CartItem) LineTotal() decimal.Decimal {
	return product.LineTotal(i.UnitPrice(), i.Quantity)
}
