// internal/domain/cart/repository.go
package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists carts and their items
type Repository interface {
	// WithTx returns a repository bound to tx
	WithTx(tx *gorm.DB) Repository
	// FindByOwner returns the owner's cart or a NotFound error
	FindByOwner(ctx context.Context, owner Owner) (*Cart, error)
	// GetOrCreate returns the owner's cart, creating it if absent
	GetOrCreate(ctx context.Context, owner Owner) (*Cart, error)
	// Lock takes a row lock on the cart for the rest of the transaction
	Lock(ctx context.Context, cartID uuid.UUID) error
	// Items returns the cart lines with their products, oldest first
	Items(ctx context.Context, cartID uuid.UUID) ([]CartItem, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartItem, error)
	FindItemByProduct(ctx context.Context, cartID uuid.UUID, productID uint) (*CartItem, error)
	SaveItem(ctx context.Context, item *CartItem) error
	DeleteItem(ctx context.Context, item *CartItem) error
	ClearItems(ctx context.Context, cartID uuid.UUID) (int64, error)
	Delete(ctx context.Context, cartID uuid.UUID) error
}

// GormRepository implements Repository on gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new cart repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	return &GormRepository{db: tx}
}

func ownerScope(owner Owner) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if owner.UserID != nil {
			return db.Where("user_id = ?", *owner.UserID)
		}
		return db.Where("session_token = ?", owner.SessionToken)
	}
}

// FindByOwner loads the cart that belongs to owner
func (r *GormRepository) FindByOwner(ctx context.Context, owner Owner) (*Cart, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	var cart Cart
	err := r.db.WithContext(ctx).Scopes(ownerScope(owner)).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "cart", "cart not found")
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &cart, nil
}

// GetOrCreate is idempotent per owner; a concurrent creator wins and both callers see the same row
func (r *GormRepository) GetOrCreate(ctx context.Context, owner Owner) (*Cart, error) {
	cart, err := r.FindByOwner(ctx, owner)
	if err == nil {
		return cart, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	cart = &Cart{UserID: owner.UserID}
	if !owner.IsUser() {
		token := owner.SessionToken
		cart.SessionToken = &token
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(cart).Error; err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.FindByOwner(ctx, owner)
}

// Lock issues SELECT ... FOR UPDATE on the cart row
func (r *GormRepository) Lock(ctx context.Context, cartID uuid.UUID) error {
	var cart Cart
	err := database.ForUpdate(r.db.WithContext(ctx)).Select("id").Where("id = ?", cartID).First(&cart).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("cart", cartID)
		}
		return fmt.Errorf("failed to lock cart: %w", err)
	}
	return nil
}

// Items loads every line of the cart with its product
func (r *GormRepository) Items(ctx context.Context, cartID uuid.UUID) ([]CartItem, error) {
	var items []CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("cart_id = ?", cartID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	return items, nil
}

// FindItem loads an item only if it belongs to cartID
func (r *GormRepository) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*CartItem, error) {
	var item CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND cart_id = ?", itemID, cartID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("cart item", itemID)
		}
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	return &item, nil
}

// FindItemByProduct returns the line for productID, or nil when the cart has none
func (r *GormRepository) FindItemByProduct(ctx context.Context, cartID uuid.UUID, productID uint) (*CartItem, error) {
	var items []CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load cart item: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// SaveItem inserts or updates a line without touching its product
func (r *GormRepository) SaveItem(ctx context.Context, item *CartItem) error {
	if err := r.db.WithContext(ctx).Omit("Product").Save(item).Error; err != nil {
		return fmt.Errorf("failed to save cart item: %w", err)
	}
	return nil
}

// DeleteItem removes a line
func (r *GormRepository) DeleteItem(ctx context.Context, item *CartItem) error {
	if err := r.db.WithContext(ctx).Delete(&CartItem{}, "id = ?", item.ID).Error; err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// ClearItems deletes every line of the cart and reports how many were removed
func (r *GormRepository) ClearItems(ctx context.Context, cartID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("cart_id = ?", cartID).Delete(&CartItem{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear cart: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Delete removes the cart together with its items
func (r *GormRepository) Delete(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.ClearItems(ctx, cartID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&Cart{}, "id = ?", cartID).Error; err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
