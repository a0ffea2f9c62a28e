// internal/domain/order/repository.go
package order

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

// ListFilter narrows an order listing
type ListFilter struct {
	UserID *uint
	Status Status
	Page   int
	Limit  int
}

// Repository persists orders
type Repository interface {
	// WithTx returns a repository bound to tx
	WithTx(tx *gorm.DB) Repository
	// Create inserts the order row and its items
	Create(ctx context.Context, o *Order) error
	// FindByID loads the order with items and history
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// FindForUpdate row-locks the order and loads its items
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, int64, error)
	Update(ctx context.Context, o *Order, fields map[string]interface{}) error
	AddHistory(ctx context.Context, entry *OrderStatusHistory) error
}

// GormRepository implements Repository on gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new order repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	return &GormRepository{db: tx}
}

// Create inserts the order and then its items
func (r *GormRepository) Create(ctx context.Context, o *Order) error {
	db := r.db.WithContext(ctx)

	if err := db.Omit(clause.Associations).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	if len(o.Items) > 0 {
		if err := db.Omit("Product").Create(&o.Items).Error; err != nil {
			return fmt.Errorf("failed to create order items: %w", err)
		}
	}
	return nil
}

// FindByID loads an order by id
func (r *GormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("id = ?", id).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

// FindForUpdate locks the order row; status must be re-read under this lock
func (r *GormRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := database.ForUpdate(r.db.WithContext(ctx)).Where("id = ?", id).First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("order", id)
		}
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Order("product_id ASC").
		Find(&o.Items).Error; err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	return &o, nil
}

// List returns a page of orders, newest first
func (r *GormRepository) List(ctx context.Context, filter ListFilter) ([]Order, int64, error) {
	var orders []Order
	var total int64

	query := r.db.WithContext(ctx).Model(&Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (filter.Page - 1) * filter.Limit
	err := query.
		Preload("Items").
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(filter.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return orders, total, nil
}

// Update writes the given columns
func (r *GormRepository) Update(ctx context.Context, o *Order, fields map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(o).Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// AddHistory appends a status history entry
func (r *GormRepository) AddHistory(ctx context.Context, entry *OrderStatusHistory) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create status history: %w", err)
	}
	return nil
}
