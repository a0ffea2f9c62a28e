// internal/domain/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"gorm.io/gorm"
)

// Repository is the stock-facing persistence used by carts and orders
type Repository interface {
	// WithTx returns a repository bound to tx
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uint) (*Product, error)
	// FindForUpdate row-locks the given products in ascending id order
	FindForUpdate(ctx context.Context, ids []uint) (map[uint]*Product, error)
	// DecrementStock subtracts quantity only if enough stock remains;
	// it reports false when the guard rejected the update.
	DecrementStock(ctx context.Context, id uint, quantity int) (bool, error)
	IncrementStock(ctx context.Context, id uint, quantity int) error
}

// GormRepository implements Repository on gorm
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a new product repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx binds the repository to a transaction
func (r *GormRepository) WithTx(tx *gorm.DB) Repository {
	return &GormRepository{db: tx}
}

// FindByID loads a product by id
func (r *GormRepository) FindByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &product, nil
}

// FindForUpdate locks product rows; ids missing from the result no longer exist
func (r *GormRepository) FindForUpdate(ctx context.Context, ids []uint) (map[uint]*Product, error) {
	result := make(map[uint]*Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	sorted := append([]uint(nil), ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var products []Product
	err := database.ForUpdate(r.db.WithContext(ctx)).
		Where("id IN ?", sorted).
		Order("id ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to lock products: %w", err)
	}

	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

// DecrementStock runs UPDATE products SET stock = stock - q WHERE id = ? AND stock >= q
func (r *GormRepository) DecrementStock(ctx context.Context, id uint, quantity int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND stock >= ?", id, quantity).
		UpdateColumn("stock", gorm.Expr("stock - ?", quantity))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// IncrementStock returns units to stock
func (r *GormRepository) IncrementStock(ctx context.Context, id uint, quantity int) error {
	result := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ?", id).
		UpdateColumn("stock", gorm.Expr("stock + ?", quantity))
	if result.Error != nil {
		return fmt.Errorf("failed to restore stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("product", id)
	}
	return nil
}
