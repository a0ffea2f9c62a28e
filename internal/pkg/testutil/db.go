// Package testutil provides an in-memory database and fixtures for service tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"github.com/your-org/storefront-api/internal/infrastructure/database/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory SQLite database migrated with the
// production schema. It is closed when t finishes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	require.NoError(t, err)

	migration := postgres.NewMigration(db)
	require.NoError(t, migration.RunAutoMigrations())
	require.NoError(t, migration.CreateIndexes())

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// ProductOption customises a fixture product
type ProductOption func(*product.Product)

// WithDiscount sets the discount percentage
func WithDiscount(discount int) ProductOption {
	return func(p *product.Product) { p.Discount = discount }
}

// NotOrderable marks the product unavailable for order
func NotOrderable() ProductOption {
	return func(p *product.Product) { p.AvailableForOrder = false }
}

// InCategory attaches the product to a category
func InCategory(id uint) ProductOption {
	return func(p *product.Product) { p.CategoryID = &id }
}

// CreateProduct inserts an orderable product with the given price and stock
func CreateProduct(t *testing.T, db *gorm.DB, sku, price string, stock int, opts ...ProductOption) *product.Product {
	t.Helper()

	p := &product.Product{
		SKU:               sku,
		Name:              "Product " + sku,
		Slug:              product.Slugify("product-" + sku),
		Price:             decimal.RequireFromString(price),
		Stock:             stock,
		AvailableForOrder: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateCategory inserts a category
func CreateCategory(t *testing.T, db *gorm.DB, name string) *product.Category {
	t.Helper()

	c := &product.Category{Name: name, Slug: product.Slugify(name)}
	require.NoError(t, db.Create(c).Error)
	return c
}

// CreateUser inserts an active user; the password hash is not a real bcrypt hash
func CreateUser(t *testing.T, db *gorm.DB, email string, staff bool) *user.User {
	t.Helper()

	u := &user.User{
		Email:    email,
		Password: "not-a-hash",
		FullName: "Test " + email,
		IsActive: true,
		IsStaff:  staff,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// ReloadProduct re-reads a product row
func ReloadProduct(t *testing.T, db *gorm.DB, id uint) *product.Product {
	t.Helper()

	var p product.Product
	require.NoError(t, db.First(&p, id).Error)
	return &p
}

// Count returns the row count of model's table
func Count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
