// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/order"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		// User domain - Base tables
		&user.User{},

		// Catalog
		&product.Category{},
		&product.Product{},
		&product.ProductImage{},

		// Cart domain
		&cart.Cart{},
		&cart.CartItem{},

		// Order domain - Dependent tables
		&order.Order{},
		&order.OrderItem{},
		&order.OrderStatusHistory{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	for _, model := range Models() {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed successfully")
	return nil
}

// CreateIndexes creates the constraint indexes the domain relies on, then
// best-effort performance indexes.
func (m *Migration) CreateIndexes() error {
	// One line per product in a cart; detached lines (product deleted) are exempt
	constraints := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_cart_product ON cart_items(cart_id, product_id) WHERE product_id IS NOT NULL",
	}

	for _, indexSQL := range constraints {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			return fmt.Errorf("failed to create constraint index: %w", err)
		}
	}

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_stock ON products(stock)",
		"CREATE INDEX IF NOT EXISTS idx_products_category_price ON products(category_id, price)",
		"CREATE INDEX IF NOT EXISTS idx_product_extra_images_order ON product_extra_images(product_id, ordering)",

		// Cart indexes
		"CREATE INDEX IF NOT EXISTS idx_cart_items_cart_created ON cart_items(cart_id, created_at)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_status_created ON orders(status, created_at DESC)",

		// Order status history indexes
		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at)",
	}

	successCount := 0
	failCount := 0

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("Failed to create index: %v", err)
			failCount++
		} else {
			successCount++
		}
	}

	log.Printf("Created %d indexes successfully (%d failed)", successCount, failCount)
	return nil
}

// SeedInitialData inserts initial data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("Seeding initial data...")

	categories, err := m.seedCategories()
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}

	if err := m.seedUser("staff@example.com", "Store Staff", "Staff#Pass24", true); err != nil {
		return fmt.Errorf("failed to seed staff user: %w", err)
	}

	if err := m.seedUser("customer@example.com", "Test Customer", "Customer#Pass24", false); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}

	if err := m.seedProducts(categories); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	log.Println("Initial data seeded successfully")
	return nil
}

// seedCategories creates default product categories and returns them by slug
func (m *Migration) seedCategories() (map[string]uint, error) {
	defaults := []product.Category{
		{Name: "Lighting", Slug: "lighting", Description: "Lamps and fixtures"},
		{Name: "Furniture", Slug: "furniture", Description: "Desks, chairs and storage"},
		{Name: "Accessories", Slug: "accessories", Description: "Small things for the workspace"},
	}

	ids := make(map[string]uint, len(defaults))
	for _, c := range defaults {
		category := c
		if err := m.db.Where("slug = ?", category.Slug).FirstOrCreate(&category).Error; err != nil {
			return nil, err
		}
		ids[category.Slug] = category.ID
	}

	log.Printf("Seeded %d categories", len(ids))
	return ids, nil
}

func (m *Migration) seedUser(email, fullName, password string, staff bool) error {
	var count int64
	if err := m.db.Model(&user.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Printf("User %s already exists", email)
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u := user.User{
		Email:    email,
		Password: string(hashedPassword),
		FullName: fullName,
		IsActive: true,
		IsStaff:  staff,
	}
	if err := m.db.Create(&u).Error; err != nil {
		return err
	}

	log.Printf("Created user: %s (password: %s)", email, password)
	return nil
}

func (m *Migration) seedProducts(categories map[string]uint) error {
	category := func(slug string) *uint {
		id, ok := categories[slug]
		if !ok {
			return nil
		}
		return &id
	}

	defaults := []product.Product{
		{SKU: "LMP-001", Name: "Desk Lamp", Price: decimal.RequireFromString("100.00"), Discount: 10, Stock: 5, CategoryID: category("lighting")},
		{SKU: "LMP-002", Name: "Floor Lamp", Price: decimal.RequireFromString("249.90"), Stock: 2, CategoryID: category("lighting")},
		{SKU: "CHR-001", Name: "Office Chair", Price: decimal.RequireFromString("399.99"), Discount: 15, Stock: 12, CategoryID: category("furniture")},
		{SKU: "DSK-001", Name: "Standing Desk", Price: decimal.RequireFromString("899.00"), Stock: 0, CategoryID: category("furniture")},
		{SKU: "ACC-001", Name: "Cable Organizer", Price: decimal.RequireFromString("9.99"), Discount: 5, Stock: 100, CategoryID: category("accessories")},
	}

	created := 0
	for _, p := range defaults {
		item := p
		item.Slug = product.Slugify(item.Name + "-" + item.SKU)
		item.AvailableForOrder = true

		var count int64
		if err := m.db.Model(&product.Product{}).Where("sku = ?", item.SKU).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := m.db.Create(&item).Error; err != nil {
			return err
		}
		created++
	}

	log.Printf("Seeded %d products", created)
	return nil
}

// ClearData deletes catalog, cart and order rows but keeps users
func (m *Migration) ClearData() error {
	log.Println("Clearing catalog, cart and order data...")

	tables := []string{
		"order_status_history",
		"order_items",
		"orders",
		"cart_items",
		"carts",
		"product_extra_images",
		"products",
		"categories",
	}

	return m.db.Transaction(func(tx *gorm.DB) error {
		for _, table := range tables {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	log.Println("WARNING: Dropping all database tables...")

	// Define tables in reverse dependency order
	tables := []string{
		"order_status_history",
		"order_items",
		"orders",
		"cart_items",
		"carts",
		"product_extra_images",
		"products",
		"categories",
		"users",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			log.Printf("Failed to drop table %s: %v", table, err)
		} else {
			log.Printf("Dropped table: %s", table)
		}
	}

	return nil
}

// TableCounts returns the row count of every public table
func (m *Migration) TableCounts() (map[string]int64, error) {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(tables))
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = count
	}
	return counts, nil
}
