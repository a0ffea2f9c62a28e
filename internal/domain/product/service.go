// internal/domain/product/service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"gorm.io/gorm"
)

// ImageStore removes stored image files
type ImageStore interface {
	Remove(path string) error
}

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	logger *logrus.Logger
	images ImageStore
}

// NewService creates a new product service
func NewService(db *gorm.DB, logger *logrus.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger,
	}
}

// WithImageStore makes DeleteProduct remove the product's image files
func (s *Service) WithImageStore(images ImageStore) *Service {
	s.images = images
	return s
}

func preloadImages(db *gorm.DB) *gorm.DB {
	return db.Order("ordering ASC, id ASC")
}

// GetProducts retrieves products with filtering, ordering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductListResponse, error) {
	var products []Product
	var total int64

	page, limit := NormalizePage(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Product{}).Preload("Category")

	// Apply filters
	if req.Category != "" {
		query = query.Where("category_id IN (?)",
			s.db.Model(&Category{}).Select("id").Where("slug = ?", req.Category))
	}

	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(sku) LIKE ?", search, search, search)
	}

	if req.MinPrice != "" {
		min, err := decimal.NewFromString(req.MinPrice)
		if err != nil {
			return nil, apperr.New(apperr.KindInvalidInput, "product", "min_price must be a number")
		}
		query = query.Where("price >= ?", min)
	}

	if req.MaxPrice != "" {
		max, err := decimal.NewFromString(req.MaxPrice)
		if err != nil {
			return nil, apperr.New(apperr.KindInvalidInput, "product", "max_price must be a number")
		}
		query = query.Where("price <= ?", max)
	}

	if req.InStock != nil {
		if *req.InStock {
			query = query.Where("stock > 0")
		} else {
			query = query.Where("stock = 0")
		}
	}

	// Count total records
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	// Apply sorting and pagination
	offset := (page - 1) * limit
	err := query.Order(buildOrderClause(req.Ordering)).
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, NewProductResponse(&products[i]))
	}

	return &ProductListResponse{
		Products:   items,
		Pagination: NewPagination(page, limit, total),
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").Preload("Images", preloadImages).First(&product, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// GetProductBySlug retrieves a single product by slug
func (s *Service) GetProductBySlug(ctx context.Context, slug string) (*Product, error) {
	var product Product
	err := s.db.WithContext(ctx).Preload("Category").Preload("Images", preloadImages).Where("slug = ?", slug).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product", slug)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	if req.Price.IsNegative() {
		return nil, apperr.New(apperr.KindInvalidInput, "product", "price must not be negative")
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&Product{}).Where("sku = ?", req.SKU).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check sku: %w", err)
	}
	if count > 0 {
		return nil, apperr.New(apperr.KindConflict, "product", "product with SKU %s already exists", req.SKU)
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(req.Name + "-" + req.SKU)
	}

	if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	orderable := true
	if req.AvailableForOrder != nil {
		orderable = *req.AvailableForOrder
	}

	product := Product{
		SKU:               req.SKU,
		Name:              strings.TrimSpace(req.Name),
		Slug:              slug,
		Description:       req.Description,
		Price:             RoundMoney(req.Price),
		Discount:          req.Discount,
		Stock:             req.Stock,
		AvailableForOrder: orderable,
		CategoryID:        req.CategoryID,
	}

	if err := db.Create(&product).Error; err != nil {
		return nil, database.Classify(fmt.Errorf("failed to create product: %w", err))
	}

	return s.GetProduct(ctx, product.ID)
}

// UpdateProduct applies a partial update
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apperr.New(apperr.KindInvalidInput, "product", "price must not be negative")
		}
		updates["price"] = RoundMoney(*req.Price)
	}
	if req.Discount != nil {
		updates["discount"] = *req.Discount
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.AvailableForOrder != nil {
		updates["available_for_order"] = *req.AvailableForOrder
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
			return nil, database.Classify(fmt.Errorf("failed to update product: %w", err))
		}
	}

	return s.GetProduct(ctx, id)
}

// DeleteProduct removes a product. Products referenced by orders are protected;
// cart lines pointing at the product are detached and later surface as unavailable.
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	var detachedItems int64
	var files []string
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var ordered int64
		if err := tx.Table("order_items").Where("product_id = ?", id).Count(&ordered).Error; err != nil {
			return fmt.Errorf("failed to check order references: %w", err)
		}
		if ordered > 0 {
			return apperr.New(apperr.KindConflict, "product",
				"product %d is referenced by %d order items and cannot be deleted", id, ordered)
		}

		detached := tx.Table("cart_items").Where("product_id = ?", id).Update("product_id", nil)
		if detached.Error != nil {
			return fmt.Errorf("failed to detach cart items: %w", detached.Error)
		}

		if err := tx.Model(&ProductImage{}).Where("product_id = ?", id).Pluck("image", &files).Error; err != nil {
			return fmt.Errorf("failed to list product images: %w", err)
		}
		if err := tx.Where("product_id = ?", id).Delete(&ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete product images: %w", err)
		}

		var mainImages []string
		if err := tx.Model(&Product{}).Where("id = ?", id).Pluck("main_image", &mainImages).Error; err != nil {
			return fmt.Errorf("failed to load product: %w", err)
		}

		result := tx.Delete(&Product{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("product", id)
		}

		files = append(files, mainImages...)
		detachedItems = detached.RowsAffected
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id":          id,
		"detached_cart_items": detachedItems,
	}).Info("Product deleted")

	s.removeFiles(files)
	return nil
}

// removeFiles deletes image files no row points at any more; the shared
// default image is never removed
func (s *Service) removeFiles(paths []string) {
	if s.images == nil {
		return
	}
	for _, path := range paths {
		if path == "" || path == DefaultImage {
			continue
		}
		if err := s.images.Remove(path); err != nil {
			s.logger.WithError(err).WithField("path", path).Warn("Failed to remove image file")
		}
	}
}

func (s *Service) ensureCategory(ctx context.Context, id *uint) error {
	if id == nil {
		return nil
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&Category{}).Where("id = ?", *id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check category: %w", err)
	}
	if count == 0 {
		return apperr.New(apperr.KindInvalidInput, "product", "category %d does not exist", *id)
	}
	return nil
}

// buildOrderClause maps the public ordering parameter to an ORDER BY clause
func buildOrderClause(ordering string) string {
	validSortFields := map[string]bool{
		"price":    true,
		"sku":      true,
		"discount": true,
		"stock":    true,
	}

	direction := "ASC"
	field := ordering
	if strings.HasPrefix(field, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(field, "-")
	}

	if !validSortFields[field] {
		return "id ASC"
	}

	return fmt.Sprintf("%s %s, id ASC", field, direction)
}
