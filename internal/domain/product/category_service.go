// internal/domain/product/category_service.go
package product

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"gorm.io/gorm"
)

// CategoryService handles category business logic
type CategoryService struct {
	db     *gorm.DB
	images ImageStore
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB) *CategoryService {
	return &CategoryService{db: db}
}

// WithImageStore makes DeleteCategory remove the category's image file
func (s *CategoryService) WithImageStore(images ImageStore) *CategoryService {
	s.images = images
	return s
}

// GetCategories retrieves all categories with their product counts
func (s *CategoryService) GetCategories(ctx context.Context) ([]CategoryResponse, error) {
	var categories []Category
	if err := s.db.WithContext(ctx).Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}

	var counts []struct {
		CategoryID uint
		Total      int64
	}
	err := s.db.WithContext(ctx).Model(&Product{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IS NOT NULL").
		Group("category_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	byCategory := make(map[uint]int64, len(counts))
	for _, c := range counts {
		byCategory[c.CategoryID] = c.Total
	}

	result := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		result = append(result, NewCategoryResponse(&categories[i], byCategory[categories[i].ID]))
	}
	return result, nil
}

// GetCategoryBySlug retrieves a category by slug
func (s *CategoryService) GetCategoryBySlug(ctx context.Context, slug string) (*CategoryResponse, error) {
	var category Category
	if err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category", slug)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return s.toResponse(ctx, &category)
}

// GetCategory retrieves a category by id
func (s *CategoryService) GetCategory(ctx context.Context, id uint) (*CategoryResponse, error) {
	var category Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category", id)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return s.toResponse(ctx, &category)
}

// CreateCategory creates a category; the name is trimmed and capitalised
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryCreateRequest) (*CategoryResponse, error) {
	name := capitalize(req.Name)
	if name == "" {
		return nil, apperr.New(apperr.KindInvalidInput, "category", "name must not be blank")
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&Category{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if count > 0 {
		return nil, apperr.New(apperr.KindConflict, "category", "category with slug %s already exists", slug)
	}

	category := Category{
		Name:        name,
		Slug:        slug,
		Description: req.Description,
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, database.Classify(fmt.Errorf("failed to create category: %w", err))
	}

	return s.toResponse(ctx, &category)
}

// UpdateCategory applies a partial update
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryUpdateRequest) (*CategoryResponse, error) {
	var category Category
	if err := s.db.WithContext(ctx).First(&category, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("category", id)
		}
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		name := capitalize(*req.Name)
		if name == "" {
			return nil, apperr.New(apperr.KindInvalidInput, "category", "name must not be blank")
		}
		updates["name"] = name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(&category).Updates(updates).Error; err != nil {
			return nil, database.Classify(fmt.Errorf("failed to update category: %w", err))
		}
	}

	return s.toResponse(ctx, &category)
}

// DeleteCategory removes a category; its products become uncategorised
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	var images []string
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		if err := tx.Model(&Category{}).Where("id = ?", id).Pluck("image", &images).Error; err != nil {
			return fmt.Errorf("failed to load category: %w", err)
		}

		if err := tx.Model(&Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach products: %w", err)
		}

		result := tx.Delete(&Category{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete category: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.NotFound("category", id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.images != nil {
		for _, path := range images {
			if path != "" && path != DefaultImage {
				// best effort; the row is already gone
				_ = s.images.Remove(path)
			}
		}
	}
	return nil
}

func (s *CategoryService) toResponse(ctx context.Context, c *Category) (*CategoryResponse, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Product{}).Where("category_id = ?", c.ID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	resp := NewCategoryResponse(c, count)
	return &resp, nil
}
