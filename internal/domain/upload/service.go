// internal/domain/upload/service.go
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"gorm.io/gorm"
)

const (
	productDir  = "catalog/products"
	extraDir    = "catalog/products/extra"
	categoryDir = "catalog/categories"
)

// File is an uploaded file as received from the client
type File struct {
	Name string
	Body io.Reader
}

// Service attaches uploaded images to products and categories
type Service struct {
	db      *gorm.DB
	storage *Storage
	logger  *logrus.Logger
}

// NewService creates a new upload service
func NewService(db *gorm.DB, storage *Storage, logger *logrus.Logger) *Service {
	return &Service{
		db:      db,
		storage: storage,
		logger:  logger,
	}
}

// SetProductMainImage replaces the product's main image
func (s *Service) SetProductMainImage(ctx context.Context, productID uint, file File) error {
	stored, err := s.storage.Save(productDir, file.Name, file.Body)
	if err != nil {
		return err
	}

	var previous string
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		p, err := lockProduct(tx, productID)
		if err != nil {
			return err
		}
		previous = p.MainImage

		if err := tx.Model(&product.Product{}).Where("id = ?", productID).Update("main_image", stored).Error; err != nil {
			return fmt.Errorf("failed to update main image: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discard(stored)
		return err
	}

	s.logger.WithFields(logrus.Fields{"product_id": productID, "image": stored}).Info("Product main image replaced")
	s.discard(previous)
	return nil
}

// AddProductImage stores an extra image. An ordering of 0 places it after
// the product's current images; negative orderings are rejected.
func (s *Service) AddProductImage(ctx context.Context, productID uint, file File, ordering int) (*product.ProductImage, error) {
	if ordering < 0 {
		return nil, apperr.New(apperr.KindInvalidInput, "upload", "ordering must not be negative")
	}

	stored, err := s.storage.Save(extraDir, file.Name, file.Body)
	if err != nil {
		return nil, err
	}

	img := product.ProductImage{ProductID: productID, Image: stored, Ordering: ordering}
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		// The product lock serialises concurrent appends to the same gallery
		if _, err := lockProduct(tx, productID); err != nil {
			return err
		}

		if img.Ordering == 0 {
			next, err := product.NextImageOrdering(ctx, tx, productID)
			if err != nil {
				return err
			}
			img.Ordering = next
		}

		if err := tx.Create(&img).Error; err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discard(stored)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"product_id": productID,
		"image_id":   img.ID,
		"ordering":   img.Ordering,
	}).Info("Product image added")
	return &img, nil
}

// DeleteProductImage removes one extra image of the product
func (s *Service) DeleteProductImage(ctx context.Context, productID, imageID uint) error {
	var img product.ProductImage
	err := s.db.WithContext(ctx).Where("id = ? AND product_id = ?", imageID, productID).First(&img).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("product image", imageID)
		}
		return fmt.Errorf("failed to load image: %w", err)
	}

	result := s.db.WithContext(ctx).Delete(&product.ProductImage{}, img.ID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete image: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("product image", imageID)
	}

	s.discard(img.Image)
	return nil
}

// SetCategoryImage replaces the category's image
func (s *Service) SetCategoryImage(ctx context.Context, categoryID uint, file File) error {
	stored, err := s.storage.Save(categoryDir, file.Name, file.Body)
	if err != nil {
		return err
	}

	var previous string
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		var c product.Category
		if err := database.ForUpdate(tx).First(&c, categoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("category", categoryID)
			}
			return fmt.Errorf("failed to load category: %w", err)
		}
		previous = c.Image

		if err := tx.Model(&product.Category{}).Where("id = ?", categoryID).Update("image", stored).Error; err != nil {
			return fmt.Errorf("failed to update category image: %w", err)
		}
		return nil
	})
	if err != nil {
		s.discard(stored)
		return err
	}

	s.logger.WithFields(logrus.Fields{"category_id": categoryID, "image": stored}).Info("Category image replaced")
	s.discard(previous)
	return nil
}

func lockProduct(tx *gorm.DB, id uint) (*product.Product, error) {
	var p product.Product
	if err := database.ForUpdate(tx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return &p, nil
}

// discard removes a file nothing refers to; the shared default stays
func (s *Service) discard(path string) {
	if path == "" || path == product.DefaultImage {
		return
	}
	if err := s.storage.Remove(path); err != nil {
		s.logger.WithError(err).WithField("path", path).Warn("Failed to remove image file")
	}
}
