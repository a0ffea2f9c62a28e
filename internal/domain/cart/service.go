// internal/domain/cart/service.go
package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"github.com/your-org/storefront-api/internal/pkg/metrics"
	"github.com/your-org/storefront-api/internal/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Service handles cart business logic
type Service struct {
	db       *gorm.DB
	carts    Repository
	products product.Repository
	logger   *logrus.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewService creates a new cart service
func NewService(db *gorm.DB, carts Repository, products product.Repository, logger *logrus.Logger, m *metrics.Metrics) *Service {
	return &Service{
		db:       db,
		carts:    carts,
		products: products,
		logger:   logger,
		metrics:  m,
		tracer:   tracing.Tracer("cart"),
	}
}

// MergeResult summarises a guest cart merge
type MergeResult struct {
	Merged  int
	Skipped int
}

// GetCart returns the owner's cart with items, creating an empty one on first access
func (s *Service) GetCart(ctx context.Context, owner Owner) (*Cart, error) {
	cart, err := s.carts.GetOrCreate(ctx, owner)
	if err != nil {
		return nil, err
	}

	items, err := s.carts.Items(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

// ListItems returns the lines of the owner's cart
func (s *Service) ListItems(ctx context.Context, owner Owner) ([]CartItem, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	return cart.Items, nil
}

// AddItem adds quantity units of a product. An existing line for the product grows
// instead of a second line being created; the resulting total is stock-validated.
func (s *Service) AddItem(ctx context.Context, owner Owner, productID uint, quantity int) (item *CartItem, err error) {
	ctx, span := s.tracer.Start(ctx, "cart.AddItem", trace.WithAttributes(
		attribute.Int64("product_id", int64(productID)),
		attribute.Int("quantity", quantity),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		s.metrics.CartMutation("add", err)
	}()

	if quantity < 1 {
		return nil, apperr.New(apperr.KindInvalidQuantity, "cart item", "quantity must be at least 1")
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)

		cart, err := carts.GetOrCreate(ctx, owner)
		if err != nil {
			return err
		}
		if err := carts.Lock(ctx, cart.ID); err != nil {
			return err
		}

		p, err := products.FindByID(ctx, productID)
		if err != nil {
			return err
		}

		existing, err := carts.FindItemByProduct(ctx, cart.ID, productID)
		if err != nil {
			return err
		}

		newQuantity := quantity
		if existing != nil {
			newQuantity += existing.Quantity
		} else {
			existing = &CartItem{CartID: cart.ID, ProductID: &p.ID}
		}

		if err := product.ValidateStock(p, newQuantity, 0); err != nil {
			s.logStockFault(err, p.ID)
			return err
		}

		existing.Quantity = newQuantity
		if err := carts.SaveItem(ctx, existing); err != nil {
			return err
		}

		existing.Product = p
		item = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"cart_id":    item.CartID,
		"product_id": productID,
		"quantity":   item.Quantity,
	}).Debug("Cart item added")

	return item, nil
}

// UpdateItem replaces the quantity of a line; the new absolute quantity is stock-validated
func (s *Service) UpdateItem(ctx context.Context, owner Owner, itemID uuid.UUID, quantity int) (item *CartItem, err error) {
	ctx, span := s.tracer.Start(ctx, "cart.UpdateItem", trace.WithAttributes(
		attribute.String("item_id", itemID.String()),
		attribute.Int("quantity", quantity),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		s.metrics.CartMutation("update", err)
	}()

	if quantity < 1 {
		return nil, apperr.New(apperr.KindInvalidQuantity, "cart item", "quantity must be at least 1")
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		found, err := s.lockedItem(ctx, carts, owner, itemID)
		if err != nil {
			return err
		}

		if err := product.ValidateStock(found.Product, quantity, 0); err != nil {
			if found.ProductID != nil {
				s.logStockFault(err, *found.ProductID)
			}
			return err
		}

		found.Quantity = quantity
		if err := carts.SaveItem(ctx, found); err != nil {
			return err
		}

		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

// RemoveItem deletes a line from the owner's cart
func (s *Service) RemoveItem(ctx context.Context, owner Owner, itemID uuid.UUID) (err error) {
	ctx, span := s.tracer.Start(ctx, "cart.RemoveItem", trace.WithAttributes(
		attribute.String("item_id", itemID.String()),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		s.metrics.CartMutation("remove", err)
	}()

	return database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		found, err := s.lockedItem(ctx, carts, owner, itemID)
		if err != nil {
			return err
		}
		return carts.DeleteItem(ctx, found)
	})
}

// MergeSessionCart moves an anonymous cart into the user's cart on login.
// Lines whose combined quantity fails stock validation keep the user's previous
// quantity; lines whose product was deleted are dropped. The guest cart is removed.
func (s *Service) MergeSessionCart(ctx context.Context, sessionToken string, userID uint) (*MergeResult, error) {
	result := &MergeResult{}
	if sessionToken == "" {
		return result, nil
	}

	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)

		guest, err := carts.FindByOwner(ctx, SessionOwner(sessionToken))
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return nil
			}
			return err
		}

		target, err := carts.GetOrCreate(ctx, UserOwner(userID))
		if err != nil {
			return err
		}

		// Lock in a stable order so two merges never wait on each other
		first, second := guest.ID, target.ID
		if second.String() < first.String() {
			first, second = second, first
		}
		if err := carts.Lock(ctx, first); err != nil {
			return err
		}
		if err := carts.Lock(ctx, second); err != nil {
			return err
		}

		guestItems, err := carts.Items(ctx, guest.ID)
		if err != nil {
			return err
		}

		for i := range guestItems {
			line := &guestItems[i]
			if line.ProductID == nil || line.Product == nil {
				result.Skipped++
				continue
			}

			existing, err := carts.FindItemByProduct(ctx, target.ID, *line.ProductID)
			if err != nil {
				return err
			}

			newQuantity := line.Quantity
			if existing != nil {
				newQuantity += existing.Quantity
			} else {
				existing = &CartItem{CartID: target.ID, ProductID: line.ProductID}
			}

			if err := product.ValidateStock(line.Product, newQuantity, 0); err != nil {
				s.logger.WithError(err).WithFields(logrus.Fields{
					"user_id":    userID,
					"product_id": *line.ProductID,
					"quantity":   newQuantity,
				}).Warn("Guest cart line not merged")
				result.Skipped++
				continue
			}

			existing.Quantity = newQuantity
			if err := carts.SaveItem(ctx, existing); err != nil {
				return err
			}
			result.Merged++
		}

		return carts.Delete(ctx, guest.ID)
	})
	if err != nil {
		return nil, err
	}

	if result.Merged > 0 || result.Skipped > 0 {
		s.logger.WithFields(logrus.Fields{
			"user_id": userID,
			"merged":  result.Merged,
			"skipped": result.Skipped,
		}).Info("Guest cart merged")
	}

	return result, nil
}

// lockedItem resolves the owner's cart, locks it and loads one of its lines
func (s *Service) lockedItem(ctx context.Context, carts Repository, owner Owner, itemID uuid.UUID) (*CartItem, error) {
	cart, err := carts.FindByOwner(ctx, owner)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, apperr.NotFound("cart item", itemID)
		}
		return nil, err
	}
	if err := carts.Lock(ctx, cart.ID); err != nil {
		return nil, err
	}
	return carts.FindItem(ctx, cart.ID, itemID)
}

func (s *Service) logStockFault(err error, productID uint) {
	if apperr.KindOf(err) == apperr.KindInvalidStockState {
		s.logger.WithError(err).WithField("product_id", productID).Error("Product has invalid stock state")
	}
}
