// internal/domain/order/service.go
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/database"
	"github.com/your-org/storefront-api/internal/pkg/metrics"
	"github.com/your-org/storefront-api/internal/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// Actor is the authenticated caller of an order operation
type Actor struct {
	UserID  uint
	IsStaff bool
}

// Service handles order business logic
type Service struct {
	db        *gorm.DB
	orders    Repository
	carts     cart.Repository
	products  product.Repository
	publisher EventPublisher
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewService creates a new order service
func NewService(
	db *gorm.DB,
	orders Repository,
	carts cart.Repository,
	products product.Repository,
	publisher EventPublisher,
	logger *logrus.Logger,
	m *metrics.Metrics,
) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	return &Service{
		db:        db,
		orders:    orders,
		carts:     carts,
		products:  products,
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		tracer:    tracing.Tracer("order"),
	}
}

// CreateFromCart converts the owner's cart into an order. In one transaction it
// locks the cart and its products, validates every line, captures prices,
// decrements stock and empties the cart. Any failure leaves everything untouched.
func (s *Service) CreateFromCart(ctx context.Context, owner cart.Owner, contact Contact) (created *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.CreateFromCart", trace.WithAttributes(
		attribute.String("owner", ownerKind(owner)),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		s.metrics.OrderOperation("checkout", err)
	}()

	contact, err = contact.Normalize()
	if err != nil {
		return nil, err
	}

	units := 0
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)
		orders := s.orders.WithTx(tx)

		c, err := carts.FindByOwner(ctx, owner)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return apperr.New(apperr.KindNotFound, "cart", "no cart to check out")
			}
			return err
		}
		if err := carts.Lock(ctx, c.ID); err != nil {
			return err
		}

		items, err := carts.Items(ctx, c.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return apperr.New(apperr.KindEmptyCart, "cart", "cart is empty")
		}

		ids := make([]uint, 0, len(items))
		for _, item := range items {
			// A detached line fails the checkout; the shopper removes it explicitly
			if item.ProductID == nil {
				return apperr.New(apperr.KindUnavailable, "product", "a product in the cart is no longer available")
			}
			ids = append(ids, *item.ProductID)
		}

		locked, err := products.FindForUpdate(ctx, ids)
		if err != nil {
			return err
		}

		o := &Order{
			CartID:   c.ID,
			UserID:   owner.UserID,
			FullName: contact.FullName,
			Phone:    contact.Phone,
			Email:    contact.Email,
			Status:   StatusNew,
			Items:    make([]OrderItem, 0, len(items)),
		}

		for _, item := range items {
			p := locked[*item.ProductID]
			if err := product.ValidateStock(p, item.Quantity, 0); err != nil {
				if apperr.KindOf(err) == apperr.KindInvalidStockState {
					s.logger.WithError(err).WithField("product_id", *item.ProductID).Error("Product has invalid stock state")
				}
				return err
			}

			o.Items = append(o.Items, OrderItem{
				ProductID: p.ID,
				SKU:       p.SKU,
				Name:      p.Name,
				Quantity:  item.Quantity,
				Price:     p.ActualPrice(),
			})
		}

		if err := orders.Create(ctx, o); err != nil {
			return err
		}

		for _, item := range o.Items {
			applied, err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !applied {
				// Only reachable without row locks; report what is left now
				current, err := products.FindByID(ctx, item.ProductID)
				if err != nil {
					return err
				}
				return apperr.InsufficientStock(item.Name, current.Stock, item.Quantity)
			}
			units += item.Quantity
		}

		if _, err := carts.ClearItems(ctx, c.ID); err != nil {
			return err
		}

		if err := orders.AddHistory(ctx, &OrderStatusHistory{
			OrderID:   o.ID,
			Status:    StatusNew,
			Comment:   "Order created",
			CreatedBy: owner.UserID,
		}); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockDecremented(units)
	span.SetAttributes(attribute.String("order_id", created.ID.String()))

	s.logger.WithFields(logrus.Fields{
		"order_id":     created.ID,
		"order_number": created.OrderNumber,
		"cart_id":      created.CartID,
		"items":        len(created.Items),
		"total":        product.FormatMoney(created.Total()),
	}).Info("Order created")

	s.publish(ctx, NewEvent(EventOrderCreated, created, ""))

	return created, nil
}

// Cancel moves an order to cancelled and returns its items to stock.
// Only staff may cancel; the reason, when given, is appended to the notes.
func (s *Service) Cancel(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (cancelled *Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.Cancel", trace.WithAttributes(
		attribute.String("order_id", orderID.String()),
	))
	defer func() {
		tracing.RecordError(span, err)
		span.End()
		s.metrics.OrderOperation("cancel", err)
	}()

	if !actor.IsStaff {
		return nil, apperr.New(apperr.KindForbidden, "order", "only staff can cancel orders")
	}

	return s.cancel(ctx, actor, orderID, reason)
}

func (s *Service) cancel(ctx context.Context, actor Actor, orderID uuid.UUID, reason string) (*Order, error) {
	units := 0
	err := database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)
		products := s.products.WithTx(tx)

		o, err := orders.FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.CheckCancellable(); err != nil {
			return err
		}

		for _, item := range o.Items {
			if err := products.IncrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			units += item.Quantity
		}

		now := time.Now().UTC()
		fields := map[string]interface{}{
			"status":       StatusCancelled,
			"cancelled_at": now,
		}
		if reason != "" {
			fields["notes"] = appendNote(o.Notes, "Cancellation reason: "+reason)
		}
		if err := orders.Update(ctx, o, fields); err != nil {
			return err
		}

		comment := "Order cancelled"
		if reason != "" {
			comment = fmt.Sprintf("Order cancelled: %s", reason)
		}
		return orders.AddHistory(ctx, &OrderStatusHistory{
			OrderID:   o.ID,
			Status:    StatusCancelled,
			Comment:   comment,
			CreatedBy: &actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.StockRestored(units)

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":     o.ID,
		"order_number": o.OrderNumber,
		"cancelled_by": actor.UserID,
		"units":        units,
	}).Info("Order cancelled")

	s.publish(ctx, NewEvent(EventOrderCancelled, o, reason))

	return o, nil
}

// Edit changes the contact fields of a non-terminal order. Owners and staff only.
func (s *Service) Edit(ctx context.Context, actor Actor, orderID uuid.UUID, update ContactUpdate) (edited *Order, err error) {
	defer func() { s.metrics.OrderOperation("edit", err) }()

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)

		o, err := orders.FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !actor.IsStaff && !o.IsOwnedBy(actor.UserID) {
			return apperr.New(apperr.KindForbidden, "order", "you may only edit your own orders")
		}
		if err := o.CheckEditable(); err != nil {
			return err
		}

		contact := Contact{FullName: o.FullName, Phone: o.Phone, Email: o.Email}
		if update.FullName != nil {
			contact.FullName = *update.FullName
		}
		if update.Phone != nil {
			contact.Phone = *update.Phone
		}
		if update.Email != nil {
			contact.Email = *update.Email
		}

		contact, err = contact.Normalize()
		if err != nil {
			return err
		}

		return orders.Update(ctx, o, map[string]interface{}{
			"full_name": contact.FullName,
			"phone":     contact.Phone,
			"email":     contact.Email,
		})
	})
	if err != nil {
		return nil, err
	}

	return s.orders.FindByID(ctx, orderID)
}

// UpdateStatus advances the status machine (staff only). Cancellation is
// delegated to the cancel flow so stock is always restored.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, orderID uuid.UUID, to Status, comment string) (updated *Order, err error) {
	if !actor.IsStaff {
		return nil, apperr.New(apperr.KindForbidden, "order", "only staff can change order status")
	}
	if !to.Valid() {
		return nil, apperr.New(apperr.KindInvalidInput, "order", "unknown status %q", to)
	}
	if to == StatusCancelled {
		return s.Cancel(ctx, actor, orderID, comment)
	}

	defer func() { s.metrics.OrderOperation("status", err) }()

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		orders := s.orders.WithTx(tx)

		o, err := orders.FindForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.Status.CanTransitionTo(to) {
			return apperr.New(apperr.KindInvalidInput, "order", "invalid status transition from %s to %s", o.Status, to)
		}

		now := time.Now().UTC()
		fields := map[string]interface{}{"status": to}
		switch to {
		case StatusProcessing:
			fields["processed_at"] = now
		case StatusCompleted:
			fields["completed_at"] = now
		}
		if err := orders.Update(ctx, o, fields); err != nil {
			return err
		}

		return orders.AddHistory(ctx, &OrderStatusHistory{
			OrderID:   o.ID,
			Status:    to,
			Comment:   comment,
			CreatedBy: &actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"order_id": o.ID,
		"status":   o.Status,
	}).Info("Order status updated")

	s.publish(ctx, NewEvent(EventOrderStatusChanged, o, comment))

	return o, nil
}

// Get returns an order visible to actor. Other users' orders read as not found.
func (s *Service) Get(ctx context.Context, actor Actor, orderID uuid.UUID) (*Order, error) {
	o, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff && !o.IsOwnedBy(actor.UserID) {
		return nil, apperr.NotFound("order", orderID)
	}
	return o, nil
}

// ListForUser returns the actor's own orders
func (s *Service) ListForUser(ctx context.Context, actor Actor, page, limit int) (*ListResponse, error) {
	userID := actor.UserID
	return s.list(ctx, ListFilter{UserID: &userID, Page: page, Limit: limit})
}

// ListAll returns every order, optionally filtered by status (staff only)
func (s *Service) ListAll(ctx context.Context, actor Actor, status Status, page, limit int) (*ListResponse, error) {
	if !actor.IsStaff {
		return nil, apperr.New(apperr.KindForbidden, "order", "only staff can list all orders")
	}
	if status != "" && !status.Valid() {
		return nil, apperr.New(apperr.KindInvalidInput, "order", "unknown status %q", status)
	}
	return s.list(ctx, ListFilter{Status: status, Page: page, Limit: limit})
}

func (s *Service) list(ctx context.Context, filter ListFilter) (*ListResponse, error) {
	filter.Page, filter.Limit = product.NormalizePage(filter.Page, filter.Limit)

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]Response, 0, len(orders))
	for i := range orders {
		summaries = append(summaries, NewResponse(&orders[i]))
	}

	return &ListResponse{
		Orders:     summaries,
		Pagination: product.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// publish is best effort: the order is already committed
func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"event":    event.Type,
		}).Warn("Failed to publish order event")
	}
}

func appendNote(notes, line string) string {
	if notes == "" {
		return line
	}
	return notes + "\n" + line
}

func ownerKind(owner cart.Owner) string {
	if owner.IsUser() {
		return "user"
	}
	return "session"
}
