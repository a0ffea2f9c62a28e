package cart_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/apperr"
	"github.com/your-org/storefront-api/internal/domain/cart"
	"github.com/your-org/storefront-api/internal/domain/product"
	"github.com/your-org/storefront-api/internal/pkg/logger"
	"github.com/your-org/storefront-api/internal/pkg/testutil"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*cart.Service, *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	svc := cart.NewService(db, cart.NewRepository(db), product.NewRepository(db), logger.Discard(), nil)
	return svc, db
}

func TestGetCart_CreatesOncePerOwner(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	owner := cart.SessionOwner("guest-token")

	first, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	second, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Empty(t, second.Items)
	assert.Equal(t, int64(1), testutil.Count(t, db, &cart.Cart{}))
}

func TestGetCart_RejectsAmbiguousOwner(t *testing.T) {
	svc, _ := newService(t)
	userID := uint(1)

	_, err := svc.GetCart(context.Background(), cart.Owner{UserID: &userID, SessionToken: "x"})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.GetCart(context.Background(), cart.Owner{})
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)
}

func TestAddItem_MergesIntoExistingLine(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, db, "LMP-001", "100.00", 5, testutil.WithDiscount(10))
	owner := cart.SessionOwner("guest-token")

	_, err := svc.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)
	item, err := svc.AddItem(ctx, owner, p.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, int64(1), testutil.Count(t, db, &cart.CartItem{}))

	c, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, "90.00", product.FormatMoney(c.Items[0].UnitPrice()))
	assert.Equal(t, "270.00", product.FormatMoney(c.Total()))
}

func TestAddItem_ValidatesCombinedQuantity(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, db, "LMP-001", "100.00", 5)
	owner := cart.SessionOwner("guest-token")

	_, err := svc.AddItem(ctx, owner, p.ID, 4)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, owner, p.ID, 2)
	require.ErrorIs(t, err, apperr.ErrInsufficientStock)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 5, e.Available)
	assert.Equal(t, 6, e.Requested)

	items, err := svc.ListItems(ctx, owner)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 4, items[0].Quantity)
}

func TestAddItem_Failures(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	hidden := testutil.CreateProduct(t, db, "HID-001", "10.00", 5, testutil.NotOrderable())
	owner := cart.SessionOwner("guest-token")

	tests := []struct {
		name      string
		productID uint
		quantity  int
		want      error
	}{
		{name: "zero quantity", productID: hidden.ID, quantity: 0, want: apperr.ErrInvalidQuantity},
		{name: "unknown product", productID: 9999, quantity: 1, want: apperr.ErrNotFound},
		{name: "not orderable", productID: hidden.ID, quantity: 1, want: apperr.ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, owner, tt.productID, tt.quantity)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, int64(0), testutil.Count(t, db, &cart.CartItem{}))
}

func TestUpdateItem_SetsAbsoluteQuantity(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, db, "LMP-001", "100.00", 5)
	owner := cart.SessionOwner("guest-token")

	item, err := svc.AddItem(ctx, owner, p.ID, 4)
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, owner, item.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Quantity)

	_, err = svc.UpdateItem(ctx, owner, item.ID, 6)
	assert.ErrorIs(t, err, apperr.ErrInsufficientStock)

	_, err = svc.UpdateItem(ctx, owner, item.ID, 0)
	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
}

func TestUpdateAndRemove_ScopedToOwnersCart(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, db, "LMP-001", "100.00", 5)
	alice := cart.SessionOwner("alice")
	bob := cart.SessionOwner("bob")

	item, err := svc.AddItem(ctx, alice, p.ID, 1)
	require.NoError(t, err)
	_, err = svc.GetCart(ctx, bob)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, bob, item.ID, 2)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.RemoveItem(ctx, bob, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	err = svc.RemoveItem(ctx, cart.SessionOwner("nobody"), item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.RemoveItem(ctx, alice, item.ID))
	err = svc.RemoveItem(ctx, alice, item.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateItem(ctx, alice, uuid.New(), 1)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCart_DeletedProductLineIsUnavailable(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	p := testutil.CreateProduct(t, db, "LMP-001", "100.00", 5)
	keep := testutil.CreateProduct(t, db, "ACC-001", "9.99", 100)
	owner := cart.SessionOwner("guest-token")

	item, err := svc.AddItem(ctx, owner, p.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, owner, keep.ID, 3)
	require.NoError(t, err)

	products := product.NewService(db, logger.Discard())
	require.NoError(t, products.DeleteProduct(ctx, p.ID))

	c, err := svc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)

	var detached *cart.CartItem
	for i := range c.Items {
		if c.Items[i].ID == item.ID {
			detached = &c.Items[i]
		}
	}
	require.NotNil(t, detached)
	assert.Nil(t, detached.ProductID)
	assert.False(t, detached.IsAvailable())
	assert.Equal(t, "0.00", product.FormatMoney(detached.LineTotal()))
	assert.Equal(t, "29.97", product.FormatMoney(c.Total()))

	_, err = svc.UpdateItem(ctx, owner, item.ID, 1)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestMergeSessionCart(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()
	u := testutil.CreateUser(t, db, "buyer@example.com", false)
	lamp := testutil.CreateProduct(t, db, "LMP-001", "100.00", 5)
	chair := testutil.CreateProduct(t, db, "CHR-001", "399.99", 3)
	guest := cart.SessionOwner("guest-token")
	member := cart.UserOwner(u.ID)

	_, err := svc.AddItem(ctx, member, lamp.ID, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, member, chair.ID, 2)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, guest, lamp.ID, 3)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, guest, chair.ID, 2)
	require.NoError(t, err)

	result, err := svc.MergeSessionCart(ctx, "guest-token", u.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 1, result.Skipped)

	items, err := svc.ListItems(ctx, member)
	require.NoError(t, err)
	quantities := map[uint]int{}
	for _, item := range items {
		quantities[*item.ProductID] = item.Quantity
	}
	assert.Equal(t, 5, quantities[lamp.ID])
	assert.Equal(t, 2, quantities[chair.ID], "unsatisfiable line keeps the previous quantity")

	var guestCarts int64
	require.NoError(t, db.Model(&cart.Cart{}).Where("session_token = ?", "guest-token").Count(&guestCarts).Error)
	assert.Zero(t, guestCarts)
}

func TestMergeSessionCart_NoGuestCart(t *testing.T) {
	svc, db := newService(t)
	u := testutil.CreateUser(t, db, "buyer@example.com", false)

	result, err := svc.MergeSessionCart(context.Background(), "unknown", u.ID)
	require.NoError(t, err)
	assert.Zero(t, result.Merged)

	result, err = svc.MergeSessionCart(context.Background(), "", u.ID)
	require.NoError(t, err)
	assert.Zero(t, result.Merged)
}
