package order

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/apperr"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusNew, StatusProcessing, true},
		{StatusNew, StatusCancelled, true},
		{StatusNew, StatusCompleted, false},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusProcessing, StatusNew, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusNew, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.False(t, Status("shipped").Valid())
}

func TestOrder_CheckCancellableAndEditable(t *testing.T) {
	o := &Order{OrderNumber: "ORD-1", Status: StatusNew}
	assert.NoError(t, o.CheckCancellable())
	assert.NoError(t, o.CheckEditable())

	o.Status = StatusProcessing
	assert.NoError(t, o.CheckCancellable())
	assert.NoError(t, o.CheckEditable())

	o.Status = StatusCompleted
	assert.ErrorIs(t, o.CheckCancellable(), apperr.ErrNotCancellable)
	assert.ErrorIs(t, o.CheckEditable(), apperr.ErrNotEditable)

	o.Status = StatusCancelled
	assert.ErrorIs(t, o.CheckCancellable(), apperr.ErrAlreadyCancelled)
	assert.ErrorIs(t, o.CheckEditable(), apperr.ErrNotEditable)
}

func TestOrder_Total(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{Quantity: 3, Price: decimal.RequireFromString("89.99")},
		{Quantity: 1, Price: decimal.RequireFromString("0.20")},
	}}
	assert.Equal(t, "270.17", o.Total().StringFixed(2))
	assert.Equal(t, "0.00", (&Order{}).Total().StringFixed(2))
}

func TestGenerateOrderNumber(t *testing.T) {
	id := uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000000")
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "ORD-20261016-3F2A9C1E", GenerateOrderNumber(id, at))
}

func TestOrder_IsOwnedBy(t *testing.T) {
	uid := uint(5)
	assert.True(t, (&Order{UserID: &uid}).IsOwnedBy(5))
	assert.False(t, (&Order{UserID: &uid}).IsOwnedBy(6))
	assert.False(t, (&Order{}).IsOwnedBy(0))
}

func TestNormalizePhone(t *testing.T) {
	valid := map[string]string{
		"+79991234567":       "+79991234567",
		"89991234567":        "+79991234567",
		"79991234567":        "+79991234567",
		"8 (999) 123-45-67":  "+79991234567",
		" +7 999 123 45 67 ": "+79991234567",
		"+1 650 253 0000":    "+16502530000",
		"+44 20 7031 3000":   "+442070313000",
	}
	for raw, want := range valid {
		got, err := NormalizePhone(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "12345", "no digits", "+11234567890", "899912345678", "+7 999 123"} {
		_, err := NormalizePhone(raw)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput, raw)
	}
}

func TestContact_Normalize(t *testing.T) {
	c, err := Contact{FullName: "  Ivan  ", Phone: "89991234567", Email: " ivan@example.com "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, Contact{FullName: "Ivan", Phone: "+79991234567", Email: "ivan@example.com"}, c)

	c, err = Contact{FullName: "Ivan", Phone: "89991234567"}.Normalize()
	require.NoError(t, err)
	assert.Empty(t, c.Email)

	bad := []Contact{
		{FullName: "   ", Phone: "89991234567"},
		{FullName: strings.Repeat("a", 256), Phone: "89991234567"},
		{FullName: "Ivan", Phone: "123"},
		{FullName: "Ivan", Phone: "89991234567", Email: "Ivan <ivan@example.com>"},
		{FullName: "Ivan", Phone: "89991234567", Email: "no-at-sign"},
	}
	for _, contact := range bad {
		_, err := contact.Normalize()
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
	}
}

func TestNewEvent(t *testing.T) {
	uid := uint(3)
	o := &Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-20261016-ABCDEF12",
		Status:      StatusCancelled,
		UserID:      &uid,
		Items:       []OrderItem{{ProductID: 9, SKU: "X", Quantity: 2, Price: decimal.RequireFromString("10.5")}},
	}

	e := NewEvent(EventOrderCancelled, o, "duplicate")
	assert.Equal(t, EventOrderCancelled, e.Type)
	assert.Equal(t, "21.00", e.Total)
	assert.Equal(t, "10.50", e.Items[0].Price)
	assert.Equal(t, "duplicate", e.Reason)
	assert.Equal(t, &uid, e.UserID)
}
