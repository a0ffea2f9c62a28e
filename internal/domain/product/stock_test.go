package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-api/internal/domain/apperr"
)

func TestValidateStock(t *testing.T) {
	orderable := func(stock int) *Product {
		return &Product{Name: "Lamp", Stock: stock, AvailableForOrder: true}
	}

	tests := []struct {
		name      string
		product   *Product
		requested int
		committed int
		wantKind  apperr.Kind
	}{
		{"fits exactly", orderable(5), 3, 2, apperr.KindUnknown},
		{"zero request", orderable(0), 0, 0, apperr.KindUnknown},
		{"missing product", nil, 1, 0, apperr.KindUnavailable},
		{"not orderable", &Product{Name: "Lamp", Stock: 10}, 1, 0, apperr.KindUnavailable},
		{"negative requested", orderable(5), -1, 0, apperr.KindInvalidQuantity},
		{"negative committed", orderable(5), 1, -2, apperr.KindInvalidQuantity},
		{"negative stock", orderable(-1), 1, 0, apperr.KindInvalidStockState},
		{"over stock", orderable(5), 4, 2, apperr.KindInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStock(tt.product, tt.requested, tt.committed)
			if tt.wantKind == apperr.KindUnknown {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
		})
	}
}

func TestValidateStockUnavailableBeforeQuantity(t *testing.T) {
	p := &Product{Name: "Lamp", Stock: 1}

	err := ValidateStock(p, -5, 0)
	assert.Equal(t, apperr.KindUnavailable, apperr.KindOf(err))
}

func TestValidateStockReportsQuantities(t *testing.T) {
	p := &Product{Name: "Lamp", Stock: 5, AvailableForOrder: true}

	err := ValidateStock(p, 4, 2)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, 5, e.Available)
	assert.Equal(t, 6, e.Requested)
	assert.Contains(t, e.Message, "Lamp")
	assert.Equal(t, 5, p.Stock, "validator must not mutate the product")
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "desk-lamp-sku-01", Slugify("Desk Lamp - SKU_01"))
	assert.Equal(t, "chair", Slugify("  Chair!!  "))
	assert.Equal(t, "", Slugify("---"))
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Home office", capitalize("  hOME OFFICE "))
	assert.Equal(t, "", capitalize("   "))
}

func TestBuildOrderClause(t *testing.T) {
	assert.Equal(t, "price ASC, id ASC", buildOrderClause("price"))
	assert.Equal(t, "stock DESC, id ASC", buildOrderClause("-stock"))
	assert.Equal(t, "id ASC", buildOrderClause("name; DROP TABLE products"))
	assert.Equal(t, "id ASC", buildOrderClause(""))
}
