package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := InsufficientStock("Lamp", 5, 6)

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestKindOfThroughWrapping(t *testing.T) {
	err := fmt.Errorf("checkout: %w", NotFound("cart", "abc"))

	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindUnknown, KindOf(errors.New("boom")))
}

func TestInsufficientStockCarriesQuantities(t *testing.T) {
	err := InsufficientStock("Lamp", 5, 6)

	e, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, 5, e.Available)
	assert.Equal(t, 6, e.Requested)
	assert.Contains(t, e.Error(), "available 5, requested 6")
	assert.Equal(t, "Lamp", e.Entity)
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("deadlock detected")
	err := Wrap(cause, KindConflict, "order", "concurrent update, retry the request")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "conflict", err.Kind.String())
	assert.Contains(t, err.Error(), "deadlock detected")
}
