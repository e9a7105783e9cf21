package catalog

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProduct(t *testing.T) {
	p, err := ParseProduct(" e106 ", "Breaker 20A", "25", "12.40", "Equipo")
	require.NoError(t, err)
	assert.Equal(t, "E106", p.ID)
	assert.Equal(t, 25, p.Stock)
	assert.True(t, p.UnitPrice.Equal(decimal.RequireFromString("12.4")))
	assert.Equal(t, "310", p.Value().String())
}

func TestParseProductRejectsNonNumeric(t *testing.T) {
	_, err := ParseProduct("E106", "Breaker", "ten", "1.00", "")
	require.ErrorIs(t, err, ErrInvalidNumericInput)

	_, err = ParseProduct("E106", "Breaker", "10", "abc", "")
	require.ErrorIs(t, err, ErrInvalidNumericInput)

	_, err = ParseProduct("E106", "Breaker", "-1", "1.00", "")
	require.ErrorIs(t, err, ErrInvalidNumericInput)
}

func TestNewProductRequiresIDAndName(t *testing.T) {
	_, err := NewProduct(" ", "Breaker", 1, decimal.Zero, "")
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestInsufficientStockErrorMatchesSentinel(t *testing.T) {
	var err error = &InsufficientStockError{ProductID: "E105", Name: "Fusible 10A", Requested: 11, Available: 10}
	require.ErrorIs(t, err, ErrInsufficientStock)

	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 10, stockErr.Available)
	assert.Contains(t, err.Error(), "available 10")
}
