package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Product models a catalog row.
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  string          `json:"category,omitempty"`
}

// Value returns stock multiplied by unit price.
func (p Product) Value() decimal.Decimal {
	return p.UnitPrice.Mul(decimal.NewFromInt(int64(p.Stock)))
}

var (
	// ErrUnknownProduct is returned when a product id is absent from the catalog.
	ErrUnknownProduct = errors.New("catalog: unknown product")
	// ErrInsufficientStock is matched by InsufficientStockError.
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
	// ErrInvalidNumericInput indicates non-numeric or negative stock/price input.
	ErrInvalidNumericInput = errors.New("catalog: stock and price must be valid numbers")
	// ErrDuplicateProduct indicates the product id already exists.
	ErrDuplicateProduct = errors.New("catalog: product id already exists")
	// ErrInvalidProduct indicates missing id or name.
	ErrInvalidProduct = errors.New("catalog: product id and name are required")
)

// InsufficientStockError reports the product that could not cover a requested quantity.
type InsufficientStockError struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("catalog: insufficient stock for %s (%s): requested %d, available %d", e.ProductID, e.Name, e.Requested, e.Available)
}

// Is lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewProduct validates typed fields and normalises the id.
func NewProduct(id, name string, stock int, unitPrice decimal.Decimal, category string) (Product, error) {
	id = NormalizeID(id)
	name = strings.TrimSpace(name)
	if id == "" || name == "" {
		return Product{}, ErrInvalidProduct
	}
	if stock < 0 || unitPrice.IsNegative() {
		return Product{}, ErrInvalidNumericInput
	}
	return Product{
		ID:        id,
		Name:      name,
		Stock:     stock,
		UnitPrice: unitPrice,
		Category:  strings.TrimSpace(category),
	}, nil
}

// ParseProduct builds a Product from raw form values.
func ParseProduct(id, name, stock, unitPrice, category string) (Product, error) {
	qty, err := strconv.Atoi(strings.TrimSpace(stock))
	if err != nil {
		return Product{}, fmt.Errorf("%w: stock %q", ErrInvalidNumericInput, stock)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(unitPrice))
	if err != nil {
		return Product{}, fmt.Errorf("%w: price %q", ErrInvalidNumericInput, unitPrice)
	}
	return NewProduct(id, name, qty, price, category)
}

// NormalizeID trims and upper-cases product ids.
func NormalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// DefaultProducts is the seed catalog used when no catalog exists yet.
func DefaultProducts() []Product {
	return []Product{
		{ID: "E101", Name: "Cable THHN 12AWG", Stock: 1500, UnitPrice: decimal.RequireFromString("0.75"), Category: "Material"},
		{ID: "E102", Name: "Toma Corriente Doble", Stock: 35, UnitPrice: decimal.RequireFromString("3.50"), Category: "Accesorio"},
		{ID: "E103", Name: "Interruptor Sencillo", Stock: 400, UnitPrice: decimal.RequireFromString("2.15"), Category: "Accesorio"},
		{ID: "E104", Name: "Regulador de Voltaje", Stock: 100, UnitPrice: decimal.RequireFromString("45.00"), Category: "Equipo"},
		{ID: "E105", Name: "Fusible 10A", Stock: 10, UnitPrice: decimal.RequireFromString("0.50"), Category: "Componente"},
	}
}
