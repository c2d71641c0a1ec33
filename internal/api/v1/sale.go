package v1

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

// SaleRequest is the body of POST /v1/sales. Dimensions are referenced by
// natural key and resolved to the versions valid on BusinessDate.
type SaleRequest struct {
	BusinessDate string          `json:"business_date"`
	Store        string          `json:"store"`
	Product      string          `json:"product"`
	Customer     string          `json:"customer"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Discount     decimal.Decimal `json:"discount"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// Validate checks required fields and converts the request to a sale.
func (r *SaleRequest) Validate() (warehouse.Sale, error) {
	if r.BusinessDate == "" {
		return warehouse.Sale{}, fmt.Errorf("business_date is required")
	}
	date, err := schema.ParseDay(r.BusinessDate)
	if err != nil {
		return warehouse.Sale{}, fmt.Errorf("business_date must be YYYY-MM-DD: %w", err)
	}
	for _, f := range []struct{ name, value string }{
		{"store", r.Store},
		{"product", r.Product},
		{"customer", r.Customer},
	} {
		if strings.TrimSpace(f.value) == "" {
			return warehouse.Sale{}, fmt.Errorf("%s is required", f.name)
		}
	}
	if !r.Quantity.IsPositive() {
		return warehouse.Sale{}, fmt.Errorf("quantity must be > 0")
	}

	return warehouse.Sale{
		BusinessDate: date,
		Store:        r.Store,
		Product:      r.Product,
		Customer:     r.Customer,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		Discount:     r.Discount,
		UnitCost:     r.UnitCost,
	}, nil
}

// SaleResponse is the stored fact.
type SaleResponse struct {
	FactID       int64                          `json:"fact_id"`
	BusinessDate string                         `json:"business_date"`
	Keys         map[string]int64               `json:"keys"`
	Measures     map[string]decimal.NullDecimal `json:"measures"`
}
