package fact

import (
	"time"

	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/shopspring/decimal"
)

// Row is one immutable fact. Keys reference dimension versions by surrogate
// key, never by natural key, so history survives later attribute changes.
type Row struct {
	ID           int64                          `json:"id"`
	BusinessDate time.Time                      `json:"business_date"`
	Keys         map[string]int64               `json:"keys"`
	Measures     map[string]decimal.NullDecimal `json:"measures"`
}

func (r Row) clone() Row {
	out := r
	out.Keys = make(map[string]int64, len(r.Keys))
	for k, v := range r.Keys {
		out.Keys[k] = v
	}
	out.Measures = make(map[string]decimal.NullDecimal, len(r.Measures))
	for k, v := range r.Measures {
		out.Measures[k] = v
	}
	return out
}

// Measure returns the named measure; missing measures are NULL.
func (r Row) Measure(name string) decimal.NullDecimal {
	return r.Measures[name]
}

// SaleMeasures computes the sales measures for one line item:
// total_amount = quantity * unit_price - discount,
// profit = total_amount - quantity * unit_cost.
func SaleMeasures(quantity, unitPrice, discount, unitCost decimal.Decimal) map[string]decimal.NullDecimal {
	total := quantity.Mul(unitPrice).Sub(discount)
	profit := total.Sub(quantity.Mul(unitCost))
	return map[string]decimal.NullDecimal{
		schema.MeasureQuantity:    valid(quantity),
		schema.MeasureUnitPrice:   valid(unitPrice),
		schema.MeasureDiscount:    valid(discount),
		schema.MeasureTotalAmount: valid(total),
		schema.MeasureProfit:      valid(profit),
	}
}

func valid(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}
