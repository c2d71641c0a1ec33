package warehouse

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/fact"
	"github.com/aevon-lab/salescube/internal/core/schema"
)

// Sale is one line item whose dimensions are given by natural key.
type Sale struct {
	BusinessDate time.Time
	Store        string
	Product      string
	Customer     string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	Discount     decimal.Decimal
	UnitCost     decimal.Decimal
}

// RecordSale resolves the sale's natural keys to the versions valid on its
// business date, creating the date dimension row on first use, and appends
// the fact.
func (w *Warehouse) RecordSale(ctx context.Context, s Sale) (fact.Row, error) {
	if s.BusinessDate.IsZero() {
		return fact.Row{}, werr.New(werr.KindInvalidRecord, "business_date", "business date is required")
	}
	day := schema.Day(s.BusinessDate)

	date, err := w.UpsertDimension(ctx, schema.DimDate, schema.DateKey(day), schema.DateAttributes(day), day)
	if err != nil {
		return fact.Row{}, err
	}

	keys := map[string]int64{schema.DimDate: date.Current.SurrogateKey}
	for _, ref := range []struct{ dim, key string }{
		{schema.DimStore, s.Store},
		{schema.DimProduct, s.Product},
		{schema.DimCustomer, s.Customer},
	} {
		sk, err := w.dims.Resolve(ref.dim, ref.key, day)
		if err != nil {
			return fact.Row{}, err
		}
		keys[ref.dim] = sk
	}

	return w.AppendFact(ctx, fact.Row{
		BusinessDate: day,
		Keys:         keys,
		Measures:     fact.SaleMeasures(s.Quantity, s.UnitPrice, s.Discount, s.UnitCost),
	})
}
