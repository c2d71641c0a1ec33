package aggregation

import (
	"github.com/shopspring/decimal"
)

// Aggregator defines the reduce semantics of an aggregate function.
// To add a new function: implement this interface and register it in Operators.
type Aggregator interface {
	// New returns empty per-group state. scale is the declared scale of the
	// input measure and bounds the precision of derived results such as avg.
	New(scale int32) Accumulator

	// Numeric reports whether the function requires a measure input.
	// count is the only function that also accepts attributes and "*".
	Numeric() bool
}

// Accumulator folds the values of one group. NULL inputs are skipped by
// every function; a group with no non-NULL inputs yields NULL except for count.
type Accumulator interface {
	Add(v decimal.NullDecimal)
	Result() decimal.NullDecimal
}

// Operators is the registry of all supported aggregate functions.
var Operators = map[string]Aggregator{
	OpCount: countAgg{},
	OpSum:   sumAgg{},
	OpAvg:   avgAgg{},
	OpMin:   minAgg{},
	OpMax:   maxAgg{},
}

// ValidOperator reports whether op is a registered aggregate function.
func ValidOperator(op string) bool {
	_, ok := Operators[op]
	return ok
}

// countAgg counts non-NULL inputs.
type countAgg struct{}

func (countAgg) New(int32) Accumulator { return &countAcc{} }
func (countAgg) Numeric() bool         { return false }

type countAcc struct{ n int64 }

func (a *countAcc) Add(v decimal.NullDecimal) {
	if v.Valid {
		a.n++
	}
}

func (a *countAcc) Result() decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(a.n))
}

// sumAgg accumulates the exact sum of inputs.
type sumAgg struct{}

func (sumAgg) New(int32) Accumulator { return &sumAcc{} }
func (sumAgg) Numeric() bool         { return true }

type sumAcc struct {
	sum  decimal.Decimal
	seen bool
}

func (a *sumAcc) Add(v decimal.NullDecimal) {
	if !v.Valid {
		return
	}
	a.sum = a.sum.Add(v.Decimal)
	a.seen = true
}

func (a *sumAcc) Result() decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: a.sum, Valid: a.seen}
}

// avgAgg is sum over count, rounded half away from zero to the input scale.
type avgAgg struct{}

func (avgAgg) New(scale int32) Accumulator { return &avgAcc{scale: scale} }
func (avgAgg) Numeric() bool               { return true }

type avgAcc struct {
	sum   decimal.Decimal
	n     int64
	scale int32
}

func (a *avgAcc) Add(v decimal.NullDecimal) {
	if !v.Valid {
		return
	}
	a.sum = a.sum.Add(v.Decimal)
	a.n++
}

func (a *avgAcc) Result() decimal.NullDecimal {
	if a.n == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(a.sum.DivRound(decimal.NewFromInt(a.n), a.scale))
}

// minAgg tracks the minimum value seen.
type minAgg struct{}

func (minAgg) New(int32) Accumulator { return &extremeAcc{keep: decimal.Decimal.LessThan} }
func (minAgg) Numeric() bool         { return true }

// maxAgg tracks the maximum value seen.
type maxAgg struct{}

func (maxAgg) New(int32) Accumulator { return &extremeAcc{keep: decimal.Decimal.GreaterThan} }
func (maxAgg) Numeric() bool         { return true }

type extremeAcc struct {
	cur  decimal.NullDecimal
	keep func(incoming, current decimal.Decimal) bool
}

func (a *extremeAcc) Add(v decimal.NullDecimal) {
	if !v.Valid {
		return
	}
	if !a.cur.Valid || a.keep(v.Decimal, a.cur.Decimal) {
		a.cur = v
	}
}

func (a *extremeAcc) Result() decimal.NullDecimal {
	return a.cur
}
