package schema

import (
	"strings"

	werr "github.com/aevon-lab/salescube/internal/core/errors"
)

// Dimension names of the built-in sales star.
const (
	DimDate     = "date"
	DimStore    = "store"
	DimProduct  = "product"
	DimCustomer = "customer"
)

// Measure names of the built-in sales star.
const (
	MeasureQuantity    = "quantity"
	MeasureUnitPrice   = "unit_price"
	MeasureDiscount    = "discount"
	MeasureTotalAmount = "total_amount"
	MeasureProfit      = "profit"
)

// MoneyScale is the declared scale of every money column.
const MoneyScale = 2

// Dimension describes one dimension table of a star.
// Versioned dimensions keep SCD2 history; the rest overwrite in place.
// On a versioned dimension only a change to a Tracked attribute opens a new
// version; other attributes are overwritten on the open version. An empty
// Tracked list tracks every attribute.
type Dimension struct {
	Name       string
	Attributes []string
	Tracked    []string
	Sensitive  []string
	Versioned  bool
}

// HasAttribute reports whether attr is declared on d.
func (d Dimension) HasAttribute(attr string) bool {
	for _, a := range d.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

// IsTracked reports whether a change to attr opens a new version.
func (d Dimension) IsTracked(attr string) bool {
	if !d.Versioned {
		return false
	}
	if len(d.Tracked) == 0 {
		return true
	}
	for _, a := range d.Tracked {
		if a == attr {
			return true
		}
	}
	return false
}

// IsSensitive reports whether attr is stored encrypted.
func (d Dimension) IsSensitive(attr string) bool {
	for _, a := range d.Sensitive {
		if a == attr {
			return true
		}
	}
	return false
}

// Measure describes one numeric fact column.
type Measure struct {
	Name          string
	Scale         int32
	AllowNegative bool
}

// Star is a fact table plus the dimensions it references.
type Star struct {
	Fact       string
	Dimensions []Dimension
	Measures   []Measure
}

// Ref is a parsed "<dimension>.<attribute>" reference.
type Ref struct {
	Dimension string
	Attribute string
}

func (r Ref) String() string {
	return r.Dimension + "." + r.Attribute
}

// ParseRef splits a dotted attribute reference.
func ParseRef(ref string) (Ref, bool) {
	dim, attr, ok := strings.Cut(ref, ".")
	if !ok || dim == "" || attr == "" {
		return Ref{}, false
	}
	return Ref{Dimension: dim, Attribute: attr}, true
}

// Dimension returns the dimension named name.
func (s *Star) Dimension(name string) (Dimension, bool) {
	for _, d := range s.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

// Measure returns the measure named name.
func (s *Star) Measure(name string) (Measure, bool) {
	for _, m := range s.Measures {
		if m.Name == name {
			return m, true
		}
	}
	return Measure{}, false
}

// Attribute validates a dotted reference against the star.
// Unknown references fail with InvalidGroupingSpec.
func (s *Star) Attribute(ref string) (Ref, Dimension, error) {
	r, ok := ParseRef(ref)
	if !ok {
		return Ref{}, Dimension{}, werr.New(werr.KindInvalidGroupingSpec, ref, "attribute reference must be <dimension>.<attribute>")
	}
	d, ok := s.Dimension(r.Dimension)
	if !ok {
		return Ref{}, Dimension{}, werr.New(werr.KindInvalidGroupingSpec, ref, "unknown dimension %q", r.Dimension)
	}
	if !d.HasAttribute(r.Attribute) {
		return Ref{}, Dimension{}, werr.New(werr.KindInvalidGroupingSpec, ref, "unknown attribute %q on dimension %q", r.Attribute, r.Dimension)
	}
	return r, d, nil
}

// GroupableAttribute is Attribute plus the rule that encrypted columns
// never take part in grouping, filtering or ordering.
func (s *Star) GroupableAttribute(ref string) (Ref, error) {
	r, d, err := s.Attribute(ref)
	if err != nil {
		return Ref{}, err
	}
	if d.IsSensitive(r.Attribute) {
		return Ref{}, werr.New(werr.KindInvalidGroupingSpec, ref, "sensitive attribute cannot be grouped, filtered or ordered")
	}
	return r, nil
}

// GroupableRefs lists every non-sensitive attribute reference in declaration order.
func (s *Star) GroupableRefs() []string {
	var refs []string
	for _, d := range s.Dimensions {
		for _, a := range d.Attributes {
			if d.IsSensitive(a) {
				continue
			}
			refs = append(refs, Ref{Dimension: d.Name, Attribute: a}.String())
		}
	}
	return refs
}

// Sales returns the sales star: one fact table, four dimensions,
// customer tracked as SCD2 on its location and segment with an encrypted
// display name that is corrected in place.
func Sales() *Star {
	return &Star{
		Fact: "sales",
		Dimensions: []Dimension{
			{Name: DimDate, Attributes: []string{"year", "quarter", "month", "day", "weekday"}},
			{Name: DimStore, Attributes: []string{"name", "city", "region"}},
			{Name: DimProduct, Attributes: []string{"name", "category", "brand"}},
			{
				Name:       DimCustomer,
				Attributes: []string{"name", "city", "region", "segment"},
				Tracked:    []string{"city", "region", "segment"},
				Sensitive:  []string{"name"},
				Versioned:  true,
			},
		},
		Measures: []Measure{
			{Name: MeasureQuantity, Scale: 0},
			{Name: MeasureUnitPrice, Scale: MoneyScale},
			{Name: MeasureDiscount, Scale: MoneyScale},
			{Name: MeasureTotalAmount, Scale: MoneyScale},
			{Name: MeasureProfit, Scale: MoneyScale, AllowNegative: true},
		},
	}
}
