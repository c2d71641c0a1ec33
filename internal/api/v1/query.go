package v1

import (
	"fmt"
	"time"

	"github.com/aevon-lab/salescube/internal/core/aggregation"
	"github.com/aevon-lab/salescube/internal/core/schema"
	"github.com/aevon-lab/salescube/internal/core/window"
	"github.com/aevon-lab/salescube/internal/warehouse"
)

// QueryRequest is the body of POST /v1/reports/query.
type QueryRequest struct {
	// From and To bound business dates as [from, to); both optional, YYYY-MM-DD.
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	// Filters maps an attribute reference to the values to keep.
	Filters map[string][]string `json:"filters,omitempty"`

	GroupBy    []string           `json:"group_by"`
	Mode       string             `json:"mode,omitempty"`
	Aggregates []aggregation.Spec `json:"aggregates"`
	Windows    []window.Spec      `json:"windows,omitempty"`

	// Levels keeps only the listed grouping IDs.
	Levels []uint64 `json:"levels,omitempty"`
}

// Validate checks the request shape and converts it to a warehouse query.
// Attribute and measure names are checked by the warehouse.
func (r *QueryRequest) Validate() (warehouse.Query, error) {
	if len(r.Aggregates) == 0 {
		return warehouse.Query{}, fmt.Errorf("at least one aggregate is required")
	}
	mode, err := aggregation.ParseMode(r.Mode)
	if err != nil {
		return warehouse.Query{}, fmt.Errorf("mode must be plain, rollup or cube")
	}
	from, err := ParseOptionalDay("from", r.From)
	if err != nil {
		return warehouse.Query{}, err
	}
	to, err := ParseOptionalDay("to", r.To)
	if err != nil {
		return warehouse.Query{}, err
	}

	return warehouse.Query{
		Selection:  warehouse.Selection{From: from, To: to, Filters: r.Filters},
		GroupBy:    r.GroupBy,
		Mode:       mode,
		Aggregates: r.Aggregates,
		Windows:    r.Windows,
		Levels:     r.Levels,
	}, nil
}

// ParseOptionalDay parses a YYYY-MM-DD value; "" yields the zero time.
func ParseOptionalDay(field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := schema.ParseDay(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", field, err)
	}
	return t, nil
}

// QueryResponse wraps a result table.
type QueryResponse struct {
	QueryID     string              `json:"query_id"`
	Report      string              `json:"report,omitempty"`
	Fingerprint string              `json:"fingerprint,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
	Result      *aggregation.Result `json:"result"`
}
