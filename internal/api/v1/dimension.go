package v1

import (
	"fmt"
	"strings"
	"time"

	"github.com/aevon-lab/salescube/internal/core/dimension"
	"github.com/aevon-lab/salescube/internal/core/schema"
)

// DimensionVersionRequest is the body of POST /v1/dimensions/:dimension/versions.
type DimensionVersionRequest struct {
	// NaturalKey is the business identifier, e.g. a store code.
	NaturalKey string `json:"natural_key"`

	// Attributes replaces the tracked attribute set. Omitted attributes are NULL.
	Attributes map[string]string `json:"attributes"`

	// EffectiveDate is the civil date (YYYY-MM-DD) the attributes take effect.
	EffectiveDate string `json:"effective_date"`
}

// Validate checks required fields and returns the parsed effective date.
func (r *DimensionVersionRequest) Validate() (time.Time, error) {
	if strings.TrimSpace(r.NaturalKey) == "" {
		return time.Time{}, fmt.Errorf("natural_key is required")
	}
	if r.EffectiveDate == "" {
		return time.Time{}, fmt.Errorf("effective_date is required")
	}
	effective, err := schema.ParseDay(r.EffectiveDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("effective_date must be YYYY-MM-DD: %w", err)
	}
	return effective, nil
}

// DimensionVersion is the API shape of one version. Sensitive attributes
// are decoded before they reach this type.
type DimensionVersion struct {
	SurrogateKey int64             `json:"surrogate_key"`
	Dimension    string            `json:"dimension"`
	NaturalKey   string            `json:"natural_key"`
	Attributes   map[string]string `json:"attributes"`
	ValidFrom    string            `json:"valid_from"`
	ValidTo      *string           `json:"valid_to"`
	IsCurrent    bool              `json:"is_current"`
}

// NewDimensionVersion converts a stored version, substituting attrs for its
// stored attributes.
func NewDimensionVersion(v dimension.Version, attrs map[string]string) DimensionVersion {
	out := DimensionVersion{
		SurrogateKey: v.SurrogateKey,
		Dimension:    v.Dimension,
		NaturalKey:   v.NaturalKey,
		Attributes:   attrs,
		ValidFrom:    v.ValidFrom.Format(schema.DateLayout),
		IsCurrent:    v.IsCurrent,
	}
	if v.ValidTo != nil {
		to := v.ValidTo.Format(schema.DateLayout)
		out.ValidTo = &to
	}
	return out
}

// DimensionVersionResponse reports the outcome of an upsert.
type DimensionVersionResponse struct {
	Version DimensionVersion `json:"version"`
	// ClosedSurrogateKey is set when the upsert ended a previous version.
	ClosedSurrogateKey *int64 `json:"closed_surrogate_key,omitempty"`
	Created            bool   `json:"created"`
	Updated            bool   `json:"updated"`
}
