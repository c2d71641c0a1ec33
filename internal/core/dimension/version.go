package dimension

import (
	"time"
)

// Version is one row of a dimension: a natural key's attributes over the
// half-open interval [ValidFrom, ValidTo). ValidTo nil means open.
// Sensitive attributes hold codec ciphertext.
type Version struct {
	SurrogateKey int64             `json:"surrogate_key"`
	Dimension    string            `json:"dimension"`
	NaturalKey   string            `json:"natural_key"`
	Attributes   map[string]string `json:"attributes"`
	ValidFrom    time.Time         `json:"valid_from"`
	ValidTo      *time.Time        `json:"valid_to,omitempty"`
	IsCurrent    bool              `json:"is_current"`
}

// Contains reports whether t falls inside the version's interval.
// An empty interval (ValidTo == ValidFrom) contains nothing.
func (v Version) Contains(t time.Time) bool {
	if t.Before(v.ValidFrom) {
		return false
	}
	return v.ValidTo == nil || t.Before(*v.ValidTo)
}

// Open reports whether the version has no end date.
func (v Version) Open() bool {
	return v.ValidTo == nil
}

func (v Version) clone() Version {
	out := v
	if v.ValidTo != nil {
		to := *v.ValidTo
		out.ValidTo = &to
	}
	out.Attributes = make(map[string]string, len(v.Attributes))
	for k, val := range v.Attributes {
		out.Attributes[k] = val
	}
	return out
}

// Change describes the effect of one upsert.
type Change struct {
	Current Version
	// Closed is the version that was ended by this upsert, if any.
	Closed *Version
	// Created is true when a new surrogate key was issued.
	Created bool
	// Updated is true when the open version was overwritten in place.
	Updated bool
}

// Noop reports whether the upsert left the store unchanged.
func (c Change) Noop() bool {
	return !c.Created && !c.Updated
}
