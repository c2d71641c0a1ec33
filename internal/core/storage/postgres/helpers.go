package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aevon-lab/salescube/internal/core/dimension"
	"github.com/aevon-lab/salescube/internal/core/fact"
	"github.com/aevon-lab/salescube/internal/core/schema"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// marshalAttributes encodes version attributes; a nil map is stored as {}.
func marshalAttributes(attrs map[string]string) ([]byte, error) {
	if attrs == nil {
		attrs = map[string]string{}
	}
	b, err := json.Marshal(attrs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attributes: %w", err)
	}
	return b, nil
}

// marshalFact encodes a fact's dimension keys and measures.
// NULL measures are kept as JSON null.
func marshalFact(row fact.Row) (keysJSON, measuresJSON []byte, err error) {
	keysJSON, err = json.Marshal(row.Keys)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal dimension keys: %w", err)
	}
	measuresJSON, err = json.Marshal(row.Measures)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal measures: %w", err)
	}
	return keysJSON, measuresJSON, nil
}

func scanVersionRow(row scanner) (dimension.Version, error) {
	var v dimension.Version
	var attrsJSON []byte
	var validTo sql.NullTime

	err := row.Scan(
		&v.SurrogateKey,
		&v.Dimension,
		&v.NaturalKey,
		&attrsJSON,
		&v.ValidFrom,
		&validTo,
		&v.IsCurrent,
	)
	if err != nil {
		return v, fmt.Errorf("failed to scan version row: %w", err)
	}

	if err := json.Unmarshal(attrsJSON, &v.Attributes); err != nil {
		return v, fmt.Errorf("failed to unmarshal attributes of version %d: %w", v.SurrogateKey, err)
	}
	v.ValidFrom = schema.Day(v.ValidFrom)
	if validTo.Valid {
		to := schema.Day(validTo.Time)
		v.ValidTo = &to
	}
	return v, nil
}

func scanFactRow(row scanner) (fact.Row, error) {
	var r fact.Row
	var keysJSON, measuresJSON []byte

	if err := row.Scan(&r.ID, &r.BusinessDate, &keysJSON, &measuresJSON); err != nil {
		return r, fmt.Errorf("failed to scan fact row: %w", err)
	}
	if err := json.Unmarshal(keysJSON, &r.Keys); err != nil {
		return r, fmt.Errorf("failed to unmarshal dimension keys of fact %d: %w", r.ID, err)
	}
	measures := map[string]decimal.NullDecimal{}
	if err := json.Unmarshal(measuresJSON, &measures); err != nil {
		return r, fmt.Errorf("failed to unmarshal measures of fact %d: %w", r.ID, err)
	}
	r.Measures = measures
	r.BusinessDate = schema.Day(r.BusinessDate)
	return r, nil
}
