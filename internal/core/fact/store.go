package fact

import (
	"fmt"
	"sync"

	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/schema"
)

// KeyChecker reports whether a surrogate key exists in a dimension.
type KeyChecker interface {
	Exists(dim string, sk int64) bool
}

// Store is the append-only fact table.
type Store struct {
	mu     sync.RWMutex
	star   *schema.Star
	keys   KeyChecker
	rows   []Row
	nextID int64
}

// NewStore creates an empty fact store validating references against keys.
func NewStore(star *schema.Star, keys KeyChecker) *Store {
	return &Store{star: star, keys: keys, nextID: 1}
}

// Append validates row and stores it under the next row ID.
// Every dimension of the star must be referenced by an existing surrogate
// key; measures must be declared and non-negative unless the measure allows
// negatives. A failed append leaves the store unchanged.
func (s *Store) Append(row Row) (Row, error) {
	stored, err := s.normalize(row)
	if err != nil {
		return Row{}, err
	}

	// Versions are never deleted, so the check can run before taking mu.
	// Taking the dimension lock while holding mu would invert the
	// snapshot lock order.
	if err := s.checkKeys(stored); err != nil {
		return Row{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored.ID = s.nextID
	s.nextID++
	s.rows = append(s.rows, stored)
	return stored.clone(), nil
}

// Restore re-inserts a persisted row keeping its ID. Rows must be restored
// in ascending ID order, after the versions they reference.
func (s *Store) Restore(row Row) error {
	stored, err := s.normalize(row)
	if err != nil {
		return err
	}
	if err := s.checkKeys(stored); err != nil {
		return err
	}
	stored.ID = row.ID

	s.mu.Lock()
	defer s.mu.Unlock()

	if row.ID < s.nextID {
		return werr.New(werr.KindInvalidRecord, fmt.Sprintf("%d", row.ID), "fact id out of order (next is %d)", s.nextID)
	}
	s.rows = append(s.rows, stored)
	s.nextID = row.ID + 1
	return nil
}

// Len returns the number of stored rows.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Scan calls fn for every row in ID order while holding the read lock.
// Rows passed to fn are shared and immutable; fn must not mutate them.
// Returning false stops the scan.
func (s *Store) Scan(fn func(row *Row) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.rows {
		if !fn(&s.rows[i]) {
			return
		}
	}
}

// checkKeys requires one existing surrogate key per dimension of the star.
func (s *Store) checkKeys(row Row) error {
	for _, d := range s.star.Dimensions {
		sk, ok := row.Keys[d.Name]
		if !ok || !s.keys.Exists(d.Name, sk) {
			return werr.New(werr.KindDanglingReference, fmt.Sprintf("%s:%d", d.Name, sk), "fact references a missing %s version", d.Name)
		}
	}
	return nil
}

// normalize validates measures and rounds them to their declared scale.
func (s *Store) normalize(row Row) (Row, error) {
	out := row.clone()
	out.BusinessDate = schema.Day(row.BusinessDate)
	if row.BusinessDate.IsZero() {
		return Row{}, werr.New(werr.KindInvalidRecord, "business_date", "business date is required")
	}
	for name, v := range row.Measures {
		m, ok := s.star.Measure(name)
		if !ok {
			return Row{}, werr.New(werr.KindInvalidRecord, name, "unknown measure")
		}
		if !v.Valid {
			continue
		}
		if v.Decimal.IsNegative() && !m.AllowNegative {
			return Row{}, werr.New(werr.KindInvalidRecord, name, "measure must be non-negative, got %s", v.Decimal)
		}
		out.Measures[name] = valid(v.Decimal.Round(m.Scale))
	}
	return out, nil
}
