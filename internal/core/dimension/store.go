package dimension

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aevon-lab/salescube/internal/core/codec"
	werr "github.com/aevon-lab/salescube/internal/core/errors"
	"github.com/aevon-lab/salescube/internal/core/schema"
)

// history is the append-only version list of one natural key.
// open indexes the open version, -1 before the first version exists.
type history struct {
	versions []*Version
	open     int
}

// Store holds every version of every dimension of a star.
// Writers are serialized against each other and against readers by mu.
type Store struct {
	mu       sync.RWMutex
	star     *schema.Star
	keyring  *codec.Keyring
	seq      int64
	byKey    map[int64]*Version
	entities map[string]map[string]*history
}

// NewStore creates an empty dimension store for star.
// keyring seals sensitive attributes; nil means identity.
func NewStore(star *schema.Star, keyring *codec.Keyring) *Store {
	if keyring == nil {
		keyring = codec.WithCodec(codec.Identity{}, nil)
	}
	entities := make(map[string]map[string]*history, len(star.Dimensions))
	for _, d := range star.Dimensions {
		entities[d.Name] = make(map[string]*history)
	}
	return &Store{
		star:     star,
		keyring:  keyring,
		byKey:    make(map[int64]*Version),
		entities: entities,
	}
}

// UpsertVersion records attrs for naturalKey as of effectiveDate.
//
// With no open version a new one is created. Unchanged attributes are a
// no-op. A changed tracked attribute closes the open version at
// effectiveDate and opens a new one. Any other change overwrites the open
// version in place, which is the only kind of change non-versioned
// dimensions have.
// An effectiveDate before the open version's ValidFrom fails with
// InvalidDate and leaves the store unchanged.
func (s *Store) UpsertVersion(dim, naturalKey string, attrs map[string]string, effectiveDate time.Time) (Change, error) {
	d, err := s.validate(dim, naturalKey, attrs)
	if err != nil {
		return Change{}, err
	}
	sealed, err := s.seal(d, attrs)
	if err != nil {
		return Change{}, err
	}
	effective := schema.Day(effectiveDate)

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.entities[dim][naturalKey]
	if h == nil || h.open < 0 {
		v := s.insertLocked(dim, naturalKey, sealed, effective)
		return Change{Current: v.clone(), Created: true}, nil
	}

	open := h.versions[h.open]
	if effective.Before(open.ValidFrom) {
		return Change{}, werr.New(werr.KindInvalidDate, naturalKey,
			"effective date %s precedes open version valid_from %s",
			effective.Format(schema.DateLayout), open.ValidFrom.Format(schema.DateLayout))
	}

	tracked, untracked, err := s.differsLocked(d, open.Attributes, attrs)
	if err != nil {
		return Change{}, err
	}
	if !tracked && !untracked {
		return Change{Current: open.clone()}, nil
	}

	if !tracked {
		// Replace the map rather than mutating it: snapshots may hold the old one.
		open.Attributes = sealed
		return Change{Current: open.clone(), Updated: true}, nil
	}

	to := effective
	open.ValidTo = &to
	open.IsCurrent = false
	closed := open.clone()

	v := s.insertLocked(dim, naturalKey, sealed, effective)
	return Change{Current: v.clone(), Closed: &closed, Created: true}, nil
}

// Resolve returns the surrogate key of the version whose interval contains asOf.
// Non-versioned dimensions resolve their single version for any date.
func (s *Store) Resolve(dim, naturalKey string, asOf time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.star.Dimension(dim)
	if !ok {
		return 0, werr.New(werr.KindNotFound, dim, "unknown dimension")
	}
	h := s.entities[dim][naturalKey]
	if h == nil || len(h.versions) == 0 {
		return 0, werr.New(werr.KindNotFound, naturalKey, "no %s version", dim)
	}
	if !d.Versioned && h.open >= 0 {
		return h.versions[h.open].SurrogateKey, nil
	}

	day := schema.Day(asOf)
	// Last version starting on or before day; empty intervals lose to their successor.
	i := sort.Search(len(h.versions), func(i int) bool {
		return h.versions[i].ValidFrom.After(day)
	}) - 1
	if i < 0 || !h.versions[i].Contains(day) {
		return 0, werr.New(werr.KindNotFound, naturalKey, "no %s version valid on %s", dim, day.Format(schema.DateLayout))
	}
	return h.versions[i].SurrogateKey, nil
}

// Current returns the surrogate key of the open version.
func (s *Store) Current(dim, naturalKey string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.entities[dim][naturalKey]
	if h == nil || h.open < 0 {
		return 0, werr.New(werr.KindNotFound, naturalKey, "no open %s version", dim)
	}
	return h.versions[h.open].SurrogateKey, nil
}

// History returns copies of every version of naturalKey, oldest first.
func (s *Store) History(dim, naturalKey string) ([]Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.entities[dim][naturalKey]
	if h == nil || len(h.versions) == 0 {
		return nil, werr.New(werr.KindNotFound, naturalKey, "no %s version", dim)
	}
	out := make([]Version, len(h.versions))
	for i, v := range h.versions {
		out[i] = v.clone()
	}
	return out, nil
}

// Lookup returns a copy of the version with surrogate key sk.
func (s *Store) Lookup(sk int64) (Version, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byKey[sk]
	if !ok {
		return Version{}, false
	}
	return v.clone(), true
}

// Exists reports whether sk is a version of dim.
func (s *Store) Exists(dim string, sk int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byKey[sk]
	return ok && v.Dimension == dim
}

// Materialize returns the attributes of sk with sensitive values decoded.
// This is the only path by which plaintext of an encrypted column leaves the store.
func (s *Store) Materialize(sk int64) (map[string]string, error) {
	s.mu.RLock()
	v, ok := s.byKey[sk]
	var attrs map[string]string
	var dim string
	if ok {
		attrs, dim = v.Attributes, v.Dimension
	}
	s.mu.RUnlock()

	if !ok {
		return nil, werr.New(werr.KindNotFound, fmt.Sprintf("%d", sk), "unknown surrogate key")
	}
	d, _ := s.star.Dimension(dim)
	out := make(map[string]string, len(attrs))
	for k, val := range attrs {
		if d.IsSensitive(k) {
			plain, err := s.keyring.Open(val)
			if err != nil {
				return nil, werr.Wrap(werr.KindCodecFailure, dim+"."+k, err)
			}
			val = plain
		}
		out[k] = val
	}
	return out, nil
}

// Seq returns the last issued surrogate key.
func (s *Store) Seq() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

// Restore re-inserts a previously persisted version, keeping its surrogate
// key. Versions of one natural key must be restored oldest first.
func (s *Store) Restore(v Version) error {
	if _, ok := s.star.Dimension(v.Dimension); !ok {
		return werr.New(werr.KindInvalidRecord, v.Dimension, "unknown dimension")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.byKey[v.SurrogateKey]; dup {
		return werr.New(werr.KindInvalidRecord, fmt.Sprintf("%d", v.SurrogateKey), "surrogate key already restored")
	}
	h := s.entities[v.Dimension][v.NaturalKey]
	if h == nil {
		h = &history{open: -1}
		s.entities[v.Dimension][v.NaturalKey] = h
	}
	if n := len(h.versions); n > 0 {
		prev := h.versions[n-1]
		if prev.ValidTo == nil || !prev.ValidTo.Equal(v.ValidFrom) {
			return werr.New(werr.KindInvalidDate, v.NaturalKey, "restored version %d does not continue version %d", v.SurrogateKey, prev.SurrogateKey)
		}
	}

	stored := v.clone()
	stored.IsCurrent = stored.ValidTo == nil
	h.versions = append(h.versions, &stored)
	if stored.IsCurrent {
		h.open = len(h.versions) - 1
	}
	s.byKey[stored.SurrogateKey] = &stored
	if stored.SurrogateKey > s.seq {
		s.seq = stored.SurrogateKey
	}
	return nil
}

// ReadTx is a read-locked view of the store handed to Read callbacks.
type ReadTx struct {
	s *Store
}

// Version returns the stored version for sk without copying.
// Callers must not mutate the result or retain it past the callback.
func (tx ReadTx) Version(sk int64) (*Version, bool) {
	v, ok := tx.s.byKey[sk]
	return v, ok
}

// Seq returns the last issued surrogate key.
func (tx ReadTx) Seq() int64 {
	return tx.s.seq
}

// Read runs fn while holding the store's read lock.
func (s *Store) Read(fn func(tx ReadTx)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(ReadTx{s: s})
}

func (s *Store) validate(dim, naturalKey string, attrs map[string]string) (schema.Dimension, error) {
	d, ok := s.star.Dimension(dim)
	if !ok {
		return schema.Dimension{}, werr.New(werr.KindInvalidRecord, dim, "unknown dimension")
	}
	if naturalKey == "" {
		return schema.Dimension{}, werr.New(werr.KindInvalidRecord, dim, "natural key must not be empty")
	}
	for k := range attrs {
		if !d.HasAttribute(k) {
			return schema.Dimension{}, werr.New(werr.KindInvalidRecord, dim+"."+k, "unknown attribute")
		}
	}
	return d, nil
}

func (s *Store) seal(d schema.Dimension, attrs map[string]string) (map[string]string, error) {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if d.IsSensitive(k) {
			ct, err := s.keyring.Seal(v)
			if err != nil {
				return nil, werr.Wrap(werr.KindCodecFailure, d.Name+"."+k, err)
			}
			v = ct
		}
		out[k] = v
	}
	return out, nil
}

// differsLocked compares stored (sealed) attributes against incoming
// plaintext and reports whether a tracked or an untracked attribute changed.
func (s *Store) differsLocked(d schema.Dimension, stored, incoming map[string]string) (tracked, untracked bool, err error) {
	for _, attr := range d.Attributes {
		if tracked && untracked {
			break
		}
		old, hadOld := stored[attr]
		nv, hasNew := incoming[attr]
		changed := hadOld != hasNew
		if !changed && hadOld {
			if d.IsSensitive(attr) {
				plain, err := s.keyring.Open(old)
				if err != nil {
					return false, false, werr.Wrap(werr.KindCodecFailure, d.Name+"."+attr, err)
				}
				old = plain
			}
			changed = old != nv
		}
		if !changed {
			continue
		}
		if d.IsTracked(attr) {
			tracked = true
		} else {
			untracked = true
		}
	}
	return tracked, untracked, nil
}

func (s *Store) insertLocked(dim, naturalKey string, sealed map[string]string, from time.Time) *Version {
	h := s.entities[dim][naturalKey]
	if h == nil {
		h = &history{open: -1}
		s.entities[dim][naturalKey] = h
	}
	s.seq++
	v := &Version{
		SurrogateKey: s.seq,
		Dimension:    dim,
		NaturalKey:   naturalKey,
		Attributes:   sealed,
		ValidFrom:    from,
		IsCurrent:    true,
	}
	h.versions = append(h.versions, v)
	h.open = len(h.versions) - 1
	s.byKey[v.SurrogateKey] = v
	return v
}
