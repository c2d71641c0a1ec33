package aggregation

import (
	"math/bits"
	"sort"
	"strings"

	werr "github.com/aevon-lab/salescube/internal/core/errors"
)

// Mode selects how a group-by list is expanded into grouping sets.
type Mode string

const (
	ModePlain  Mode = "plain"
	ModeRollup Mode = "rollup"
	ModeCube   Mode = "cube"
)

// DefaultMaxCubeAttributes bounds cube expansion to 4096 grouping sets.
const DefaultMaxCubeAttributes = 12

// ParseMode accepts a mode name case-insensitively; "" means plain.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModePlain, nil
	case ModePlain, ModeRollup, ModeCube:
		return m, nil
	default:
		return "", werr.New(werr.KindInvalidGroupingSpec, s, "unknown grouping mode")
	}
}

// GroupingSet is one list of attributes to group by. Attributes holds the
// kept attributes in group-by order; Mask has bit n-1-i set when attribute
// i of the group-by list is rolled up.
type GroupingSet struct {
	Attributes []string
	Mask       uint64
}

// AllMask is the grouping ID of the grand total over n attributes.
func AllMask(n int) uint64 {
	return uint64(1)<<uint(n) - 1
}

// Rolled reports whether group-by attribute i of n is All in mask.
func Rolled(mask uint64, i, n int) bool {
	return mask&(uint64(1)<<uint(n-1-i)) != 0
}

// Expand returns the grouping sets for attrs under mode.
//
// plain yields attrs itself. rollup yields the n+1 prefixes from longest to
// empty. cube yields all 2^n subsets, fewest rolled-up attributes first and
// ties by ascending mask.
func Expand(attrs []string, mode Mode) ([]GroupingSet, error) {
	return expand(attrs, mode, DefaultMaxCubeAttributes)
}

func expand(attrs []string, mode Mode, maxCube int) ([]GroupingSet, error) {
	seen := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		if seen[a] {
			return nil, werr.New(werr.KindInvalidGroupingSpec, a, "attribute listed twice")
		}
		seen[a] = true
	}

	n := len(attrs)
	if n >= 64 {
		return nil, werr.New(werr.KindInvalidGroupingSpec, string(mode), "too many grouping attributes")
	}
	var masks []uint64
	switch mode {
	case ModePlain, "":
		masks = []uint64{0}
	case ModeRollup:
		for k := 0; k <= n; k++ {
			masks = append(masks, AllMask(k))
		}
	case ModeCube:
		if n > maxCube {
			return nil, werr.New(werr.KindInvalidGroupingSpec, string(mode),
				"cube over %d attributes exceeds the limit of %d", n, maxCube)
		}
		for m := uint64(0); m <= AllMask(n); m++ {
			masks = append(masks, m)
		}
		sort.SliceStable(masks, func(i, j int) bool {
			return bits.OnesCount64(masks[i]) < bits.OnesCount64(masks[j])
		})
	default:
		return nil, werr.New(werr.KindInvalidGroupingSpec, string(mode), "unknown grouping mode")
	}

	sets := make([]GroupingSet, 0, len(masks))
	for _, m := range masks {
		kept := make([]string, 0, n)
		for i, a := range attrs {
			if !Rolled(m, i, n) {
				kept = append(kept, a)
			}
		}
		sets = append(sets, GroupingSet{Attributes: kept, Mask: m})
	}
	return sets, nil
}
