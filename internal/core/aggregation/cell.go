package aggregation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type cellKind uint8

const (
	kindValue cellKind = iota
	kindNull
	kindAll
)

// Cell is a grouping attribute value: a concrete value, a real NULL from the
// data, or the All marker of a rolled-up attribute. All never compares equal
// to a value or to NULL.
type Cell struct {
	kind  cellKind
	value string
}

// Value returns a concrete attribute value.
func Value(v string) Cell {
	return Cell{kind: kindValue, value: v}
}

// Null returns the cell of an attribute that is absent in the data.
func Null() Cell {
	return Cell{kind: kindNull}
}

// All returns the rolled-up marker.
func All() Cell {
	return Cell{kind: kindAll}
}

func (c Cell) IsAll() bool {
	return c.kind == kindAll
}

func (c Cell) IsNull() bool {
	return c.kind == kindNull
}

// Str returns the concrete value and whether there is one.
func (c Cell) Str() (string, bool) {
	return c.value, c.kind == kindValue
}

func (c Cell) String() string {
	switch c.kind {
	case kindAll:
		return "ALL"
	case kindNull:
		return "NULL"
	default:
		return c.value
	}
}

// Compare orders NULL before values before All; values compare lexically.
func (c Cell) Compare(o Cell) int {
	if c.kind != o.kind {
		return rank(c.kind) - rank(o.kind)
	}
	return strings.Compare(c.value, o.value)
}

func rank(k cellKind) int {
	switch k {
	case kindNull:
		return 0
	case kindValue:
		return 1
	default:
		return 2
	}
}

var allJSON = []byte(`{"all":true}`)

// MarshalJSON encodes All as {"all":true}, NULL as null, values as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case kindAll:
		return allJSON, nil
	case kindNull:
		return []byte("null"), nil
	default:
		return json.Marshal(c.value)
	}
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Null()
		return nil
	case len(data) > 0 && data[0] == '{':
		var marker struct {
			All bool `json:"all"`
		}
		if err := json.Unmarshal(data, &marker); err != nil {
			return err
		}
		if !marker.All {
			return fmt.Errorf("invalid cell %s", data)
		}
		*c = All()
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Value(s)
		return nil
	}
}

// AppendKey writes an unambiguous, length-prefixed encoding of c to b.
func (c Cell) AppendKey(b *strings.Builder) {
	b.WriteByte(byte('0' + c.kind))
	b.WriteString(strconv.Itoa(len(c.value)))
	b.WriteByte(':')
	b.WriteString(c.value)
}
