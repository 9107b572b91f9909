package record

import (
	"fmt"
	"strconv"
)

// ID identifies a record within a collection. Identifiers arrive in two
// renderings: numeric surrogate keys assigned locally, and string document
// keys assigned by the cloud store. An ID normalizes on construction so that
// "42" and 42 compare equal, which keeps a remote copy of a locally created
// row matched to its original instead of being treated as a new record.
type ID struct {
	raw   string
	num   int64
	isNum bool
}

// NewID builds an ID from its string rendering, detecting numeric form.
func NewID(raw string) ID {
	id := ID{raw: raw}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		id.num = n
		id.isNum = true
	}
	return id
}

// NumericID builds an ID from a numeric surrogate key.
func NumericID(n int64) ID {
	return ID{raw: strconv.FormatInt(n, 10), num: n, isNum: true}
}

// IDFromAny builds an ID from the dynamic value shapes seen in decoded
// documents (string keys, JSON numbers, native ints).
func IDFromAny(v any) ID {
	switch value := v.(type) {
	case string:
		return NewID(value)
	case float64:
		return NumericID(int64(value))
	case int64:
		return NumericID(value)
	case int:
		return NumericID(int64(value))
	case nil:
		return ID{}
	default:
		return NewID(fmt.Sprintf("%v", value))
	}
}

// String returns the literal rendering the ID was built from.
func (id ID) String() string { return id.raw }

// Key returns the canonical rendering used for map keys and storage:
// the decimal form for numeric-like IDs, the literal string otherwise.
func (id ID) Key() string {
	if id.isNum {
		return strconv.FormatInt(id.num, 10)
	}
	return id.raw
}

// Numeric returns the parsed numeric form, if the ID has one.
func (id ID) Numeric() (int64, bool) { return id.num, id.isNum }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id.raw == "" }

// Equal reports whether two IDs denote the same logical value. Numeric-like
// IDs compare by parsed value, so leading zeros or type differences between
// the local and cloud renderings do not split one record into two.
func (id ID) Equal(other ID) bool {
	if id.isNum && other.isNum {
		return id.num == other.num
	}
	return id.raw == other.raw
}
