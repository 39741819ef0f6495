package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a sealed interface representing the closed set of scalar values
// that flow through the engine: condition literals, folded scalars and the
// fields of an AttributeBundle.
//
// Only Null, Bool, Int, Float and Text implement it. The variant is resolved
// once (ParseLiteral at parse time, Coerce at fold time) and carried as a
// tagged value, so renderers never inspect dynamic types.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an SQL NULL.
type Null struct{}

func (Null) value() {}

// MarshalJSON implements json.Marshaler for Null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalYAML implements yaml.Marshaler for Null.
func (Null) MarshalYAML() (any, error) {
	return nil, nil
}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Int represents an integral number.
type Int int64

func (Int) value() {}

// Float represents a finite floating-point number.
type Float float64

func (Float) value() {}

// Text represents any value that is not a number, a boolean or NULL.
type Text string

func (Text) value() {}

// ParseLiteral resolves a condition literal into its Value variant.
//
//	"null" (any case)       → Null
//	"true" / "false"        → Bool
//	"4000", "-12"           → Int
//	"4000.5", "1e3"         → Float (finite only)
//	anything else           → Text
//
// The input is expected to be trimmed already.
func ParseLiteral(s string) Value {
	switch strings.ToLower(s) {
	case "null":
		return Null{}
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if n, ok := parseNumber(s); ok {
		return n
	}
	return Text(s)
}

// parseNumber tries int64 first and then a finite float64.
func parseNumber(s string) (Value, bool) {
	if s == "" {
		return nil, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Int(i), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, false
	}
	return Float(f), true
}

// Coerce converts a raw driver value into a Value.
//
// Strings (and []byte) are opportunistically converted to an integer, then a
// float, falling back to the original text, so that "4000" and 4000 fold to
// the same element.
func Coerce(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Null{}
	case Value:
		return v
	case int64:
		return Int(v)
	case int:
		return Int(v)
	case int32:
		return Int(v)
	case float64:
		return coerceFloat(v)
	case float32:
		return coerceFloat(float64(v))
	case bool:
		return Bool(v)
	case []byte:
		return coerceString(string(v))
	case string:
		return coerceString(v)
	default:
		return coerceString(fmt.Sprint(v))
	}
}

func coerceFloat(f float64) Value {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return Text(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return Float(f)
}

func coerceString(s string) Value {
	if n, ok := parseNumber(strings.TrimSpace(s)); ok {
		return n
	}
	return Text(s)
}

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// Format renders v as plain text for display.
func Format(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return ""
	case Bool:
		return strconv.FormatBool(bool(val))
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Float:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Text:
		return string(val)
	default:
		return fmt.Sprint(v)
	}
}

// SQLLiteral renders v as an inline SQL literal following the quoting policy:
// numbers are emitted unquoted, text is single-quoted (embedded quotes are
// doubled), booleans as TRUE/FALSE and Null as NULL.
func SQLLiteral(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "NULL"
	case Bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case Int, Float:
		return Format(val)
	case Text:
		return "'" + strings.ReplaceAll(string(val), "'", "''") + "'"
	default:
		return "NULL"
	}
}

// Param converts v into a database/sql argument.
func Param(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case Text:
		return string(val)
	default:
		return nil
	}
}

// rank orders the variants: Null < Bool < numbers < Text.
func rank(v Value) int {
	switch v.(type) {
	case nil, Null:
		return 0
	case Bool:
		return 1
	case Int, Float:
		return 2
	default:
		return 3
	}
}

// numeric returns the float64 view of a number variant.
func numeric(v Value) float64 {
	switch val := v.(type) {
	case Int:
		return float64(val)
	case Float:
		return float64(val)
	}
	return 0
}

// Compare defines a total order over Values.
// Numbers compare numerically, so Int(4000) and Float(4000) are equal.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		ab, bb := bool(a.(Bool)), bool(b.(Bool))
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		default:
			return 1
		}
	case 2:
		// Two Ints compare exactly to avoid float64 precision loss.
		if ai, ok := a.(Int); ok {
			if bi, ok := b.(Int); ok {
				switch {
				case ai < bi:
					return -1
				case ai > bi:
					return 1
				}
				return 0
			}
		}
		af, bf := numeric(a), numeric(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(string(a.(Text)), string(b.(Text)))
	}
	return 0
}

// Key returns a string that is equal for two Values exactly when Compare
// reports them equal. It is used as a set key during folding.
func Key(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "z"
	case Bool:
		return "b:" + strconv.FormatBool(bool(val))
	case Int:
		return "n:" + strconv.FormatFloat(float64(val), 'g', -1, 64) + ":" + strconv.FormatInt(int64(val), 10)
	case Float:
		f := float64(val)
		if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64) + ":" + strconv.FormatInt(int64(f), 10)
		}
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	case Text:
		return "s:" + string(val)
	default:
		return "?" + fmt.Sprint(v)
	}
}

// MarshalValue marshals any Value to JSON.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(bool(val))
	case Int:
		return json.Marshal(int64(val))
	case Float:
		return json.Marshal(float64(val))
	case Text:
		return json.Marshal(string(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}
