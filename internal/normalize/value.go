package normalize

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

const nbsp = "\u00a0"

// ParseNumeric takes a raw value coming out of a JSON document or a worksheet
// cell and determines whether it holds a number. Values that are already
// numeric are returned unchanged. Anything else is turned into a string, trimmed,
// has a decimal comma replaced by a dot and is then parsed first as an integer
// and then as a float. If neither parse works the original value is returned
// along with false. ParseNumeric never fails, a non-numeric value is a normal
// outcome. NaN and infinities are not numbers here, JSON has no way to write
// them. Examples:
//
//	"5,71" => 5.71, true
//	"42"   => 42, true
//	"N/A"  => "N/A", false
//	"inf"  => "inf", false
//	7      => 7, true
func ParseNumeric(raw interface{}) (interface{}, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, true
	case float32:
		return finiteOrString(float64(v), v)
	case float64:
		return finiteOrString(v, v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		if f, err := v.Float64(); err == nil && isFinite(f) {
			return f, true
		}
		return v.String(), false
	case bool:
		return v, false
	}

	str, err := cast.ToStringE(raw)
	if err != nil {
		return raw, false
	}

	str = strings.Replace(strings.TrimSpace(str), ",", ".", 1)
	if str == "" {
		return raw, false
	}

	if i, err := strconv.ParseInt(str, 10, 64); err == nil {
		return i, true
	}

	if f, err := strconv.ParseFloat(str, 64); err == nil && isFinite(f) {
		return f, true
	}

	return raw, false
}

// finiteOrString returns raw when f is finite and the string form of f
// otherwise.
func finiteOrString(f float64, raw interface{}) (interface{}, bool) {
	if isFinite(f) {
		return raw, true
	}
	return strconv.FormatFloat(f, 'g', -1, 64), false
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// CleanUnitText turns a raw unit into a string with surrounding white space
// and non-breaking spaces removed. A nil unit becomes "". An empty result
// means there is no unit.
func CleanUnitText(raw interface{}) string {
	if raw == nil {
		return ""
	}

	str, err := cast.ToStringE(raw)
	if err != nil {
		return ""
	}

	return CleanText(str)
}

// CleanText trims the string and strips non-breaking spaces that spreadsheet
// exports like to sprinkle into cells.
func CleanText(str string) string {
	return strings.TrimSpace(strings.ReplaceAll(str, nbsp, ""))
}

// Stringify returns the string form of a scalar value. nil becomes "".
func Stringify(raw interface{}) string {
	if raw == nil {
		return ""
	}
	return strings.TrimSpace(cast.ToString(raw))
}

// AttachUnit applies the unit attachment policy. A unit is only attached to
// a value that parses as a number. The returned value is the parsed number
// when parsing succeeded, otherwise the original value. mismatch is true when
// a unit was given for a value that is not a number, in that case the unit is
// dropped and the caller is expected to report it.
func AttachUnit(value, unit interface{}) (v interface{}, attachedUnit string, mismatch bool) {
	u := CleanUnitText(unit)
	parsed, isNumeric := ParseNumeric(value)

	switch {
	case u == "":
		return parsed, "", false
	case isNumeric:
		return parsed, u, false
	case IsEmpty(value):
		// Nothing to attach the unit to, this isn't a mismatch just a
		// missing value.
		return value, "", false
	default:
		return parsed, "", true
	}
}

// IsEmpty returns true for nil values and values that are blank after trimming.
func IsEmpty(value interface{}) bool {
	if value == nil {
		return true
	}

	if s, ok := value.(string); ok {
		return CleanText(s) == ""
	}

	return false
}
