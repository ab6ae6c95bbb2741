package smart

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a tolerant numeric field for smartctl JSON. Firmware and
// bridge quirks produce numbers, numeric strings, objects, or garbage
// in the same position across devices; decoding never fails, a value
// that is not a finite number is simply absent.
type Number struct {
	val float64
	ok  bool
}

// NumberOf wraps a known value, mainly for tests and fallbacks.
func NumberOf(v float64) Number {
	return Number{val: v, ok: true}
}

// UnmarshalJSON accepts JSON numbers and numeric strings. Anything
// else (null, bool, object, array, non-numeric string) leaves the
// Number absent without reporting an error.
func (n *Number) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		n.set(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			n.set(f)
		}
	}
	return nil
}

func (n *Number) set(f float64) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	n.val = f
	n.ok = true
}

// Defined reports whether a finite numeric value was present.
func (n Number) Defined() bool { return n.ok }

// Float64 returns the value, or def when absent.
func (n Number) Float64(def float64) float64 {
	if !n.ok {
		return def
	}
	return n.val
}

// Int64 returns the truncated value, or def when absent.
func (n Number) Int64(def int64) int64 {
	if !n.ok {
		return def
	}
	return int64(n.val)
}
