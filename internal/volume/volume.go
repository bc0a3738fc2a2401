// Package volume turns user-supplied loudness values into gains in [0, 1].
package volume

import (
	"math"
	"strconv"
	"strings"
)

// Default gains per channel role when a note or the config gives nothing usable.
const (
	DefaultScoped   = 0.9
	DefaultFallback = 0.8
)

// percentCeiling is the largest value accepted as a percentage.
const percentCeiling = 100

// Normalize converts a raw loudness value into a gain in [0, 1].
//
// Accepted inputs are nil, any Go integer or float kind, and numeric strings
// (surrounding whitespace and a trailing "%" are allowed). The rules are:
//
//	nil, unparsable, NaN, ±Inf  -> def
//	v < 0                       -> def
//	0 <= v <= 1                 -> v
//	1 < v <= 100                -> v / 100
//	v > 100                     -> def
//
// A string with a trailing "%" is always read as a percentage, so "0.5%" is 0.005.
// Normalize never fails; def itself is clamped before being returned.
func Normalize(raw any, def float64) float64 {
	v, percent, ok := parse(raw)
	if !ok {
		return Clamp(def)
	}
	return fromNumber(v, percent, def)
}

// IsPercent reports whether Normalize would read raw as a percentage.
func IsPercent(raw any) bool {
	v, percent, ok := parse(raw)
	if !ok || math.IsNaN(v) || v < 0 || v > percentCeiling {
		return false
	}
	return percent || v > 1
}

// Clamp limits v to [0, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func fromNumber(v float64, percent bool, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > percentCeiling {
		return Clamp(def)
	}
	if percent || v > 1 {
		v /= percentCeiling
	}
	return Clamp(v)
}

func parse(raw any) (v float64, percent, ok bool) {
	switch x := raw.(type) {
	case nil:
		return 0, false, false
	case float64:
		return x, false, true
	case float32:
		return float64(x), false, true
	case int:
		return float64(x), false, true
	case int8:
		return float64(x), false, true
	case int16:
		return float64(x), false, true
	case int32:
		return float64(x), false, true
	case int64:
		return float64(x), false, true
	case uint:
		return float64(x), false, true
	case uint8:
		return float64(x), false, true
	case uint16:
		return float64(x), false, true
	case uint32:
		return float64(x), false, true
	case uint64:
		return float64(x), false, true
	case string:
		return parseString(x)
	default:
		return 0, false, false
	}
}

func parseString(s string) (v float64, percent, ok bool) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	}
	if s == "" {
		return 0, false, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	return f, percent, true
}
