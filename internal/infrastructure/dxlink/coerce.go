package dxlink

import (
	"encoding/json"
	"math"
	"strconv"
	"unicode"
)

// coerceFloat normalizes a wire value to an optional float: nil stays nil,
// strings are parsed only when every rune is numeric, NaN becomes nil.
func coerceFloat(v any) *float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if !isNumeric(x) {
			return nil
		}
		p, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return nil
		}
		f = p
	case json.Number:
		p, err := x.Float64()
		if err != nil {
			return nil
		}
		f = p
	case float64:
		f = x
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	default:
		return nil
	}
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

// isNumeric reports whether s is non-empty and made only of numeric runes.
// Signs, decimal points and exponents do not count.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsNumber(r) {
			return false
		}
	}
	return true
}

// coerceInt converts a wire value to an integer; ok is false for null, NaN
// and non-numeric values.
func coerceInt(v any) (int64, bool) {
	if n, isNum := v.(json.Number); isNum {
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	p := coerceFloat(v)
	if p == nil || math.IsInf(*p, 0) {
		return 0, false
	}
	return int64(*p), true
}

// fields is one raw feed event. Optional values (floats, strings, flags)
// read an absent key as no value. Integer fields have no empty value in the
// records, so an absent integer key is a decode error.
type fields map[string]any

func (f fields) str(key string) string {
	switch x := f[key].(type) {
	case string:
		return x
	case json.Number:
		return x.String()
	}
	return ""
}

func (f fields) float(key string) *float64 {
	return coerceFloat(f[key])
}

func (f fields) bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// int requires the key to be present; null or NaN decode to zero.
func (f fields) int(key string) (int64, error) {
	v, ok := f[key]
	if !ok {
		return 0, errMissingField
	}
	i, _ := coerceInt(v)
	return i, nil
}

// requiredInt fails unless the key holds a number.
func (f fields) requiredInt(key string) (int64, error) {
	v, ok := f[key]
	if !ok {
		return 0, errMissingField
	}
	i, ok := coerceInt(v)
	if !ok {
		return 0, strconv.ErrSyntax
	}
	return i, nil
}
