package cifp

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Text is an optional string field. Blank values are treated as absent.
type Text struct {
	Value string
	Valid bool
}

// TextOf trims s and returns it as a Text, absent when blank.
func TextOf(s string) Text {
	s = strings.TrimSpace(s)
	return Text{Value: s, Valid: s != ""}
}

// Or returns the value or def when absent.
func (t Text) Or(def string) string {
	if !t.Valid {
		return def
	}
	return t.Value
}

// String returns the value, or "" when absent.
func (t Text) String() string { return t.Value }

// UnmarshalJSON accepts strings, numbers and null.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Text{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*t = Text{}
			return nil
		}
		*t = TextOf(s)
		return nil
	}
	*t = TextOf(string(b))
	return nil
}

// Float is an optional numeric field.
type Float struct {
	Value float64
	Valid bool
}

// FloatOf returns a present Float.
func FloatOf(v float64) Float { return Float{Value: v, Valid: true} }

// ParseFloat parses s, returning an absent Float when s is blank or not a number.
func ParseFloat(s string) Float {
	s = strings.TrimSpace(s)
	if s == "" {
		return Float{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return FloatOf(v)
}

// Or returns the value or def when absent.
func (f Float) Or(def float64) float64 {
	if !f.Valid {
		return def
	}
	return f.Value
}

// Scale multiplies a present value by k.
func (f Float) Scale(k float64) Float {
	if !f.Valid {
		return f
	}
	return FloatOf(f.Value * k)
}

// Bounded returns f, or absent when its magnitude exceeds limit.
func (f Float) Bounded(limit float64) Float {
	if !f.Valid || math.Abs(f.Value) > limit {
		return Float{}
	}
	return f
}

// Any returns the value as an interface, nil when absent.
func (f Float) Any() any {
	if !f.Valid {
		return nil
	}
	return f.Value
}

// UnmarshalJSON accepts numbers, numeric strings and null. Values that do not
// parse are decoded as absent rather than failing the record.
func (f *Float) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = Float{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = Float{}
			return nil
		}
		*f = ParseFloat(s)
		return nil
	}
	*f = ParseFloat(string(b))
	return nil
}

// Flag is an optional boolean field.
type Flag struct {
	Value bool
	Valid bool
}

// FlagOf returns a present Flag.
func FlagOf(v bool) Flag { return Flag{Value: v, Valid: true} }

// ParseFlag reads Y/N style indicators.
func ParseFlag(s string) Flag {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "Y", "YES", "TRUE", "T", "1":
		return FlagOf(true)
	case "N", "NO", "FALSE", "F", "0":
		return FlagOf(false)
	}
	return Flag{}
}

// True reports whether the flag is present and set.
func (f Flag) True() bool { return f.Valid && f.Value }

// UnmarshalJSON accepts booleans, Y/N strings, 0/1 and null.
func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*f = Flag{}
	case bytes.Equal(b, []byte("true")):
		*f = FlagOf(true)
	case bytes.Equal(b, []byte("false")):
		*f = FlagOf(false)
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			*f = Flag{}
			return nil
		}
		*f = ParseFlag(s)
	default:
		*f = ParseFlag(string(b))
	}
	return nil
}
