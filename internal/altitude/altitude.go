// Package altitude converts published altitude tokens into feet.
package altitude

import (
	"strconv"
	"strings"
)

// Unlimited is the value assigned to an "UNL" upper limit.
const Unlimited = 60000.0

// Normalize parses a free-text altitude into feet.
//
// Empty and "GND" are 0, "UNL" is Unlimited, plain numbers are returned as-is
// and "FLnnn" is nnn*100. Anything else degrades to 0.
func Normalize(raw string) float64 {
	s := strings.TrimSpace(raw)
	switch s {
	case "", "GND":
		return 0
	case "UNL":
		return Unlimited
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}

	if rest, ok := strings.CutPrefix(s, "FL"); ok {
		if v, err := strconv.ParseFloat(rest, 64); err == nil {
			return v * 100
		}
	}

	return 0
}

// ParseMEA parses a minimum enroute altitude. All-digit strings are read as
// integers; everything else goes through Normalize and is truncated.
func ParseMEA(raw string) int {
	s := strings.TrimSpace(raw)
	if s != "" && isDigits(s) {
		if v, err := strconv.Atoi(s); err == nil {
			return v
		}
	}
	return int(Normalize(s))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
