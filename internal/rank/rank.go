// Package rank assigns declutter priorities to features. Rank 1 is the most
// important and stays visible at every zoom; larger ranks drop out first.
package rank

import "strings"

const (
	// Default is used for feature types without a dedicated rule.
	Default = 5
	// NDB is the fixed rank of non-directional beacons.
	NDB = 5
	// Obstacle is the fixed rank of obstacles.
	Obstacle = 6
	// MaxWaypoint caps waypoint ranks.
	MaxWaypoint = 6
)

// AirportFacts are the inputs to the airport rule.
type AirportFacts struct {
	Ident         string
	FAR139        string
	Towered       bool
	Military      bool
	LongestRunway int
}

// Airport ranks an airport by service index, tower, runway length and code.
// Military fields with a runway of at least 10000 ft are always rank 1.
func Airport(f AirportFacts) int {
	r := 4
	switch {
	case strings.ContainsAny(f.FAR139, "DE"):
		r = 1
	case strings.ContainsAny(f.FAR139, "ABC") || f.Towered || f.LongestRunway >= 7500:
		r = 2
	case (strings.HasPrefix(f.Ident, "K") && len(f.Ident) == 4) || f.LongestRunway >= 4000:
		r = 3
	}
	if f.Military && f.LongestRunway >= 10000 {
		r = 1
	}
	return r
}

// Navaid ranks a VHF navaid by the second character of its class code.
func Navaid(class string) int {
	if len(class) < 2 {
		return Default
	}
	switch class[1] {
	case 'H':
		return 2
	case 'L':
		return 3
	case 'T':
		return 4
	}
	return Default
}

// Waypoint ranks a waypoint by type (C compulsory, R RNAV) and usage
// (H high, L low, B both).
func Waypoint(typeCode, usage string) int {
	base := 5
	switch typeCode {
	case "C":
		base = 3
	case "R":
		base = 4
	}

	r := base
	switch usage {
	case "H", "B":
	case "L":
		r = base + 1
	default:
		r = base + 2
	}
	return min(r, MaxWaypoint)
}

// MinZoom maps a rank to the lowest zoom the feature is shown at.
func MinZoom(rank int) int {
	if rank <= 1 {
		return 0
	}
	return rank + 1
}
