// Package runway synthesizes runway surface polygons from threshold records
// and conflates them with a higher-fidelity airport diagram source.
package runway

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/aerotiles/internal/geodesy"
)

// FeetPerDegreeLat approximates one degree of latitude in feet.
const FeetPerDegreeLat = 364173.0

// OppositeEnd returns the reciprocal end of a runway label: the number plus
// 18 (wrapping past 36), zero padded, with L and R swapped and C kept. An
// "RW" prefix is preserved. Labels without a leading number have no
// opposite.
func OppositeEnd(label string) (string, bool) {
	prefix := ""
	rest := label
	if r, ok := strings.CutPrefix(label, "RW"); ok {
		prefix = "RW"
		rest = r
	}

	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n == 0 {
		return "", false
	}
	num, err := strconv.Atoi(rest[:n])
	if err != nil {
		return "", false
	}

	opp := num + 18
	if opp > 36 {
		opp -= 36
	}

	suffix := ""
	if n < len(rest) {
		switch rest[n] {
		case 'L':
			suffix = "R"
		case 'R':
			suffix = "L"
		case 'C':
			suffix = "C"
		}
	}
	return fmt.Sprintf("%s%02d%s", prefix, opp, suffix), true
}

// PairKey identifies a runway by its sorted end labels joined with "/".
type PairKey string

// NormalizePair strips every "RW", splits on "/" or "-", drops blank
// parts and sorts the rest, so "27R/09L" and "RW09L-RW27R" agree.
func NormalizePair(id string) PairKey {
	clean := strings.ReplaceAll(id, "RW", "")
	parts := strings.FieldsFunc(clean, func(r rune) bool { return r == '/' || r == '-' })

	ends := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ends = append(ends, p)
		}
	}
	slices.Sort(ends)
	return PairKey(strings.Join(ends, "/"))
}

// Ends returns the individual end labels of the key.
func (k PairKey) Ends() []string {
	if k == "" {
		return nil
	}
	return strings.Split(string(k), "/")
}

// SurfacePolygon builds the closed rectangle of width widthFt centered on the
// line p1→p2. Corners run p1+, p2+, p2-, p1-, p1+ where + is the left-hand
// offset. It reports false when the endpoints coincide.
func SurfacePolygon(p1, p2 geodesy.Coord, widthFt float64) (*geom.Polygon, bool) {
	latAvg := (p1.Lat + p2.Lat) / 2 * math.Pi / 180
	ftToDegLat := 1 / FeetPerDegreeLat
	ftToDegLon := 1 / (FeetPerDegreeLat * math.Cos(latAvg))

	dx := (p2.Lon - p1.Lon) / ftToDegLon
	dy := (p2.Lat - p1.Lat) / ftToDegLat
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil, false
	}

	hw := widthFt / 2
	offX := -dy / length * hw * ftToDegLon
	offY := dx / length * hw * ftToDegLat

	flat := []float64{
		p1.Lon + offX, p1.Lat + offY, p1.Elev,
		p2.Lon + offX, p2.Lat + offY, p2.Elev,
		p2.Lon - offX, p2.Lat - offY, p2.Elev,
		p1.Lon - offX, p1.Lat - offY, p1.Elev,
		p1.Lon + offX, p1.Lat + offY, p1.Elev,
	}
	return geom.NewPolygonFlat(geom.XYZ, flat, []int{len(flat)}), true
}
