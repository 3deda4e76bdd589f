// Package geodesy holds the spherical earth math used to build features:
// great-circle distance, direct projection and antimeridian unwrapping.
package geodesy

import "math"

const (
	// EarthRadiusNM is the mean earth radius in nautical miles.
	EarthRadiusNM = 3440.065
	// FeetPerNM converts nautical miles to feet.
	FeetPerNM = 6076.12
	// EarthRadiusFt is EarthRadiusNM expressed in feet.
	EarthRadiusFt = EarthRadiusNM * FeetPerNM
)

// Coord is a lon/lat position in degrees with an elevation in feet.
type Coord struct {
	Lon  float64
	Lat  float64
	Elev float64
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

// DistanceNM returns the haversine distance between two points in nautical miles.
func DistanceNM(lon1, lat1, lon2, lat2 float64) float64 {
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusNM * c
}

// Project returns the point reached by travelling distanceFt from origin
// along the initial true bearing. The elevation of origin is carried over.
func Project(origin Coord, bearingDeg, distanceFt float64) Coord {
	lat1 := rad(origin.Lat)
	lon1 := rad(origin.Lon)
	brg := rad(bearingDeg)
	d := distanceFt / EarthRadiusFt

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(math.Sin(brg)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))

	return Coord{Lon: deg(lon2), Lat: deg(lat2), Elev: origin.Elev}
}

// Unwrap shifts longitudes by multiples of 360 so that no two successive
// coordinates differ by more than 180 degrees. The returned slice is new;
// the result may contain longitudes outside [-180, 180].
func Unwrap(coords []Coord) []Coord {
	if len(coords) == 0 {
		return coords
	}

	out := make([]Coord, len(coords))
	out[0] = coords[0]
	for i := 1; i < len(coords); i++ {
		c := coords[i]
		prev := out[i-1].Lon
		d := c.Lon - prev
		if d > 180 || d < -180 {
			r := math.Remainder(d, 360)
			// A step of exactly half a turn keeps the direction it came from.
			switch {
			case r == -180 && d > 0:
				r = 180
			case r == 180 && d < 0:
				r = -180
			}
			c.Lon = prev + r
		}
		out[i] = c
	}
	return out
}
