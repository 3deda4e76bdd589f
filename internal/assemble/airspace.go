package assemble

import (
	"cmp"
	"slices"

	"github.com/sells-group/aerotiles/internal/altitude"
	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/feature"
	"github.com/sells-group/aerotiles/internal/geodesy"
	"github.com/sells-group/aerotiles/internal/rank"
)

type airspaceKey struct {
	name, kind, mult string
}

// Airspaces groups controlled and restrictive boundary points by
// (name, type, multiple code) and emits a polygon at the upper limit for
// every group of three or more vertices. The ring is closed if needed. A
// group of exactly two vertices becomes a line; smaller groups are dropped.
func Airspaces(ds *cifp.Dataset) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerAirspaces, "name", "type", "rank")
	var stats Stats

	g := newGroups[airspaceKey, cifp.AirspacePoint]()
	for _, group := range [][]cifp.AirspacePoint{ds.Controlled, ds.Restrictive} {
		for _, p := range group {
			g.add(airspaceKey{p.Name.Value, p.Type.Value, p.MultCode.Value}, p)
		}
	}

	for _, key := range g.order {
		points := g.items[key]
		slices.SortStableFunc(points, func(a, b cifp.AirspacePoint) int {
			return cmp.Compare(a.Seq.Or(0), b.Seq.Or(0))
		})

		coords := make([]geodesy.Coord, 0, len(points)+1)
		for _, p := range points {
			if !p.Lat.Valid || !p.Lon.Valid {
				continue
			}
			coords = append(coords, geodesy.Coord{
				Lon:  p.Lon.Value,
				Lat:  p.Lat.Value,
				Elev: altitude.Normalize(p.UpperLimit.Value),
			})
		}

		props := map[string]any{"name": key.name, "type": key.kind}
		switch {
		case len(coords) >= 3:
			ring := geodesy.Unwrap(coords)
			if ring[0] != ring[len(ring)-1] {
				ring = append(ring, ring[0])
			}
			coll.Add(feature.New(feature.Polygon(ring), props, rank.Default))
		case len(coords) == 2:
			coll.Add(feature.New(feature.LineString(geodesy.Unwrap(coords)), props, rank.Default))
		default:
			stats.Dropped++
		}
	}

	stats.Emitted = coll.Len()
	return coll, stats
}
