package assemble

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/sells-group/aerotiles/internal/altitude"
	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/feature"
	"github.com/sells-group/aerotiles/internal/fixes"
	"github.com/sells-group/aerotiles/internal/geodesy"
	"github.com/sells-group/aerotiles/internal/rank"
)

type procedureKey struct {
	airport, procedure, transition cifp.Text
}

// Procedures emits one 3D line per (airport, procedure, transition) group,
// legs ordered by sequence number. A leg whose fix resolves sits at the
// higher of the fix elevation and its altitude constraint. Otherwise its
// inline coordinates are used at the constraint altitude. Legs with neither
// are skipped, and groups with fewer than two usable legs are dropped.
func Procedures(ds *cifp.Dataset, table *fixes.Table) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerProcedures, "airport", "procedure", "transition", "rank")
	var stats Stats

	g := newGroups[procedureKey, cifp.ProcedureLeg]()
	for _, leg := range ds.Procedures {
		g.add(procedureKey{leg.FacilityID, leg.ProcedureID, leg.TransitionID}, leg)
	}

	for _, key := range g.order {
		legs := g.items[key]
		slices.SortStableFunc(legs, func(a, b cifp.ProcedureLeg) int {
			return cmp.Compare(a.Seq.Or(0), b.Seq.Or(0))
		})

		coords := make([]geodesy.Coord, 0, len(legs))
		for _, leg := range legs {
			alt := altitude.Normalize(leg.Alt1.Or(leg.TransAlt.Value))
			if leg.FixID.Valid {
				if fx, ok := table.Resolve(leg.FixID.Value); ok {
					coords = append(coords, geodesy.Coord{Lon: fx.Lon, Lat: fx.Lat, Elev: math.Max(fx.Elev, alt)})
					continue
				}
			}
			if leg.Lat.Valid && leg.Lon.Valid {
				coords = append(coords, geodesy.Coord{Lon: leg.Lon.Value, Lat: leg.Lat.Value, Elev: alt})
				continue
			}
			if leg.FixID.Valid {
				stats.Unresolved++
			}
		}

		if len(coords) < 2 {
			stats.Dropped++
			continue
		}
		coll.Add(feature.New(feature.LineString(geodesy.Unwrap(coords)), map[string]any{
			"airport":    textAny(key.airport),
			"procedure":  textAny(key.procedure),
			"transition": textAny(key.transition),
		}, rank.Default))
	}

	stats.Emitted = coll.Len()
	return coll, stats
}

// RouteType returns the route type recorded on an airway point, or infers it
// from the airway identifier when neither type field is present.
func RouteType(p cifp.AirwayPoint) string {
	if p.RouteType.Valid {
		return p.RouteType.Value
	}
	if p.AirwayType.Valid {
		return p.AirwayType.Value
	}
	id := p.AirwayID.Value
	switch {
	case strings.HasPrefix(id, "V"):
		return "Victor"
	case strings.HasPrefix(id, "Q"), strings.HasPrefix(id, "T"):
		return "GPS"
	case strings.HasPrefix(id, "J"):
		return "Victor"
	}
	return "Unknown"
}

// Structure classifies an airway as High for jet and Q routes, Low otherwise.
func Structure(airwayID string) string {
	if strings.HasPrefix(airwayID, "J") || strings.HasPrefix(airwayID, "Q") {
		return "High"
	}
	return "Low"
}

type airwayFix struct {
	point cifp.AirwayPoint
	fix   fixes.Fix
}

// Airways emits one 3D two-point segment per consecutive pair of resolved
// points along each airway. Points whose fix does not resolve are removed
// before pairing, so the segment on either side of a gap joins its
// neighbours directly. Segment metadata comes from the first point. Each
// endpoint sits at the higher of its fix elevation and the first point's
// minimum altitude. Segments whose endpoints coincide are skipped.
func Airways(ds *cifp.Dataset, table *fixes.Table) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerAirways, "airway", "mea", "distance", "route_type", "structure", "rank")
	var stats Stats

	g := newGroups[string, cifp.AirwayPoint]()
	for _, p := range ds.AirwayPoints {
		if !p.AirwayID.Valid {
			stats.Dropped++
			continue
		}
		g.add(p.AirwayID.Value, p)
	}

	for _, id := range g.order {
		points := g.items[id]
		slices.SortStableFunc(points, func(a, b cifp.AirwayPoint) int {
			return cmp.Compare(a.Seq.Or(0), b.Seq.Or(0))
		})

		resolved := make([]airwayFix, 0, len(points))
		for _, p := range points {
			fx, ok := table.Resolve(p.PointID.Value)
			if !ok {
				stats.Unresolved++
				continue
			}
			resolved = append(resolved, airwayFix{point: p, fix: fx})
		}

		for i := 0; i+1 < len(resolved); i++ {
			first, second := resolved[i], resolved[i+1]
			minAlt := first.point.MinAlt.Value
			z := altitude.Normalize(minAlt)

			pair := geodesy.Unwrap([]geodesy.Coord{first.fix.Coord, second.fix.Coord})
			if pair[0].Lon == pair[1].Lon && pair[0].Lat == pair[1].Lat {
				stats.Dropped++
				continue
			}
			pair[0].Elev = math.Max(first.fix.Elev, z)
			pair[1].Elev = math.Max(second.fix.Elev, z)

			dist := geodesy.DistanceNM(first.fix.Lon, first.fix.Lat, second.fix.Lon, second.fix.Lat)
			coll.Add(feature.New(feature.LineString(pair), map[string]any{
				"airway":     id,
				"mea":        altitude.ParseMEA(minAlt),
				"distance":   int(math.RoundToEven(dist)),
				"route_type": RouteType(first.point),
				"structure":  Structure(id),
			}, rank.Default))
		}
	}

	stats.Emitted = coll.Len()
	return coll, stats
}
