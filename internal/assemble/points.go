package assemble

import (
	"strings"

	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/feature"
	"github.com/sells-group/aerotiles/internal/fixes"
	"github.com/sells-group/aerotiles/internal/geodesy"
	"github.com/sells-group/aerotiles/internal/nasr"
	"github.com/sells-group/aerotiles/internal/rank"
)

// FacilityType classifies an airport by surface and usage.
func FacilityType(surface, usage string) string {
	switch {
	case surface == "W":
		return "seaplane"
	case usage == "M":
		return "military"
	case usage == "P":
		return "private"
	case surface == "H":
		return "civil_hard"
	}
	return "civil_soft"
}

// NavaidType classifies a VHF navaid from its class code.
func NavaidType(class string) string {
	switch {
	case strings.HasPrefix(class, "V"):
		switch {
		case strings.Contains(class, "T"):
			return "vortac"
		case strings.Contains(class, "D"):
			return "vordme"
		}
		return "vor"
	case strings.HasPrefix(class, "T"), strings.HasPrefix(class, "M"):
		return "tacan"
	case strings.HasPrefix(class, "D"):
		return "dme"
	}
	return "vhf"
}

// WaypointType names a waypoint type code.
func WaypointType(code string) string {
	switch code {
	case "C":
		return "compulsory"
	case "R":
		return "rnav"
	}
	return "named"
}

// Airports emits one point per airport identifier, enriched with NASR
// metadata when available. A repeated identifier replaces the earlier
// record in place. Features carry a minimum zoom hint derived from rank.
func Airports(ds *cifp.Dataset, meta nasr.Metadata) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerAirports,
		"id", "name", "type", "facility_type", "surface", "is_military",
		"is_ifr", "longest_runway", "has_fuel", "rank")
	var stats Stats
	pos := make(map[string]int)

	for _, a := range ds.Airports {
		ident := a.ID.Value
		if !a.Lat.Valid || !a.Lon.Valid || ident == "" {
			stats.Dropped++
			continue
		}

		surface := a.LongestSurface.Value
		usage := a.Usage.Value
		md, _ := meta.Lookup(ident)
		longest := int(a.Longest.Or(0))

		r := rank.Airport(rank.AirportFacts{
			Ident:         ident,
			FAR139:        md.FAR139,
			Towered:       md.HasTower,
			Military:      usage == "M",
			LongestRunway: longest,
		})

		props := map[string]any{
			"id":             ident,
			"name":           textAny(a.Name),
			"type":           "airport",
			"facility_type":  FacilityType(surface, usage),
			"surface":        textAny(a.LongestSurface),
			"is_military":    usage == "M",
			"is_ifr":         a.IFR.True(),
			"longest_runway": longest,
			"has_fuel":       md.HasFuel,
		}
		f := feature.New(
			feature.Point(geodesy.Coord{Lon: a.Lon.Value, Lat: a.Lat.Value, Elev: a.Elevation.Or(0)}),
			props, r,
		).WithMinZoom(rank.MinZoom(r))

		if i, ok := pos[ident]; ok {
			coll.Features[i] = f
			continue
		}
		pos[ident] = coll.Len()
		coll.Add(f)
	}

	stats.Emitted = coll.Len()
	return coll, stats
}

// Navaids emits VHF navaids followed by NDBs.
func Navaids(ds *cifp.Dataset) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerNavaids, "id", "name", "frequency", "type", "rank")
	var stats Stats

	for _, n := range ds.VHFNavaids {
		c, ok := fixes.VHFPosition(n)
		if !ok {
			stats.Dropped++
			continue
		}
		class := n.Class.Value
		coll.Add(feature.New(feature.Point(c), map[string]any{
			"id":        fixes.VHFIdent(n),
			"name":      textAny(n.Name),
			"frequency": n.Frequency.Any(),
			"type":      NavaidType(class),
		}, rank.Navaid(class)))
	}

	for _, n := range ds.NDBNavaids {
		if !n.Lat.Valid || !n.Lon.Valid {
			stats.Dropped++
			continue
		}
		coll.Add(feature.New(
			feature.Point(geodesy.Coord{Lon: n.Lon.Value, Lat: n.Lat.Value, Elev: n.Elevation.Or(0)}),
			map[string]any{
				"id":        n.ID.Value,
				"name":      textAny(n.Name),
				"frequency": n.Frequency.Any(),
				"type":      "ndb",
			}, rank.NDB))
	}

	stats.Emitted = coll.Len()
	return coll, stats
}

// Waypoints emits enroute then terminal waypoints at zero elevation.
func Waypoints(ds *cifp.Dataset) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerWaypoints, "id", "type", "usage", "name", "rank")
	var stats Stats

	for _, group := range [][]cifp.Waypoint{ds.EnrouteWaypoints, ds.TerminalWaypoints} {
		for _, w := range group {
			if !w.Lat.Valid || !w.Lon.Valid {
				stats.Dropped++
				continue
			}
			typeCode := w.Type.Value
			usage := w.Usage.Value
			coll.Add(feature.New(
				feature.Point(geodesy.Coord{Lon: w.Lon.Value, Lat: w.Lat.Value}),
				map[string]any{
					"id":    w.ID.Value,
					"type":  WaypointType(typeCode),
					"usage": usage,
					"name":  w.Description.Value,
				}, rank.Waypoint(typeCode, usage)))
		}
	}

	stats.Emitted = coll.Len()
	return coll, stats
}

// RunwayThresholds emits one point per runway end at its threshold elevation.
func RunwayThresholds(ds *cifp.Dataset) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerRunwayThresholds,
		"airport", "runway", "length", "bearing", "width", "type", "rank")
	var stats Stats

	for _, r := range ds.Runways {
		if !r.Lat.Valid || !r.Lon.Valid {
			stats.Dropped++
			continue
		}
		coll.Add(feature.New(
			feature.Point(geodesy.Coord{Lon: r.Lon.Value, Lat: r.Lat.Value, Elev: r.ThresholdElevation.Or(0)}),
			map[string]any{
				"airport": textAny(r.AirportID),
				"runway":  textAny(r.RunwayID),
				"length":  r.Length.Any(),
				"bearing": r.Bearing.Any(),
				"width":   r.Width.Any(),
				"type":    "runway",
			}, rank.Default))
	}

	stats.Emitted = coll.Len()
	return coll, stats
}

// Localizers emits one point per localizer antenna at glideslope elevation.
func Localizers(ds *cifp.Dataset) (*feature.Collection, Stats) {
	coll := feature.NewCollection(LayerLocalizers,
		"airport", "runway", "ident", "frequency", "bearing", "type", "rank")
	var stats Stats

	for _, l := range ds.Localizers {
		if !l.Lat.Valid || !l.Lon.Valid {
			stats.Dropped++
			continue
		}
		coll.Add(feature.New(
			feature.Point(geodesy.Coord{Lon: l.Lon.Value, Lat: l.Lat.Value, Elev: l.GSElevation.Or(0)}),
			map[string]any{
				"airport":   textAny(l.AirportID),
				"runway":    textAny(l.RunwayID),
				"ident":     textAny(l.ID),
				"frequency": l.Frequency.Any(),
				"bearing":   l.Bearing.Any(),
				"type":      "localizer",
			}, rank.Default))
	}

	stats.Emitted = coll.Len()
	return coll, stats
}
