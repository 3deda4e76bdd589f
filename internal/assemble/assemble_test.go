package assemble

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/fixes"
	"github.com/sells-group/aerotiles/internal/geodesy"
	"github.com/sells-group/aerotiles/internal/nasr"
)

func txt(s string) cifp.Text   { return cifp.TextOf(s) }
func num(v float64) cifp.Float { return cifp.FloatOf(v) }

func tableOf(fs map[string]geodesy.Coord) *fixes.Table {
	b := fixes.NewBuilder()
	for id, c := range fs {
		b.Add(id, c)
	}
	return b.Freeze()
}

func TestAirways_EndToEnd(t *testing.T) {
	ds := &cifp.Dataset{AirwayPoints: []cifp.AirwayPoint{
		{AirwayID: txt("V230"), Seq: num(20), PointID: txt("BETA"), MinAlt: txt("5000")},
		{AirwayID: txt("V230"), Seq: num(10), PointID: txt("ALPHA"), MinAlt: txt("5000")},
	}}
	table := tableOf(map[string]geodesy.Coord{
		"ALPHA": {Lon: -122.0, Lat: 37.0},
		"BETA":  {Lon: -121.0, Lat: 38.0},
	})

	coll, stats := Airways(ds, table)
	require.Equal(t, 1, coll.Len())
	assert.Equal(t, Stats{Emitted: 1}, stats)

	f := coll.Features[0]
	assert.Equal(t, "V230", f.Properties["airway"])
	assert.Equal(t, 5000, f.Properties["mea"])
	assert.Greater(t, f.Properties["distance"].(int), 0)
	assert.Equal(t, "Victor", f.Properties["route_type"])
	assert.Equal(t, "Low", f.Properties["structure"])
	assert.Equal(t, 5, f.Properties["rank"])

	ls, ok := f.Geometry.(*geom.LineString)
	require.True(t, ok)
	assert.Equal(t, []float64{-122, 37, 5000, -121, 38, 5000}, ls.FlatCoords())
}

func TestAirways_SkipsUnresolvedAndDegenerate(t *testing.T) {
	ds := &cifp.Dataset{AirwayPoints: []cifp.AirwayPoint{
		{AirwayID: txt("J80"), Seq: num(1), PointID: txt("A"), MinAlt: txt("FL180"), RouteType: txt("O")},
		{AirwayID: txt("J80"), Seq: num(2), PointID: txt("GHOST")},
		{AirwayID: txt("J80"), Seq: num(3), PointID: txt("B")},
		{AirwayID: txt("J80"), Seq: num(4), PointID: txt("B2")},
		{Seq: num(1), PointID: txt("A")},
	}}
	table := tableOf(map[string]geodesy.Coord{
		"A":  {Lon: -100, Lat: 40, Elev: 20000},
		"B":  {Lon: -99, Lat: 40},
		"B2": {Lon: -99, Lat: 40},
	})

	coll, stats := Airways(ds, table)
	require.Equal(t, 1, coll.Len())
	assert.Equal(t, Stats{Emitted: 1, Dropped: 2, Unresolved: 1}, stats)

	f := coll.Features[0]
	assert.Equal(t, 18000, f.Properties["mea"])
	assert.Equal(t, "O", f.Properties["route_type"])
	assert.Equal(t, "High", f.Properties["structure"])
	ls := f.Geometry.(*geom.LineString)
	assert.Equal(t, []float64{-100, 40, 20000, -99, 40, 18000}, ls.FlatCoords())
}

func TestAirways_AntimeridianPair(t *testing.T) {
	ds := &cifp.Dataset{AirwayPoints: []cifp.AirwayPoint{
		{AirwayID: txt("R220"), Seq: num(1), PointID: txt("W")},
		{AirwayID: txt("R220"), Seq: num(2), PointID: txt("E")},
	}}
	table := tableOf(map[string]geodesy.Coord{
		"W": {Lon: 179, Lat: 50},
		"E": {Lon: -179, Lat: 50},
	})

	coll, _ := Airways(ds, table)
	require.Equal(t, 1, coll.Len())
	ls := coll.Features[0].Geometry.(*geom.LineString)
	assert.Equal(t, 181.0, ls.FlatCoords()[3])
	assert.Less(t, coll.Features[0].Properties["distance"].(int), 100)
}

func TestRouteType(t *testing.T) {
	tests := []struct {
		in   cifp.AirwayPoint
		want string
	}{
		{cifp.AirwayPoint{AirwayID: txt("V1"), RouteType: txt("R")}, "R"},
		{cifp.AirwayPoint{AirwayID: txt("V1"), AirwayType: txt("Airway")}, "Airway"},
		{cifp.AirwayPoint{AirwayID: txt("V1")}, "Victor"},
		{cifp.AirwayPoint{AirwayID: txt("Q5")}, "GPS"},
		{cifp.AirwayPoint{AirwayID: txt("T270")}, "GPS"},
		{cifp.AirwayPoint{AirwayID: txt("J60")}, "Victor"},
		{cifp.AirwayPoint{AirwayID: txt("A1")}, "Unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RouteType(tt.in), tt.in.AirwayID.Value)
	}
}

func TestProcedures(t *testing.T) {
	ds := &cifp.Dataset{Procedures: []cifp.ProcedureLeg{
		{FacilityID: txt("KSFO"), ProcedureID: txt("I28L"), TransitionID: txt("ARCHI"), Seq: num(30), Lat: num(37.6), Lon: num(-122.3)},
		{FacilityID: txt("KSFO"), ProcedureID: txt("I28L"), TransitionID: txt("ARCHI"), Seq: num(10), FixID: txt("ARCHI"), Alt1: txt("4000")},
		{FacilityID: txt("KSFO"), ProcedureID: txt("I28L"), TransitionID: txt("ARCHI"), Seq: num(20), FixID: txt("HIGH"), TransAlt: txt("FL050")},
		{FacilityID: txt("KSFO"), ProcedureID: txt("I28L"), TransitionID: txt("ARCHI"), Seq: num(25), FixID: txt("GHOST")},
		{FacilityID: txt("KOAK"), ProcedureID: txt("R30"), Seq: num(10), FixID: txt("ARCHI")},
	}}
	table := tableOf(map[string]geodesy.Coord{
		"ARCHI": {Lon: -122.0, Lat: 37.5},
		"HIGH":  {Lon: -122.1, Lat: 37.55, Elev: 9000},
	})

	coll, stats := Procedures(ds, table)
	require.Equal(t, 1, coll.Len())
	assert.Equal(t, Stats{Emitted: 1, Dropped: 1, Unresolved: 1}, stats)

	f := coll.Features[0]
	assert.Equal(t, "KSFO", f.Properties["airport"])
	assert.Equal(t, "I28L", f.Properties["procedure"])
	assert.Equal(t, "ARCHI", f.Properties["transition"])
	ls := f.Geometry.(*geom.LineString)
	assert.Equal(t, []float64{
		-122.0, 37.5, 4000,
		-122.1, 37.55, 9000,
		-122.3, 37.6, 0,
	}, ls.FlatCoords())
}

func TestProcedures_NilTransition(t *testing.T) {
	ds := &cifp.Dataset{Procedures: []cifp.ProcedureLeg{
		{FacilityID: txt("KOAK"), ProcedureID: txt("R30"), Lat: num(37.7), Lon: num(-122.2)},
		{FacilityID: txt("KOAK"), ProcedureID: txt("R30"), Lat: num(37.8), Lon: num(-122.1)},
	}}

	coll, _ := Procedures(ds, nil)
	require.Equal(t, 1, coll.Len())
	assert.Nil(t, coll.Features[0].Properties["transition"])
}

func TestAirspaces(t *testing.T) {
	ds := &cifp.Dataset{
		Controlled: []cifp.AirspacePoint{
			{Name: txt("SAN FRANCISCO"), Type: txt("B"), MultCode: txt("A"), Seq: num(20), Lat: num(37.0), Lon: num(-122.0), UpperLimit: txt("10000")},
			{Name: txt("SAN FRANCISCO"), Type: txt("B"), MultCode: txt("A"), Seq: num(10), Lat: num(38.0), Lon: num(-122.0), UpperLimit: txt("10000")},
			{Name: txt("SAN FRANCISCO"), Type: txt("B"), MultCode: txt("A"), Seq: num(30), Lat: num(37.0), Lon: num(-121.0), UpperLimit: txt("10000")},
			{Name: txt("PAIR"), Type: txt("D"), Seq: num(1), Lat: num(36.0), Lon: num(-120.0), UpperLimit: txt("UNL")},
			{Name: txt("PAIR"), Type: txt("D"), Seq: num(2), Lat: num(36.1), Lon: num(-120.1), UpperLimit: txt("UNL")},
			{Name: txt("LONE"), Type: txt("C"), Seq: num(1), Lat: num(35.0), Lon: num(-119.0)},
		},
		Restrictive: []cifp.AirspacePoint{
			{Name: txt("R-2508"), Type: txt("R"), Seq: num(1), Lat: num(35.0), Lon: num(-117.0), UpperLimit: txt("FL600")},
			{Name: txt("R-2508"), Type: txt("R"), Seq: num(2), Lat: num(36.0), Lon: num(-117.0), UpperLimit: txt("FL600")},
			{Name: txt("R-2508"), Type: txt("R"), Seq: num(3), Lat: num(36.0), Lon: num(-118.0), UpperLimit: txt("FL600")},
			{Name: txt("R-2508"), Type: txt("R"), Seq: num(4), Lat: num(35.0), Lon: num(-117.0), UpperLimit: txt("FL600")},
		},
	}

	coll, stats := Airspaces(ds)
	require.Equal(t, 3, coll.Len())
	assert.Equal(t, Stats{Emitted: 3, Dropped: 1}, stats)

	sfo := coll.Features[0].Geometry.(*geom.Polygon)
	assert.Equal(t, "SAN FRANCISCO", coll.Features[0].Properties["name"])
	assert.Equal(t, []float64{
		-122, 38, 10000,
		-122, 37, 10000,
		-121, 37, 10000,
		-122, 38, 10000,
	}, sfo.FlatCoords(), "ring is ordered by sequence and closed")

	pair, ok := coll.Features[1].Geometry.(*geom.LineString)
	require.True(t, ok)
	assert.Equal(t, 60000.0, pair.FlatCoords()[2])

	r2508 := coll.Features[2].Geometry.(*geom.Polygon)
	assert.Len(t, r2508.FlatCoords(), 12, "already-closed ring is not closed twice")
	assert.Equal(t, 60000.0, r2508.FlatCoords()[2])
	assert.Equal(t, "R", coll.Features[2].Properties["type"])
}

func TestAirspaces_OutOfRangeVertexFromJSONL(t *testing.T) {
	input := strings.Join([]string{
		`{"category": "controlled", "primary": {"airspace_name": "WIDE", "airspace_type": "C", "seq_no": 10, "lat": 38.0, "lon": -122.0}}`,
		`{"category": "controlled", "primary": {"airspace_name": "WIDE", "airspace_type": "C", "seq_no": 20, "lat": 37.5, "lon": 1e20}}`,
		`{"category": "controlled", "primary": {"airspace_name": "WIDE", "airspace_type": "C", "seq_no": 30, "lat": 37.0, "lon": -122.0}}`,
		`{"category": "controlled", "primary": {"airspace_name": "WIDE", "airspace_type": "C", "seq_no": 40, "lat": 37.0, "lon": -121.0}}`,
	}, "\n")
	ds, _, err := cifp.ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)

	coll, stats := Airspaces(ds)
	require.Equal(t, 1, coll.Len())
	assert.Equal(t, 1, stats.Emitted)

	ring := coll.Features[0].Geometry.(*geom.Polygon)
	assert.Len(t, ring.FlatCoords(), 12, "the unusable vertex is skipped")
	for i := 0; i < len(ring.FlatCoords()); i += ring.Stride() {
		assert.InDelta(t, -121.5, ring.FlatCoords()[i], 0.5)
	}
}

func TestAirports(t *testing.T) {
	ds := &cifp.Dataset{Airports: []cifp.Airport{
		{ID: txt("KSFO"), Name: txt("SAN FRANCISCO INTL"), Lat: num(37.6), Lon: num(-122.4), Elevation: num(13),
			LongestSurface: txt("H"), Usage: txt("C"), IFR: cifp.FlagOf(true), Longest: num(11900)},
		{ID: txt("KNUQ"), Lat: num(37.4), Lon: num(-122.0), LongestSurface: txt("H"), Usage: txt("M"), Longest: num(9200)},
		{ID: txt("2O3"), Lat: num(38.0), Lon: num(-122.5), LongestSurface: txt("W"), Usage: txt("P")},
		{ID: txt("KNUQ"), Lat: num(37.41), Lon: num(-122.05), LongestSurface: txt("H"), Usage: txt("M"), Longest: num(10000)},
		{ID: txt(""), Lat: num(1), Lon: num(1)},
		{ID: txt("NOPOS")},
	}}
	meta := nasr.Metadata{"SFO": {HasFuel: true, HasTower: true, FAR139: "I E"}}

	coll, stats := Airports(ds, meta)
	require.Equal(t, 3, coll.Len())
	assert.Equal(t, Stats{Emitted: 3, Dropped: 2}, stats)

	sfo := coll.Features[0]
	assert.Equal(t, 1, sfo.Rank)
	require.NotNil(t, sfo.MinZoom)
	assert.Equal(t, 0, *sfo.MinZoom)
	assert.Equal(t, "civil_hard", sfo.Properties["facility_type"])
	assert.Equal(t, true, sfo.Properties["has_fuel"])
	assert.Equal(t, true, sfo.Properties["is_ifr"])
	assert.Equal(t, 11900, sfo.Properties["longest_runway"])

	nuq := coll.Features[1]
	assert.Equal(t, "military", nuq.Properties["facility_type"])
	assert.Equal(t, 1, nuq.Rank, "later record replaces the first in place")
	assert.Nil(t, nuq.Properties["name"])

	sea := coll.Features[2]
	assert.Equal(t, "seaplane", sea.Properties["facility_type"])
	assert.Equal(t, 4, sea.Rank)
	assert.Equal(t, 5, *sea.MinZoom)
	assert.Equal(t, false, sea.Properties["has_fuel"])
}

func TestNavaids(t *testing.T) {
	ds := &cifp.Dataset{
		VHFNavaids: []cifp.VHFNavaid{
			{VHFID: txt("SFO"), Lat: num(37.6), Lon: num(-122.4), Class: txt("VHT"), Frequency: num(115.8)},
			{DMEID: txt("IFAT"), DMELat: num(36.8), DMELon: num(-119.7), Class: txt("IDL")},
			{VHFID: txt("NOPE")},
		},
		NDBNavaids: []cifp.NDBNavaid{
			{ID: txt("OA"), Lat: num(37.7), Lon: num(-122.2), Frequency: num(341)},
		},
	}

	coll, stats := Navaids(ds)
	require.Equal(t, 3, coll.Len())
	assert.Equal(t, Stats{Emitted: 3, Dropped: 1}, stats)

	assert.Equal(t, "vortac", coll.Features[0].Properties["type"])
	assert.Equal(t, 2, coll.Features[0].Rank)
	assert.Equal(t, 115.8, coll.Features[0].Properties["frequency"])

	assert.Equal(t, "IFAT", coll.Features[1].Properties["id"])
	assert.Equal(t, "vhf", coll.Features[1].Properties["type"])
	assert.Nil(t, coll.Features[1].Properties["frequency"])
	assert.Equal(t, 5, coll.Features[1].Rank)

	assert.Equal(t, "ndb", coll.Features[2].Properties["type"])
	assert.Equal(t, 5, coll.Features[2].Rank)
}

func TestNavaidType(t *testing.T) {
	tests := map[string]string{
		"VTH":  "vortac",
		"VDHW": "vordme",
		"V L":  "vor",
		"TH":   "tacan",
		"M":    "tacan",
		"DL":   "dme",
		"":     "vhf",
	}
	for class, want := range tests {
		assert.Equal(t, want, NavaidType(class), class)
	}
}

func TestWaypoints(t *testing.T) {
	ds := &cifp.Dataset{
		EnrouteWaypoints: []cifp.Waypoint{
			{ID: txt("ARCHI"), Lat: num(37.5), Lon: num(-122.0), Type: txt("C"), Usage: txt("B")},
			{ID: txt("NOPOS")},
		},
		TerminalWaypoints: []cifp.Waypoint{
			{ID: txt("DUMBA"), Lat: num(37.4), Lon: num(-122.1), Type: txt("R"), Usage: txt("L"), Description: txt("ON FIX")},
		},
	}

	coll, stats := Waypoints(ds)
	require.Equal(t, 2, coll.Len())
	assert.Equal(t, Stats{Emitted: 2, Dropped: 1}, stats)
	assert.Equal(t, "compulsory", coll.Features[0].Properties["type"])
	assert.Equal(t, 3, coll.Features[0].Rank)
	assert.Equal(t, "rnav", coll.Features[1].Properties["type"])
	assert.Equal(t, 5, coll.Features[1].Rank)
	assert.Equal(t, "ON FIX", coll.Features[1].Properties["name"])

	pt := coll.Features[1].Geometry.(*geom.Point)
	assert.Equal(t, []float64{-122.1, 37.4, 0}, pt.FlatCoords())
}

func TestRunwayThresholdsAndLocalizers(t *testing.T) {
	ds := &cifp.Dataset{
		Runways: []cifp.RunwayEnd{
			{AirportID: txt("KSFO"), RunwayID: txt("RW28L"), Lat: num(37.6), Lon: num(-122.35), ThresholdElevation: num(10), Length: num(11870), Bearing: num(297.5)},
			{AirportID: txt("KSFO"), RunwayID: txt("RW28R")},
		},
		Localizers: []cifp.Localizer{
			{AirportID: txt("KSFO"), RunwayID: txt("RW28L"), ID: txt("ISFO"), Lat: num(37.62), Lon: num(-122.39), GSElevation: num(12), Frequency: num(109.55)},
		},
	}

	rw, stats := RunwayThresholds(ds)
	require.Equal(t, 1, rw.Len())
	assert.Equal(t, Stats{Emitted: 1, Dropped: 1}, stats)
	assert.Equal(t, "runway", rw.Features[0].Properties["type"])
	assert.Equal(t, 11870.0, rw.Features[0].Properties["length"])
	assert.Nil(t, rw.Features[0].Properties["width"])
	assert.Equal(t, 10.0, rw.Features[0].Geometry.(*geom.Point).FlatCoords()[2])

	loc, _ := Localizers(ds)
	require.Equal(t, 1, loc.Len())
	assert.Equal(t, "localizer", loc.Features[0].Properties["type"])
	assert.Equal(t, "ISFO", loc.Features[0].Properties["ident"])
	assert.Equal(t, 12.0, loc.Features[0].Geometry.(*geom.Point).FlatCoords()[2])
}

func TestStats_Add(t *testing.T) {
	got := Stats{Emitted: 1, Dropped: 2}.Add(Stats{Emitted: 3, Unresolved: 4})
	assert.Equal(t, Stats{Emitted: 4, Dropped: 2, Unresolved: 4}, got)
}
