package search

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aerotiles/internal/cifp"
)

func txt(s string) cifp.Text   { return cifp.TextOf(s) }
func num(v float64) cifp.Float { return cifp.FloatOf(v) }

func TestBuild_Fixes(t *testing.T) {
	ds := &cifp.Dataset{
		Airports: []cifp.Airport{
			{ID: txt("KSFO"), Name: txt("SAN FRANCISCO INTL"), Lat: num(37.619), Lon: num(-122.375)},
			{ID: txt("KNOP"), Name: txt("NO POSITION")},
		},
		VHFNavaids: []cifp.VHFNavaid{
			{DMEID: txt("ISFO"), Name: txt("SAN FRANCISCO DME"), DMELat: num(37.6), DMELon: num(-122.4)},
		},
		NDBNavaids: []cifp.NDBNavaid{
			{ID: txt("PA"), Name: txt("PALO ALTO"), Lat: num(37.4), Lon: num(-122.1)},
		},
		EnrouteWaypoints: []cifp.Waypoint{
			{ID: txt("ARCHI"), Type: txt("C"), Lat: num(37.49), Lon: num(-121.87)},
		},
		TerminalWaypoints: []cifp.Waypoint{
			{ID: txt("DUYET"), Type: txt("RF"), Lat: num(37.5), Lon: num(-122.2)},
		},
	}

	idx := Build(ds)
	require.Len(t, idx.Fixes, 5)
	assert.Equal(t, Fix{Lat: 37.619, Lon: -122.375, Type: TypeAirport, Name: "SAN FRANCISCO INTL"}, idx.Fixes["KSFO"])
	assert.Equal(t, Fix{Lat: 37.6, Lon: -122.4, Type: TypeNavaid, Name: "SAN FRANCISCO DME"}, idx.Fixes["ISFO"],
		"VHF navaids fall back to the DME identifier and position")
	assert.Equal(t, TypeNavaid, idx.Fixes["PA"].Type)
	assert.Equal(t, TypeCompulsory, idx.Fixes["ARCHI"].Type)
	assert.Equal(t, TypeWaypoint, idx.Fixes["DUYET"].Type)
	assert.Empty(t, idx.Fixes["DUYET"].Name)
	assert.NotContains(t, idx.Fixes, "KNOP")
}

func TestBuild_LaterCategoryWins(t *testing.T) {
	ds := &cifp.Dataset{
		Airports:          []cifp.Airport{{ID: txt("SAME"), Lat: num(1), Lon: num(1)}},
		TerminalWaypoints: []cifp.Waypoint{{ID: txt("SAME"), Lat: num(2), Lon: num(2)}},
	}
	f := Build(ds).Fixes["SAME"]
	assert.Equal(t, TypeWaypoint, f.Type)
	assert.Equal(t, 2.0, f.Lat)
}

func TestBuild_Procedures(t *testing.T) {
	ds := &cifp.Dataset{
		Airports:         []cifp.Airport{{ID: txt("KSFO"), Name: txt("SAN FRANCISCO INTL"), Lat: num(37.6), Lon: num(-122.4)}},
		EnrouteWaypoints: []cifp.Waypoint{{ID: txt("ARCHI"), Lat: num(37.5), Lon: num(-121.9)}},
		Procedures: []cifp.ProcedureLeg{
			{FacilityID: txt("KSFO"), ProcedureID: txt("TECKY4"), Seq: num(20), FixID: txt("KSFO")},
			{FacilityID: txt("KSFO"), ProcedureID: txt("TECKY4"), Seq: num(10), FixID: txt("ARCHI")},
			{FacilityID: txt("KSFO"), ProcedureID: txt("TECKY4"), Seq: num(30), FixID: txt("GHOST")},
			{FacilityID: txt("KSFO"), ProcedureID: txt("TECKY4"), TransitionID: txt("VLREE"), Seq: num(10), FixID: txt("LEGPT"), Lat: num(38), Lon: num(-121)},
			{FacilityID: txt("KSFO"), ProcedureID: txt("EMPTY1"), Seq: num(10), FixID: txt("GHOST")},
			{ProcedureID: txt("ORPHAN"), Seq: num(10), FixID: txt("ARCHI")},
		},
	}

	idx := Build(ds)
	require.Contains(t, idx.Procedures, "KSFO")
	procs := idx.Procedures["KSFO"]
	assert.NotContains(t, procs, "EMPTY1", "a procedure with no resolvable legs is omitted")
	require.Contains(t, procs, "TECKY4")

	p := procs["TECKY4"]
	assert.Equal(t, []Point{
		{Coords: [2]float64{-121.9, 37.5}, ID: "ARCHI", Type: TypeWaypoint},
		{Coords: [2]float64{-122.4, 37.6}, ID: "KSFO", Type: TypeAirport, Name: "SAN FRANCISCO INTL"},
	}, p.Body, "legs are ordered by sequence and unresolvable ones dropped")
	assert.Equal(t, map[string][]Point{
		"VLREE": {{Coords: [2]float64{-121, 38}, ID: "LEGPT", Type: TypeWaypoint}},
	}, p.Transitions, "legs fall back to their own coordinates")
	assert.Len(t, idx.Procedures, 1)
}

func TestIndex_Write(t *testing.T) {
	ds := &cifp.Dataset{
		Airports: []cifp.Airport{{ID: txt("KSFO"), Name: txt("SAN FRANCISCO INTL"), Lat: num(37.6), Lon: num(-122.4)}},
		Procedures: []cifp.ProcedureLeg{
			{FacilityID: txt("KSFO"), ProcedureID: txt("RNAV"), TransitionID: txt("T1"), Seq: num(1), FixID: txt("KSFO")},
		},
	}
	var a, b bytes.Buffer
	require.NoError(t, Build(ds).Write(&a))
	require.NoError(t, Build(ds).Write(&b))
	assert.Equal(t, a.String(), b.String())

	var doc map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(a.Bytes(), &doc))
	assert.JSONEq(t, `{"lat":37.6,"lon":-122.4,"type":"airport","name":"SAN FRANCISCO INTL"}`, string(doc["fixes"]["KSFO"]))
	assert.JSONEq(t,
		`{"RNAV":{"transitions":{"T1":[{"coords":[-122.4,37.6],"id":"KSFO","type":"airport","name":"SAN FRANCISCO INTL"}]},"body":[]}}`,
		string(doc["procedures"]["KSFO"]))
}
