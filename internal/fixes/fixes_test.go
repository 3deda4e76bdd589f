package fixes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/geodesy"
)

func TestBuild_ResolvesEveryCategory(t *testing.T) {
	ds := &cifp.Dataset{
		Airports: []cifp.Airport{
			{ID: cifp.TextOf("KSFO"), Lat: cifp.FloatOf(37.6), Lon: cifp.FloatOf(-122.4), Elevation: cifp.FloatOf(13)},
			{ID: cifp.TextOf("KNOP")},
		},
		VHFNavaids: []cifp.VHFNavaid{
			{VHFID: cifp.TextOf("SFO"), Lat: cifp.FloatOf(37.62), Lon: cifp.FloatOf(-122.37), Elevation: cifp.FloatOf(5), DMEElevation: cifp.FloatOf(9)},
			{DMEID: cifp.TextOf("IXX"), DMELat: cifp.FloatOf(38), DMELon: cifp.FloatOf(-121)},
		},
		NDBNavaids: []cifp.NDBNavaid{
			{ID: cifp.TextOf("OA"), Lat: cifp.FloatOf(37.7), Lon: cifp.FloatOf(-122.2)},
		},
		EnrouteWaypoints: []cifp.Waypoint{
			{ID: cifp.TextOf("ARCHI"), Lat: cifp.FloatOf(37.5), Lon: cifp.FloatOf(-122.0)},
		},
		TerminalWaypoints: []cifp.Waypoint{
			{ID: cifp.TextOf("DUMBA"), Lat: cifp.FloatOf(37.4), Lon: cifp.FloatOf(-122.1)},
		},
	}

	table := Build(ds)
	assert.Equal(t, 6, table.Len())

	apt, ok := table.Resolve("KSFO")
	require.True(t, ok)
	assert.Equal(t, geodesy.Coord{Lon: -122.4, Lat: 37.6, Elev: 13}, apt.Coord)

	vor, ok := table.Resolve("SFO")
	require.True(t, ok)
	assert.Equal(t, 9.0, vor.Elev, "DME elevation preferred")

	dme, ok := table.Resolve("IXX")
	require.True(t, ok)
	assert.Equal(t, 38.0, dme.Lat)

	wp, ok := table.Resolve("DUMBA")
	require.True(t, ok)
	assert.Equal(t, 0.0, wp.Elev)

	_, ok = table.Resolve("KNOP")
	assert.False(t, ok)
	_, ok = table.Resolve("NOPE")
	assert.False(t, ok)
}

func TestBuild_LaterCategoriesShadowEarlier(t *testing.T) {
	ds := &cifp.Dataset{
		Airports: []cifp.Airport{
			{ID: cifp.TextOf("ABC"), Lat: cifp.FloatOf(1), Lon: cifp.FloatOf(1), Elevation: cifp.FloatOf(500)},
		},
		NDBNavaids: []cifp.NDBNavaid{
			{ID: cifp.TextOf("ABC"), Lat: cifp.FloatOf(2), Lon: cifp.FloatOf(2)},
		},
		TerminalWaypoints: []cifp.Waypoint{
			{ID: cifp.TextOf("ABC"), Lat: cifp.FloatOf(3), Lon: cifp.FloatOf(3)},
		},
	}

	f, ok := Build(ds).Resolve("ABC")
	require.True(t, ok)
	assert.Equal(t, geodesy.Coord{Lon: 3, Lat: 3}, f.Coord)
}

func TestBuilder_FreezeDetachesTable(t *testing.T) {
	b := NewBuilder()
	b.Add("ONE", geodesy.Coord{Lon: 1})
	b.Add("", geodesy.Coord{Lon: 9})
	table := b.Freeze()

	b.Add("TWO", geodesy.Coord{Lon: 2})

	assert.Equal(t, 1, table.Len())
	_, ok := table.Resolve("TWO")
	assert.False(t, ok)
}

func TestTable_NilSafe(t *testing.T) {
	var table *Table
	_, ok := table.Resolve("X")
	assert.False(t, ok)
	assert.Equal(t, 0, table.Len())
}
