// Package fixes resolves navigation fix identifiers to coordinates.
//
// The table is built in one sequential pass and then frozen; a frozen Table
// is read-only and safe for concurrent use by any number of assemblers.
package fixes

import (
	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/geodesy"
)

// Fix is a resolved navigation point.
type Fix struct {
	ID string
	geodesy.Coord
}

// Table maps fix identifiers to coordinates. It has no mutating methods.
type Table struct {
	fixes map[string]Fix
}

// Resolve looks up a fix by identifier.
func (t *Table) Resolve(id string) (Fix, bool) {
	if t == nil {
		return Fix{}, false
	}
	f, ok := t.fixes[id]
	return f, ok
}

// Len returns the number of distinct identifiers.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.fixes)
}

// Builder accumulates fixes. Later additions for the same identifier replace
// earlier ones.
type Builder struct {
	fixes map[string]Fix
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{fixes: make(map[string]Fix)}
}

// Add records a fix, overwriting any previous entry with the same identifier.
// Blank identifiers are ignored.
func (b *Builder) Add(id string, c geodesy.Coord) {
	if id == "" {
		return
	}
	b.fixes[id] = Fix{ID: id, Coord: c}
}

// Freeze hands the accumulated fixes to a read-only Table and resets the
// builder, so nothing can write to the table afterwards.
func (b *Builder) Freeze() *Table {
	t := &Table{fixes: b.fixes}
	b.fixes = make(map[string]Fix)
	return t
}

// Build scans the dataset in the fixed order airports, VHF navaids, NDB
// navaids, then enroute and terminal waypoints. An identifier shared across
// categories resolves to the last category that defines it, so a waypoint
// can shadow an airport with the same code.
func Build(ds *cifp.Dataset) *Table {
	b := NewBuilder()

	for _, a := range ds.Airports {
		if !a.Lat.Valid || !a.Lon.Valid {
			continue
		}
		b.Add(a.ID.Value, geodesy.Coord{Lon: a.Lon.Value, Lat: a.Lat.Value, Elev: a.Elevation.Or(0)})
	}

	for _, n := range ds.VHFNavaids {
		c, ok := VHFPosition(n)
		if !ok {
			continue
		}
		b.Add(VHFIdent(n), c)
	}

	for _, n := range ds.NDBNavaids {
		if !n.Lat.Valid || !n.Lon.Valid {
			continue
		}
		b.Add(n.ID.Value, geodesy.Coord{Lon: n.Lon.Value, Lat: n.Lat.Value, Elev: n.Elevation.Or(0)})
	}

	for _, group := range [][]cifp.Waypoint{ds.EnrouteWaypoints, ds.TerminalWaypoints} {
		for _, w := range group {
			if !w.Lat.Valid || !w.Lon.Valid {
				continue
			}
			b.Add(w.ID.Value, geodesy.Coord{Lon: w.Lon.Value, Lat: w.Lat.Value})
		}
	}

	return b.Freeze()
}

// VHFPosition returns the facility position, falling back to the DME
// position when the VOR position is absent. Elevation prefers the DME
// elevation.
func VHFPosition(n cifp.VHFNavaid) (geodesy.Coord, bool) {
	lat := n.Lat
	if !lat.Valid {
		lat = n.DMELat
	}
	lon := n.Lon
	if !lon.Valid {
		lon = n.DMELon
	}
	if !lat.Valid || !lon.Valid {
		return geodesy.Coord{}, false
	}

	elev := n.DMEElevation
	if !elev.Valid {
		elev = n.Elevation
	}
	return geodesy.Coord{Lon: lon.Value, Lat: lat.Value, Elev: elev.Or(0)}, true
}

// VHFIdent returns the VOR identifier, or the DME identifier when absent.
func VHFIdent(n cifp.VHFNavaid) string {
	return n.VHFID.Or(n.DMEID.Value)
}
