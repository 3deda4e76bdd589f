// Package search builds the static identifier index served next to the
// tiles for client-side lookup: every airport, navaid and waypoint keyed by
// identifier, plus each procedure's resolved points grouped by airport.
package search

import (
	"cmp"
	"encoding/json"
	"io"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/fixes"
)

// FileName is the default name of the index file in the output directory.
const FileName = "search_index.json"

// Fix types.
const (
	TypeAirport    = "airport"
	TypeNavaid     = "navaid"
	TypeWaypoint   = "waypoint"
	TypeCompulsory = "compulsory"
)

// Fix is one searchable identifier.
type Fix struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
	Name string  `json:"name,omitempty"`
}

// Point is one resolved procedure point. Coords is [lon, lat].
type Point struct {
	Coords [2]float64 `json:"coords"`
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Name   string     `json:"name"`
}

// Procedure holds the common route body and the named transitions.
type Procedure struct {
	Transitions map[string][]Point `json:"transitions"`
	Body        []Point            `json:"body"`
}

// Index is the serialized search document.
type Index struct {
	Fixes map[string]Fix `json:"fixes"`
	// Procedures is keyed by airport, then procedure identifier.
	Procedures map[string]map[string]*Procedure `json:"procedures"`
}

// Build indexes ds. Fixes are scanned in the same order as the fix table,
// so an identifier shared across categories resolves to the same record
// here as it does for procedure and airway geometry.
func Build(ds *cifp.Dataset) *Index {
	idx := &Index{
		Fixes:      make(map[string]Fix),
		Procedures: make(map[string]map[string]*Procedure),
	}
	idx.addFixes(ds)
	idx.addProcedures(ds.Procedures)
	return idx
}

func (idx *Index) add(id string, lat, lon cifp.Float, typ, name string) {
	if id == "" || !lat.Valid || !lon.Valid {
		return
	}
	idx.Fixes[id] = Fix{Lat: lat.Value, Lon: lon.Value, Type: typ, Name: name}
}

func (idx *Index) addFixes(ds *cifp.Dataset) {
	for _, a := range ds.Airports {
		idx.add(a.ID.Value, a.Lat, a.Lon, TypeAirport, a.Name.Value)
	}
	for _, n := range ds.VHFNavaids {
		if c, ok := fixes.VHFPosition(n); ok {
			idx.add(fixes.VHFIdent(n), cifp.FloatOf(c.Lat), cifp.FloatOf(c.Lon), TypeNavaid, n.Name.Value)
		}
	}
	for _, n := range ds.NDBNavaids {
		idx.add(n.ID.Value, n.Lat, n.Lon, TypeNavaid, n.Name.Value)
	}
	for _, group := range [][]cifp.Waypoint{ds.EnrouteWaypoints, ds.TerminalWaypoints} {
		for _, w := range group {
			typ := TypeWaypoint
			if w.Type.Value == "C" {
				typ = TypeCompulsory
			}
			idx.add(w.ID.Value, w.Lat, w.Lon, typ, "")
		}
	}
}

type legKey struct {
	airport    string
	procedure  string
	transition string
}

// addProcedures groups legs by airport, procedure and transition, orders each
// group by sequence number and resolves every leg through the fix index,
// falling back to the leg's own coordinates. Legs that resolve nowhere are
// skipped; a group with no resolved legs is omitted.
func (idx *Index) addProcedures(legs []cifp.ProcedureLeg) {
	var order []legKey
	groups := make(map[legKey][]cifp.ProcedureLeg)
	for _, l := range legs {
		k := legKey{l.FacilityID.Value, l.ProcedureID.Value, l.TransitionID.Value}
		if k.airport == "" || k.procedure == "" {
			continue
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], l)
	}

	for _, k := range order {
		group := groups[k]
		slices.SortStableFunc(group, func(a, b cifp.ProcedureLeg) int {
			return cmp.Compare(a.Seq.Or(0), b.Seq.Or(0))
		})

		points := make([]Point, 0, len(group))
		for _, l := range group {
			id := l.FixID.Value
			if f, ok := idx.Fixes[id]; ok {
				points = append(points, Point{Coords: [2]float64{f.Lon, f.Lat}, ID: id, Type: f.Type, Name: f.Name})
				continue
			}
			if l.Lat.Valid && l.Lon.Valid {
				points = append(points, Point{Coords: [2]float64{l.Lon.Value, l.Lat.Value}, ID: id, Type: TypeWaypoint})
			}
		}
		if len(points) == 0 {
			continue
		}

		procs, ok := idx.Procedures[k.airport]
		if !ok {
			procs = make(map[string]*Procedure)
			idx.Procedures[k.airport] = procs
		}
		p, ok := procs[k.procedure]
		if !ok {
			p = &Procedure{Transitions: make(map[string][]Point), Body: []Point{}}
			procs[k.procedure] = p
		}
		if k.transition == "" {
			p.Body = points
		} else {
			p.Transitions[k.transition] = points
		}
	}
}

// Write encodes the index as a single JSON document. Map keys are emitted
// in sorted order, so the same dataset always yields the same bytes.
func (idx *Index) Write(w io.Writer) error {
	return eris.Wrap(json.NewEncoder(w).Encode(idx), "search: encode index")
}
