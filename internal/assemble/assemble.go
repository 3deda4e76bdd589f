// Package assemble turns typed navigation records into map features.
//
// Assemblers are pure functions of their inputs. Those that resolve fixes
// only read the frozen fixes.Table, so any number of them may run
// concurrently once the table is built.
package assemble

import (
	"github.com/sells-group/aerotiles/internal/cifp"
)

// Layer names of the assembled collections.
const (
	LayerAirports         = "airports"
	LayerNavaids          = "navaids"
	LayerWaypoints        = "waypoints"
	LayerProcedures       = "procedures"
	LayerAirways          = "airways"
	LayerAirspaces        = "airspaces"
	LayerRunwayThresholds = "runway_thresholds"
	LayerLocalizers       = "localizers"
)

// Stats counts what an assembler emitted and what it had to leave out.
type Stats struct {
	Emitted int `json:"emitted"`
	// Dropped counts records, groups or segments that produced no feature.
	Dropped int `json:"dropped"`
	// Unresolved counts fix references missing from the fix table.
	Unresolved int `json:"unresolved,omitempty"`
}

// Add returns the sum of two stats.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		Emitted:    s.Emitted + o.Emitted,
		Dropped:    s.Dropped + o.Dropped,
		Unresolved: s.Unresolved + o.Unresolved,
	}
}

func textAny(t cifp.Text) any {
	if !t.Valid {
		return nil
	}
	return t.Value
}

// groups collects values under keys while remembering first-seen key order.
type groups[K comparable, V any] struct {
	order []K
	items map[K][]V
}

func newGroups[K comparable, V any]() *groups[K, V] {
	return &groups[K, V]{items: make(map[K][]V)}
}

func (g *groups[K, V]) add(k K, v V) {
	if _, ok := g.items[k]; !ok {
		g.order = append(g.order, k)
	}
	g.items[k] = append(g.items[k], v)
}
