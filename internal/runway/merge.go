package runway

import (
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/brunoga/deep"

	"github.com/sells-group/aerotiles/internal/feature"
	"github.com/sells-group/aerotiles/internal/rank"
)

// headColumns lead the merged runway schema, in this order.
var headColumns = []string{
	"airport_id", "runway_id", "length", "width", "bearing_1", "bearing_2", "surface_type", "rank", "source",
}

// enrichColumns are backfilled on diagram rows from matching derived rows.
var enrichColumns = []string{"length", "width", "bearing_1", "bearing_2"}

// MergeResult is the conflated runway set.
type MergeResult struct {
	Runways *feature.Collection
	Labels  *feature.Collection
	// Enriched counts derived rows folded into one or more diagram rows.
	Enriched int
	// Kept counts derived rows with no diagram counterpart.
	Kept int
}

// NormalizeDiagramRows maps airport diagram rows onto the merged schema:
// airport_id from icao_id (falling back to faa_id), runway_id from rwy_id,
// surface renamed to surface_type, and the enrichment columns present on
// every row. Rows are tagged with the diagram source. The input is not
// modified.
func NormalizeDiagramRows(c *feature.Collection) *feature.Collection {
	out := feature.NewCollection(LayerRunways)
	if c == nil {
		return out
	}

	for _, col := range c.Columns {
		switch col {
		case "faa_id", "icao_id", "rwy_id":
		case "surface":
			out.Columns = appendUnique(out.Columns, "surface_type")
		default:
			out.Columns = appendUnique(out.Columns, col)
		}
	}
	for _, col := range append([]string{"source", "airport_id", "runway_id"}, enrichColumns...) {
		out.Columns = appendUnique(out.Columns, col)
	}

	for _, f := range c.Features {
		src := f.Properties
		props := make(map[string]any, len(src)+4)
		for k, v := range src {
			switch k {
			case "faa_id", "icao_id", "rwy_id":
			case "surface":
				props["surface_type"] = v
			default:
				props[k] = v
			}
		}

		apt := src["icao_id"]
		if isBlank(apt) {
			apt = src["faa_id"]
		}
		props["airport_id"] = apt
		props["runway_id"] = src["rwy_id"]
		props["source"] = SourceDiagram
		for _, col := range enrichColumns {
			if _, ok := props[col]; !ok {
				props[col] = nil
			}
		}

		f.Properties = props
		out.Features = append(out.Features, f)
	}
	return out
}

type lookupKey struct {
	airport string
	pair    PairKey
}

// Merge conflates diagram rows (already passed through NormalizeDiagramRows)
// with derived rows from Synthesize. Each derived row is matched against the
// diagram rows of its airport by full pair and by each single end; matched
// diagram rows get their missing length, width and bearings filled in and
// the derived row is discarded. Unmatched derived rows are kept. Labels
// survive only when their runway is in the merged set. Inputs are not
// modified; either collection may be nil.
func Merge(hifi, derived, labels *feature.Collection) MergeResult {
	res := MergeResult{
		Runways: feature.NewCollection(LayerRunways),
		Labels:  feature.NewCollection(LayerLabels),
	}

	var columns []string
	var rows []feature.Feature
	lookup := make(map[lookupKey][]int)

	if hifi != nil {
		columns = append(columns, hifi.Columns...)
		for _, f := range hifi.Features {
			f.Properties = deep.MustCopy(f.Properties)
			idx := len(rows)
			rows = append(rows, f)

			apt, rwy := text(f.Properties["airport_id"]), text(f.Properties["runway_id"])
			if apt == "" || rwy == "" {
				continue
			}
			key := NormalizePair(rwy)
			lookup[lookupKey{apt, key}] = append(lookup[lookupKey{apt, key}], idx)
			for _, end := range key.Ends() {
				k := lookupKey{apt, PairKey(end)}
				lookup[k] = append(lookup[k], idx)
			}
		}
	}

	if derived != nil {
		for _, col := range derived.Columns {
			columns = appendUnique(columns, renameDerived(col))
		}
		columns = appendUnique(columns, "source")

		for _, f := range derived.Features {
			props := make(map[string]any, len(f.Properties)+1)
			for k, v := range f.Properties {
				props[renameDerived(k)] = v
			}
			props["source"] = SourceDerived

			apt := text(props["airport_id"])
			key := NormalizePair(text(props["runway_id"]))
			matches := make(map[int]struct{})
			for _, idx := range lookup[lookupKey{apt, key}] {
				matches[idx] = struct{}{}
			}
			for _, end := range key.Ends() {
				for _, idx := range lookup[lookupKey{apt, PairKey(end)}] {
					matches[idx] = struct{}{}
				}
			}

			if len(matches) == 0 {
				f.Properties = props
				rows = append(rows, f)
				res.Kept++
				continue
			}

			for _, idx := range slices.Sorted(maps.Keys(matches)) {
				target := rows[idx].Properties
				for _, col := range enrichColumns {
					if isNull(target[col]) {
						target[col] = props[col]
					}
				}
			}
			res.Enriched++
		}
	}

	columns = slices.DeleteFunc(columns, func(c string) bool { return c == "bearing" || c == "geometry" })
	columns = appendUnique(columns, "rank")
	res.Runways.Columns = orderColumns(columns)

	valid := make(map[lookupKey]bool, len(rows))
	for _, f := range rows {
		delete(f.Properties, "bearing")
		f.Rank = rankOf(f.Properties["rank"])
		f.Properties["rank"] = f.Rank
		res.Runways.Features = append(res.Runways.Features, f)

		apt, rwy := text(f.Properties["airport_id"]), text(f.Properties["runway_id"])
		if apt != "" && rwy != "" {
			valid[lookupKey{apt, NormalizePair(rwy)}] = true
		}
	}

	if labels != nil {
		res.Labels.Columns = appendUnique(slices.Clone(labels.Columns), "rank")
		for _, f := range labels.Features {
			apt, rwy := text(f.Properties["airport_id"]), text(f.Properties["runway_id"])
			if apt == "" || rwy == "" || !valid[lookupKey{apt, NormalizePair(rwy)}] {
				continue
			}
			f.Properties = deep.MustCopy(f.Properties)
			f.Rank = rankOf(f.Properties["rank"])
			f.Properties["rank"] = f.Rank
			res.Labels.Features = append(res.Labels.Features, f)
		}
	}

	return res
}

func renameDerived(col string) string {
	switch col {
	case "airport":
		return "airport_id"
	case "runway":
		return "runway_id"
	}
	return col
}

func orderColumns(cols []string) []string {
	out := make([]string, 0, len(cols))
	for _, h := range headColumns {
		if slices.Contains(cols, h) {
			out = append(out, h)
		}
	}
	for _, c := range cols {
		if !slices.Contains(headColumns, c) {
			out = append(out, c)
		}
	}
	return out
}

func appendUnique(cols []string, col string) []string {
	if slices.Contains(cols, col) {
		return cols
	}
	return append(cols, col)
}

func text(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func isNull(v any) bool {
	switch v := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(v)
	}
	return false
}

func isBlank(v any) bool {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return isNull(v)
}

func rankOf(v any) int {
	switch v := v.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if !math.IsNaN(v) {
			return int(v)
		}
	}
	return rank.Default
}
