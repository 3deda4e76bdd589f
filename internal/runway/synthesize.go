package runway

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/feature"
	"github.com/sells-group/aerotiles/internal/geodesy"
	"github.com/sells-group/aerotiles/internal/rank"
)

// Layer names.
const (
	LayerRunways = "runways"
	LayerLabels  = "runway_labels"
)

// Source tags written to merged rows.
const (
	SourceDiagram = "AM"
	SourceDerived = "CIFP"
)

// Synthesized is the output of Synthesize.
type Synthesized struct {
	Runways *feature.Collection
	Labels  *feature.Collection
	// Skipped counts runways without a usable width or length.
	Skipped int
}

type threshold struct {
	label string
	rec   cifp.RunwayEnd
	coord geodesy.Coord
}

// Synthesize pairs every runway end with its reciprocal at the same airport
// and emits a derived surface polygon per runway plus one label point per
// known end. An end without a published reciprocal is extended along its
// bearing by its length. Runways without a width, or whose ends coincide,
// are skipped. surface is written as surface_type on every derived row.
func Synthesize(ds *cifp.Dataset, surface string) Synthesized {
	log := zap.L().With(zap.String("component", "runway"))
	out := Synthesized{
		Runways: feature.NewCollection(LayerRunways,
			"airport", "runway", "length", "width", "bearing_1", "bearing_2", "surface_type", "rank"),
		Labels: feature.NewCollection(LayerLabels, "airport_id", "runway_id", "label", "rank"),
	}

	var airports []string
	byAirport := make(map[string][]threshold)
	for _, r := range ds.Runways {
		apt := r.AirportID.Value
		label := strings.TrimPrefix(r.RunwayID.Value, "RW")
		if apt == "" || label == "" || !r.Lat.Valid || !r.Lon.Valid {
			continue
		}
		if _, ok := byAirport[apt]; !ok {
			airports = append(airports, apt)
		}
		byAirport[apt] = append(byAirport[apt], threshold{
			label: label,
			rec:   r,
			coord: geodesy.Coord{Lon: r.Lon.Value, Lat: r.Lat.Value, Elev: r.ThresholdElevation.Or(0)},
		})
	}

	for _, apt := range airports {
		ends := byAirport[apt]
		index := make(map[string]int, len(ends))
		for i, e := range ends {
			if _, dup := index[e.label]; !dup {
				index[e.label] = i
			}
		}

		used := make(map[string]bool, len(ends))
		for _, e := range ends {
			if used[e.label] {
				continue
			}
			used[e.label] = true

			oppLabel, ok := OppositeEnd(e.label)
			if !ok {
				out.Skipped++
				continue
			}

			first := e
			var second threshold
			paired := false
			if j, ok := index[oppLabel]; ok && !used[oppLabel] {
				second = ends[j]
				used[oppLabel] = true
				paired = true
			} else {
				if !e.rec.Bearing.Valid || !e.rec.Length.Valid || e.rec.Length.Value <= 0 {
					out.Skipped++
					continue
				}
				far := geodesy.Project(e.coord, e.rec.Bearing.Value, e.rec.Length.Value)
				second = threshold{
					label: oppLabel,
					rec: cifp.RunwayEnd{
						Bearing: cifp.FloatOf(math.Mod(e.rec.Bearing.Value+180, 360)),
					},
					coord: far,
				}
			}
			if second.label < first.label {
				first, second = second, first
			}

			width := first.rec.Width
			if !width.Valid {
				width = second.rec.Width
			}
			if !width.Valid || width.Value <= 0 {
				log.Debug("runway has no width", zap.String("airport", apt), zap.String("runway", e.label))
				out.Skipped++
				continue
			}

			poly, ok := SurfacePolygon(first.coord, second.coord, width.Value)
			if !ok {
				out.Skipped++
				continue
			}

			pair := string(NormalizePair(first.label + "/" + second.label))
			out.Runways.Add(feature.New(poly, map[string]any{
				"airport":      apt,
				"runway":       pair,
				"length":       maxLength(first.rec.Length, second.rec.Length),
				"width":        width.Value,
				"bearing_1":    first.rec.Bearing.Any(),
				"bearing_2":    second.rec.Bearing.Any(),
				"surface_type": surface,
			}, rank.Default))

			for _, t := range []threshold{first, second} {
				if !paired && t.label == oppLabel {
					continue
				}
				out.Labels.Add(feature.New(feature.Point(t.coord), map[string]any{
					"airport_id": apt,
					"runway_id":  pair,
					"label":      t.label,
				}, rank.Default))
			}
		}
	}

	if out.Skipped > 0 {
		log.Info("runways skipped", zap.Int("count", out.Skipped))
	}
	return out
}

func maxLength(a, b cifp.Float) any {
	switch {
	case a.Valid && b.Valid:
		return math.Max(a.Value, b.Value)
	case a.Valid:
		return a.Value
	case b.Valid:
		return b.Value
	}
	return nil
}
