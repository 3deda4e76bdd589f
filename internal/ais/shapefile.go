package ais

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/feature"
)

// localTypeClass maps the shapefile LOCAL_TYPE to the charted class.
var localTypeClass = map[string]string{
	"CLASS_B":  "B",
	"CLASS_C":  "C",
	"CLASS_D":  "D",
	"CLASS_E":  "E",
	"CLASS_E2": "E",
	"CLASS_E3": "E",
	"CLASS_E4": "E",
	"CLASS_E5": "E",
	"CLASS_E6": "E",
	"CLASS_E7": "E",
	"TRSA":     "TRSA",
	"MODE C":   "MODE_C",
}

// ReadClassAirspace reads every shapefile under dir, recursively, into the
// controlled airspace layer. A directory without shapefiles yields an empty
// collection.
func ReadClassAirspace(dir string) (*feature.Collection, error) {
	coll := feature.NewCollection(LayerAirspaces, airspaceColumns...)

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			zap.L().With(zap.String("component", "ais")).Info("class airspace directory not found, skipping",
				zap.String("dir", dir),
			)
			return coll, nil
		}
		return nil, eris.Wrapf(err, "ais: stat %s", dir)
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".shp") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ais: walk %s", dir)
	}
	slices.Sort(paths)

	for _, p := range paths {
		if err := readClassShapefile(p, coll); err != nil {
			return nil, err
		}
	}

	zap.L().With(zap.String("component", "ais")).Info("read class airspace",
		zap.Int("shapefiles", len(paths)),
		zap.Int("features", coll.Len()),
	)
	return coll, nil
}

func readClassShapefile(path string, coll *feature.Collection) error {
	reader, err := shp.Open(path)
	if err != nil {
		return eris.Wrapf(err, "ais: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}
	attr := func(name string) string {
		idx, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		polys := shapePolygons(shape)
		if len(polys) == 0 {
			skipped++
			continue
		}

		props := ClassifyControlled(map[string]string{
			"CLASS":      attr("CLASS"),
			"LOCAL_TYPE": attr("LOCAL_TYPE"),
			"NAME":       attr("NAME"),
			"IDENT":      attr("IDENT"),
			"UPPER_VAL":  attr("UPPER_VAL"),
			"LOWER_VAL":  attr("LOWER_VAL"),
		})
		for _, p := range polys {
			coll.Add(feature.New(p, cloneProps(props), feature.DefaultRank))
		}
	}

	if skipped > 0 {
		zap.L().Debug("ais: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return nil
}

// ClassifyControlled derives the controlled airspace properties from
// shapefile attributes. Class E variants all chart as "E"; other local types
// keep their own name as the display type.
func ClassifyControlled(rec map[string]string) map[string]any {
	rawClass := strings.ToUpper(strings.TrimSpace(rec["CLASS"]))
	localType := strings.ToUpper(strings.TrimSpace(rec["LOCAL_TYPE"]))
	name := strings.TrimSpace(rec["NAME"])
	if name == "" {
		name = strings.TrimSpace(rec["IDENT"])
	}

	class, ok := localTypeClass[localType]
	if !ok {
		class = rawClass
	}
	display := localType
	if class == "E" {
		display = class
	}

	return map[string]any{
		"name":           name,
		"type":           display,
		"airspace_class": class,
		"is_sua":         false,
		"upper_limit":    rec["UPPER_VAL"],
		"lower_limit":    rec["LOWER_VAL"],
		"local_type":     localType,
	}
}

// shapePolygons converts a polygon shape into one polygon per outer ring.
// Clockwise rings are outer boundaries; counter-clockwise rings are holes of
// the preceding outer ring.
func shapePolygons(shape shp.Shape) []*geom.Polygon {
	var parts []int32
	var points []shp.Point
	switch s := shape.(type) {
	case *shp.Polygon:
		parts, points = s.Parts, s.Points
	case *shp.PolygonZ:
		parts, points = s.Parts, s.Points
	case *shp.PolygonM:
		parts, points = s.Parts, s.Points
	default:
		return nil
	}

	var out []*geom.Polygon
	var current *geom.Polygon
	for i := range parts {
		start := int(parts[i])
		end := len(points)
		if i+1 < len(parts) {
			end = int(parts[i+1])
		}
		if start < 0 || end > len(points) || start >= end {
			continue
		}
		flat := ringCoords(points[start:end])
		if len(flat) < 8 {
			continue
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		if current == nil || signedArea(flat) < 0 {
			current = geom.NewPolygon(geom.XY)
			out = append(out, current)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("ais: push ring failed", zap.Error(err))
		}
	}
	return out
}

// ringCoords flattens a ring, closing it when the last point differs from
// the first.
func ringCoords(pts []shp.Point) []float64 {
	flat := make([]float64, 0, 2*len(pts)+2)
	for _, p := range pts {
		flat = append(flat, p.X, p.Y)
	}
	if len(pts) > 0 {
		first, last := pts[0], pts[len(pts)-1]
		if first.X != last.X || first.Y != last.Y {
			flat = append(flat, first.X, first.Y)
		}
	}
	return flat
}

// signedArea is the shoelace area of an XY ring, negative when clockwise.
func signedArea(flat []float64) float64 {
	var sum float64
	for i := 0; i+3 < len(flat); i += 2 {
		sum += flat[i]*flat[i+3] - flat[i+2]*flat[i+1]
	}
	return sum / 2
}

func cloneProps(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
