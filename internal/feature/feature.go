// Package feature defines the map features produced by the assemblers and
// the collections they are grouped into for persistence.
package feature

import (
	"cmp"
	"slices"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/aerotiles/internal/geodesy"
)

// DefaultRank is assigned to features no classification rule applies to.
const DefaultRank = 5

// ErrUnsupportedGeometry is returned for geometry types other than Point,
// LineString and Polygon.
var ErrUnsupportedGeometry = eris.New("feature: unsupported geometry")

// Feature is one map feature. Properties always carry a "rank" entry equal
// to Rank.
type Feature struct {
	Geometry   geom.T
	Properties map[string]any
	Rank       int
	// MinZoom, when set, is emitted as a root-level tile compiler hint.
	MinZoom *int
}

// New builds a feature and stamps rank into its properties.
func New(g geom.T, props map[string]any, rank int) Feature {
	if props == nil {
		props = make(map[string]any, 1)
	}
	props["rank"] = rank
	return Feature{Geometry: g, Properties: props, Rank: rank}
}

// WithMinZoom returns a copy of f carrying a minimum zoom hint.
func (f Feature) WithMinZoom(z int) Feature {
	f.MinZoom = &z
	return f
}

// Collection is a named, homogeneous set of features with an ordered
// property schema.
type Collection struct {
	Name     string
	Columns  []string
	Features []Feature
}

// NewCollection returns an empty collection with the given leading columns.
func NewCollection(name string, columns ...string) *Collection {
	return &Collection{Name: name, Columns: slices.Clone(columns)}
}

// Add appends f and registers any property keys not yet in Columns. New keys
// are appended in sorted order so the schema is deterministic.
func (c *Collection) Add(f Feature) {
	c.Features = append(c.Features, f)

	var fresh []string
	for k := range f.Properties {
		if !slices.Contains(c.Columns, k) {
			fresh = append(fresh, k)
		}
	}
	slices.Sort(fresh)
	c.Columns = append(c.Columns, fresh...)
}

// Len returns the number of features.
func (c *Collection) Len() int { return len(c.Features) }

// SortByRank orders features by ascending rank, keeping input order within a
// rank.
func (c *Collection) SortByRank() {
	slices.SortStableFunc(c.Features, func(a, b Feature) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
}

// Force2D returns a copy of the collection with every geometry reduced to XY.
func (c *Collection) Force2D() (*Collection, error) {
	out := &Collection{Name: c.Name, Columns: slices.Clone(c.Columns), Features: make([]Feature, len(c.Features))}
	for i, f := range c.Features {
		g, err := Force2D(f.Geometry)
		if err != nil {
			return nil, eris.Wrapf(err, "feature: force 2d %s[%d]", c.Name, i)
		}
		f.Geometry = g
		out.Features[i] = f
	}
	return out, nil
}

// Point returns an XYZ point.
func Point(c geodesy.Coord) *geom.Point {
	return geom.NewPointFlat(geom.XYZ, []float64{c.Lon, c.Lat, c.Elev})
}

// LineString returns an XYZ line string through cs.
func LineString(cs []geodesy.Coord) *geom.LineString {
	return geom.NewLineStringFlat(geom.XYZ, flatten(cs))
}

// Polygon returns a single-ring XYZ polygon. The ring must already be closed.
func Polygon(ring []geodesy.Coord) *geom.Polygon {
	flat := flatten(ring)
	return geom.NewPolygonFlat(geom.XYZ, flat, []int{len(flat)})
}

func flatten(cs []geodesy.Coord) []float64 {
	flat := make([]float64, 0, 3*len(cs))
	for _, c := range cs {
		flat = append(flat, c.Lon, c.Lat, c.Elev)
	}
	return flat
}

// Force2D drops every coordinate beyond X and Y.
func Force2D(g geom.T) (geom.T, error) {
	switch g := g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(geom.XY, xyOnly(g.FlatCoords(), g.Stride())), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(geom.XY, xyOnly(g.FlatCoords(), g.Stride())), nil
	case *geom.Polygon:
		ends := make([]int, len(g.Ends()))
		for i, e := range g.Ends() {
			ends[i] = e / g.Stride() * 2
		}
		return geom.NewPolygonFlat(geom.XY, xyOnly(g.FlatCoords(), g.Stride()), ends), nil
	case nil:
		return nil, eris.Wrap(ErrUnsupportedGeometry, "nil geometry")
	}
	return nil, eris.Wrapf(ErrUnsupportedGeometry, "%T", g)
}

func xyOnly(flat []float64, stride int) []float64 {
	if stride == 2 {
		return slices.Clone(flat)
	}
	out := make([]float64, 0, len(flat)/stride*2)
	for i := 0; i+1 < len(flat); i += stride {
		out = append(out, flat[i], flat[i+1])
	}
	return out
}

// Explode splits multi-part geometries into their single parts. Points,
// line strings and polygons are returned as is; other types yield nil.
func Explode(g geom.T) []geom.T {
	switch g := g.(type) {
	case *geom.Point, *geom.LineString, *geom.Polygon:
		return []geom.T{g}
	case *geom.MultiPoint:
		out := make([]geom.T, 0, g.NumPoints())
		for i := range g.NumPoints() {
			out = append(out, g.Point(i))
		}
		return out
	case *geom.MultiLineString:
		out := make([]geom.T, 0, g.NumLineStrings())
		for i := range g.NumLineStrings() {
			out = append(out, g.LineString(i))
		}
		return out
	case *geom.MultiPolygon:
		out := make([]geom.T, 0, g.NumPolygons())
		for i := range g.NumPolygons() {
			out = append(out, g.Polygon(i))
		}
		return out
	}
	return nil
}
