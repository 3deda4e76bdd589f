package output

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/flatgeobuf/flatgeobuf/src/go/flattypes"
	fgbwriter "github.com/flatgeobuf/flatgeobuf/src/go/writer"
	flatbuffers "github.com/google/flatbuffers/go"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/aerotiles/internal/feature"
)

// ErrEmptyCollection is returned when asked to write a FlatGeobuf file with
// no features.
var ErrEmptyCollection = eris.New("output: empty collection")

type fgbColumn struct {
	name string
	typ  flattypes.ColumnType
}

// WriteFlatGeobuf writes coll as a FlatGeobuf file without a spatial index.
// Features are sorted by rank and reduced to 2D first; coll itself is
// reordered in place by the sort.
func WriteFlatGeobuf(w io.Writer, coll *feature.Collection) error {
	if coll.Len() == 0 {
		return eris.Wrapf(ErrEmptyCollection, "output: %s", coll.Name)
	}

	coll.SortByRank()
	flat, err := coll.Force2D()
	if err != nil {
		return eris.Wrap(err, "output: flatgeobuf")
	}

	gtype := collectionGeometryType(flat)
	columns := inferColumns(flat)

	gen := &featureGenerator{coll: flat, gtype: gtype, columns: columns}
	fw := fgbwriter.NewWriter(buildHeader(flat, gtype, columns), false, gen, nil)
	if _, err := fw.Write(w); err != nil {
		return eris.Wrapf(err, "output: write flatgeobuf %s", coll.Name)
	}
	return gen.err
}

func geometryTypeOf(g geom.T) flattypes.GeometryType {
	switch g.(type) {
	case *geom.Point:
		return flattypes.GeometryTypePoint
	case *geom.LineString:
		return flattypes.GeometryTypeLineString
	case *geom.Polygon:
		return flattypes.GeometryTypePolygon
	}
	return flattypes.GeometryTypeUnknown
}

// collectionGeometryType is the shared geometry type, or Unknown when the
// collection mixes types.
func collectionGeometryType(coll *feature.Collection) flattypes.GeometryType {
	t := geometryTypeOf(coll.Features[0].Geometry)
	for _, f := range coll.Features[1:] {
		if geometryTypeOf(f.Geometry) != t {
			return flattypes.GeometryTypeUnknown
		}
	}
	return t
}

// inferColumns assigns each column the type of its values. Integers widen to
// double when mixed with floats; any other mix falls back to string.
func inferColumns(coll *feature.Collection) []fgbColumn {
	cols := make([]fgbColumn, 0, len(coll.Columns))
	for _, name := range coll.Columns {
		var typ flattypes.ColumnType
		seen := false
		for _, f := range coll.Features {
			v, ok := f.Properties[name]
			if !ok || v == nil {
				continue
			}
			vt := valueType(v)
			switch {
			case !seen:
				typ, seen = vt, true
			case typ == vt:
			case (typ == flattypes.ColumnTypeLong && vt == flattypes.ColumnTypeDouble) ||
				(typ == flattypes.ColumnTypeDouble && vt == flattypes.ColumnTypeLong):
				typ = flattypes.ColumnTypeDouble
			default:
				typ = flattypes.ColumnTypeString
			}
		}
		if !seen {
			typ = flattypes.ColumnTypeString
		}
		cols = append(cols, fgbColumn{name: name, typ: typ})
	}
	return cols
}

func valueType(v any) flattypes.ColumnType {
	switch v.(type) {
	case bool:
		return flattypes.ColumnTypeBool
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return flattypes.ColumnTypeLong
	case float32, float64:
		return flattypes.ColumnTypeDouble
	case string:
		return flattypes.ColumnTypeString
	}
	return flattypes.ColumnTypeJson
}

func envelope(coll *feature.Collection) []float64 {
	env := []float64{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for _, f := range coll.Features {
		flat := f.Geometry.FlatCoords()
		stride := f.Geometry.Stride()
		for i := 0; i+1 < len(flat); i += stride {
			env[0] = math.Min(env[0], flat[i])
			env[1] = math.Min(env[1], flat[i+1])
			env[2] = math.Max(env[2], flat[i])
			env[3] = math.Max(env[3], flat[i+1])
		}
	}
	return env
}

func buildHeader(coll *feature.Collection, gtype flattypes.GeometryType, columns []fgbColumn) *fgbwriter.Header {
	b := flatbuffers.NewBuilder(1024)

	cols := make([]*fgbwriter.Column, len(columns))
	for i, c := range columns {
		cols[i] = fgbwriter.NewColumn(b).SetName(c.name).SetType(c.typ).SetNullable(true)
	}

	return fgbwriter.NewHeader(b).
		SetName(coll.Name).
		SetEnvelope(envelope(coll)).
		SetGeometryType(gtype).
		SetColumns(cols).
		SetFeaturesCount(uint64(coll.Len())).
		SetIndexNodeSize(0).
		SetCrs(fgbwriter.NewCrs(b).SetOrg("EPSG").SetCode(4326))
}

// featureGenerator feeds the writer one feature at a time. The first
// encoding failure stops generation and is kept in err.
type featureGenerator struct {
	coll    *feature.Collection
	gtype   flattypes.GeometryType
	columns []fgbColumn
	next    int
	err     error
}

func (g *featureGenerator) Generate() *fgbwriter.Feature {
	if g.err != nil || g.next >= g.coll.Len() {
		return nil
	}
	f := g.coll.Features[g.next]
	g.next++

	props, err := encodeProperties(f.Properties, g.columns)
	if err != nil {
		g.err = eris.Wrapf(err, "output: encode %s[%d]", g.coll.Name, g.next-1)
		return nil
	}

	b := flatbuffers.NewBuilder(256)
	return fgbwriter.NewFeature(b).
		SetGeometry(buildGeometry(b, f.Geometry, g.gtype)).
		SetProperties(props)
}

func buildGeometry(b *flatbuffers.Builder, g geom.T, gtype flattypes.GeometryType) *fgbwriter.Geometry {
	fg := fgbwriter.NewGeometry(b).SetXY(g.FlatCoords())
	if poly, ok := g.(*geom.Polygon); ok && len(poly.Ends()) > 1 {
		ends := make([]uint32, len(poly.Ends()))
		for i, e := range poly.Ends() {
			ends[i] = uint32(e / poly.Stride())
		}
		fg.SetEnds(ends)
	}
	if gtype == flattypes.GeometryTypeUnknown {
		fg.SetType(geometryTypeOf(g))
	}
	return fg
}

// encodeProperties lays out present values as (uint16 column index, value)
// pairs in little-endian order, strings and JSON length-prefixed. Absent and
// null values are omitted.
func encodeProperties(props map[string]any, columns []fgbColumn) ([]byte, error) {
	var buf []byte
	for i, c := range columns {
		v, ok := props[c.name]
		if !ok || v == nil {
			continue
		}
		if fv, isFloat := v.(float64); isFloat && math.IsNaN(fv) {
			continue
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(i))

		switch c.typ {
		case flattypes.ColumnTypeBool:
			if v.(bool) {
				buf = append(buf, 1)
			} else {
				buf = append(buf, 0)
			}
		case flattypes.ColumnTypeLong:
			buf = binary.LittleEndian.AppendUint64(buf, uint64(toInt64(v)))
		case flattypes.ColumnTypeDouble:
			buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(toFloat64(v)))
		case flattypes.ColumnTypeJson:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, eris.Wrapf(err, "output: encode %s", c.name)
			}
			buf = appendString(buf, string(raw))
		default:
			buf = appendString(buf, stringOf(v))
		}
	}
	return buf, nil
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func toInt64(v any) int64 {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	}
	return 0
}

func toFloat64(v any) float64 {
	switch v := v.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	}
	return float64(toInt64(v))
}
