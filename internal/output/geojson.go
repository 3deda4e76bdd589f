// Package output persists feature collections as GeoJSON, FlatGeobuf or
// PostGIS tables.
package output

import (
	"bufio"
	"encoding/json"
	"io"
	"math"

	"github.com/iancoleman/orderedmap"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/aerotiles/internal/feature"
)

type tippecanoe struct {
	MinZoom int `json:"minzoom"`
}

type geoJSONFeature struct {
	Type       string                 `json:"type"`
	Tippecanoe *tippecanoe            `json:"tippecanoe,omitempty"`
	Properties *orderedmap.OrderedMap `json:"properties"`
	Geometry   *geojson.Geometry      `json:"geometry"`
}

// WriteGeoJSON writes coll as a FeatureCollection, keeping every coordinate
// dimension. Properties follow the collection column order. Features with a
// minimum zoom carry it as a root-level tippecanoe member.
func WriteGeoJSON(w io.Writer, coll *feature.Collection) error {
	bw := bufio.NewWriter(w)

	head, err := json.Marshal(coll.Name)
	if err != nil {
		return eris.Wrap(err, "output: encode collection name")
	}
	if _, err := bw.WriteString(`{"type":"FeatureCollection","name":` + string(head) + `,"features":[`); err != nil {
		return eris.Wrap(err, "output: write geojson header")
	}

	for i, f := range coll.Features {
		g, err := geojson.Encode(f.Geometry)
		if err != nil {
			return eris.Wrapf(err, "output: encode geometry %s[%d]", coll.Name, i)
		}

		props := orderedmap.New()
		props.SetEscapeHTML(false)
		for _, col := range coll.Columns {
			if v, ok := f.Properties[col]; ok {
				props.Set(col, jsonSafe(v))
			}
		}

		gf := geoJSONFeature{Type: "Feature", Properties: props, Geometry: g}
		if f.MinZoom != nil {
			gf.Tippecanoe = &tippecanoe{MinZoom: *f.MinZoom}
		}

		b, err := json.Marshal(gf)
		if err != nil {
			return eris.Wrapf(err, "output: encode feature %s[%d]", coll.Name, i)
		}
		if i > 0 {
			if err := bw.WriteByte(','); err != nil {
				return eris.Wrap(err, "output: write geojson")
			}
		}
		if _, err := bw.Write(b); err != nil {
			return eris.Wrap(err, "output: write geojson")
		}
	}

	if _, err := bw.WriteString("]}\n"); err != nil {
		return eris.Wrap(err, "output: write geojson trailer")
	}
	return eris.Wrap(bw.Flush(), "output: flush geojson")
}

// jsonSafe replaces values JSON cannot represent with null.
func jsonSafe(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	return v
}
