package output

import (
	"context"
	"encoding/json"
	"maps"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/db"
	"github.com/sells-group/aerotiles/internal/feature"
)

// SRID of every stored geometry.
const SRID = 4326

const postgisColumnDefs = "rank integer NOT NULL, properties jsonb, geom geometry(Geometry, 4326)"

var postgisColumns = []string{"rank", "properties", "geom"}

// PostGIS loads collections into one table per layer under Schema.
type PostGIS struct {
	Pool   db.Pool
	Schema string
}

// Write replaces the layer table and COPYs every feature into it with 2D
// EWKB geometry.
func (p *PostGIS) Write(ctx context.Context, coll *feature.Collection) (int64, error) {
	log := zap.L().With(zap.String("component", "postgis"), zap.String("layer", coll.Name))
	table := db.Table{Schema: p.Schema, Name: coll.Name}

	rows := make([][]any, 0, coll.Len())
	for i, f := range coll.Features {
		wkb, err := EncodeEWKB(f.Geometry)
		if err != nil {
			return 0, eris.Wrapf(err, "output: %s[%d]", coll.Name, i)
		}

		props := maps.Clone(f.Properties)
		for k, v := range props {
			props[k] = jsonSafe(v)
		}
		raw, err := json.Marshal(props)
		if err != nil {
			return 0, eris.Wrapf(err, "output: encode properties %s[%d]", coll.Name, i)
		}
		rows = append(rows, []any{f.Rank, raw, wkb})
	}

	if err := db.Replace(ctx, p.Pool, table, postgisColumnDefs); err != nil {
		return 0, eris.Wrapf(err, "output: prepare %s", table)
	}
	n, err := db.CopyFrom(ctx, p.Pool, table, postgisColumns, rows)
	if err != nil {
		return 0, err
	}

	log.Info("loaded layer", zap.String("table", table.String()), zap.Int64("rows", n))
	return n, nil
}

// EncodeEWKB reduces g to 2D and encodes it as little-endian EWKB with SRID
// 4326.
func EncodeEWKB(g geom.T) ([]byte, error) {
	flat, err := feature.Force2D(g)
	if err != nil {
		return nil, err
	}

	switch t := flat.(type) {
	case *geom.Point:
		flat = t.SetSRID(SRID)
	case *geom.LineString:
		flat = t.SetSRID(SRID)
	case *geom.Polygon:
		flat = t.SetSRID(SRID)
	}

	data, err := ewkb.Marshal(flat, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "output: encode EWKB")
	}
	return data, nil
}
