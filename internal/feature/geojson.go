package feature

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"slices"

	"github.com/iancoleman/orderedmap"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Geometry   json.RawMessage        `json:"geometry"`
	Properties *orderedmap.OrderedMap `json:"properties"`
}

// ReadGeoJSON decodes a FeatureCollection. Columns follow the order in which
// property keys first appear in the file. Features without geometry are
// skipped. A numeric "rank" property becomes the feature rank; features
// without one get DefaultRank.
func ReadGeoJSON(r io.Reader, name string) (*Collection, error) {
	var raw rawCollection
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, eris.Wrapf(err, "feature: decode geojson %s", name)
	}
	if raw.Type != "FeatureCollection" {
		return nil, eris.Errorf("feature: %s is a %q, not a FeatureCollection", name, raw.Type)
	}

	coll := &Collection{Name: name}
	skipped := 0
	for _, rf := range raw.Features {
		rg := bytes.TrimSpace(rf.Geometry)
		if len(rg) == 0 || bytes.Equal(rg, []byte("null")) {
			skipped++
			continue
		}
		var g geom.T
		if err := geojson.Unmarshal(rg, &g); err != nil {
			skipped++
			continue
		}

		props := make(map[string]any)
		if rf.Properties != nil {
			for _, k := range rf.Properties.Keys() {
				v, _ := rf.Properties.Get(k)
				props[k] = v
				if !slices.Contains(coll.Columns, k) {
					coll.Columns = append(coll.Columns, k)
				}
			}
		}

		rank := DefaultRank
		if v, ok := props["rank"].(float64); ok {
			rank = int(v)
		}
		if !slices.Contains(coll.Columns, "rank") {
			coll.Columns = append(coll.Columns, "rank")
		}
		coll.Features = append(coll.Features, New(g, props, rank))
	}

	if skipped > 0 {
		zap.L().Debug("feature: skipped geojson features without geometry",
			zap.String("collection", name),
			zap.Int("skipped", skipped),
		)
	}
	return coll, nil
}

// ReadGeoJSONFile opens path and decodes it with ReadGeoJSON.
func ReadGeoJSONFile(path, name string) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "feature: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ReadGeoJSON(f, name)
}
