package ais

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/feature"
)

// Ranks for the point and line layers; airspace polygons keep the default.
const (
	RankHolding  = 5
	RankObstacle = 6
)

var (
	airspaceColumns = []string{"name", "type", "airspace_class", "is_sua", "upper_limit", "lower_limit", "local_type"}
	boundaryColumns = []string{"name", "type", "ident", "local_type", "upper_limit", "lower_limit"}
	holdingColumns  = []string{"name", "ident", "course_out", "course_in", "turn_dir", "structures", "speed_limit"}
	obstacleColumns = []string{"type", "agl", "amsl", "lighting"}
)

// mapFunc turns source properties into layer properties and a rank.
type mapFunc func(raw map[string]any) (map[string]any, int)

// ConvertSUA maps special use airspace (MOA, restricted, prohibited, warning,
// alert) into the controlled airspace schema with is_sua set.
func ConvertSUA(path string) (*feature.Collection, error) {
	return convert(path, LayerAirspaces, airspaceColumns, func(raw map[string]any) (map[string]any, int) {
		typeCode := strings.ToUpper(text(raw, "TYPE_CODE"))
		return map[string]any{
			"name":           text(raw, "NAME"),
			"type":           typeCode,
			"airspace_class": typeCode,
			"is_sua":         true,
			"upper_limit":    valueOrBlank(raw["UPPER_VAL"]),
			"lower_limit":    valueOrBlank(raw["LOWER_VAL"]),
			"local_type":     typeCode,
		}, feature.DefaultRank
	})
}

// ConvertBoundary maps ARTCC, FIR, CTA and ADIZ boundaries.
func ConvertBoundary(path string) (*feature.Collection, error) {
	return convert(path, LayerBoundary, boundaryColumns, func(raw map[string]any) (map[string]any, int) {
		name := text(raw, "NAME")
		if name == "" {
			name = text(raw, "IDENT")
		}
		return map[string]any{
			"name":        name,
			"type":        strings.ToUpper(text(raw, "TYPE_CODE")),
			"ident":       text(raw, "IDENT"),
			"local_type":  text(raw, "LOCAL_TYPE"),
			"upper_limit": valueOrBlank(raw["UPPER_VAL"]),
			"lower_limit": valueOrBlank(raw["LOWER_VAL"]),
		}, feature.DefaultRank
	})
}

// ConvertHolding maps published holding patterns.
func ConvertHolding(path string) (*feature.Collection, error) {
	return convert(path, LayerHolding, holdingColumns, func(raw map[string]any) (map[string]any, int) {
		return map[string]any{
			"name":        text(raw, "NAME"),
			"ident":       text(raw, "IDENT"),
			"course_out":  raw["CRSOUT"],
			"course_in":   raw["CRSIN"],
			"turn_dir":    text(raw, "DIRTURN"),
			"structures":  text(raw, "STRUCTURES"),
			"speed_limit": raw["SPEEDLIMIT"],
		}, RankHolding
	})
}

// ConvertObstacles maps the digital obstacle file.
func ConvertObstacles(path string) (*feature.Collection, error) {
	return convert(path, LayerObstacles, obstacleColumns, func(raw map[string]any) (map[string]any, int) {
		return map[string]any{
			"type":     text(raw, "Type_Code"),
			"agl":      raw["AGL"],
			"amsl":     raw["AMSL"],
			"lighting": text(raw, "Lighting"),
		}, RankObstacle
	})
}

// convert reads a GeoJSON source and remaps each feature. Multi-part
// geometries are split into one feature per part. A missing source yields
// an empty collection.
func convert(path, layer string, columns []string, fn mapFunc) (*feature.Collection, error) {
	out := feature.NewCollection(layer, columns...)
	log := zap.L().With(zap.String("component", "ais"), zap.String("layer", layer))

	if path == "" {
		log.Info("no source configured, skipping")
		return out, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Info("source not found, skipping", zap.String("path", path))
			return out, nil
		}
		return nil, eris.Wrapf(err, "ais: stat %s", path)
	}

	src, err := feature.ReadGeoJSONFile(path, layer)
	if err != nil {
		return nil, eris.Wrapf(err, "ais: read %s", layer)
	}

	var skipped int
	for _, f := range src.Features {
		parts := feature.Explode(f.Geometry)
		if len(parts) == 0 {
			skipped++
			continue
		}
		props, rank := fn(f.Properties)
		for _, g := range parts {
			out.Add(feature.New(g, cloneProps(props), rank))
		}
	}

	if skipped > 0 {
		log.Debug("skipped unsupported geometries", zap.Int("skipped", skipped))
	}
	log.Info("converted", zap.Int("features", out.Len()))
	return out, nil
}

// text returns the trimmed string value of key, or "" when absent or not a
// string.
func text(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

// valueOrBlank keeps v unless it is null or an empty string.
func valueOrBlank(v any) any {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		if strings.TrimSpace(v) == "" {
			return ""
		}
	}
	return v
}
