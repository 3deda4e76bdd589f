// Package tiles drives the external vector tile compiler over the written
// feature layers, one archive per tileset.
package tiles

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Layer is one named input file of a tileset.
type Layer struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

// Tileset describes one output archive.
type Tileset struct {
	Name    string  `yaml:"name"`
	MinZoom int     `yaml:"min_zoom"`
	MaxZoom int     `yaml:"max_zoom"`
	Layers  []Layer `yaml:"layers"`
	// OrderByRank makes lower-ranked features win when tiles are full.
	OrderByRank  bool `yaml:"order_by_rank"`
	DropFraction bool `yaml:"drop_fraction"`
	NoLimits     bool `yaml:"no_limits"`
}

type layerFile struct {
	Tilesets []Tileset `yaml:"tilesets"`
}

// LoadLayers reads tileset definitions from a YAML file.
func LoadLayers(path string) ([]Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "tiles: read %s", path)
	}

	var lf layerFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, eris.Wrapf(err, "tiles: parse %s", path)
	}
	for _, ts := range lf.Tilesets {
		if err := ts.Validate(); err != nil {
			return nil, eris.Wrapf(err, "tiles: %s", path)
		}
	}
	return lf.Tilesets, nil
}

// Validate checks the tileset is complete enough to compile.
func (ts Tileset) Validate() error {
	if ts.Name == "" {
		return eris.New("tiles: tileset without a name")
	}
	if ts.MinZoom < 0 || ts.MaxZoom < ts.MinZoom {
		return eris.Errorf("tiles: %s: bad zoom range %d-%d", ts.Name, ts.MinZoom, ts.MaxZoom)
	}
	if len(ts.Layers) == 0 {
		return eris.Errorf("tiles: %s: no layers", ts.Name)
	}
	for _, l := range ts.Layers {
		if l.Name == "" || l.File == "" {
			return eris.Errorf("tiles: %s: layer needs a name and a file", ts.Name)
		}
	}
	return nil
}

// DefaultTilesets returns the standard set of archives served to the map
// client.
func DefaultTilesets() []Tileset {
	return []Tileset{
		{
			Name: "airspaces", MinZoom: 0, MaxZoom: 10, NoLimits: true,
			Layers: []Layer{{"controlled_airspace", "controlled_airspace.fgb"}},
		},
		{
			Name: "enroute", MinZoom: 0, MaxZoom: 8, NoLimits: true,
			Layers: []Layer{{"airways", "airways.fgb"}, {"airspaces", "airspaces.fgb"}},
		},
		{
			Name: "boundary", MinZoom: 0, MaxZoom: 8, NoLimits: true,
			Layers: []Layer{{"boundary_airspace", "boundary_airspace.fgb"}},
		},
		{
			Name: "airports_navaids", MinZoom: 0, MaxZoom: 10, NoLimits: true, OrderByRank: true,
			Layers: []Layer{
				{"airports", "airports.geojson"},
				{"navaids", "navaids.fgb"},
				{"runways", "runways.fgb"},
				{"localizers", "localizers.fgb"},
			},
		},
		{
			Name: "waypoints_obstacles", MinZoom: 0, MaxZoom: 10, DropFraction: true, OrderByRank: true,
			Layers: []Layer{
				{"waypoints", "waypoints.fgb"},
				{"holding_patterns", "holding_patterns.fgb"},
				{"obstacles", "obstacles.fgb"},
			},
		},
		{
			Name: "airport_diagrams", MinZoom: 9, MaxZoom: 14, NoLimits: true,
			Layers: []Layer{{"am_runways", "am_runways.fgb"}, {"am_taxiways", "am_taxiways.fgb"}},
		},
	}
}

// OutputPath is the archive written for ts under outDir.
func OutputPath(ts Tileset, outDir string) string {
	return filepath.Join(outDir, ts.Name+".pmtiles")
}

// Args builds the compiler arguments for ts. Layer files are resolved
// against dataDir.
func Args(ts Tileset, dataDir, outDir string) []string {
	args := []string{
		"-Z" + strconv.Itoa(ts.MinZoom),
		"-z" + strconv.Itoa(ts.MaxZoom),
		"-o", OutputPath(ts, outDir),
	}
	if ts.NoLimits {
		args = append(args, "--no-feature-limit", "--no-tile-size-limit")
	}
	if ts.DropFraction {
		args = append(args, "--drop-fraction-as-needed")
	}
	args = append(args, "-f")
	if ts.OrderByRank {
		args = append(args, "--order-by=rank", "--order-smallest-first")
	}
	for _, l := range ts.Layers {
		args = append(args, "-L", l.Name+":"+filepath.Join(dataDir, l.File))
	}
	return args
}

// Available returns ts restricted to layers whose files exist under
// dataDir, and the names of the layers left out.
func Available(ts Tileset, dataDir string) (Tileset, []string) {
	out := ts
	out.Layers = nil
	var missing []string
	for _, l := range ts.Layers {
		if _, err := os.Stat(filepath.Join(dataDir, l.File)); err != nil {
			missing = append(missing, l.Name)
			continue
		}
		out.Layers = append(out.Layers, l)
	}
	return out, missing
}
