package tiles

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgs(t *testing.T) {
	ts := Tileset{
		Name: "waypoints_obstacles", MinZoom: 0, MaxZoom: 10, DropFraction: true, OrderByRank: true,
		Layers: []Layer{{"waypoints", "waypoints.fgb"}, {"obstacles", "obstacles.fgb"}},
	}
	assert.Equal(t, []string{
		"-Z0", "-z10",
		"-o", filepath.Join("output", "waypoints_obstacles.pmtiles"),
		"--drop-fraction-as-needed",
		"-f",
		"--order-by=rank", "--order-smallest-first",
		"-L", "waypoints:" + filepath.Join("data", "waypoints.fgb"),
		"-L", "obstacles:" + filepath.Join("data", "obstacles.fgb"),
	}, Args(ts, "data", "output"))
}

func TestArgs_NoLimits(t *testing.T) {
	ts := Tileset{Name: "airport_diagrams", MinZoom: 9, MaxZoom: 14, NoLimits: true, Layers: []Layer{{"am_runways", "am_runways.fgb"}}}
	args := Args(ts, "d", "o")
	assert.Equal(t, []string{"-Z9", "-z14", "-o", filepath.Join("o", "airport_diagrams.pmtiles"),
		"--no-feature-limit", "--no-tile-size-limit", "-f", "-L", "am_runways:" + filepath.Join("d", "am_runways.fgb")}, args)
}

func TestDefaultTilesets(t *testing.T) {
	sets := DefaultTilesets()
	require.Len(t, sets, 6)
	names := make([]string, 0, len(sets))
	for _, ts := range sets {
		assert.NoError(t, ts.Validate())
		names = append(names, ts.Name)
	}
	assert.Equal(t, []string{"airspaces", "enroute", "boundary", "airports_navaids", "waypoints_obstacles", "airport_diagrams"}, names)
	assert.Equal(t, "airports.geojson", sets[3].Layers[0].File, "airports keep their zoom hints in GeoJSON")
}

func TestLoadLayers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tilesets:
  - name: enroute
    min_zoom: 0
    max_zoom: 8
    no_limits: true
    layers:
      - name: airways
        file: airways.fgb
      - name: airspaces
        file: airspaces.fgb
  - name: procedures
    min_zoom: 6
    max_zoom: 12
    order_by_rank: true
    layers:
      - {name: procedures, file: procedures.geojson}
`), 0o644))

	sets, err := LoadLayers(path)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, "enroute", sets[0].Name)
	assert.True(t, sets[0].NoLimits)
	assert.Equal(t, Layer{Name: "airspaces", File: "airspaces.fgb"}, sets[0].Layers[1])
	assert.Equal(t, 6, sets[1].MinZoom)
	assert.True(t, sets[1].OrderByRank)
}

func TestLoadLayers_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadLayers(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tilesets:\n  - name: x\n    min_zoom: 5\n    max_zoom: 2\n    layers: [{name: a, file: a.fgb}]\n"), 0o644))
	_, err = LoadLayers(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad zoom range 5-2")

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("tilesets:\n  - name: x\n    max_zoom: 2\n"), 0o644))
	_, err = LoadLayers(empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no layers")
}

func TestAvailable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "airways.fgb"), []byte("x"), 0o644))

	ts := Tileset{Name: "enroute", MaxZoom: 8, Layers: []Layer{{"airways", "airways.fgb"}, {"airspaces", "airspaces.fgb"}}}
	got, missing := Available(ts, dir)
	assert.Equal(t, []Layer{{"airways", "airways.fgb"}}, got.Layers)
	assert.Equal(t, []string{"airspaces"}, missing)
	assert.Len(t, ts.Layers, 2, "input is not modified")
}

// fakeCompiler writes a shell script standing in for the tile compiler.
func fakeCompiler(t *testing.T, body string) string {
	t.Helper()
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("no /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "tippecanoe")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestNewCompiler_DefaultBin(t *testing.T) {
	assert.Equal(t, "tippecanoe", NewCompiler("", "d", "o").binPath)
	assert.Equal(t, "/opt/bin/tippecanoe", NewCompiler("/opt/bin/tippecanoe", "d", "o").binPath)
}

func TestCompiler_Run(t *testing.T) {
	dataDir := t.TempDir()
	outDir := filepath.Join(t.TempDir(), "out")
	argsFile := filepath.Join(t.TempDir(), "args.txt")
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "airways.fgb"), []byte("x"), 0o644))

	bin := fakeCompiler(t, `printf '%s\n' "$@" > `+argsFile)
	c := NewCompiler(bin, dataDir, outDir)

	ts := Tileset{Name: "enroute", MaxZoom: 8, NoLimits: true, Layers: []Layer{{"airways", "airways.fgb"}, {"airspaces", "airspaces.fgb"}}}
	res, err := c.Run(context.Background(), ts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "enroute.pmtiles"), res.Path)
	assert.Equal(t, []string{"airspaces"}, res.Skipped)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "-Z0", lines[0])
	assert.Equal(t, "airways:"+filepath.Join(dataDir, "airways.fgb"), lines[len(lines)-1])
	assert.NotContains(t, string(data), "airspaces.fgb")

	info, err := os.Stat(outDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCompiler_RunFailure(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "a.fgb"), []byte("x"), 0o644))

	bin := fakeCompiler(t, `echo "bad zoom level" >&2; exit 3`)
	c := NewCompiler(bin, dataDir, t.TempDir())

	_, err := c.Run(context.Background(), Tileset{Name: "x", MaxZoom: 1, Layers: []Layer{{"a", "a.fgb"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad zoom level")
	assert.Contains(t, err.Error(), "failed for x")
}

func TestCompiler_RunSkipsEmptyTileset(t *testing.T) {
	c := NewCompiler("/nonexistent/tippecanoe", t.TempDir(), t.TempDir())
	res, err := c.Run(context.Background(), Tileset{Name: "boundary", MaxZoom: 8, Layers: []Layer{{"boundary_airspace", "boundary_airspace.fgb"}}})
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.Equal(t, []string{"boundary_airspace"}, res.Skipped)
}

func TestCompiler_RunAll(t *testing.T) {
	dataDir := t.TempDir()
	for _, f := range []string{"a.fgb", "b.fgb"} {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, f), []byte("x"), 0o644))
	}
	outDir := t.TempDir()
	c := NewCompiler(fakeCompiler(t, "exit 0"), dataDir, outDir)

	results, err := c.RunAll(context.Background(), []Tileset{
		{Name: "one", MaxZoom: 4, Layers: []Layer{{"a", "a.fgb"}}},
		{Name: "two", MaxZoom: 4, Layers: []Layer{{"b", "b.fgb"}}},
		{Name: "three", MaxZoom: 4, Layers: []Layer{{"c", "c.fgb"}}},
	}, 2)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, filepath.Join(outDir, "one.pmtiles"), results[0].Path)
	assert.Equal(t, "two", results[1].Tileset)
	assert.Empty(t, results[2].Path)
}

func TestCompiler_RunAllError(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "a.fgb"), []byte("x"), 0o644))
	c := NewCompiler(filepath.Join(t.TempDir(), "absent"), dataDir, t.TempDir())

	_, err := c.RunAll(context.Background(), []Tileset{{Name: "one", MaxZoom: 4, Layers: []Layer{{"a", "a.fgb"}}}}, 0)
	assert.Error(t, err)
}
