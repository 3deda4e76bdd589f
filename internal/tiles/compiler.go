package tiles

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Compiler runs the tippecanoe binary.
type Compiler struct {
	binPath string
	dataDir string
	outDir  string
}

// NewCompiler creates a Compiler reading layers from dataDir and writing
// archives to outDir. If binPath is empty, "tippecanoe" is used.
func NewCompiler(binPath, dataDir, outDir string) *Compiler {
	if binPath == "" {
		binPath = "tippecanoe"
	}
	return &Compiler{binPath: binPath, dataDir: dataDir, outDir: outDir}
}

// Result reports one compiled tileset.
type Result struct {
	Tileset string   `json:"tileset"`
	Path    string   `json:"path,omitempty"`
	Skipped []string `json:"skipped_layers,omitempty"`
}

// Run compiles one tileset. Layers whose files are missing are left out; a
// tileset with no remaining layers is skipped without running the binary.
func (c *Compiler) Run(ctx context.Context, ts Tileset) (Result, error) {
	log := zap.L().With(zap.String("component", "tiles"), zap.String("tileset", ts.Name))

	avail, missing := Available(ts, c.dataDir)
	res := Result{Tileset: ts.Name, Skipped: missing}
	if len(missing) > 0 {
		log.Info("layer files missing", zap.Strings("layers", missing))
	}
	if len(avail.Layers) == 0 {
		log.Info("no layers to compile, skipping")
		return res, nil
	}

	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return res, eris.Wrapf(err, "tiles: create %s", c.outDir)
	}

	args := Args(avail, c.dataDir, c.outDir)
	cmd := exec.CommandContext(ctx, c.binPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug("running tile compiler", zap.String("bin", c.binPath), zap.Strings("args", args))
	if err := cmd.Run(); err != nil {
		return res, eris.Wrapf(err, "tiles: %s failed for %s: %s", c.binPath, ts.Name, strings.TrimSpace(stderr.String()))
	}

	res.Path = OutputPath(ts, c.outDir)
	log.Info("tileset compiled", zap.String("path", res.Path))
	return res, nil
}

// RunAll compiles tilesets concurrently, at most limit at a time (no limit
// when limit <= 0). Results keep the input order.
func (c *Compiler) RunAll(ctx context.Context, tilesets []Tileset, limit int) ([]Result, error) {
	results := make([]Result, len(tilesets))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ts := range tilesets {
		g.Go(func() error {
			res, err := c.Run(gctx, ts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
