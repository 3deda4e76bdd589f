// Package pipeline drives one synthesis run: load the CIFP dataset, build
// the fix table, assemble every layer, conflate runways and persist the
// results.
package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/aerotiles/internal/assemble"
	"github.com/sells-group/aerotiles/internal/cifp"
	"github.com/sells-group/aerotiles/internal/feature"
	"github.com/sells-group/aerotiles/internal/fixes"
	"github.com/sells-group/aerotiles/internal/nasr"
	"github.com/sells-group/aerotiles/internal/output"
	"github.com/sells-group/aerotiles/internal/runway"
	"github.com/sells-group/aerotiles/internal/search"
	"github.com/sells-group/aerotiles/internal/store"
)

// ErrMissingInput is returned when a required input artifact is absent.
var ErrMissingInput = eris.New("pipeline: missing input")

// Options configures a run.
type Options struct {
	CIFP   string
	Format string
	// NASRCSV is the optional APT_BASE.csv used for airport metadata.
	NASRCSV string
	// CacheDir, when set, caches parsed NASR metadata per cycle.
	CacheDir string
	// AirportDiagrams is the optional GeoJSON diagram runway layer.
	AirportDiagrams string
	Surface         string
	Concurrency     int
	// SearchIndex names the identifier search file written next to the
	// layers. Empty disables it.
	SearchIndex string

	Writer *output.Writer
	// PostGIS, when set, receives a copy of every written layer.
	PostGIS *output.PostGIS
	// Store, when set, records the run and its phases.
	Store store.Store
	// Now defaults to time.Now and picks the NASR cycle.
	Now func() time.Time
}

// LayerSummary reports one persisted layer.
type LayerSummary struct {
	Layer      string `json:"layer"`
	Emitted    int    `json:"emitted"`
	Dropped    int    `json:"dropped"`
	Unresolved int    `json:"unresolved,omitempty"`
	Path       string `json:"path,omitempty"`
	Rows       int64  `json:"rows,omitempty"`
}

// RunwaySummary reports runway synthesis and conflation.
type RunwaySummary struct {
	Skipped  int `json:"skipped"`
	Diagram  int `json:"diagram"`
	Enriched int `json:"enriched"`
	Kept     int `json:"kept"`
}

// Summary is the outcome of a run.
type Summary struct {
	RunID    string         `json:"run_id,omitempty"`
	Cycle    string         `json:"cycle"`
	Input    string         `json:"input"`
	Records  cifp.ReadStats `json:"records"`
	Fixes    int            `json:"fixes"`
	Airports int            `json:"airport_metadata"`
	Runways  RunwaySummary  `json:"runways"`
	Layers   []LayerSummary `json:"layers"`
	// SearchIndex is the path of the written search index, if any.
	SearchIndex string        `json:"search_index,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
}

type layerResult struct {
	coll  *feature.Collection
	stats assemble.Stats
}

// Run executes the whole pipeline.
func Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	cycle := nasr.CycleID(nasr.Cycle(now()))
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("cycle", cycle))

	if opts.Writer == nil {
		return nil, eris.New("pipeline: no output writer")
	}
	if _, err := os.Stat(opts.CIFP); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrMissingInput, "pipeline: cifp %s", opts.CIFP)
		}
		return nil, eris.Wrapf(err, "pipeline: stat %s", opts.CIFP)
	}

	sum := &Summary{Cycle: cycle, Input: opts.CIFP}
	tr := newTracker(ctx, opts.Store, cycle, opts.CIFP)
	sum.RunID = tr.runID

	err := run(ctx, opts, sum, tr, log)
	sum.Duration = time.Since(start)
	if err != nil {
		tr.fail(err)
		return nil, err
	}
	tr.complete(sum)

	log.Info("pipeline: run complete",
		zap.String("run_id", sum.RunID),
		zap.Int("layers", len(sum.Layers)),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

func run(ctx context.Context, opts Options, sum *Summary, tr *tracker, log *zap.Logger) error {
	// ===== Load =====
	var ds *cifp.Dataset
	if err := tr.phase("load", func() (any, error) {
		d, stats, err := cifp.Load(opts.CIFP, opts.Format)
		if err != nil {
			return nil, err
		}
		ds, sum.Records = d, stats
		return d.Counts(), nil
	}); err != nil {
		return err
	}

	var meta nasr.Metadata
	if err := tr.phase("metadata", func() (any, error) {
		m, err := loadMetadata(ctx, opts, sum.Cycle, log)
		if err != nil {
			return nil, err
		}
		meta, sum.Airports = m, len(m)
		return map[string]int{"airports": len(m)}, nil
	}); err != nil {
		return err
	}

	// ===== Phase 1: fix table =====
	var table *fixes.Table
	if err := tr.phase("fixes", func() (any, error) {
		table = fixes.Build(ds)
		sum.Fixes = table.Len()
		return map[string]int{"fixes": table.Len()}, nil
	}); err != nil {
		return err
	}

	// ===== Phase 2: assemble in parallel =====
	var results []layerResult
	var synth runway.Synthesized
	if err := tr.phase("assemble", func() (any, error) {
		var err error
		results, synth, err = assembleAll(ctx, ds, table, meta, opts)
		return map[string]int{"layers": len(results)}, err
	}); err != nil {
		return err
	}
	sum.Runways.Skipped = synth.Skipped

	// ===== Runway conflation =====
	if err := tr.phase("runways", func() (any, error) {
		diagram, err := loadDiagrams(opts.AirportDiagrams, log)
		if err != nil {
			return nil, err
		}
		merged := runway.Merge(diagram, synth.Runways, synth.Labels)
		sum.Runways.Diagram = diagram.Len()
		sum.Runways.Enriched = merged.Enriched
		sum.Runways.Kept = merged.Kept
		results = append(results,
			layerResult{coll: merged.Runways, stats: assemble.Stats{Emitted: merged.Runways.Len(), Dropped: synth.Skipped}},
			layerResult{coll: merged.Labels, stats: assemble.Stats{Emitted: merged.Labels.Len()}},
		)
		return sum.Runways, nil
	}); err != nil {
		return err
	}

	// ===== Persist =====
	return tr.phase("write", func() (any, error) {
		layers, err := writeAll(ctx, results, opts)
		if err != nil {
			return nil, err
		}
		sum.Layers = layers

		if opts.SearchIndex != "" {
			idx := search.Build(ds)
			path, err := opts.Writer.WriteFile(opts.SearchIndex, idx.Write)
			if err != nil {
				return nil, eris.Wrap(err, "pipeline: search index")
			}
			sum.SearchIndex = path
			log.Info("pipeline: search index written", zap.String("path", path), zap.Int("fixes", len(idx.Fixes)))
		}
		return map[string]int{"layers": len(layers)}, nil
	})
}

// assembleAll runs every assembler concurrently. Results keep a fixed layer
// order regardless of completion order.
func assembleAll(ctx context.Context, ds *cifp.Dataset, table *fixes.Table, meta nasr.Metadata, opts Options) ([]layerResult, runway.Synthesized, error) {
	jobs := []func() (*feature.Collection, assemble.Stats){
		func() (*feature.Collection, assemble.Stats) { return assemble.Airports(ds, meta) },
		func() (*feature.Collection, assemble.Stats) { return assemble.Navaids(ds) },
		func() (*feature.Collection, assemble.Stats) { return assemble.Waypoints(ds) },
		func() (*feature.Collection, assemble.Stats) { return assemble.Procedures(ds, table) },
		func() (*feature.Collection, assemble.Stats) { return assemble.Airways(ds, table) },
		func() (*feature.Collection, assemble.Stats) { return assemble.Airspaces(ds) },
		func() (*feature.Collection, assemble.Stats) { return assemble.RunwayThresholds(ds) },
		func() (*feature.Collection, assemble.Stats) { return assemble.Localizers(ds) },
	}

	results := make([]layerResult, len(jobs))
	var synth runway.Synthesized

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			coll, stats := job()
			results[i] = layerResult{coll: coll, stats: stats}
			return nil
		})
	}
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		synth = runway.Synthesize(ds, opts.Surface)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, runway.Synthesized{}, eris.Wrap(err, "pipeline: assemble")
	}

	for _, r := range results {
		zap.L().Info("pipeline: layer assembled",
			zap.String("layer", r.coll.Name),
			zap.Int("emitted", r.stats.Emitted),
			zap.Int("dropped", r.stats.Dropped),
			zap.Int("unresolved", r.stats.Unresolved),
		)
	}
	return results, synth, nil
}

// writeAll persists every layer to the file writer and, when configured,
// to PostGIS.
func writeAll(ctx context.Context, results []layerResult, opts Options) ([]LayerSummary, error) {
	layers := make([]LayerSummary, len(results))

	g, gctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	var pgMu sync.Mutex
	for i, r := range results {
		g.Go(func() error {
			path, err := opts.Writer.Write(r.coll)
			if err != nil {
				return err
			}
			ls := LayerSummary{
				Layer:      r.coll.Name,
				Emitted:    r.stats.Emitted,
				Dropped:    r.stats.Dropped,
				Unresolved: r.stats.Unresolved,
				Path:       path,
			}
			if opts.PostGIS != nil && r.coll.Len() > 0 {
				// One COPY at a time keeps a single connection busy.
				pgMu.Lock()
				n, err := opts.PostGIS.Write(gctx, r.coll)
				pgMu.Unlock()
				if err != nil {
					return err
				}
				ls.Rows = n
			}
			layers[i] = ls
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: write")
	}
	return layers, nil
}

// loadMetadata returns the NASR airport metadata for cycle, from the cache
// when present, otherwise from the configured CSV (which is then cached).
// Metadata is optional: without a cache hit or CSV the result is nil.
func loadMetadata(ctx context.Context, opts Options, cycle string, log *zap.Logger) (nasr.Metadata, error) {
	var cache *nasr.Cache
	if opts.CacheDir != "" {
		cache = &nasr.Cache{Dir: opts.CacheDir}
		md, ok, err := cache.Load(cycle)
		if err != nil {
			log.Warn("pipeline: metadata cache unreadable, rebuilding", zap.Error(err))
		} else if ok {
			log.Info("pipeline: metadata cache hit", zap.Int("airports", len(md)))
			return md, nil
		}
	}

	if opts.NASRCSV == "" {
		log.Info("pipeline: no airport metadata configured")
		return nil, nil
	}
	if _, err := os.Stat(opts.NASRCSV); err != nil {
		log.Warn("pipeline: airport metadata not found, continuing without it",
			zap.String("path", opts.NASRCSV),
			zap.Error(err),
		)
		return nil, nil
	}

	md, err := nasr.ReadAirportBaseFile(ctx, opts.NASRCSV)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read airport metadata")
	}
	if cache != nil {
		if err := cache.Save(cycle, md); err != nil {
			log.Warn("pipeline: metadata cache write failed", zap.Error(err))
		}
	}
	return md, nil
}

// loadDiagrams reads and normalizes the airport diagram runway layer. An
// unset or missing source yields an empty collection.
func loadDiagrams(path string, log *zap.Logger) (*feature.Collection, error) {
	if path == "" {
		return runway.NormalizeDiagramRows(nil), nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn("pipeline: airport diagrams not found, keeping derived runways only",
			zap.String("path", path),
		)
		return runway.NormalizeDiagramRows(nil), nil
	}
	raw, err := feature.ReadGeoJSONFile(path, runway.LayerRunways)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read airport diagrams")
	}
	return runway.NormalizeDiagramRows(raw), nil
}
