// Package ais converts FAA aeronautical information service sources (class
// airspace shapefiles and the ADDS GeoJSON exports) into map layers.
package ais

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/aerotiles/internal/feature"
)

// Layer names.
const (
	LayerAirspaces = "controlled_airspace"
	LayerBoundary  = "boundary_airspace"
	LayerHolding   = "holding_patterns"
	LayerObstacles = "obstacles"
)

// Sources locates the AIS inputs. Empty paths are skipped.
type Sources struct {
	ClassAirspaceDir string
	SUA              string
	Boundary         string
	Holding          string
	Obstacles        string
}

// Sink persists a collection and returns where it went.
type Sink interface {
	Write(coll *feature.Collection) (string, error)
}

// LayerResult reports one written layer.
type LayerResult struct {
	Layer    string `json:"layer"`
	Features int    `json:"features"`
	Path     string `json:"path,omitempty"`
}

// ConvertAll converts every configured source concurrently and writes each
// non-empty layer to sink. Class airspace and SUA share one layer.
func ConvertAll(ctx context.Context, src Sources, sink Sink) ([]LayerResult, error) {
	var (
		mu      sync.Mutex
		results []LayerResult
	)
	g, gctx := errgroup.WithContext(ctx)
	write := func(coll *feature.Collection) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		path, err := sink.Write(coll)
		if err != nil {
			return eris.Wrapf(err, "ais: write %s", coll.Name)
		}
		mu.Lock()
		results = append(results, LayerResult{Layer: coll.Name, Features: coll.Len(), Path: path})
		mu.Unlock()
		return nil
	}

	g.Go(func() error {
		coll, err := airspaces(src)
		if err != nil {
			return err
		}
		return write(coll)
	})
	for _, job := range []struct {
		path string
		fn   func(string) (*feature.Collection, error)
	}{
		{src.Boundary, ConvertBoundary},
		{src.Holding, ConvertHolding},
		{src.Obstacles, ConvertObstacles},
	} {
		g.Go(func() error {
			coll, err := job.fn(job.path)
			if err != nil {
				return err
			}
			return write(coll)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(results, func(a, b LayerResult) int { return cmp.Compare(a.Layer, b.Layer) })

	zap.L().With(zap.String("component", "ais")).Info("ais layers converted",
		zap.Int("layers", len(results)),
	)
	return results, nil
}

// airspaces merges class airspace and SUA into the controlled airspace layer.
func airspaces(src Sources) (*feature.Collection, error) {
	coll := feature.NewCollection(LayerAirspaces, airspaceColumns...)
	if src.ClassAirspaceDir != "" {
		class, err := ReadClassAirspace(src.ClassAirspaceDir)
		if err != nil {
			return nil, err
		}
		coll.Features = append(coll.Features, class.Features...)
	}

	sua, err := ConvertSUA(src.SUA)
	if err != nil {
		return nil, err
	}
	coll.Features = append(coll.Features, sua.Features...)
	return coll, nil
}
