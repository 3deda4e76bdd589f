package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/aerotiles/internal/db"
	"github.com/sells-group/aerotiles/internal/output"
	"github.com/sells-group/aerotiles/internal/pipeline"
	"github.com/sells-group/aerotiles/internal/store"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Synthesize map layers from a CIFP file",
	Long:  "Loads the CIFP dataset, resolves fixes, assembles every point, line and polygon layer, conflates runways with airport diagrams and writes the layers to disk (and optionally PostGIS).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		applyBuildFlags(cmd)
		if err := cfg.Validate("build"); err != nil {
			return err
		}

		noStore, _ := cmd.Flags().GetBool("no-store")
		var st store.Store
		if !noStore {
			s, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close() //nolint:errcheck
			st = s
		}

		opts := pipeline.Options{
			CIFP:            cfg.Input.CIFP,
			Format:          cfg.Input.Format,
			NASRCSV:         cfg.Input.NASRCSV,
			CacheDir:        cfg.Cache.Dir,
			AirportDiagrams: cfg.Input.AirportDiagrams,
			Surface:         cfg.Runways.Surface,
			Concurrency:     cfg.Build.Concurrency,
			SearchIndex:     cfg.Output.SearchIndex,
			Writer:          &output.Writer{Dir: cfg.Output.Dir, GeoJSONLayers: cfg.Output.GeoJSONLayers},
			Store:           st,
		}

		if cfg.Output.PostgresURL != "" {
			pool, err := db.Connect(ctx, cfg.Output.PostgresURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			opts.PostGIS = &output.PostGIS{Pool: pool, Schema: cfg.Output.PostgresSchema}
		}

		sum, err := pipeline.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "build")
		}

		zap.L().Info("build complete", zap.String("run_id", sum.RunID), zap.String("cycle", sum.Cycle))
		formatSummary(os.Stdout, sum)
		return nil
	},
}

// applyBuildFlags copies explicitly set flags over the loaded config.
func applyBuildFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("cifp") {
		cfg.Input.CIFP, _ = f.GetString("cifp")
	}
	if f.Changed("format") {
		cfg.Input.Format, _ = f.GetString("format")
	}
	if f.Changed("out") {
		cfg.Output.Dir, _ = f.GetString("out")
	}
	if f.Changed("concurrency") {
		cfg.Build.Concurrency, _ = f.GetInt("concurrency")
	}
	if f.Changed("postgres") {
		cfg.Output.PostgresURL, _ = f.GetString("postgres")
	}
	if f.Changed("diagrams") {
		cfg.Input.AirportDiagrams, _ = f.GetString("diagrams")
	}
	if f.Changed("nasr") {
		cfg.Input.NASRCSV, _ = f.GetString("nasr")
	}
}

// formatSummary writes a per-layer table to out.
func formatSummary(out io.Writer, sum *pipeline.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", sum.RunID)
	_, _ = fmt.Fprintf(w, "Cycle:\t%s\n", sum.Cycle)
	_, _ = fmt.Fprintf(w, "Records:\t%d (malformed %d, unknown %d)\n", sum.Records.Records, sum.Records.Malformed, sum.Records.Unknown)
	_, _ = fmt.Fprintf(w, "Fixes:\t%d\n", sum.Fixes)
	_, _ = fmt.Fprintf(w, "Runways:\t%d diagram, %d enriched, %d derived only, %d skipped\n",
		sum.Runways.Diagram, sum.Runways.Enriched, sum.Runways.Kept, sum.Runways.Skipped)
	if sum.SearchIndex != "" {
		_, _ = fmt.Fprintf(w, "Search index:\t%s\n", sum.SearchIndex)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "LAYER\tEMITTED\tDROPPED\tUNRESOLVED\tPATH")
	_, _ = fmt.Fprintln(w, "-----\t-------\t-------\t----------\t----")
	for _, l := range sum.Layers {
		path := l.Path
		if path == "" {
			path = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", l.Layer, l.Emitted, l.Dropped, l.Unresolved, path)
	}
	_ = w.Flush()
}

func init() {
	buildCmd.Flags().String("cifp", "", "CIFP input file (ARINC 424 or JSONL)")
	buildCmd.Flags().String("format", "", "input format: auto, arinc424 or jsonl")
	buildCmd.Flags().String("out", "", "output directory for layer files")
	buildCmd.Flags().Int("concurrency", 0, "max assemblers running at once")
	buildCmd.Flags().String("postgres", "", "PostGIS connection URL (optional)")
	buildCmd.Flags().String("diagrams", "", "airport diagram runway GeoJSON (optional)")
	buildCmd.Flags().String("nasr", "", "NASR APT_BASE.csv (optional)")
	buildCmd.Flags().Bool("no-store", false, "do not record the run in the run history")
	rootCmd.AddCommand(buildCmd)
}
