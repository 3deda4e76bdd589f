package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/aerotiles/internal/ais"
	"github.com/sells-group/aerotiles/internal/output"
)

var aisCmd = &cobra.Command{
	Use:   "ais",
	Short: "Convert FAA AIS sources into map layers",
	Long:  "Reads class airspace shapefiles and the SUA, boundary, holding pattern and obstacle GeoJSON exports and writes one rank-sorted layer per source. Missing sources are skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if out, _ := cmd.Flags().GetString("out"); out != "" {
			cfg.Output.Dir = out
		}
		if err := cfg.Validate("ais"); err != nil {
			return err
		}

		src := ais.Sources{
			ClassAirspaceDir: cfg.Input.ClassAirspaceDir,
			SUA:              cfg.Input.SUA,
			Boundary:         cfg.Input.Boundary,
			Holding:          cfg.Input.Holding,
			Obstacles:        cfg.Input.Obstacles,
		}
		w := &output.Writer{Dir: cfg.Output.Dir, GeoJSONLayers: cfg.Output.GeoJSONLayers}

		results, err := ais.ConvertAll(cmd.Context(), src, w)
		if err != nil {
			return eris.Wrap(err, "ais")
		}
		formatLayerResults(os.Stdout, results)
		return nil
	},
}

func formatLayerResults(out io.Writer, results []ais.LayerResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "LAYER\tFEATURES\tPATH")
	_, _ = fmt.Fprintln(w, "-----\t--------\t----")
	for _, r := range results {
		path := r.Path
		if path == "" {
			path = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%s\n", r.Layer, r.Features, path)
	}
	_ = w.Flush()
}

func init() {
	aisCmd.Flags().String("out", "", "output directory for layer files")
	rootCmd.AddCommand(aisCmd)
}
