package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/aerotiles/internal/tiles"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Compile written layers into vector tile archives",
	Long:  "Runs tippecanoe once per tileset. Tilesets come from tiles.layers_file when set, otherwise the built-in set. Layers whose files are missing are left out.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		if f.Changed("layers") {
			cfg.Tiles.LayersFile, _ = f.GetString("layers")
		}
		if f.Changed("bin") {
			cfg.Tiles.Bin, _ = f.GetString("bin")
		}
		if f.Changed("out") {
			cfg.Tiles.OutDir, _ = f.GetString("out")
		}
		if err := cfg.Validate("tiles"); err != nil {
			return err
		}

		sets := tiles.DefaultTilesets()
		if cfg.Tiles.LayersFile != "" {
			loaded, err := tiles.LoadLayers(cfg.Tiles.LayersFile)
			if err != nil {
				return err
			}
			sets = loaded
		}

		only, _ := f.GetStringSlice("only")
		sets = filterTilesets(sets, only)
		if len(sets) == 0 {
			return eris.Errorf("tiles: no tileset matches %v", only)
		}

		dataDir := cfg.Output.Dir
		if f.Changed("data") {
			dataDir, _ = f.GetString("data")
		}

		c := tiles.NewCompiler(cfg.Tiles.Bin, dataDir, cfg.Tiles.OutDir)
		results, err := c.RunAll(cmd.Context(), sets, cfg.Build.Concurrency)
		if err != nil {
			return err
		}
		formatTileResults(os.Stdout, results)
		return nil
	},
}

// filterTilesets keeps the named tilesets; no names keeps all.
func filterTilesets(sets []tiles.Tileset, names []string) []tiles.Tileset {
	if len(names) == 0 {
		return sets
	}
	var out []tiles.Tileset
	for _, ts := range sets {
		if slices.Contains(names, ts.Name) {
			out = append(out, ts)
		}
	}
	return out
}

func formatTileResults(out io.Writer, results []tiles.Result) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "TILESET\tARCHIVE\tSKIPPED LAYERS")
	_, _ = fmt.Fprintln(w, "-------\t-------\t--------------")
	for _, r := range results {
		path := r.Path
		if path == "" {
			path = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", r.Tileset, path, len(r.Skipped))
	}
	_ = w.Flush()
}

func init() {
	tilesCmd.Flags().String("layers", "", "YAML tileset definitions (default: built-in tilesets)")
	tilesCmd.Flags().String("bin", "", "tile compiler binary")
	tilesCmd.Flags().String("data", "", "directory holding the layer files (default: output.dir)")
	tilesCmd.Flags().String("out", "", "directory for tile archives")
	tilesCmd.Flags().StringSlice("only", nil, "compile only these tilesets")
	rootCmd.AddCommand(tilesCmd)
}
