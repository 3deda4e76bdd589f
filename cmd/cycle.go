package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/aerotiles/internal/nasr"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle",
	Short: "Show the NASR 28-day data cycles around a date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		at := time.Now().UTC()
		if s, _ := cmd.Flags().GetString("date"); s != "" {
			t, err := time.Parse(time.DateOnly, s)
			if err != nil {
				return eris.Wrapf(err, "cycle: parse date %q", s)
			}
			at = t
		}
		formatCycles(os.Stdout, at)
		return nil
	},
}

// formatCycles writes the next, current and previous cycle for at.
func formatCycles(out io.Writer, at time.Time) {
	labels := []string{"next", "current", "previous"}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, c := range nasr.Cycles(at) {
		_, _ = fmt.Fprintf(w, "%s:\t%s\n", labels[i], nasr.CycleID(c))
	}
	_ = w.Flush()
}

func init() {
	cycleCmd.Flags().String("date", "", "reference date (YYYY-MM-DD, default today)")
	rootCmd.AddCommand(cycleCmd)
}
