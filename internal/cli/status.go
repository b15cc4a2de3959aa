package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/atm/internal/metrics"
	"github.com/agentx-labs/atm/internal/workflow"
)

var (
	statusFetch       bool
	statusJSON        bool
	statusMetricsFile string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which installed packages have upstream changes",
	Long: `Compare each installed package's working copy with what its remote HEAD
points to now. Packages that cannot be checked are reported, not fatal.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFetch, "fetch", false, "Fetch the remote HEAD into each working copy first")
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	statusCmd.Flags().StringVar(&statusMetricsFile, "metrics-file", "", "Also write Prometheus textfile metrics to this path")
	rootCmd.AddCommand(statusCmd)
}

// statusEntry represents a drift report for display.
type statusEntry struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	Installed string `json:"installed"`
	Local     string `json:"local,omitempty"`
	Remote    string `json:"remote,omitempty"`
	Drifted   bool   `json:"drifted"`
	Error     string `json:"error,omitempty"`
}

func newStatusEntries(reports []workflow.DriftReport) []statusEntry {
	entries := make([]statusEntry, 0, len(reports))
	for _, r := range reports {
		e := statusEntry{
			Name:      r.Name,
			URL:       r.URL,
			Installed: r.Installed,
			Local:     r.Local,
			Remote:    r.Remote,
			Drifted:   r.Drifted,
		}
		if r.Err != nil {
			e.Error = r.Err.Error()
		}
		entries = append(entries, e)
	}
	return entries
}

func runStatus(cmd *cobra.Command, args []string) error {
	reports, err := newManager().Drift(cmd.Context(), workflow.DriftOptions{Fetch: statusFetch})
	if err != nil {
		return err
	}

	if statusMetricsFile != "" {
		if err := writeDriftMetrics(statusMetricsFile, reports); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}

	entries := newStatusEntries(reports)
	if statusJSON {
		return printJSON(cmd.OutOrStdout(), entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No packages installed yet.")
		return nil
	}
	return printStatusTable(cmd.OutOrStdout(), entries)
}

func writeDriftMetrics(path string, reports []workflow.DriftReport) error {
	states := make([]metrics.PackageState, 0, len(reports))
	for _, r := range reports {
		states = append(states, metrics.PackageState{
			Name:    r.Name,
			Commit:  shortCommit(r.Installed),
			Drifted: r.Drifted,
			Failed:  r.Err != nil,
		})
	}
	d := metrics.NewDrift()
	d.Record(states)
	return d.WriteTextfile(path)
}

func printStatusTable(out io.Writer, entries []statusEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tLOCAL\tREMOTE\tSTATUS")
	for _, e := range entries {
		status := "up to date"
		switch {
		case e.Error != "":
			status = "error: " + e.Error
		case e.Drifted:
			status = "update available"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, shortCommit(e.Local), shortCommit(e.Remote), status)
	}
	return w.Flush()
}
