package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/atm/internal/manifest"
	"github.com/agentx-labs/atm/internal/registry"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents an installed package for display.
type listEntry struct {
	Name     string                  `json:"name"`
	URL      string                  `json:"url"`
	Commit   string                  `json:"commit"`
	Backend  manifest.BackendKind    `json:"backend"`
	Endpoint manifest.EndpointConfig `json:"endpoint"`
}

func newListEntries(pkgs []*registry.Package) []listEntry {
	entries := make([]listEntry, 0, len(pkgs))
	for _, p := range pkgs {
		entries = append(entries, listEntry{
			Name:     p.Name,
			URL:      p.URL,
			Commit:   p.Commit,
			Backend:  p.Config.Backend.Kind(),
			Endpoint: p.Config.Endpoint,
		})
	}
	return entries
}

func runList(cmd *cobra.Command, args []string) error {
	pkgs, err := newManager().Packages()
	if err != nil {
		return err
	}

	entries := newListEntries(pkgs)
	if listJSON {
		return printJSON(cmd.OutOrStdout(), entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No packages installed yet.")
		return nil
	}
	return printListTable(cmd.OutOrStdout(), entries)
}

func printListTable(out io.Writer, entries []listEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tBACKEND\tCOMMIT\tURL")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, e.Backend, shortCommit(e.Commit), e.URL)
	}
	return w.Flush()
}

func printJSON(out io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

func shortCommit(c string) string {
	if len(c) > 12 {
		return c[:12]
	}
	if c == "" {
		return "-"
	}
	return c
}
