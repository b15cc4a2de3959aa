package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/atm/internal/workflow"
)

var (
	syncName    string
	syncRefresh bool
)

var syncCmd = &cobra.Command{
	Use:   "sync <url>",
	Short: "Install a package from a git repository",
	Long: `Install the package at <url>. The package name defaults to the last path
segment of the URL without ".git". With --refresh an installed package is
reinstalled if its remote has moved; otherwise syncing an installed package
fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncName, "name", "n", "", "Package name (default: derived from the URL)")
	syncCmd.Flags().BoolVarP(&syncRefresh, "refresh", "y", false, "Reinstall an installed package when its remote has moved")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	res, err := newManager().Sync(cmd.Context(), args[0], workflow.SyncOptions{
		Name:    syncName,
		Refresh: syncRefresh,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pkg := res.Package
	switch res.Action {
	case workflow.ActionInstalled:
		fmt.Fprintf(out, "Installed %s at %s (%s backend)\n", pkg.Name, pkg.ShortCommit(), pkg.Config.Backend.Kind())
	case workflow.ActionRefreshed:
		fmt.Fprintf(out, "Updated %s from %s to %s\n", pkg.Name, res.Previous.ShortCommit(), pkg.ShortCommit())
	case workflow.ActionUpToDate:
		fmt.Fprintf(out, "%s is up to date at %s\n", pkg.Name, pkg.ShortCommit())
	}
	return nil
}
