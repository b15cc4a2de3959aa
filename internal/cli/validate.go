package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/atm/internal/branding"
	"github.com/agentx-labs/atm/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check a package's manifest",
	Long: `Validate the ` + branding.ManifestFile() + ` at the root of a package tree (default: the
current directory) and check that this build satisfies its version constraint.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	m, err := manifest.ParseDir(dir)
	if err != nil {
		return err
	}
	if err := m.CheckCompatible(buildVersion); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is valid\n", manifest.PathIn(dir))
	fmt.Fprintf(out, "  backend:  %s\n", m.Config.Backend.Kind())
	if d, ok := m.Config.Backend.(manifest.DockerConfig); ok {
		fmt.Fprintf(out, "  dockerfile: %s, scoped: %t, replicas: %d\n", d.Dockerfile, d.Scoped, d.MaxReplica)
	}
	fmt.Fprintf(out, "  endpoint: %s (%s)\n", m.Config.Endpoint.Path, m.Config.Endpoint.Protocol)
	return nil
}
