package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentx-labs/atm/internal/branding"
	"github.com/agentx-labs/atm/internal/config"
	"github.com/agentx-labs/atm/internal/logging"
	"github.com/agentx-labs/atm/internal/workflow"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configFile string
	logLevel   string

	settings *config.Settings
	logger   = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs agent tooling packages from git repositories, records them in a
host-wide registry and deploys them through their configured backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(configFile); err != nil {
			return err
		}
		s, err := config.Current()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			s.LogLevel = logLevel
		}

		l, err := logging.New(s.LogLevel)
		if err != nil {
			return err
		}
		settings, logger = s, l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default "+config.FilePath()+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", logging.LevelInfo, "Log level: debug, info, warn, error or none")
}

// Execute runs the root command with build info injected via ldflags.
// Interrupts cancel the running command through its context.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

func newManager() *workflow.Manager {
	return workflow.New(workflow.Paths{
		RegistryFile: settings.RegistryFile,
		InstallRoot:  settings.InstallRoot,
		StagingRoot:  settings.StagingRoot,
	},
		workflow.WithLogger(logger),
		workflow.WithToolVersion(buildVersion),
		workflow.WithDockerHost(settings.Docker.Host),
		workflow.WithParallelism(settings.Parallelism),
	)
}
