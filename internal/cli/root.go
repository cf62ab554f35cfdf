package cli

import (
	"fmt"
	"os"

	"github.com/agentx-labs/aipkg/internal/branding"
	"github.com/agentx-labs/aipkg/internal/config"
	"github.com/agentx-labs/aipkg/internal/logging"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	verbosity  int
	projectDir string
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` installs packages of AI assistant configuration (instructions, MCP
servers, hooks, commands and resources) into the layout each IDE expects,
and tracks what it wrote so packages can be updated and removed cleanly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetupLoggerTo(cmd.ErrOrStderr(), verbosity)
		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug, -vvv trace)")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory for the project scope")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	defer logging.Close()
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}
