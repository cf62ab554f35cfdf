package cli

import (
	"github.com/spf13/cobra"

	"github.com/agentx-labs/aipkg/internal/engine"
	"github.com/agentx-labs/aipkg/internal/ledger"
)

var (
	uninstallScope      string
	uninstallComponents []string
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall <namespace/name>",
	Short: "Remove an installed package",
	Long: `Delete the files an installed package wrote and drop it from the ledger.
Files that existed before the install are left on disk. Use --component to
remove only some components; patterns match "type/name" or the bare name
and support globs.`,
	Example: `  aipkg uninstall acme/style-pack
  aipkg uninstall acme/style-pack --component 'instruction/*' --component format`,
	Args: cobra.ExactArgs(1),
	RunE: runUninstall,
}

func init() {
	uninstallCmd.Flags().StringVar(&uninstallScope, "scope", "", "Scope to uninstall from (project or global)")
	uninstallCmd.Flags().StringArrayVar(&uninstallComponents, "component", nil, "Only remove matching components (repeatable, glob)")
	rootCmd.AddCommand(uninstallCmd)
}

func runUninstall(cmd *cobra.Command, args []string) error {
	sess, err := openSession(uninstallScope)
	if err != nil {
		return err
	}
	key, err := ledger.ParseKey(args[0], sess.scope)
	if err != nil {
		return err
	}

	report, err := sess.engine.Uninstall(cmd.Context(), key.Namespace, key.Name, engine.UninstallOptions{
		Components: uninstallComponents,
	})
	if err != nil {
		return sess.repairHint(err)
	}
	printReport(cmd.OutOrStdout(), report)
	return reportErr(report)
}
