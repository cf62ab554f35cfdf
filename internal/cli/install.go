package cli

import (
	"github.com/spf13/cobra"

	"github.com/agentx-labs/aipkg/internal/engine"
	"github.com/agentx-labs/aipkg/internal/source"
)

var (
	installIDE      string
	installScope    string
	installStrategy string
	installForce    bool
	installOnly     []string
	installRef      string
)

var installCmd = &cobra.Command{
	Use:   "install <source>",
	Short: "Install a package from a local directory or git repository",
	Long: `Install every component of a package into the layout of the chosen IDE.

The source is a local directory or a git URL with an optional #ref
(branch, tag or commit). Existing files the installer did not write, or
that were edited since, are handled by the conflict strategy:
  skip       leave the file alone (default)
  overwrite  replace it
  rename     write the component next to it as <name>-2.<ext>`,
	Example: `  aipkg install ./style-pack
  aipkg install github.com/acme/style-pack#v1.2.0 --ide cursor
  aipkg install ./style-pack --scope global --only instruction --force`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installIDE, "ide", "", "Target IDE (claude-code, cursor, copilot, augment, opencode)")
	installCmd.Flags().StringVar(&installScope, "scope", "", "Install scope (project or global)")
	installCmd.Flags().StringVar(&installStrategy, "strategy", "", "Conflict strategy (skip, overwrite, rename)")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Overwrite conflicting files (same as --strategy overwrite)")
	installCmd.Flags().StringSliceVar(&installOnly, "only", nil, "Install only these component types")
	installCmd.Flags().StringVar(&installRef, "ref", "", "Git branch, tag or commit to install")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := openSession(installScope)
	if err != nil {
		return err
	}
	ide, err := sess.ide(installIDE)
	if err != nil {
		return err
	}
	strategy, err := sess.strategy(installStrategy, installForce)
	if err != nil {
		return err
	}
	types, err := parseTypes(installOnly)
	if err != nil {
		return err
	}
	spec, err := source.ParseSpec(args[0], installRef)
	if err != nil {
		return err
	}

	pkg, err := sess.loadPackage(ctx, spec)
	if err != nil {
		return err
	}

	report, err := sess.engine.Install(ctx, pkg, engine.InstallOptions{
		IDE:      ide,
		Strategy: strategy,
		Types:    types,
		Source:   spec.String(),
	})
	if err != nil {
		return sess.repairHint(err)
	}
	printReport(cmd.OutOrStdout(), report)
	return reportErr(report)
}
