package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/aipkg/internal/ledger"
)

var repairScope string

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reset a corrupt ledger",
	Long: `Move an unreadable ledger aside and start over with an empty one. The
installed files are not touched; reinstall packages to track them again.
A readable ledger is left as it is.`,
	Args: cobra.NoArgs,
	RunE: runRepair,
}

func init() {
	repairCmd.Flags().StringVar(&repairScope, "scope", "", "Scope whose ledger to repair (project or global)")
	rootCmd.AddCommand(repairCmd)
}

func runRepair(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	sess, err := openSession(repairScope)
	if err != nil {
		return err
	}
	l := sess.engine.Ledger()
	out := cmd.OutOrStdout()

	_, err = l.List(ctx)
	if err == nil {
		fmt.Fprintf(out, "  %s %s ledger is healthy (%s)\n", okStyle.Render("✓"), sess.scope, l.Path())
		return nil
	}
	if !ledger.IsCorrupt(err) {
		return err
	}

	backup, err := l.Rebuild(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  %s %s ledger reset (%s)\n", warnStyle.Render("!"), sess.scope, l.Path())
	if backup != "" {
		fmt.Fprintf(out, "    previous contents saved to %s\n", backup)
	}
	return nil
}
