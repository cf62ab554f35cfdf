package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/aipkg/internal/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Check a package manifest without installing it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	violations, err := manifest.ValidateDir(dir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(violations) == 0 {
		fmt.Fprintf(out, "  %s %s: manifest is valid\n", okStyle.Render("✓"), dir)
		return nil
	}
	for _, v := range violations {
		fmt.Fprintf(out, "  %s %s\n", failStyle.Render("✗"), v)
	}
	return fmt.Errorf("%s: %d problem(s) found", dir, len(violations))
}
