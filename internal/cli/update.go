package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/aipkg/internal/engine"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/agentx-labs/aipkg/internal/source"
)

var (
	updateAll      bool
	updateScope    string
	updateStrategy string
	updatePrune    bool
	updateSource   string
)

var updateCmd = &cobra.Command{
	Use:   "update [namespace/name]",
	Short: "Update installed packages from their source",
	Long: `Re-fetch an installed package from the source it was installed from and
apply the difference. Unchanged components are left alone, changed ones go
through conflict detection, new ones are installed and removed ones are
dropped from the ledger (and deleted with --prune, unless edited).`,
	Example: `  aipkg update acme/style-pack
  aipkg update acme/style-pack --source github.com/acme/style-pack#v2.0.0
  aipkg update --all --prune`,
	Args: cobra.MaximumNArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().BoolVar(&updateAll, "all", false, "Update every package in the scope")
	updateCmd.Flags().StringVar(&updateScope, "scope", "", "Scope to update (project or global)")
	updateCmd.Flags().StringVar(&updateStrategy, "strategy", "", "Conflict strategy (skip, overwrite, rename)")
	updateCmd.Flags().BoolVar(&updatePrune, "prune", false, "Delete files of components the new version dropped")
	updateCmd.Flags().StringVar(&updateSource, "source", "", "Update from this source instead of the recorded one")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch {
	case updateAll && len(args) > 0:
		return fmt.Errorf("--all cannot be combined with a package name")
	case updateAll && updateSource != "":
		return fmt.Errorf("--source requires a single package")
	case !updateAll && len(args) == 0:
		return fmt.Errorf("specify a package as <namespace>/<name> or use --all")
	}

	sess, err := openSession(updateScope)
	if err != nil {
		return err
	}
	strategy, err := sess.strategy(updateStrategy, false)
	if err != nil {
		return err
	}

	var records []*ledger.Record
	if updateAll {
		if records, err = sess.engine.Ledger().List(ctx); err != nil {
			return sess.repairHint(err)
		}
		if len(records) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No packages installed in %s scope.\n", sess.scope)
			return nil
		}
	} else {
		key, err := ledger.ParseKey(args[0], sess.scope)
		if err != nil {
			return err
		}
		rec, err := sess.engine.Record(ctx, key.Namespace, key.Name)
		if err != nil {
			return sess.repairHint(err)
		}
		records = []*ledger.Record{rec}
	}

	opts := engine.UpdateOptions{Strategy: strategy, Prune: updatePrune}
	var errs []error
	for _, rec := range records {
		if err := updateOne(ctx, cmd, sess, rec, opts); err != nil {
			if !updateAll {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s: %v\n", marker(engine.ActionFailed), rec.Key(), err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func updateOne(ctx context.Context, cmd *cobra.Command, sess *session, rec *ledger.Record, opts engine.UpdateOptions) error {
	raw := firstNonEmpty(updateSource, rec.Source)
	if raw == "" {
		return fmt.Errorf("%s has no recorded source; pass --source", rec.Key())
	}
	spec, err := source.ParseSpec(raw, "")
	if err != nil {
		return err
	}
	pkg, err := sess.loadPackage(ctx, spec)
	if err != nil {
		return err
	}
	if pkg.Namespace() != rec.Namespace || pkg.Name() != rec.PackageName {
		return fmt.Errorf("%s provides %s, not %s", spec, pkg.ID(), rec.Key())
	}

	if updateSource != "" {
		opts.Source = spec.String()
	}
	report, err := sess.engine.Update(ctx, pkg, opts)
	if err != nil {
		return sess.repairHint(err)
	}
	printReport(cmd.OutOrStdout(), report)
	return reportErr(report)
}
