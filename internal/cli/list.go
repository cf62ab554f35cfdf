package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agentx-labs/aipkg/internal/engine"
	"github.com/agentx-labs/aipkg/internal/ledger"
)

var (
	listScope string
	listJSON  bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List installed packages with their components. Each component is checked
against the file on disk: "modified" and "missing" mark files changed or
removed since they were installed.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVar(&listScope, "scope", "", "Only list this scope (project or global); default is both")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry is an installed package for display.
type listEntry struct {
	Package    string           `json:"package"`
	Version    string           `json:"version"`
	Scope      ledger.Scope     `json:"scope"`
	IDE        string           `json:"ide"`
	Status     string           `json:"status"`
	Source     string           `json:"source,omitempty"`
	Drifted    bool             `json:"drifted"`
	Components []componentEntry `json:"components"`
}

type componentEntry struct {
	Type   string       `json:"type"`
	Name   string       `json:"name"`
	Path   string       `json:"path"`
	Status string       `json:"status"`
	Drift  engine.Drift `json:"drift"`
}

func runList(cmd *cobra.Command, args []string) error {
	scopes := ledger.Scopes()
	if listScope != "" {
		s, err := ledger.ParseScope(listScope)
		if err != nil {
			return err
		}
		scopes = []ledger.Scope{s}
	}

	entries := []listEntry{}
	for _, scope := range scopes {
		sess, err := openSession(string(scope))
		if err != nil {
			return err
		}
		states, err := sess.engine.Check(cmd.Context())
		if err != nil {
			return sess.repairHint(fmt.Errorf("reading %s ledger: %w", scope, err))
		}
		for _, ps := range states {
			entries = append(entries, toListEntry(ps))
		}
	}

	if listJSON {
		return printListJSON(cmd, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No packages installed yet.")
		return nil
	}
	return printListTable(cmd, entries)
}

func toListEntry(ps engine.PackageState) listEntry {
	r := ps.Record
	e := listEntry{
		Package: r.Key().String(),
		Version: r.Version,
		Scope:   r.Scope,
		IDE:     r.IDEType,
		Status:  r.Status,
		Source:  r.Source,
		Drifted: ps.Drifted(),
	}
	for _, c := range ps.Components {
		e.Components = append(e.Components, componentEntry{
			Type:   c.Type,
			Name:   c.Name,
			Path:   c.InstalledPath,
			Status: string(c.Status),
			Drift:  c.Drift,
		})
	}
	return e
}

func printListTable(cmd *cobra.Command, entries []listEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "PACKAGE\tVERSION\tSCOPE\tIDE\tSTATUS\tCOMPONENTS\tDRIFT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\n",
			e.Package, e.Version, e.Scope, e.IDE, e.Status, len(e.Components), driftSummary(e))
	}
	return w.Flush()
}

// driftSummary is "ok" or the drifted components, e.g. "instruction/style modified".
func driftSummary(e listEntry) string {
	if !e.Drifted {
		return string(engine.DriftOK)
	}
	s := ""
	for _, c := range e.Components {
		if c.Drift == engine.DriftOK || c.Drift == engine.DriftUntracked {
			continue
		}
		if s != "" {
			s += ", "
		}
		s += c.Type + "/" + c.Name + " " + string(c.Drift)
	}
	return s
}

func printListJSON(cmd *cobra.Command, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
