package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/agentx-labs/aipkg/internal/engine"
)

var (
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// marker returns the symbol printed in front of a component outcome.
func marker(a engine.Action) string {
	switch a {
	case engine.ActionFailed:
		return failStyle.Render("✗")
	case engine.ActionSkipped, engine.ActionRenamed, engine.ActionKept:
		return warnStyle.Render("!")
	case engine.ActionUnchanged, engine.ActionAlreadyAbsent:
		return mutedStyle.Render("·")
	default:
		return okStyle.Render("✓")
	}
}

// printReport writes a header, one line per component and the summary.
func printReport(w io.Writer, r *engine.Report) {
	header := r.Package
	switch {
	case r.FromVersion != "" && r.ToVersion != "" && r.FromVersion != r.ToVersion:
		header += fmt.Sprintf(" %s -> %s (%s)", r.FromVersion, r.ToVersion, r.Direction)
	case r.ToVersion != "":
		header += " " + r.ToVersion
	}
	scope := string(r.Scope)
	if r.IDE != "" {
		scope = r.IDE + ", " + scope
	}
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(header), mutedStyle.Render("["+scope+"]"))

	for _, c := range r.Components {
		line := fmt.Sprintf("  %s %s: %s", marker(c.Action), c.ID(), c.Action)
		if c.Path != "" {
			line += " " + mutedStyle.Render(c.Path)
		}
		if c.Err != nil {
			line += ": " + c.Err.Error()
		} else if c.Detail != "" {
			line += " (" + c.Detail + ")"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintf(w, "  %s\n", r.Summary())
}

// reportErr converts component failures into a command error.
func reportErr(r *engine.Report) error {
	if r.Failed() {
		return fmt.Errorf("%s: %w", r.Package, errComponentsFailed)
	}
	return nil
}
