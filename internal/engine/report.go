package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentx-labs/aipkg/internal/ledger"
)

// Action is the outcome of an operation on one component.
type Action string

const (
	ActionInstalled     Action = "installed"
	ActionUpdated       Action = "updated"
	ActionSkipped       Action = "skipped"
	ActionRenamed       Action = "renamed"
	ActionUnchanged     Action = "unchanged"
	ActionRemoved       Action = "removed"
	ActionAlreadyAbsent Action = "already_absent"
	ActionKept          Action = "kept"
	ActionFailed        Action = "failed"
)

// Actions lists every action in summary order.
func Actions() []Action {
	return []Action{
		ActionInstalled, ActionUpdated, ActionSkipped, ActionRenamed,
		ActionUnchanged, ActionRemoved, ActionAlreadyAbsent, ActionKept, ActionFailed,
	}
}

// Direction describes a version change. It is informational only.
type Direction string

const (
	DirectionUpgrade   Direction = "upgrade"
	DirectionDowngrade Direction = "downgrade"
	DirectionReinstall Direction = "reinstall"
	DirectionChange    Direction = "change" // versions not comparable
)

// ComponentResult is the outcome for one component.
type ComponentResult struct {
	Type   string
	Name   string
	Action Action
	Path   string
	Detail string
	Err    error
}

// ID returns "type/name".
func (r ComponentResult) ID() string {
	return r.Type + "/" + r.Name
}

// Report is the outcome of one install, update or uninstall.
type Report struct {
	Operation   string
	Package     string
	Scope       ledger.Scope
	IDE         string
	FromVersion string
	ToVersion   string
	Direction   Direction
	Components  []ComponentResult
}

func (r *Report) add(res ComponentResult) {
	r.Components = append(r.Components, res)
}

// Count returns how many components ended with action a.
func (r *Report) Count(a Action) int {
	n := 0
	for _, c := range r.Components {
		if c.Action == a {
			n++
		}
	}
	return n
}

// Failed reports whether any component failed.
func (r *Report) Failed() bool {
	return r.Count(ActionFailed) > 0
}

// Err joins the errors of every failed component, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, c := range r.Components {
		if c.Action == ActionFailed && c.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.ID(), c.Err))
		}
	}
	return errors.Join(errs...)
}

// Summary renders the non-zero counts, e.g. "2 installed, 1 skipped".
// Failures are always listed.
func (r *Report) Summary() string {
	var parts []string
	for _, a := range Actions() {
		n := r.Count(a)
		if n == 0 && a != ActionFailed {
			continue
		}
		parts = append(parts, fmt.Sprintf("%d %s", n, strings.ReplaceAll(string(a), "_", " ")))
	}
	return strings.Join(parts, ", ")
}
