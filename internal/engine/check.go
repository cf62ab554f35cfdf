package engine

import (
	"context"

	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/ledger"
)

// Drift is the state of an installed file compared to the ledger.
type Drift string

const (
	DriftOK        Drift = "ok"
	DriftModified  Drift = "modified"
	DriftMissing   Drift = "missing"
	DriftUntracked Drift = "untracked" // skipped foreign file, never written by us
	DriftError     Drift = "error"
)

// ComponentState pairs a recorded component with its drift.
type ComponentState struct {
	ledger.ComponentRecord
	Drift Drift
}

// PackageState is a ledger record with the drift of each component.
type PackageState struct {
	Record     *ledger.Record
	Components []ComponentState
}

// Drifted reports whether any component is not as installed.
func (p PackageState) Drifted() bool {
	for _, c := range p.Components {
		if c.Drift != DriftOK && c.Drift != DriftUntracked {
			return true
		}
	}
	return false
}

// Check compares every recorded component with the file on disk. Nothing
// is modified.
func (e *Engine) Check(ctx context.Context) ([]PackageState, error) {
	var states []PackageState
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		for _, rec := range tx.List() {
			ps := PackageState{Record: rec}
			for _, c := range rec.Components {
				ps.Components = append(ps.Components, ComponentState{ComponentRecord: c, Drift: driftOf(c)})
			}
			states = append(states, ps)
		}
		return nil
	})
	return states, err
}

func driftOf(c ledger.ComponentRecord) Drift {
	state, _, err := conflict.Detect(c.InstalledPath, c.Checksum)
	if err != nil {
		return DriftError
	}
	switch state {
	case conflict.StateAbsent:
		return DriftMissing
	case conflict.StateOwned:
		return DriftOK
	case conflict.StateForeign:
		return DriftUntracked
	default:
		return DriftModified
	}
}

// Record returns the ledger record of an installed package, or a
// *NotInstalledError naming similar packages.
func (e *Engine) Record(ctx context.Context, namespace, name string) (*ledger.Record, error) {
	var rec *ledger.Record
	err := e.ledger.View(ctx, func(tx *ledger.Tx) error {
		r, ok := tx.Get(namespace, name)
		if !ok {
			return notInstalled(tx, ledger.Key{Namespace: namespace, Name: name, Scope: tx.Scope()})
		}
		rec = r
		return nil
	})
	return rec, err
}
