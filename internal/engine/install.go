package engine

import (
	"context"

	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/integrations"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/agentx-labs/aipkg/internal/logging"
	"github.com/agentx-labs/aipkg/internal/manifest"
)

// InstallOptions controls an install.
type InstallOptions struct {
	IDE      integrations.ToolName
	Strategy conflict.Strategy
	// Types restricts the install to these component types. Empty means all.
	Types []manifest.ComponentType
	// Source is recorded so the package can be updated from it later.
	Source string
}

// Install writes every wanted component of pkg and records the result.
// Re-installing merges into the existing record: components of pkg
// replace their previous entries and entries pkg no longer has are kept.
// Component failures are reported, not returned; the error return is for
// ledger failures and IDE mismatches, in which case nothing was written.
func (e *Engine) Install(ctx context.Context, pkg *manifest.Package, opts InstallOptions) (*Report, error) {
	done := logging.LogOperationStart(e.log, "install")
	defer done()

	report := &Report{
		Operation: "install",
		Package:   pkg.ID(),
		Scope:     e.ledger.Scope(),
		IDE:       string(opts.IDE),
		ToVersion: pkg.Version(),
	}
	res := conflict.NewResolver(opts.Strategy)

	err := e.ledger.Update(ctx, func(tx *ledger.Tx) error {
		report.Components = nil
		now := e.ledger.Now()

		rec, exists := tx.Get(pkg.Namespace(), pkg.Name())
		if exists {
			if rec.IDEType != string(opts.IDE) {
				return &IDEMismatchError{Key: rec.Key(), Installed: rec.IDEType, Requested: string(opts.IDE)}
			}
			report.FromVersion = rec.Version
			report.Direction = direction(rec.Version, pkg.Version())
		} else {
			rec = &ledger.Record{
				PackageName: pkg.Name(),
				Namespace:   pkg.Namespace(),
				IDEType:     string(opts.IDE),
				InstalledAt: now,
			}
		}

		resolved := 0
		for _, c := range e.wantedComponents(pkg, opts.IDE, opts.Types) {
			var prev *ledger.ComponentRecord
			if pc, ok := rec.Component(string(c.Type), c.Name); ok {
				prev = &pc
			}

			p := e.installComponent(ctx, tx, res, pkg, rec, c, opts.IDE, prev)
			report.add(p.result)
			switch {
			case p.ok:
				rec.SetComponent(p.record)
				resolved++
			case prev != nil:
				rec.SetComponent(markFailed(*prev))
			}
		}

		if resolved == 0 && !exists {
			return nil
		}
		if resolved > 0 {
			rec.Types = mergeTypes(rec.Types, opts.Types, exists)
			rec.Version = pkg.Version()
			rec.UpdatedAt = now
			if opts.Source != "" {
				rec.Source = opts.Source
			}
		}
		rec.Status = recordStatus(rec)
		tx.Upsert(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("package", pkg.ID()).
		Str("version", pkg.Version()).
		Str("scope", string(report.Scope)).
		Str("summary", report.Summary()).
		Msg("Install finished")
	return report, nil
}

func (e *Engine) installComponent(ctx context.Context, tx *ledger.Tx, res *conflict.Resolver, pkg *manifest.Package, rec *ledger.Record, c manifest.Component, ide integrations.ToolName, prev *ledger.ComponentRecord) placement {
	result := ComponentResult{Type: string(c.Type), Name: c.Name}
	if err := ctx.Err(); err != nil {
		return placement{result: failed(result, err)}
	}
	rendered, err := e.translator.Translate(pkg, c, ide)
	if err != nil {
		return placement{result: failed(result, err)}
	}
	return e.place(tx, res, pkg, rec, c, rendered, prev)
}

// direction labels a version change for display.
func direction(from, to string) Direction {
	a, errA := manifest.ParseVersion(from)
	b, errB := manifest.ParseVersion(to)
	if errA != nil || errB != nil {
		if from == to {
			return DirectionReinstall
		}
		return DirectionChange
	}
	switch a.Compare(b) {
	case -1:
		return DirectionUpgrade
	case 1:
		return DirectionDowngrade
	default:
		return DirectionReinstall
	}
}
