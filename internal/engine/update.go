package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/integrations"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/agentx-labs/aipkg/internal/logging"
	"github.com/agentx-labs/aipkg/internal/manifest"
	"github.com/agentx-labs/aipkg/internal/platform"
)

// UpdateOptions controls an update.
type UpdateOptions struct {
	Strategy conflict.Strategy
	// Prune deletes files of components the new version dropped, as long
	// as they still hold what was installed.
	Prune bool
	// Source replaces the recorded source when set.
	Source string
}

// Update moves an installed package to the content of pkg. Components are
// compared by checksum of their rendered content: unchanged ones are left
// alone, changed ones go through conflict detection at their installed
// path, new ones are installed and dropped ones leave the ledger. Version
// numbers only label the report.
func (e *Engine) Update(ctx context.Context, pkg *manifest.Package, opts UpdateOptions) (*Report, error) {
	done := logging.LogOperationStart(e.log, "update")
	defer done()

	report := &Report{
		Operation: "update",
		Package:   pkg.ID(),
		Scope:     e.ledger.Scope(),
		ToVersion: pkg.Version(),
	}
	res := conflict.NewResolver(opts.Strategy)

	err := e.ledger.Update(ctx, func(tx *ledger.Tx) error {
		report.Components = nil
		key := ledger.Key{Namespace: pkg.Namespace(), Name: pkg.Name(), Scope: tx.Scope()}
		rec, ok := tx.Get(key.Namespace, key.Name)
		if !ok {
			return notInstalled(tx, key)
		}
		ide := integrations.ToolName(rec.IDEType)
		report.IDE = rec.IDEType
		report.FromVersion = rec.Version
		report.Direction = direction(rec.Version, pkg.Version())

		inNew := make(map[string]bool)
		for _, c := range e.wantedComponents(pkg, ide, recordedTypes(rec.Types)) {
			inNew[c.ID()] = true
			p := e.updateComponent(ctx, tx, res, pkg, c, ide, rec)
			report.add(p.result)
			if p.ok {
				rec.SetComponent(p.record)
			}
		}

		for _, pc := range append([]ledger.ComponentRecord(nil), rec.Components...) {
			if inNew[pc.ID()] {
				continue
			}
			result := dropComponent(pc, opts.Prune)
			report.add(result)
			if result.Action != ActionFailed {
				rec.RemoveComponent(pc.Type, pc.Name)
			}
		}

		rec.Version = pkg.Version()
		rec.UpdatedAt = e.ledger.Now()
		if opts.Source != "" {
			rec.Source = opts.Source
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
		Str("from", report.FromVersion).
		Str("to", report.ToVersion).
		Str("summary", report.Summary()).
		Msg("Update finished")
	return report, nil
}

// updateComponent handles one component of the new version. On failure a
// previously recorded component is kept and flagged.
func (e *Engine) updateComponent(ctx context.Context, tx *ledger.Tx, res *conflict.Resolver, pkg *manifest.Package, c manifest.Component, ide integrations.ToolName, rec *ledger.Record) placement {
	pc, had := rec.Component(string(c.Type), c.Name)
	if !had {
		return e.installComponent(ctx, tx, res, pkg, rec, c, ide, nil)
	}

	result := ComponentResult{Type: string(c.Type), Name: c.Name, Path: pc.InstalledPath}
	if err := ctx.Err(); err != nil {
		return placement{result: failed(result, err), record: markFailed(pc), ok: true}
	}
	rendered, err := e.translator.Translate(pkg, c, ide)
	if err != nil {
		return placement{result: failed(result, err), record: markFailed(pc), ok: true}
	}
	if platform.Checksum(rendered.Content) == pc.Checksum {
		result.Action = ActionUnchanged
		return placement{result: result, record: pc, ok: true}
	}

	p := e.place(tx, res, pkg, rec, c, rendered, &pc)
	if !p.ok {
		p.record = markFailed(pc)
		p.ok = true
	}
	return p
}

// dropComponent handles a component the new version no longer has. Its
// file stays unless prune is set and the file still holds what was
// installed.
func dropComponent(pc ledger.ComponentRecord, prune bool) ComponentResult {
	result := ComponentResult{Type: pc.Type, Name: pc.Name, Action: ActionRemoved, Path: pc.InstalledPath}
	switch {
	case !pc.Owned():
		result.Detail = "untracked file left on disk"
		return result
	case !prune:
		result.Detail = "left on disk"
		return result
	}

	state, _, err := conflict.Detect(pc.InstalledPath, pc.Checksum)
	if err != nil {
		return failed(result, &conflict.ComponentWriteError{Path: pc.InstalledPath, Op: "prune", Err: err})
	}
	switch state {
	case conflict.StateAbsent:
		result.Detail = "file already absent"
	case conflict.StateOwned:
		if err := os.Remove(pc.InstalledPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return failed(result, &conflict.ComponentWriteError{Path: pc.InstalledPath, Op: "prune", Err: err})
		}
		removeEmptyDir(pc.InstalledPath)
		result.Detail = "deleted"
	default:
		result.Detail = "locally modified file left on disk"
	}
	return result
}
