package engine

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/integrations"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/agentx-labs/aipkg/internal/manifest"
)

// Engine performs package operations against one scope's ledger.
type Engine struct {
	ledger     *ledger.Ledger
	translator integrations.Translator
	log        zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.log = logger }
}

// New returns an engine writing through translator and tracking
// installations in l.
func New(l *ledger.Ledger, translator integrations.Translator, opts ...Option) *Engine {
	e := &Engine{ledger: l, translator: translator, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ledger returns the ledger the engine operates on.
func (e *Engine) Ledger() *ledger.Ledger { return e.ledger }

// placement is the result of writing one component.
type placement struct {
	result ComponentResult
	record ledger.ComponentRecord
	// ok is false when the component failed and has nothing new to record.
	ok bool
}

// place writes rendered content for c through the conflict resolver. rec is
// the package record being built and prev the component's entry in it, if
// any; a file the engine wrote before is rewritten where it lives so
// renamed copies stay tracked.
func (e *Engine) place(tx *ledger.Tx, res *conflict.Resolver, pkg *manifest.Package, rec *ledger.Record, c manifest.Component, rendered integrations.Rendered, prev *ledger.ComponentRecord) placement {
	result := ComponentResult{Type: string(c.Type), Name: c.Name}
	fail := func(err error) placement {
		return placement{result: failed(result, err)}
	}

	target := rendered.Path
	if prev != nil && prev.Owned() && prev.InstalledPath != "" {
		target = prev.InstalledPath
	}
	result.Path = target

	own := ownerOf(tx, pkg, rec, c, target)
	out, err := res.Apply(target, rendered.Content, rendered.Mode, own.checksum)
	if err != nil {
		return fail(err)
	}

	cr := ledger.ComponentRecord{
		Type:          string(c.Type),
		Name:          c.Name,
		InstalledPath: out.Path,
		Checksum:      out.Checksum,
	}
	result.Path = out.Path

	switch out.Action {
	case conflict.ActionWrote:
		cr.Status = ledger.StatusInstalled
		result.Action = ActionInstalled
		if prev != nil {
			result.Action = ActionUpdated
		}
		if out.State.Conflicting() {
			result.Detail = fmt.Sprintf("%s file overwritten", stateLabel(out.State))
		}
		switch {
		case own.other != nil:
			disown(tx, own.other, target)
			result.Detail = fmt.Sprintf("taken over from %s", own.other.Key())
		case own.sibling != "":
			disownComponent(rec, target)
			result.Detail = fmt.Sprintf("taken over from %s", own.sibling)
		}
	case conflict.ActionRenamed:
		cr.Status = ledger.StatusRenamed
		result.Action = ActionRenamed
		result.Detail = fmt.Sprintf("%s file kept at %s", stateLabel(out.State), target)
	case conflict.ActionSkipped:
		cr.Status = ledger.StatusSkipped
		result.Action = ActionSkipped
		result.Detail = fmt.Sprintf("%s file left untouched", stateLabel(out.State))
	default:
		return fail(fmt.Errorf("unexpected conflict outcome %q", out.Action))
	}

	e.log.Debug().
		Str("package", pkg.ID()).
		Str("component", c.ID()).
		Str("state", string(out.State)).
		Str("action", string(result.Action)).
		Str("path", out.Path).
		Msg("Component placed")
	return placement{result: result, record: cr, ok: true}
}

func failed(r ComponentResult, err error) ComponentResult {
	r.Action = ActionFailed
	r.Err = err
	r.Detail = err.Error()
	return r
}

// ownership says who holds the file at a target path.
type ownership struct {
	// checksum is set only when the component being placed owns the file.
	checksum string
	// sibling names another component of the same package that owns it.
	sibling string
	// other is the record of another package that owns it.
	other *ledger.Record
}

// ownerOf resolves the owner of path for component c of pkg. A file only
// counts as owned when c itself wrote it: files held by sibling components
// or by other packages are foreign to c.
func ownerOf(tx *ledger.Tx, pkg *manifest.Package, rec *ledger.Record, c manifest.Component, path string) ownership {
	for _, rc := range rec.Components {
		if !rc.Owned() || filepath.Clean(rc.InstalledPath) != filepath.Clean(path) {
			continue
		}
		if rc.Type == string(c.Type) && rc.Name == c.Name {
			return ownership{checksum: rc.Checksum}
		}
		return ownership{sibling: rc.ID()}
	}
	owner, _, ok := tx.Owner(path)
	if !ok || (owner.Namespace == pkg.Namespace() && owner.PackageName == pkg.Name()) {
		return ownership{}
	}
	return ownership{other: owner}
}

// disown drops another record's claim on path after it was overwritten.
// The component stays listed but is no longer deleted on uninstall.
func disown(tx *ledger.Tx, owner *ledger.Record, path string) {
	r, ok := tx.Get(owner.Namespace, owner.PackageName)
	if !ok {
		return
	}
	disownComponent(r, path)
	tx.Upsert(r)
}

// disownComponent clears the claims of r's components on path.
func disownComponent(r *ledger.Record, path string) {
	for i, c := range r.Components {
		if c.Owned() && filepath.Clean(c.InstalledPath) == filepath.Clean(path) {
			r.Components[i].Checksum = ""
			r.Components[i].Status = ledger.StatusSkipped
		}
	}
	r.Status = recordStatus(r)
}

func stateLabel(s conflict.State) string {
	switch s {
	case conflict.StateForeign:
		return "untracked"
	case conflict.StateUserModified:
		return "locally modified"
	default:
		return string(s)
	}
}

// recordStatus is partial when any component is not in place.
func recordStatus(r *ledger.Record) string {
	for _, c := range r.Components {
		if c.Status == ledger.StatusSkipped || c.Status == ledger.StatusFailed {
			return ledger.RecordPartial
		}
	}
	return ledger.RecordInstalled
}

// markFailed flags a previously recorded component whose rewrite failed.
// The recorded checksum still describes the file on disk.
func markFailed(prev ledger.ComponentRecord) ledger.ComponentRecord {
	prev.Status = ledger.StatusFailed
	return prev
}

// wantedComponents returns the components of pkg the IDE supports,
// restricted to types when it is non-empty.
func (e *Engine) wantedComponents(pkg *manifest.Package, ide integrations.ToolName, types []manifest.ComponentType) []manifest.Component {
	allowed := make(map[manifest.ComponentType]bool)
	for _, t := range types {
		allowed[t] = true
	}
	var out []manifest.Component
	for _, c := range pkg.Components() {
		if len(allowed) > 0 && !allowed[c.Type] {
			continue
		}
		if !e.translator.Supports(ide, c.Type) {
			if allowed[c.Type] {
				e.log.Warn().Str("ide", string(ide)).Str("type", string(c.Type)).Msg("Component type not supported by IDE")
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

// mergeTypes returns the type filter to record after an install restricted
// to requested. A package installed with every type stays that way.
func mergeTypes(recorded []string, requested []manifest.ComponentType, exists bool) []string {
	if len(requested) == 0 || (exists && len(recorded) == 0) {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range recorded {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, t := range requested {
		if !seen[string(t)] {
			seen[string(t)] = true
			out = append(out, string(t))
		}
	}
	sort.Strings(out)
	return out
}

// recordedTypes converts a recorded type filter back to component types.
func recordedTypes(names []string) []manifest.ComponentType {
	var types []manifest.ComponentType
	for _, n := range names {
		if t, ok := manifest.ParseComponentType(n); ok {
			types = append(types, t)
		}
	}
	return types
}
