package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/agentx-labs/aipkg/internal/logging"
)

// UninstallOptions controls an uninstall.
type UninstallOptions struct {
	// Components limits the uninstall to matching components. A pattern
	// containing "/" matches "type/name", any other pattern matches the
	// name alone. Patterns use doublestar syntax. Empty means all.
	Components []string
}

// Uninstall deletes the files of the selected components of a package and
// drops them from the ledger. Files the engine never wrote are left in
// place. The record is deleted once no components remain.
func (e *Engine) Uninstall(ctx context.Context, namespace, name string, opts UninstallOptions) (*Report, error) {
	done := logging.LogOperationStart(e.log, "uninstall")
	defer done()

	key := ledger.Key{Namespace: namespace, Name: name, Scope: e.ledger.Scope()}
	report := &Report{Operation: "uninstall", Package: key.String(), Scope: key.Scope}

	err := e.ledger.Update(ctx, func(tx *ledger.Tx) error {
		report.Components = nil
		rec, ok := tx.Get(namespace, name)
		if !ok {
			return notInstalled(tx, key)
		}
		report.IDE = rec.IDEType
		report.FromVersion = rec.Version

		targets, err := selectComponents(key, rec.Components, opts.Components)
		if err != nil {
			return err
		}
		for _, c := range targets {
			result := removeComponent(c)
			report.add(result)
			if result.Action != ActionFailed {
				rec.RemoveComponent(c.Type, c.Name)
			}
		}

		if len(rec.Components) == 0 {
			tx.Delete(namespace, name)
			return nil
		}
		rec.UpdatedAt = e.ledger.Now()
		rec.Status = recordStatus(rec)
		tx.Upsert(rec)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("package", key.String()).Str("summary", report.Summary()).Msg("Uninstall finished")
	return report, nil
}

// selectComponents returns the components matching any pattern, in record
// order. Every pattern must match at least one component.
func selectComponents(key ledger.Key, comps []ledger.ComponentRecord, patterns []string) ([]ledger.ComponentRecord, error) {
	if len(patterns) == 0 {
		return append([]ledger.ComponentRecord(nil), comps...), nil
	}
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid component pattern %q", p)
		}
	}

	used := make(map[string]bool)
	var out []ledger.ComponentRecord
	for _, c := range comps {
		for _, p := range patterns {
			if matchComponent(p, c) {
				used[p] = true
				out = append(out, c)
				break
			}
		}
	}
	for _, p := range patterns {
		if !used[p] && !matchesAny(p, comps) {
			return nil, fmt.Errorf("no component of %s matches %q", key, p)
		}
	}
	return out, nil
}

func matchesAny(p string, comps []ledger.ComponentRecord) bool {
	for _, c := range comps {
		if matchComponent(p, c) {
			return true
		}
	}
	return false
}

func matchComponent(pattern string, c ledger.ComponentRecord) bool {
	subject := c.Name
	if strings.Contains(pattern, "/") {
		subject = c.ID()
	}
	ok, err := doublestar.Match(pattern, subject)
	return err == nil && ok
}

// removeComponent deletes the file of one component if the engine wrote it.
func removeComponent(c ledger.ComponentRecord) ComponentResult {
	result := ComponentResult{Type: c.Type, Name: c.Name, Path: c.InstalledPath}
	if !c.Owned() {
		result.Action = ActionKept
		result.Detail = "file predates the install; left on disk"
		return result
	}

	err := os.Remove(c.InstalledPath)
	switch {
	case err == nil:
		result.Action = ActionRemoved
		removeEmptyDir(c.InstalledPath)
	case errors.Is(err, fs.ErrNotExist):
		result.Action = ActionAlreadyAbsent
	default:
		return failed(result, &conflict.ComponentWriteError{Path: c.InstalledPath, Op: "remove", Err: err})
	}
	return result
}

// removeEmptyDir removes the namespace directory holding path once it is
// empty. Non-empty directories are left alone.
func removeEmptyDir(path string) {
	_ = os.Remove(filepath.Dir(path))
}
