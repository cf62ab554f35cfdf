package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentx-labs/aipkg/internal/conflict"
	"github.com/agentx-labs/aipkg/internal/integrations"
	"github.com/agentx-labs/aipkg/internal/ledger"
	"github.com/agentx-labs/aipkg/internal/manifest"
	"github.com/agentx-labs/aipkg/internal/platform"
)

// fixture is a project directory with a project-scope ledger and engine.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	root   string
	ledger *ledger.Ledger
	engine *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	l := ledger.New(filepath.Join(root, ".aipkg", "installed.json"), ledger.ScopeProject, ledger.WithLockTimeout(time.Second))
	return &fixture{
		t:      t,
		ctx:    context.Background(),
		root:   root,
		ledger: l,
		engine: New(l, integrations.NewTranslator(root)),
	}
}

// componentFile returns the source file used for a component type.
func componentFile(typ, name string) string {
	switch typ {
	case "hook":
		return "hooks/" + name + ".sh"
	case "mcp_server":
		return "mcp/" + name + ".json"
	case "resource":
		return "assets/" + name + ".txt"
	default:
		return typ + "s/" + name + ".md"
	}
}

// makePackage writes a package whose components are given as
// "type/name" -> content and loads it.
func makePackage(t *testing.T, namespace, name, version string, comps map[string]string) *manifest.Package {
	t.Helper()
	dir := t.TempDir()

	ids := make([]string, 0, len(comps))
	for id := range comps {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sections := make(map[string][]string)
	for _, id := range ids {
		typ, cname, ok := strings.Cut(id, "/")
		require.True(t, ok, "component id %q", id)
		ct, ok := manifest.ParseComponentType(typ)
		require.True(t, ok, "component type %q", typ)

		file := componentFile(typ, cname)
		path := filepath.Join(dir, filepath.FromSlash(file))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(comps[id]), 0o644))

		entry := fmt.Sprintf("    - name: %s\n      file: %s\n", cname, file)
		switch ct {
		case manifest.TypeHook:
			entry += "      hook_type: post_tool_use\n"
		case manifest.TypeCommand:
			entry += "      command_type: slash\n"
		}
		sections[ct.Section()] = append(sections[ct.Section()], entry)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\nnamespace: %s\nversion: %s\n", name, namespace, version)
	if len(sections) > 0 {
		b.WriteString("components:\n")
		for _, ct := range manifest.ComponentTypes() {
			entries := sections[ct.Section()]
			if len(entries) == 0 {
				continue
			}
			fmt.Fprintf(&b, "  %s:\n", ct.Section())
			for _, e := range entries {
				b.WriteString(e)
			}
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aipkg.yaml"), []byte(b.String()), 0o644))

	pkg, err := manifest.Load(dir)
	require.NoError(t, err)
	return pkg
}

func (f *fixture) install(pkg *manifest.Package, strategy conflict.Strategy) *Report {
	f.t.Helper()
	r, err := f.engine.Install(f.ctx, pkg, InstallOptions{IDE: integrations.ClaudeCode, Strategy: strategy})
	require.NoError(f.t, err)
	return r
}

func (f *fixture) update(pkg *manifest.Package, opts UpdateOptions) *Report {
	f.t.Helper()
	r, err := f.engine.Update(f.ctx, pkg, opts)
	require.NoError(f.t, err)
	return r
}

// path returns the claude-code install path of an instruction.
func (f *fixture) instructionPath(namespace, name string) string {
	return filepath.Join(f.root, ".claude", "rules", namespace, name+".md")
}

func (f *fixture) record(namespace, name string) (*ledger.Record, bool) {
	f.t.Helper()
	var rec *ledger.Record
	var ok bool
	require.NoError(f.t, f.ledger.View(f.ctx, func(tx *ledger.Tx) error {
		rec, ok = tx.Get(namespace, name)
		return nil
	}))
	return rec, ok
}

func (f *fixture) component(namespace, name, typ, cname string) ledger.ComponentRecord {
	f.t.Helper()
	rec, ok := f.record(namespace, name)
	require.True(f.t, ok, "no record for %s/%s", namespace, name)
	c, ok := rec.Component(typ, cname)
	require.True(f.t, ok, "no component %s/%s in %s/%s", typ, cname, namespace, name)
	return c
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func checksum(s string) string {
	return platform.Checksum([]byte(s))
}

func actions(r *Report) map[string]Action {
	out := make(map[string]Action, len(r.Components))
	for _, c := range r.Components {
		out[c.ID()] = c.Action
	}
	return out
}
